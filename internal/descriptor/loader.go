// Package descriptor loads a service descriptor: the JSON document listing
// a service's operations and shape graph. This is the collaborator spec.md
// §1 calls "mechanical" but still has to exist for the engine to run; it is
// deliberately thin — a JSON unmarshal plus a reshape into internal/model
// types, with no behaviour of its own.
package descriptor

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/nyaws/awsclient/internal/model"
)

//go:embed testdata/*.json
var bundled embed.FS

// Load reads the descriptor for api from the bundled test descriptors. Use
// LoadFS to load from an arbitrary resource root, matching spec.md §6's "a
// known resource root" contract.
func Load(api string) (*model.Service, error) {
	return LoadFS(bundled, "testdata", api)
}

// LoadFS reads "<root>/<api>.json" from fsys and parses it into a
// model.Service. The content schema matches AWS SDK model files: a
// metadata object, an operations map, and a shapes map.
func LoadFS(fsys fs.FS, root, api string) (*model.Service, error) {
	path := root + "/" + api + ".json"
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: load %q: %w", api, err)
	}

	var raw rawService
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("descriptor: parse %q: %w", api, err)
	}

	return convert(api, &raw)
}

func convert(api string, raw *rawService) (*model.Service, error) {
	svc := &model.Service{
		ID: api,
		Metadata: model.Metadata{
			Protocol:         raw.Metadata.Protocol,
			SignatureVersion: raw.Metadata.SignatureVersion,
			EndpointPrefix:   raw.Metadata.EndpointPrefix,
			SigningName:      raw.Metadata.SigningName,
			TargetPrefix:     raw.Metadata.TargetPrefix,
			JSONVersion:      raw.Metadata.JSONVersion,
			APIVersion:       raw.Metadata.APIVersion,
			ServiceID:        raw.Metadata.ServiceID,
			ServiceFullName:  raw.Metadata.ServiceFullName,
			UID:              raw.Metadata.UID,
			GlobalEndpoint:   raw.Metadata.GlobalEndpoint,
		},
		Operations: make(map[string]*model.Operation, len(raw.Operations)),
		Shapes:     make(map[string]*model.Shape, len(raw.Shapes)),
	}
	if svc.Metadata.Protocol == "" {
		return nil, fmt.Errorf("descriptor: %q: missing metadata.protocol", api)
	}

	for name, rs := range raw.Shapes {
		shape, err := convertShape(name, rs)
		if err != nil {
			return nil, err
		}
		svc.Shapes[name] = shape
	}

	for name, op := range raw.Operations {
		converted := &model.Operation{
			Name:           name,
			HTTPMethod:     op.HTTP.Method,
			HTTPRequestURI: op.HTTP.RequestURI,
			Documentation:  op.Documentation,
		}
		if converted.HTTPMethod == "" {
			converted.HTTPMethod = "POST"
		}
		if converted.HTTPRequestURI == "" {
			converted.HTTPRequestURI = "/"
		}
		if op.Input != nil {
			converted.InputShape = op.Input.Shape
		}
		if op.Output != nil {
			converted.OutputShape = op.Output.Shape
		}
		for _, e := range op.Errors {
			converted.ErrorShapes = append(converted.ErrorShapes, e.Shape)
		}
		if in := svc.Shapes[converted.InputShape]; in != nil {
			converted.RequiredInput = in.Required
		}
		svc.Operations[name] = converted
	}

	return svc, nil
}

func convertMember(m rawMember) *model.Member {
	return &model.Member{
		ShapeName:     m.Shape,
		Location:      m.Location,
		LocationName:  m.LocationName,
		Documentation: m.Documentation,
	}
}

func convertShape(name string, rs rawShape) (*model.Shape, error) {
	kind := model.ShapeKind(rs.Type)
	shape := &model.Shape{
		Kind:            kind,
		Required:        rs.Required,
		Payload:         rs.Payload,
		Flattened:       rs.Flattened,
		Enum:            rs.Enum,
		Pattern:         rs.Pattern,
		TimestampFormat: rs.Timestamp,
	}

	switch kind {
	case model.KindStructure:
		shape.Members = make(map[string]*model.Member, len(rs.Members))
		for memberName, m := range rs.Members {
			shape.Members[memberName] = convertMember(m)
		}
		if len(rs.MemberOrder) > 0 {
			shape.MemberOrder = rs.MemberOrder
		} else {
			for memberName := range rs.Members {
				shape.MemberOrder = append(shape.MemberOrder, memberName)
			}
		}
	case model.KindList:
		if rs.Member == nil {
			return nil, fmt.Errorf("descriptor: shape %q: list missing member", name)
		}
		shape.ListMember = convertMember(*rs.Member)
	case model.KindMap:
		if rs.Key == nil || rs.Value == nil {
			return nil, fmt.Errorf("descriptor: shape %q: map missing key/value", name)
		}
		shape.MapKey = convertMember(*rs.Key)
		shape.MapValue = convertMember(*rs.Value)
	case "":
		return nil, fmt.Errorf("descriptor: shape %q: missing type", name)
	}

	return shape, nil
}
