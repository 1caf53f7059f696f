// Package restxml implements the rest-xml protocol family (S3 and similar
// services): location-routed input like rest-json, but with an XML body
// instead of JSON, and XML error documents.
package restxml

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/shape"
)

func init() {
	protocol.Register("rest-xml", restXML{})
}

type restXML struct{}

func (restXML) BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*protocol.Request, error) {
	sh := svc.Shape(op.InputShape)
	m, _ := input.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}
	remaining := make(map[string]bool, len(m))
	for k := range m {
		remaining[k] = true
	}

	var path, query string
	var err error
	header := http.Header{}
	if sh != nil {
		path, err = protocol.BuildURIPath(svc, op.HTTPRequestURI, sh, m, remaining)
		if err != nil {
			return nil, err
		}
		query, err = protocol.BuildQueryString(svc, sh, m, remaining)
		if err != nil {
			return nil, err
		}
		if err := protocol.BuildHeaders(svc, sh, m, header, remaining); err != nil {
			return nil, err
		}
	} else {
		path = op.HTTPRequestURI
	}

	var body []byte
	if sh != nil {
		if payloadName := protocol.PayloadMember(sh); payloadName != "" {
			payloadShape := svc.MemberShape(sh.Members[payloadName])
			raw, present := m[payloadName]
			if present {
				switch payloadShape.Kind {
				case model.KindBlob:
					b, _ := raw.([]byte)
					body = b
				case model.KindString:
					s, _ := raw.(string)
					body = []byte(s)
				default:
					payloadShapeName := sh.Members[payloadName].ShapeName
					b, err := shape.EncodeXML(svc, payloadShapeName, payloadShapeName, raw)
					if err != nil {
						return nil, err
					}
					body = b
				}
			}
		} else if len(remaining) > 0 || bodyHasRootMembers(sh) {
			bodyFields := map[string]interface{}{}
			hasAny := false
			for name := range sh.Members {
				if v, present := m[name]; present && sh.Members[name].Location == "" {
					bodyFields[name] = v
					hasAny = true
				}
			}
			if hasAny {
				b, err := shape.EncodeXML(svc, op.InputShape, op.InputShape, bodyFields)
				if err != nil {
					return nil, err
				}
				body = b
			}
		}
	}

	if len(body) > 0 {
		header.Set("Content-Type", "application/xml")
	}

	return &protocol.Request{
		Method: op.HTTPMethod,
		Path:   path,
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

func bodyHasRootMembers(sh *model.Shape) bool {
	for _, m := range sh.Members {
		if m.Location == "" {
			return true
		}
	}
	return false
}

func (restXML) ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error) {
	sh := svc.Shape(op.OutputShape)
	if sh == nil {
		return map[string]interface{}{}, nil
	}
	out := map[string]interface{}{}
	if err := protocol.ParseHeaderMembers(svc, sh, header, out); err != nil {
		return nil, err
	}
	if name := protocol.StatusCodeMember(sh); name != "" {
		out[name] = int64(status)
	}

	if payloadName := protocol.PayloadMember(sh); payloadName != "" {
		payloadShape := svc.MemberShape(sh.Members[payloadName])
		switch payloadShape.Kind {
		case model.KindBlob:
			out[payloadName] = body
		case model.KindString:
			out[payloadName] = string(body)
		default:
			payloadShapeName := sh.Members[payloadName].ShapeName
			decoded, err := shape.DecodeXML(svc, payloadShapeName, body)
			if err != nil {
				return nil, err
			}
			out[payloadName] = decoded
		}
		return out, nil
	}

	if len(body) > 0 {
		decoded, err := shape.DecodeXML(svc, op.OutputShape, body)
		if err != nil {
			return nil, fmt.Errorf("restxml: decode body: %w", err)
		}
		if decodedMap, ok := decoded.(map[string]interface{}); ok {
			for k, v := range decodedMap {
				out[k] = v
			}
		}
	}
	return out, nil
}

func (restXML) ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *protocol.ErrorInfo {
	info := &protocol.ErrorInfo{StatusCode: status}
	node, err := parseErrorXML(body)
	if err == nil && node != nil {
		info.Code = node["Code"]
		info.Message = node["Message"]
	}
	return info
}

// parseErrorXML extracts Code/Message from S3's <Error> document without
// going through the full shape-driven decoder, since error shapes aren't
// modeled members.
func parseErrorXML(body []byte) (map[string]string, error) {
	type errDoc struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
	body = shape.StripBOM(body)
	if len(body) == 0 {
		return nil, nil
	}
	var doc errDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return map[string]string{"Code": doc.Code, "Message": doc.Message}, nil
}
