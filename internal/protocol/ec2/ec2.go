// Package ec2 implements the ec2 protocol family: a query-protocol sibling
// used only by the EC2 service, differing in that list members are
// indexed directly as "Key.N" rather than "Key.member.N".
package ec2

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/shape"
)

func init() {
	protocol.Register("ec2", ec2Proto{})
}

type ec2Proto struct{}

func (ec2Proto) BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*protocol.Request, error) {
	m, _ := input.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}
	form := url.Values{}
	form.Set("Action", op.Name)
	if svc.Metadata.APIVersion != "" {
		form.Set("Version", svc.Metadata.APIVersion)
	}

	if sh := svc.Shape(op.InputShape); sh != nil {
		if err := flatten(svc, sh, "", m, form); err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	return &protocol.Request{
		Method: "POST",
		Path:   "/",
		Header: header,
		Body:   []byte(form.Encode()),
	}, nil
}

func flatten(svc *model.Service, sh *model.Shape, prefix string, v interface{}, form url.Values) error {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	for _, name := range sh.MemberOrder {
		member := sh.Members[name]
		raw, present := m[name]
		if !present || raw == nil {
			continue
		}
		key := member.LocationName
		if key == "" {
			key = name
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if err := flattenValue(svc, svc.MemberShape(member), key, raw, form); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(svc *model.Service, sh *model.Shape, key string, v interface{}, form url.Values) error {
	switch sh.Kind {
	case model.KindStructure:
		return flatten(svc, sh, key, v, form)
	case model.KindList:
		list, _ := v.([]interface{})
		elemShape := svc.MemberShape(sh.ListMember)
		for i, elem := range list {
			if err := flattenValue(svc, elemShape, fmt.Sprintf("%s.%d", key, i+1), elem, form); err != nil {
				return err
			}
		}
		return nil
	case model.KindMap:
		m, _ := v.(map[string]interface{})
		valueShape := svc.MemberShape(sh.MapValue)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			entry := fmt.Sprintf("%s.%d", key, i+1)
			form.Set(entry+".Key", k)
			if err := flattenValue(svc, valueShape, entry+".Value", m[k], form); err != nil {
				return err
			}
		}
		return nil
	default:
		s, err := shape.ToWireString(sh, v, "ec2", "")
		if err != nil {
			return err
		}
		form.Set(key, s)
		return nil
	}
}

func (ec2Proto) ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error) {
	if op.OutputShape == "" || len(body) == 0 {
		return map[string]interface{}{}, nil
	}
	decoded, err := shape.DecodeXML(svc, op.OutputShape, body)
	if err != nil {
		return nil, fmt.Errorf("ec2: decode body: %w", err)
	}
	return decoded, nil
}

func (ec2Proto) ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *protocol.ErrorInfo {
	info := &protocol.ErrorInfo{StatusCode: status}
	info.Code = between(string(body), "<Code>", "</Code>")
	info.Message = between(string(body), "<Message>", "</Message>")
	return info
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	i += len(start)
	j := strings.Index(s[i:], end)
	if j < 0 {
		return ""
	}
	return s[i : i+j]
}
