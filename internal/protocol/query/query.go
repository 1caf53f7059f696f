// Package query implements AWS's classic "query" protocol family (STS and
// other long-standing services): input is a POST-form body of
// Action=<op>&Version=<apiVersion>&<member>=<value>... pairs, dot-indexed
// for lists/structures; responses are XML documents wrapped in a
// "<Op>Response"/"<Op>Result" envelope.
package query

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
	protocol.Register("query", queryProto{})
}

type queryProto struct{}

func (queryProto) BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*protocol.Request, error) {
	m, _ := input.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}
	form := url.Values{}
	form.Set("Action", op.Name)
	if svc.Metadata.APIVersion != "" {
		form.Set("Version", svc.Metadata.APIVersion)
	}

	sh := svc.Shape(op.InputShape)
	if sh != nil {
		if err := flattenQueryMember(svc, sh, "", m, form); err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	return &protocol.Request{
		Method: "POST",
		Path:   "/",
		Header: header,
		Body:   []byte(encodeFormSorted(form)),
	}, nil
}

// flattenQueryMember renders a structure's members into dot-indexed query
// keys under prefix, recursing into nested lists/structures/maps.
func flattenQueryMember(svc *model.Service, sh *model.Shape, prefix string, v interface{}, form url.Values) error {
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
		memberShape := svc.MemberShape(member)
		if err := flattenQueryValue(svc, memberShape, key, raw, form); err != nil {
			return err
		}
	}
	return nil
}

func flattenQueryValue(svc *model.Service, sh *model.Shape, key string, v interface{}, form url.Values) error {
	switch sh.Kind {
	case model.KindStructure:
		return flattenQueryMember(svc, sh, key, v, form)
	case model.KindList:
		list, _ := v.([]interface{})
		elemShape := svc.MemberShape(sh.ListMember)
		for i, elem := range list {
			itemKey := fmt.Sprintf("%s.member.%d", key, i+1)
			if err := flattenQueryValue(svc, elemShape, itemKey, elem, form); err != nil {
				return err
			}
		}
		return nil
	case model.KindMap:
		m, _ := v.(map[string]interface{})
		valueShape := svc.MemberShape(sh.MapValue)
		i := 1
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entryPrefix := fmt.Sprintf("%s.entry.%d", key, i)
			form.Set(entryPrefix+".key", k)
			if err := flattenQueryValue(svc, valueShape, entryPrefix+".value", m[k], form); err != nil {
				return err
			}
			i++
		}
		return nil
	default:
		s, err := shape.ToWireString(sh, v, "query", "")
		if err != nil {
			return err
		}
		form.Set(key, s)
		return nil
	}
}

func encodeFormSorted(form url.Values) string {
	return form.Encode()
}

func (queryProto) ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error) {
	if op.OutputShape == "" || len(body) == 0 {
		return map[string]interface{}{}, nil
	}
	decoded, err := shape.DecodeXML(svc, op.OutputShape, body)
	if err != nil {
		return nil, fmt.Errorf("query: decode body: %w", err)
	}
	return decoded, nil
}

func (queryProto) ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *protocol.ErrorInfo {
	info := &protocol.ErrorInfo{StatusCode: status}
	if code, msg, ok := parseQueryErrorXML(body); ok {
		info.Code = code
		info.Message = msg
	}
	return info
}

// parseQueryErrorXML extracts the nested <Error><Code>/<Message> pair out
// of the classic query-protocol error envelope:
// <ErrorResponse><Error><Code/><Message/></Error></ErrorResponse>.
func parseQueryErrorXML(body []byte) (code, message string, ok bool) {
	s := string(body)
	code = extractBetween(s, "<Code>", "</Code>")
	message = extractBetween(s, "<Message>", "</Message>")
	return code, message, code != "" || message != ""
}

func extractBetween(s, start, end string) string {
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
