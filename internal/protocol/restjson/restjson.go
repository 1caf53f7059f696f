// Package restjson implements the rest-json protocol family (Lambda,
// API Gateway, and similar services): operation input is routed across
// URI, querystring, header and a JSON body per member location, mirroring
// the location-routing rules shared with rest-xml.
package restjson

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/shape"
)

func init() {
	protocol.Register("rest-json", restJSON{})
}

type restJSON struct{}

func (restJSON) BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*protocol.Request, error) {
	sh := svc.Shape(op.InputShape)
	m, _ := input.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}
	remaining := make(map[string]bool, len(m))
	for k := range m {
		remaining[k] = true
	}

	if sh != nil {
		for name := range sh.Members {
			if _, present := m[name]; present {
				continue
			}
			remaining[name] = false
		}
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
					b, err := encodeBody(svc, payloadShapeName, raw)
					if err != nil {
						return nil, err
					}
					body = b
				}
			}
		} else {
			bodyFields := map[string]interface{}{}
			for name := range remaining {
				if v, present := m[name]; present {
					bodyFields[name] = v
				}
			}
			if len(bodyFields) > 0 || len(sh.Members) == 0 {
				encoded, err := encodeBody(svc, op.InputShape, bodyFields)
				if err != nil {
					return nil, err
				}
				body = encoded
			}
		}
	}

	if len(body) > 0 {
		header.Set("Content-Type", "application/json")
	}

	return &protocol.Request{
		Method: op.HTTPMethod,
		Path:   path,
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

func encodeBody(svc *model.Service, shapeName string, fields map[string]interface{}) ([]byte, error) {
	encoded, err := shape.EncodeJSON(svc, shapeName, fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(encoded)
}

func (restJSON) ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error) {
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
			decoded, err := decodeBody(svc, payloadShape, body)
			if err != nil {
				return nil, err
			}
			out[payloadName] = decoded
		}
		return out, nil
	}

	if len(body) > 0 {
		var raw interface{}
		if err := json.Unmarshal(shape.StripBOM(body), &raw); err != nil {
			return nil, fmt.Errorf("restjson: decode body: %w", err)
		}
		decoded, err := shape.DecodeJSON(svc, op.OutputShape, raw)
		if err != nil {
			return nil, err
		}
		if decodedMap, ok := decoded.(map[string]interface{}); ok {
			for k, v := range decodedMap {
				out[k] = v
			}
		}
	}
	return out, nil
}

func decodeBody(svc *model.Service, sh *model.Shape, body []byte) (interface{}, error) {
	var raw interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(shape.StripBOM(body), &raw); err != nil {
			return nil, err
		}
	}
	return shapeDecode(svc, sh, raw)
}

func shapeDecode(svc *model.Service, sh *model.Shape, raw interface{}) (interface{}, error) {
	for name, s := range svc.Shapes {
		if s == sh {
			return shape.DecodeJSON(svc, name, raw)
		}
	}
	return raw, nil
}

// ParseError pulls the service error code and message out of whatever shape
// the body happens to be in: different rest-json services spell these
// fields differently ("code" vs "__type", "message" vs "Message"), so a
// fixed struct would need one field per spelling. gjson.GetMany lets us
// probe all the candidate paths at once without committing to a schema.
func (restJSON) ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *protocol.ErrorInfo {
	info := &protocol.ErrorInfo{StatusCode: status}
	if code := header.Get("X-Amzn-ErrorType"); code != "" {
		info.Code = strings.SplitN(code, ":", 2)[0]
	}
	body = shape.StripBOM(body)
	if len(body) > 0 && gjson.ValidBytes(body) {
		results := gjson.GetManyBytes(body, "code", "__type", "message", "Message")
		if info.Code == "" {
			if results[0].Exists() {
				info.Code = results[0].String()
			} else if results[1].Exists() {
				info.Code = results[1].String()
			}
		}
		if results[2].Exists() {
			info.Message = results[2].String()
		} else if results[3].Exists() {
			info.Message = results[3].String()
		}
	}
	if info.Code == "" {
		info.Code = strconv.Itoa(status)
	}
	return info
}
