package shape

import (
	"fmt"
	"time"

	"github.com/nyaws/awsclient/internal/model"
)

// EncodeJSON walks v (a structured value keyed by member name) according to
// shapeName's shape graph and produces a tree of map[string]interface{} /
// []interface{} / leaf values ready for encoding/json.Marshal, applying
// each member's locationName. A structure member absent from v is omitted
// from the output entirely rather than written as a zero value; a whole
// shape value of nil (an absent optional member, an absent map/list)
// resolves to its kind's wire default (e.g. an empty object for a
// structure, an empty slice for a list).
func EncodeJSON(svc *model.Service, shapeName string, v interface{}) (interface{}, error) {
	sh := svc.Shape(shapeName)
	if sh == nil {
		return nil, fmt.Errorf("shape: unknown shape %q", shapeName)
	}
	return encodeJSONShape(svc, sh, v, svc.Metadata.Protocol)
}

func encodeJSONShape(svc *model.Service, sh *model.Shape, v interface{}, protocol string) (interface{}, error) {
	if v == nil {
		return defaultForShape(sh), nil
	}
	switch sh.Kind {
	case model.KindStructure:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected structure, got %T", v)
		}
		out := make(map[string]interface{}, len(sh.Members))
		for _, name := range sh.MemberOrder {
			member := sh.Members[name]
			raw, present := m[name]
			if !present {
				continue
			}
			memberShape := svc.MemberShape(member)
			encoded, err := encodeJSONShape(svc, memberShape, raw, protocol)
			if err != nil {
				return nil, fmt.Errorf("shape: member %s: %w", name, err)
			}
			wireName := member.LocationName
			if wireName == "" {
				wireName = name
			}
			out[wireName] = encoded
		}
		return out, nil
	case model.KindList:
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected list, got %T", v)
		}
		elemShape := svc.MemberShape(sh.ListMember)
		out := make([]interface{}, len(list))
		for i, elem := range list {
			encoded, err := encodeJSONShape(svc, elemShape, elem, protocol)
			if err != nil {
				return nil, fmt.Errorf("shape: element %d: %w", i, err)
			}
			out[i] = encoded
		}
		return out, nil
	case model.KindMap:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected map, got %T", v)
		}
		valueShape := svc.MemberShape(sh.MapValue)
		out := make(map[string]interface{}, len(m))
		for k, elem := range m {
			encoded, err := encodeJSONShape(svc, valueShape, elem, protocol)
			if err != nil {
				return nil, fmt.Errorf("shape: key %s: %w", k, err)
			}
			out[k] = encoded
		}
		return out, nil
	case model.KindBlob:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		return Base64Encode(b), nil
	case model.KindTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("shape: expected time.Time, got %T", v)
		}
		format := resolveFormat(sh, protocol, "")
		if format == "unixTimestamp" {
			return t.UTC().Unix(), nil
		}
		return formatTimestamp(t, format), nil
	default:
		return v, nil
	}
}

func defaultForShape(sh *model.Shape) interface{} {
	switch sh.Kind {
	case model.KindStructure:
		return map[string]interface{}{}
	case model.KindList:
		return []interface{}{}
	case model.KindMap:
		return map[string]interface{}{}
	default:
		return nil
	}
}

// DecodeJSON is the inverse of EncodeJSON: given a tree produced by
// encoding/json.Unmarshal (map[string]interface{}/[]interface{}/leaves) it
// remaps wire names back to member names and coerces leaves (numbers,
// base64 blobs, timestamps) to their Go shape representation. An absent or
// empty body against a structure shape yields an empty structure, not an
// error, per spec.md §4.2 and §8.
func DecodeJSON(svc *model.Service, shapeName string, raw interface{}) (interface{}, error) {
	sh := svc.Shape(shapeName)
	if sh == nil {
		return nil, fmt.Errorf("shape: unknown shape %q", shapeName)
	}
	return decodeJSONShape(svc, sh, raw)
}

func decodeJSONShape(svc *model.Service, sh *model.Shape, raw interface{}) (interface{}, error) {
	if raw == nil {
		return defaultForShape(sh), nil
	}
	switch sh.Kind {
	case model.KindStructure:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected JSON object, got %T", raw)
		}
		byWireName := make(map[string]string, len(sh.Members))
		for name, member := range sh.Members {
			wireName := member.LocationName
			if wireName == "" {
				wireName = name
			}
			byWireName[wireName] = name
		}
		out := make(map[string]interface{}, len(m))
		for wireName, rawVal := range m {
			name, ok := byWireName[wireName]
			if !ok {
				continue // unknown member: ignore, forward-compatible
			}
			memberShape := svc.MemberShape(sh.Members[name])
			decoded, err := decodeJSONShape(svc, memberShape, rawVal)
			if err != nil {
				return nil, fmt.Errorf("shape: member %s: %w", name, err)
			}
			out[name] = decoded
		}
		return out, nil
	case model.KindList:
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected JSON array, got %T", raw)
		}
		elemShape := svc.MemberShape(sh.ListMember)
		out := make([]interface{}, len(list))
		for i, elem := range list {
			decoded, err := decodeJSONShape(svc, elemShape, elem)
			if err != nil {
				return nil, fmt.Errorf("shape: element %d: %w", i, err)
			}
			out[i] = decoded
		}
		return out, nil
	case model.KindMap:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("shape: expected JSON object, got %T", raw)
		}
		valueShape := svc.MemberShape(sh.MapValue)
		out := make(map[string]interface{}, len(m))
		for k, elem := range m {
			decoded, err := decodeJSONShape(svc, valueShape, elem)
			if err != nil {
				return nil, fmt.Errorf("shape: key %s: %w", k, err)
			}
			out[k] = decoded
		}
		return out, nil
	case model.KindBlob:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("shape: expected base64 string, got %T", raw)
		}
		return Base64Decode(s)
	case model.KindTimestamp:
		switch n := raw.(type) {
		case float64:
			return time.Unix(int64(n), 0).UTC(), nil
		case string:
			return parseTimestamp(n)
		default:
			return nil, fmt.Errorf("shape: unexpected timestamp encoding %T", raw)
		}
	case model.KindInteger, model.KindLong:
		return toInt64(raw)
	case model.KindDouble, model.KindFloat:
		return toFloat64(raw)
	case model.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("shape: expected bool, got %T", raw)
		}
		return b, nil
	case model.KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("shape: expected string, got %T", raw)
		}
		return s, nil
	default:
		return raw, nil
	}
}
