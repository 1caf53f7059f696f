package protocol

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/shape"
)

// BuildURIPath substitutes {Member} and {Member+} placeholders in template
// using members located in "uri", consuming each substituted member out of
// remaining. A {Member+} placeholder is greedy: its value is inserted
// without escaping path separators, since it represents a multi-segment
// suffix (e.g. an S3 key); a bare {Member} escapes the value so it can
// never introduce an extra path segment.
func BuildURIPath(svc *model.Service, template string, sh *model.Shape, input map[string]interface{}, remaining map[string]bool) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '{' {
			out.WriteByte(template[i])
			i++
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("protocol: unterminated uri placeholder in %q", template)
		}
		token := template[i+1 : i+end]
		greedy := strings.HasSuffix(token, "+")
		name := strings.TrimSuffix(token, "+")

		member, ok := sh.Members[name]
		if !ok {
			return "", fmt.Errorf("protocol: uri placeholder %q has no member", name)
		}
		v, present := input[name]
		if !present || v == nil {
			return "", fmt.Errorf("protocol: required uri member %q is missing", name)
		}
		memberShape := svc.MemberShape(member)
		s, err := shape.ToWireString(memberShape, v, svc.Metadata.Protocol, "uri")
		if err != nil {
			return "", err
		}
		// Absorb a leading slash in the substituted value when the
		// template already emitted one, so "/{Foo+}/{Bar+}" with
		// Bar == "/d/e/f" doesn't produce a "//" in the output path.
		if strings.HasSuffix(out.String(), "/") {
			s = strings.TrimLeft(s, "/")
		}
		if greedy {
			out.WriteString(s)
		} else {
			out.WriteString(url.PathEscape(s))
		}

		i += end + 1
		delete(remaining, name)
	}
	return out.String(), nil
}

// BuildQueryString renders members located in "querystring" as a sorted,
// URI-encoded query string, consuming each out of remaining.
func BuildQueryString(svc *model.Service, sh *model.Shape, input map[string]interface{}, remaining map[string]bool) (string, error) {
	values := url.Values{}
	for name, member := range sh.Members {
		if member.Location != "querystring" {
			continue
		}
		v, present := input[name]
		if !present || v == nil {
			continue
		}
		memberShape := svc.MemberShape(member)
		key := member.LocationName
		if key == "" {
			key = name
		}
		if memberShape.Kind == model.KindList {
			elemShape := svc.MemberShape(memberShape.ListMember)
			list, _ := v.([]interface{})
			for _, elem := range list {
				s, err := shape.ToWireString(elemShape, elem, svc.Metadata.Protocol, "querystring")
				if err != nil {
					return "", err
				}
				values.Add(key, s)
			}
		} else {
			s, err := shape.ToWireString(memberShape, v, svc.Metadata.Protocol, "querystring")
			if err != nil {
				return "", err
			}
			values.Set(key, s)
		}
		delete(remaining, name)
	}
	if len(values) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&"), nil
}

// BuildHeaders renders members located in "header" (single value) and
// "headers" (a map shape flattened to a header-name prefix) into h,
// consuming each out of remaining.
func BuildHeaders(svc *model.Service, sh *model.Shape, input map[string]interface{}, h http.Header, remaining map[string]bool) error {
	for name, member := range sh.Members {
		v, present := input[name]
		if !present || v == nil {
			continue
		}
		memberShape := svc.MemberShape(member)
		switch member.Location {
		case "header":
			key := member.LocationName
			if key == "" {
				key = name
			}
			s, err := shape.ToWireString(memberShape, v, svc.Metadata.Protocol, "header")
			if err != nil {
				return err
			}
			h.Set(key, s)
			delete(remaining, name)
		case "headers":
			prefix := member.LocationName
			m, _ := v.(map[string]interface{})
			valueShape := svc.MemberShape(memberShape.MapValue)
			for k, elem := range m {
				s, err := shape.ToWireString(valueShape, elem, svc.Metadata.Protocol, "header")
				if err != nil {
					return err
				}
				h.Set(prefix+k, s)
			}
			delete(remaining, name)
		}
	}
	return nil
}

// ParseHeaderMembers is the inverse of BuildHeaders: it fills out[name] for
// every member located at "header" or "headers" present in h.
func ParseHeaderMembers(svc *model.Service, sh *model.Shape, h http.Header, out map[string]interface{}) error {
	for name, member := range sh.Members {
		memberShape := svc.MemberShape(member)
		switch member.Location {
		case "header":
			key := member.LocationName
			if key == "" {
				key = name
			}
			raw := h.Get(key)
			if raw == "" {
				continue
			}
			v, err := shape.FromWireString(memberShape, raw)
			if err != nil {
				return err
			}
			out[name] = v
		case "headers":
			prefix := strings.ToLower(member.LocationName)
			valueShape := svc.MemberShape(memberShape.MapValue)
			m := map[string]interface{}{}
			for k, vv := range h {
				lk := strings.ToLower(k)
				if !strings.HasPrefix(lk, prefix) {
					continue
				}
				v, err := shape.FromWireString(valueShape, vv[0])
				if err != nil {
					return err
				}
				m[strings.TrimPrefix(lk, prefix)] = v
			}
			if len(m) > 0 {
				out[name] = m
			}
		}
	}
	return nil
}

// PayloadMember returns the member name designated as the body payload, if
// any ("" means the whole structure is the body).
func PayloadMember(sh *model.Shape) string {
	return sh.Payload
}

// StatusCodeMember returns the member name bound to "statusCode", if any.
func StatusCodeMember(sh *model.Shape) string {
	for name, member := range sh.Members {
		if member.Location == "statusCode" {
			return name
		}
	}
	return ""
}
