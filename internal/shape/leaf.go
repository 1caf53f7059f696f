// Package shape serializes and parses shape-typed values: the leaf
// conversions (strings, numbers, booleans, timestamps, blobs) shared by
// every protocol, plus JSON and XML tree encoders built on top of them.
package shape

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/nyaws/awsclient/internal/model"
)

// Timestamp layouts for the three formats AWS models declare.
const (
	ISO8601Layout = "2006-01-02T15:04:05Z"
	RFC822Layout  = time.RFC1123
)

// utf8BOM is the three-byte UTF-8 byte order mark some services prefix
// response bodies with.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark, if present, so JSON/XML
// decoders downstream never see it (spec.md §6: "Response bodies may
// arrive with or without BOM; the parser strips a leading UTF-8 BOM before
// decoding").
func StripBOM(body []byte) []byte {
	if len(body) >= len(utf8BOM) && body[0] == utf8BOM[0] && body[1] == utf8BOM[1] && body[2] == utf8BOM[2] {
		return body[len(utf8BOM):]
	}
	return body
}

// defaultTimestampFormat returns the format to use when a timestamp shape
// doesn't declare one explicitly, based on the surrounding protocol.
func defaultTimestampFormat(protocol string, location string) string {
	switch {
	case location == "header" || location == "headers":
		return "rfc822"
	case protocol == "json" || protocol == "rest-json":
		return "unixTimestamp"
	default:
		return "iso8601"
	}
}

// ToWireString renders a leaf (non-composite) shape value as the string
// form used in uri/querystring/header locations. Blobs are never
// base64-encoded here — spec.md §4.2 reserves base64 for JSON/XML body
// contexts.
func ToWireString(sh *model.Shape, v interface{}, protocol, location string) (string, error) {
	if v == nil {
		return "", nil
	}
	switch sh.Kind {
	case model.KindString:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("shape: expected string, got %T", v)
		}
		return s, nil
	case model.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("shape: expected bool, got %T", v)
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case model.KindInteger, model.KindLong:
		n, err := toInt64(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case model.KindDouble, model.KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case model.KindTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return "", fmt.Errorf("shape: expected time.Time, got %T", v)
		}
		return formatTimestamp(t, resolveFormat(sh, protocol, location)), nil
	case model.KindBlob:
		b, err := toBytes(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("shape: %s is not a leaf shape", sh.Kind)
	}
}

// FromWireString parses a header/uri/querystring string back into a shape
// value.
func FromWireString(sh *model.Shape, s string) (interface{}, error) {
	switch sh.Kind {
	case model.KindString:
		return s, nil
	case model.KindBoolean:
		return strconv.ParseBool(s)
	case model.KindInteger, model.KindLong:
		return strconv.ParseInt(s, 10, 64)
	case model.KindDouble, model.KindFloat:
		return strconv.ParseFloat(s, 64)
	case model.KindTimestamp:
		return parseTimestamp(s)
	case model.KindBlob:
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("shape: %s is not a leaf shape", sh.Kind)
	}
}

func resolveFormat(sh *model.Shape, protocol, location string) string {
	if sh.TimestampFormat != "" {
		return sh.TimestampFormat
	}
	return defaultTimestampFormat(protocol, location)
}

func formatTimestamp(t time.Time, format string) string {
	t = t.UTC()
	switch format {
	case "unixTimestamp":
		return strconv.FormatInt(t.Unix(), 10)
	case "rfc822":
		return t.Format(RFC822Layout)
	default: // iso8601
		return t.Format(ISO8601Layout)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(ISO8601Layout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC1123, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("shape: cannot parse timestamp %q", s)
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("shape: expected integer, got %T", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("shape: expected number, got %T", v)
	}
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("shape: expected []byte, got %T", v)
	}
}

// Base64Encode renders blob bytes for a JSON/XML body context.
func Base64Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// Base64Decode reads blob bytes out of a JSON/XML body context.
func Base64Decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }
