// Package signer implements the SigV4 canonicalization steps shared by the
// v4 and s3v4 signature variants: canonical URI/query encoding, the signed
// header subset, the hashed payload, and the HMAC key-derivation chain.
// Grounded on the minio SigV4 client signer (see DESIGN.md), generalized
// from its S3-only "s3" service name to an arbitrary signing name/region.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const (
	AuthHeader  = "AWS4-HMAC-SHA256"
	DateFormat  = "20060102T150405Z"
	DateOnly    = "20060102"
	UnsignedPayload = "UNSIGNED-PAYLOAD"
)

// ignoredHeaders are never part of the signed set: they are expected to be
// mutated by intermediaries (proxies, browsers) between signing and send.
var ignoredHeaders = map[string]bool{
	"Authorization":  true,
	"User-Agent":     true,
	"Content-Length": true,
	"Content-Type":   true,
}

// signableHeaderName reports whether a header belongs in the signed set:
// "host", "x-amz-date", and any "x-amz-*" header except
// "x-amz-client-context" (spec.md §4.3 step 1).
func signableHeaderName(lowerName string) bool {
	if lowerName == "host" || lowerName == "x-amz-date" {
		return true
	}
	if lowerName == "x-amz-client-context" {
		return false
	}
	return strings.HasPrefix(lowerName, "x-amz-")
}

func sumHMAC(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sum256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// SigningKey derives the final HMAC signing key via the
// kDate -> kRegion -> kService -> kSigning chain.
func SigningKey(secretKey, region, service string, t time.Time) []byte {
	kDate := sumHMAC([]byte("AWS4"+secretKey), []byte(t.Format(DateOnly)))
	kRegion := sumHMAC(kDate, []byte(region))
	kService := sumHMAC(kRegion, []byte(service))
	return sumHMAC(kService, []byte("aws4_request"))
}

// Signature computes the final hex HMAC over stringToSign.
func Signature(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(sumHMAC(signingKey, []byte(stringToSign)))
}

// Scope builds the credential scope: date/region/service/aws4_request.
func Scope(region, service string, t time.Time) string {
	return strings.Join([]string{t.Format(DateOnly), region, service, "aws4_request"}, "/")
}

// Credential builds the Credential= value of the Authorization header.
func Credential(accessKeyID, region, service string, t time.Time) string {
	return accessKeyID + "/" + Scope(region, service, t)
}

// StringToSign assembles AWS4-HMAC-SHA256\n<date>\n<scope>\n<canonicalRequestHash>.
func StringToSign(region, service string, t time.Time, canonicalRequest string) string {
	return strings.Join([]string{
		AuthHeader,
		t.Format(DateFormat),
		Scope(region, service, t),
		sum256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// HashedPayload returns the signed-payload value: the hex SHA256 of body,
// or the literal UNSIGNED-PAYLOAD sentinel when unsigned is requested.
func HashedPayload(body []byte, unsigned bool) string {
	if unsigned {
		return UnsignedPayload
	}
	return sum256Hex(body)
}

// CanonicalQueryString re-encodes a query string so each key/value pair is
// URI-encoded and sorted by key, with "+" normalized to "%20" per the
// canonical-query-string rules. Calling it twice on its own output is a
// no-op: the re-encoding is idempotent.
func CanonicalQueryString(raw string) string {
	values, _ := url.ParseQuery(raw)
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		vs := append([]string{}, values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			parts = append(parts, encodeQueryComponent(k)+"="+encodeQueryComponent(v))
		}
	}
	return strings.Join(parts, "&")
}

func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// CanonicalURI takes the request's already-escaped path. doubleEncode is
// true for the generic v4 signer, which percent-encodes each path segment
// a second time, since the HTTP library already encoded it once; s3v4 sets
// it false and keeps the path as it is, because S3 object keys must be
// encoded exactly once.
func CanonicalURI(path string, doubleEncode bool) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if !doubleEncode {
			segments[i] = seg
			continue
		}
		segments[i] = encodePathSegment(seg)
	}
	joined := strings.Join(segments, "/")
	if doubleEncode {
		return joined
	}
	return joined
}

func encodePathSegment(seg string) string {
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// CanonicalHeaders returns the canonical header block and the
// semicolon-joined signed-header list: host, x-amz-date, and every
// x-amz-* header except x-amz-client-context, lowercased and sorted.
// Header values have leading/trailing whitespace trimmed and internal
// whitespace runs (including folded continuation lines) collapsed to a
// single space, per the SigV4 canonicalization rules.
func CanonicalHeaders(header http.Header, host string) (canonical string, signed string) {
	names := make([]string, 0, len(header)+1)
	vals := make(map[string][]string, len(header)+1)
	for k, vv := range header {
		ck := http.CanonicalHeaderKey(k)
		lk := strings.ToLower(k)
		if ignoredHeaders[ck] || !httpguts.ValidHeaderFieldName(k) || !signableHeaderName(lk) {
			continue
		}
		var kept []string
		for _, v := range vv {
			v = strings.Join(strings.Fields(v), " ")
			if httpguts.ValidHeaderFieldValue(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			continue
		}
		names = append(names, lk)
		vals[lk] = append(vals[lk], kept...)
	}
	names = append(names, "host")
	vals["host"] = []string{host}
	sort.Strings(names)

	var buf strings.Builder
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte(':')
		vv := append([]string{}, vals[name]...)
		for i, v := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strings.Join(strings.Fields(v), " "))
		}
		buf.WriteByte('\n')
	}
	return buf.String(), strings.Join(names, ";")
}

// CanonicalRequest joins the six canonical-request lines.
func CanonicalRequest(method, canonicalURI, canonicalQuery, canonicalHeaders, signedHeaders, hashedPayload string) string {
	return strings.Join([]string{
		method,
		canonicalURI,
		canonicalQuery,
		canonicalHeaders,
		signedHeaders,
		hashedPayload,
	}, "\n")
}

// AuthorizationHeader assembles the final Authorization header value.
func AuthorizationHeader(accessKeyID, region, service string, t time.Time, signedHeaders, signature string) string {
	parts := []string{
		AuthHeader + " Credential=" + Credential(accessKeyID, region, service, t),
		"SignedHeaders=" + signedHeaders,
		"Signature=" + signature,
	}
	return strings.Join(parts, ", ")
}
