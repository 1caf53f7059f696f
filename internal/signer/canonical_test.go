package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalQueryStringSortsAndEncodes(t *testing.T) {
	got := CanonicalQueryString("b=2&a=1&a=0")
	require.Equal(t, "a=0&a=1&b=2", got)
}

func TestCanonicalQueryStringValuelessKeyEmitsTrailingEquals(t *testing.T) {
	require.Equal(t, "policy=", CanonicalQueryString("policy"))
}

func TestCanonicalQueryStringDuplicateKeysSortedByValue(t *testing.T) {
	require.Equal(t, "q=Red&q.parser=lucene", CanonicalQueryString("q.parser=lucene&q=Red"))
	require.Equal(t, "q=Red&q.parser=lucene", CanonicalQueryString("q=Red&q.parser=lucene"))
}

func TestCanonicalQueryStringIdempotent(t *testing.T) {
	once := CanonicalQueryString("key=hello world&other=a+b")
	twice := CanonicalQueryString(once)
	require.Equal(t, once, twice)
}

func TestCanonicalURIDoubleEncodeVsSingle(t *testing.T) {
	path := "/my bucket/my key.txt"
	single := CanonicalURI(path, false)
	double := CanonicalURI(path, true)

	require.Equal(t, "/my bucket/my key.txt", single)
	require.Equal(t, "/my%20bucket/my%20key.txt", double)
}

func TestCanonicalURIEmptyPathIsSlash(t *testing.T) {
	require.Equal(t, "/", CanonicalURI("", true))
}

func TestCanonicalHeadersIncludesHostAndSortsNames(t *testing.T) {
	h := map[string][]string{
		"X-Amz-Date":      {"20150830T123600Z"},
		"X-Amz-Meta-Tag":  {"v1"},
		"Content-Type":    {"application/json"},
		"Content-Length":  {"4"},
		"Authorization":   {"should-be-ignored"},
	}
	canonical, signed := CanonicalHeaders(h, "example.amazonaws.com")
	require.Equal(t, "host;x-amz-date;x-amz-meta-tag", signed)
	require.Contains(t, canonical, "host:example.amazonaws.com\n")
	require.NotContains(t, canonical, "content-type")
	require.NotContains(t, canonical, "authorization")
}

func TestCanonicalHeadersDropsInvalidHeaderValues(t *testing.T) {
	h := map[string][]string{
		"X-Amz-Meta-Tag": {"bad\x00value"},
		"X-Amz-Date":     {"20150830T123600Z"},
	}
	_, signed := CanonicalHeaders(h, "example.amazonaws.com")
	require.Equal(t, "host;x-amz-date", signed)
}

func TestCanonicalHeadersExcludesClientContextAndNonAmzHeaders(t *testing.T) {
	h := map[string][]string{
		"X-Amz-Date":           {"20150830T123600Z"},
		"X-Amz-Client-Context": {"should-be-excluded"},
		"X-Custom-Header":      {"not-amz"},
	}
	_, signed := CanonicalHeaders(h, "example.amazonaws.com")
	require.Equal(t, "host;x-amz-date", signed)
}

func TestCanonicalHeadersCollapsesInternalWhitespace(t *testing.T) {
	h := map[string][]string{
		"X-Amz-Date":     {"20150830T123600Z"},
		"X-Amz-Meta-Tag": {"value  with\t folded\n   whitespace"},
	}
	canonical, _ := CanonicalHeaders(h, "example.amazonaws.com")
	require.Contains(t, canonical, "x-amz-meta-tag:value with folded whitespace\n")
}

func TestHashedPayloadUnsignedSentinel(t *testing.T) {
	require.Equal(t, UnsignedPayload, HashedPayload([]byte("body"), true))
	require.NotEqual(t, UnsignedPayload, HashedPayload([]byte("body"), false))
}
