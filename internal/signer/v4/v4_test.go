package v4_test

import (
	"net/http"
	"testing"
	"time"

	gc "gopkg.in/check.v1"

	"github.com/nyaws/awsclient/internal/signer/v4"
)

func Test(t *testing.T) { gc.TestingT(t) }

type V4Suite struct{}

var _ = gc.Suite(&V4Suite{})

// testCreds matches the AWS documentation's published test credentials,
// used across the sigv4 test suite vectors.
var testCreds = v4.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

func (s *V4Suite) TestGetVanilla(c *gc.C) {
	req, err := http.NewRequest(http.MethodGet, "http://example.amazonaws.com/", nil)
	c.Assert(err, gc.IsNil)

	ts, err := time.Parse(time.RFC1123, "Fri, 09 Sep 2011 23:36:00 GMT")
	c.Assert(err, gc.IsNil)

	v4.Sign(req, nil, testCreds, "us-east-1", "service", ts)

	auth := req.Header.Get("Authorization")
	c.Check(auth, gc.Equals,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20110909/us-east-1/service/aws4_request, "+
			"SignedHeaders=host;x-amz-date, "+
			"Signature=b27ccfbfa7df52a200ff74193ca6e32d4b48b8856fab0237ca7323f18fce19b")
}

func (s *V4Suite) TestSignatureDeterministicForSameInputs(c *gc.C) {
	build := func() *http.Request {
		req, _ := http.NewRequest(http.MethodGet, "http://example.amazonaws.com/path/to/thing?b=2&a=1", nil)
		return req
	}
	ts := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)

	req1 := build()
	v4.Sign(req1, nil, testCreds, "us-east-1", "service", ts)
	req2 := build()
	v4.Sign(req2, nil, testCreds, "us-east-1", "service", ts)

	c.Check(req1.Header.Get("Authorization"), gc.Equals, req2.Header.Get("Authorization"))
}

func (s *V4Suite) TestSessionTokenSetsSecurityTokenHeader(c *gc.C) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.amazonaws.com/", nil)
	creds := testCreds
	creds.SessionToken = "a-session-token"

	v4.Sign(req, nil, creds, "us-east-1", "service", time.Now())

	c.Check(req.Header.Get("X-Amz-Security-Token"), gc.Equals, "a-session-token")
}
