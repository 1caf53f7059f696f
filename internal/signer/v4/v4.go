// Package v4 implements the generic AWS Signature Version 4 signer used by
// every service except S3, whose object-key encoding quirks need the s3v4
// variant instead.
package v4

import (
	"net/http"
	"time"

	"github.com/nyaws/awsclient/internal/signer"
)

// Credentials is the minimal key material a signed request needs.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Sign computes and sets the Authorization header (plus X-Amz-Date,
// X-Amz-Content-Sha256, and X-Amz-Security-Token when present) on req. The
// request's URL and body must already be final; signing never mutates the
// path or query, only headers.
func Sign(req *http.Request, body []byte, creds Credentials, region, service string, t time.Time) {
	t = t.UTC()
	if req.Header.Get("X-Amz-Date") == "" {
		req.Header.Set("X-Amz-Date", t.Format(signer.DateFormat))
	}
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}
	hashedPayload := signer.HashedPayload(body, false)
	// Standard v4 only sets x-amz-content-sha256 when the caller already
	// added it (spec.md §4.3 step 6); S3's s3v4 variant always sets it.
	if req.Header.Get("X-Amz-Content-Sha256") != "" {
		req.Header.Set("X-Amz-Content-Sha256", hashedPayload)
	}

	canonicalURI := signer.CanonicalURI(req.URL.EscapedPath(), true)
	canonicalQuery := signer.CanonicalQueryString(req.URL.RawQuery)
	canonicalHeaders, signedHeaders := signer.CanonicalHeaders(req.Header, req.URL.Host)

	canonicalRequest := signer.CanonicalRequest(req.Method, canonicalURI, canonicalQuery, canonicalHeaders, signedHeaders, hashedPayload)
	stringToSign := signer.StringToSign(region, service, t, canonicalRequest)
	signingKey := signer.SigningKey(creds.SecretAccessKey, region, service, t)
	signature := signer.Signature(signingKey, stringToSign)

	req.Header.Set("Authorization", signer.AuthorizationHeader(creds.AccessKeyID, region, service, t, signedHeaders, signature))
}
