// Package s3v4 implements the S3-flavored Signature Version 4 variant:
// object keys in the canonical URI are percent-encoded exactly once (the
// net/http request already carries one encoding pass, so s3v4 does not add
// a second), and payload signing can be waived in favor of the
// UNSIGNED-PAYLOAD sentinel for streaming uploads.
package s3v4

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

// Sign computes and sets the Authorization header. When unsignedPayload is
// true, X-Amz-Content-Sha256 is set to UNSIGNED-PAYLOAD instead of hashing
// body, matching streaming PUT semantics.
func Sign(req *http.Request, body []byte, creds Credentials, region, service string, t time.Time, unsignedPayload bool) {
	t = t.UTC()
	req.Header.Set("X-Amz-Date", t.Format(signer.DateFormat))
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}
	hashedPayload := signer.HashedPayload(body, unsignedPayload)
	req.Header.Set("X-Amz-Content-Sha256", hashedPayload)

	canonicalURI := signer.CanonicalURI(req.URL.EscapedPath(), false)
	canonicalQuery := signer.CanonicalQueryString(req.URL.RawQuery)
	canonicalHeaders, signedHeaders := signer.CanonicalHeaders(req.Header, req.URL.Host)

	canonicalRequest := signer.CanonicalRequest(req.Method, canonicalURI, canonicalQuery, canonicalHeaders, signedHeaders, hashedPayload)
	stringToSign := signer.StringToSign(region, service, t, canonicalRequest)
	signingKey := signer.SigningKey(creds.SecretAccessKey, region, service, t)
	signature := signer.Signature(signingKey, stringToSign)

	req.Header.Set("Authorization", signer.AuthorizationHeader(creds.AccessKeyID, region, service, t, signedHeaders, signature))
}
