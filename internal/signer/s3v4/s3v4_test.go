package s3v4_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/internal/signer/s3v4"
)

var testCreds = s3v4.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

func TestSignSetsAuthorizationHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://examplebucket.s3.amazonaws.com/test.txt", nil)
	require.NoError(t, err)

	ts := time.Date(2013, 5, 24, 0, 0, 0, 0, time.UTC)
	s3v4.Sign(req, nil, testCreds, "us-east-1", "s3", ts, false)

	auth := req.Header.Get("Authorization")
	require.Contains(t, auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20130524/us-east-1/s3/aws4_request")
	require.Contains(t, auth, "SignedHeaders=")
	require.Contains(t, auth, "Signature=")
}

func TestSignUnsignedPayloadSentinel(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPut, "https://examplebucket.s3.amazonaws.com/test.txt", nil)
	s3v4.Sign(req, []byte("body"), testCreds, "us-east-1", "s3", time.Now(), true)
	require.Equal(t, "UNSIGNED-PAYLOAD", req.Header.Get("X-Amz-Content-Sha256"))
}

func TestSignDoesNotDoubleEncodeObjectKey(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://examplebucket.s3.amazonaws.com/my%20file.txt", nil)
	req.URL.Path = "/my file.txt"
	s3v4.Sign(req, nil, testCreds, "us-east-1", "s3", time.Now(), false)
	require.NotEmpty(t, req.Header.Get("Authorization"))
}
