package client

import (
	"bytes"
	"net/http"
)

// RestartableBody is a fully-buffered HTTP body exposed as a restartable
// byte stream: Seek(0, io.SeekStart) rewinds it for a second read, the way
// a debugger inspecting a failed call needs to replay the body without a
// second network round trip.
type RestartableBody struct {
	*bytes.Reader
}

// Close implements io.Closer; the body is already fully buffered in
// memory, so closing it is a no-op.
func (RestartableBody) Close() error { return nil }

// NewRestartableBody wraps a byte slice as a RestartableBody.
func NewRestartableBody(b []byte) *RestartableBody {
	return &RestartableBody{bytes.NewReader(b)}
}

// ResponseMetadata is attached to a successful operation's output (under
// the "ResponseMetadata" key) and to a failed attempt's anomaly (under the
// "http_metadata" data key), carrying the raw HTTP request and response
// for debugging per the invocation pipeline's metadata-attachment step.
type ResponseMetadata struct {
	Request  *http.Request
	Response *http.Response
}

func newResponseMetadata(req *http.Request, statusCode int, header http.Header, body []byte) *ResponseMetadata {
	return &ResponseMetadata{
		Request: req,
		Response: &http.Response{
			StatusCode: statusCode,
			Header:     header,
			Body:       NewRestartableBody(body),
		},
	}
}
