// Package protocol defines the wire-protocol contract every AWS protocol
// family implements, plus the static registry that dispatches on a
// service's declared protocol name. Concrete families (json, query,
// rest-json, rest-xml, ec2) register themselves from their own package
// init(), mirroring the teacher's driver-registration idiom.
package protocol

import (
	"fmt"
	"net/http"

	"github.com/nyaws/awsclient/internal/model"
)

// Request is the wire-ready HTTP request a Protocol builds: method, path,
// query and body are already final. Downstream, only headers are added:
// the client's trace and retry-correlation ids, and the signer's
// X-Amz-Date, X-Amz-Security-Token, X-Amz-Content-Sha256 and Authorization.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Protocol builds wire requests from operation input and parses wire
// responses back into operation output, including error classification.
type Protocol interface {
	// BuildRequest renders input (a map[string]interface{} keyed by member
	// name) into a Request per op's HTTP binding.
	BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*Request, error)

	// ParseResponse decodes a successful response body/headers into the
	// operation's output shape.
	ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error)

	// ParseError classifies a response with status 400 or above into an Anomaly-shaped
	// description; the caller (client package) wraps it as an anomaly.
	ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *ErrorInfo
}

// ErrorInfo is what a Protocol extracts from an error response, before the
// client package maps it to an anomaly.Category.
type ErrorInfo struct {
	Code       string
	Message    string
	StatusCode int
}

var registry = map[string]Protocol{}

// Register installs a Protocol under name. Called from each protocol
// subpackage's init(); a second registration for the same name is a
// programming error and panics immediately, same as the teacher's
// duplicate-driver-registration guard.
func Register(name string, p Protocol) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("protocol: %q already registered", name))
	}
	registry[name] = p
}

// Lookup resolves a protocol name to its implementation, failing fast when
// the name is unknown rather than silently falling back to a default.
func Lookup(name string) (Protocol, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("protocol: unknown protocol %q", name)
	}
	return p, nil
}
