// Package clienttest provides a fake transport.Transport that drives the
// real client.Client invocation pipeline (descriptor lookup, validation,
// protocol build/parse, signing, retry) against canned HTTP responses,
// instead of a real network call. Used to exercise Invoke/InvokeAsync
// end-to-end the way the real pipeline runs in production.
package clienttest

import (
	"context"
	"sync"

	"github.com/nyaws/awsclient/client"
	"github.com/nyaws/awsclient/credentials"
	"github.com/nyaws/awsclient/internal/endpoint"
	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/transport"
	"github.com/nyaws/awsclient/region"
)

// Exchange is one canned HTTP response to hand back for the next Submit
// call (FIFO order).
type Exchange struct {
	StatusCode int
	Header     map[string][]string
	Body       []byte
	Err        error
}

// FakeTransport replays a queue of Exchanges, recording every request it
// was asked to submit for later assertions.
type FakeTransport struct {
	mu        sync.Mutex
	queue     []Exchange
	Requests  []*protocol.Request
	stopCalls int
}

func NewFakeTransport(exchanges ...Exchange) *FakeTransport {
	return &FakeTransport{queue: exchanges}
}

func (f *FakeTransport) Submit(ctx context.Context, url string, req *protocol.Request, done func(transport.Response, error)) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	var ex Exchange
	if len(f.queue) > 0 {
		ex, f.queue = f.queue[0], f.queue[1:]
	} else {
		ex = Exchange{StatusCode: 200}
	}
	f.mu.Unlock()

	if ex.Err != nil {
		done(transport.Response{}, ex.Err)
		return
	}
	done(transport.Response{StatusCode: ex.StatusCode, Header: ex.Header, Body: ex.Body}, nil)
}

func (f *FakeTransport) Stop() {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
}

// New builds a client.Client wired to a FakeTransport, static credentials,
// a fixed region, and a fixed endpoint, so a test can Invoke/InvokeAsync
// against svc without touching the network or any provider chain.
func New(svc *model.Service, transport *FakeTransport, opts ...client.Option) (*client.Client, error) {
	base := []client.Option{
		client.WithTransport(transport),
		client.WithCredentials(credentials.Static{Value: credentials.Value{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		}}),
		client.WithRegion(region.Static{Region: "us-east-1"}),
		client.WithEndpoint(endpoint.Resolved{
			URL:           "https://" + svc.Metadata.EndpointPrefix + ".us-east-1.amazonaws.com",
			SigningRegion: "us-east-1",
		}),
	}
	return client.New(svc, append(base, opts...)...)
}
