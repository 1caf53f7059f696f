// Package transport is the out-of-scope HTTP submission collaborator the
// client package still needs a concrete contract for: submit a built,
// signed request asynchronously and observe its outcome through a
// callback, with a Stop that cancels outstanding work.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/mattn/go-ieproxy"

	"github.com/nyaws/awsclient/internal/protocol"
)

// Response is a completed HTTP round trip.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport submits wire requests over HTTP.
type Transport interface {
	// Submit issues req against url asynchronously, invoking done exactly
	// once with the outcome. A panic on the submission goroutine is
	// recovered and reported through done as an error rather than
	// crashing the process.
	Submit(ctx context.Context, url string, req *protocol.Request, done func(Response, error))
	// Stop cancels any outstanding submissions.
	Stop()
}

// HTTP is the default Transport, backed by net/http.Client.
type HTTP struct {
	Client *http.Client

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New builds an HTTP transport. A nil client gets a default one whose
// RoundTripper honors the host's configured proxy (including the
// Windows/macOS system proxy settings ieproxy reads, not just the
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment variables net/http's
// ProxyFromEnvironment alone would see) via ieproxy.GetProxyFunc.
func New(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{Proxy: ieproxy.GetProxyFunc()},
		}
	}
	return &HTTP{Client: client}
}

func (t *HTTP) Submit(ctx context.Context, url string, r *protocol.Request, done func(Response, error)) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	go func() {
		defer cancel()
		var called bool
		safeDone := func(resp Response, err error) {
			if called {
				return
			}
			called = true
			done(resp, err)
		}
		defer func() {
			if rec := recover(); rec != nil {
				safeDone(Response{}, fmt.Errorf("transport: panic: %v", rec))
			}
		}()

		fullURL := url + r.Path
		if r.Query != "" {
			fullURL += "?" + r.Query
		}
		req, err := http.NewRequestWithContext(ctx, r.Method, fullURL, bytes.NewReader(r.Body))
		if err != nil {
			safeDone(Response{}, err)
			return
		}
		req.Header = r.Header

		resp, err := t.Client.Do(req)
		if err != nil {
			safeDone(Response{}, err)
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			safeDone(Response{}, err)
			return
		}
		safeDone(Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil)
	}()
}

func (t *HTTP) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}
