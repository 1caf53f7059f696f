// Package client composes the descriptor, protocol, signer, credentials,
// region, endpoint, retry and transport packages into the single
// generic invocation engine: Invoke walks one operation through the
// pipeline and returns its typed output or a classified anomaly.
package client

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nyaws/awsclient/credentials"
	"github.com/nyaws/awsclient/internal/endpoint"
	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/transport"
	"github.com/nyaws/awsclient/region"
	"github.com/nyaws/awsclient/retry"
)

// CredentialsProvider resolves AWS credentials, satisfied by
// credentials.Chain, credentials.Cache, or any custom provider.
type CredentialsProvider = credentials.Provider

// RegionProvider resolves the target region.
type RegionProvider = region.Provider

// Client is a data-driven handle bound to one service descriptor: all
// request/response shaping is driven by svc, not by hand-written
// operation methods.
type Client struct {
	svc       *model.Service
	proto     protocol.Protocol
	creds     CredentialsProvider
	region    RegionProvider
	transport transport.Transport
	endpoint  *endpoint.Resolved
	backoff   retry.Backoff
	logger    *logrus.Logger

	mu      sync.Mutex
	stopped bool
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithCredentials(p CredentialsProvider) Option { return func(c *Client) { c.creds = p } }
func WithRegion(p RegionProvider) Option           { return func(c *Client) { c.region = p } }
func WithTransport(t transport.Transport) Option   { return func(c *Client) { c.transport = t } }
func WithEndpoint(e endpoint.Resolved) Option       { return func(c *Client) { c.endpoint = &e } }
func WithBackoff(b retry.Backoff) Option           { return func(c *Client) { c.backoff = b } }
func WithLogger(l *logrus.Logger) Option           { return func(c *Client) { c.logger = l } }
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.transport = transport.New(h) }
}

// New builds a Client for svc. The protocol named in svc.Metadata.Protocol
// must already be registered (imported for its init() side effect, or
// compiled in via the client package's own blank imports); an unknown
// protocol fails fast rather than falling back to a default.
func New(svc *model.Service, opts ...Option) (*Client, error) {
	if svc == nil {
		return nil, fmt.Errorf("client: service descriptor is required")
	}
	p, err := protocol.Lookup(svc.Metadata.Protocol)
	if err != nil {
		return nil, err
	}
	c := &Client{
		svc:       svc,
		proto:     p,
		transport: transport.New(nil),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.creds == nil {
		c.creds = &credentials.Chain{Providers: []credentials.Provider{
			credentials.Env{},
			credentials.SystemProperty{},
			credentials.SharedProfile{},
			credentials.ECSContainer{},
			credentials.IMDS{},
		}}
	}
	if c.region == nil {
		c.region = &region.Chain{Providers: []region.Provider{
			region.Env{},
			region.SystemProperty{},
			region.SharedProfile{},
			region.IMDS{},
		}}
	}
	return c, nil
}

// Stop cancels any in-flight submissions on the underlying transport. A
// stopped Client still accepts Invoke calls; each has its own submission.
func (c *Client) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.transport.Stop()
}
