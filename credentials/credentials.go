// Package credentials resolves AWS access keys from a layered provider
// chain. The client's default chain tries environment variables,
// process-level system properties, the shared profile files, the ECS
// container endpoint and then EC2 IMDS, in that order; Static supplies
// explicit keys instead. Any provider can be wrapped in a Cache that
// memoizes the resolved value and single-flights concurrent refreshes
// through a channel rather than a mutex, mirroring the teacher's qconfig
// "load once, share the result" caching idiom.
package credentials

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Value is a resolved set of AWS credentials.
type Value struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Source          string
	Expires         time.Time
}

// expired reports whether v needs to be refreshed, applying a 5 minute
// skew so a request never starts signing with a credential that expires
// mid-flight.
func (v Value) expired(now time.Time) bool {
	if v.Expires.IsZero() {
		return false
	}
	return !now.Before(v.Expires.Add(-5 * time.Minute))
}

// Provider resolves one candidate source of credentials. Returning
// (Value{}, errNoCredentials) tells the Chain to try the next provider;
// any other error aborts the chain.
type Provider interface {
	Retrieve(ctx context.Context) (Value, error)
}

type errNoCredentials struct{ provider string }

func (e errNoCredentials) Error() string { return e.provider + ": no credentials available" }

// NotFound wraps an error that should let the chain continue to the next
// provider rather than failing the whole resolution.
func NotFound(provider string) error { return errNoCredentials{provider} }

// Chain tries each Provider in order, returning the first successful
// resolution.
type Chain struct {
	Providers []Provider
}

func (c *Chain) Retrieve(ctx context.Context) (Value, error) {
	var lastErr error
	for _, p := range c.Providers {
		v, err := p.Retrieve(ctx)
		if err == nil {
			return v, nil
		}
		if _, ok := err.(errNoCredentials); ok {
			lastErr = err
			continue
		}
		return Value{}, err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("credentials: no providers configured")
	}
	return Value{}, fmt.Errorf("credentials: chain exhausted: %w", lastErr)
}

// Cache wraps a Provider and memoizes its result until it expires.
// Concurrent callers that observe an expired/absent value block on a
// single in-flight refresh channel instead of each issuing their own
// Retrieve call.
type Cache struct {
	Source Provider

	mu      sync.Mutex
	value   Value
	have    bool
	inflight chan struct{}
	result   Value
	resultErr error
}

func NewCache(source Provider) *Cache {
	return &Cache{Source: source}
}

func (c *Cache) Retrieve(ctx context.Context) (Value, error) {
	now := time.Now()

	c.mu.Lock()
	if c.have && !c.value.expired(now) {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	if c.inflight != nil {
		ch := c.inflight
		c.mu.Unlock()
		select {
		case <-ch:
			c.mu.Lock()
			v, err := c.result, c.resultErr
			c.mu.Unlock()
			return v, err
		case <-ctx.Done():
			return Value{}, ctx.Err()
		}
	}
	ch := make(chan struct{})
	c.inflight = ch
	c.mu.Unlock()

	v, err := c.Source.Retrieve(ctx)

	c.mu.Lock()
	c.result, c.resultErr = v, err
	if err == nil {
		c.value, c.have = v, true
	}
	c.inflight = nil
	c.mu.Unlock()
	close(ch)

	return v, err
}
