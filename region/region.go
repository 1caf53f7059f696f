// Package region resolves the AWS region to target, via the same layered
// chain-plus-cache shape as the credentials package: explicit override,
// environment variable, shared config profile, then IMDS placement.
package region

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nyaws/awsclient/internal/sharedconfig"
)

var (
	propertiesMu sync.RWMutex
	properties   = map[string]string{}
)

// SetProperty sets a system-property-style key, the region-package
// counterpart of credentials.SetProperty: a stand-in for the JVM system
// properties (aws.region) a Go process has no equivalent table for.
func SetProperty(key, value string) {
	propertiesMu.Lock()
	defer propertiesMu.Unlock()
	properties[key] = value
}

func getProperty(key string) string {
	propertiesMu.RLock()
	defer propertiesMu.RUnlock()
	return properties[key]
}

// Provider resolves a region string, or NotFound to let the chain continue.
type Provider interface {
	Retrieve(ctx context.Context) (string, error)
}

type errNoRegion struct{ provider string }

func (e errNoRegion) Error() string { return e.provider + ": no region available" }

func NotFound(provider string) error { return errNoRegion{provider} }

// Chain tries each Provider in order.
type Chain struct {
	Providers []Provider
}

func (c *Chain) Retrieve(ctx context.Context) (string, error) {
	var lastErr error
	for _, p := range c.Providers {
		v, err := p.Retrieve(ctx)
		if err == nil {
			return v, nil
		}
		if _, ok := err.(errNoRegion); ok {
			lastErr = err
			continue
		}
		return "", err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("region: no providers configured")
	}
	return "", fmt.Errorf("region: chain exhausted: %w", lastErr)
}

// Cache memoizes a Provider's resolution permanently: unlike credentials,
// a resolved region never expires, so the first successful Retrieve wins
// for the lifetime of the process. Concurrent callers racing the first,
// not-yet-resolved lookup single-flight through a shared channel instead
// of each issuing their own upstream call (spec.md §4.5's "N concurrent
// fetch-async calls ... exactly one upstream HTTP call is made").
type Cache struct {
	Source Provider

	mu        sync.Mutex
	value     string
	have      bool
	inflight  chan struct{}
	result    string
	resultErr error
}

func NewCache(source Provider) *Cache { return &Cache{Source: source} }

func (c *Cache) Retrieve(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.have {
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
			return "", ctx.Err()
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

// Static always returns a fixed region.
type Static struct{ Region string }

func (s Static) Retrieve(ctx context.Context) (string, error) {
	if s.Region == "" {
		return "", NotFound("static")
	}
	return s.Region, nil
}

// Env reads AWS_REGION then AWS_DEFAULT_REGION.
type Env struct{}

func (Env) Retrieve(ctx context.Context) (string, error) {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r, nil
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r, nil
	}
	return "", NotFound("env")
}

// SystemProperty resolves the region from the aws.region system property
// set via SetProperty.
type SystemProperty struct{}

func (SystemProperty) Retrieve(ctx context.Context) (string, error) {
	if r := getProperty("aws.region"); r != "" {
		return r, nil
	}
	return "", NotFound("system-property")
}

// SharedProfile reads the region setting from ~/.aws/config.
type SharedProfile struct{ Profile string }

func (p SharedProfile) Retrieve(ctx context.Context) (string, error) {
	profile := p.Profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		profile = "default"
	}
	cfg, err := sharedconfig.Load(profile)
	if err != nil || cfg.Region == "" {
		return "", NotFound("shared-profile")
	}
	return cfg.Region, nil
}

// IMDS reads the instance's placement region from instance metadata.
type IMDS struct {
	Endpoint string
	Client   *http.Client
}

func (i IMDS) Retrieve(ctx context.Context) (string, error) {
	endpoint := i.Endpoint
	if endpoint == "" {
		endpoint = "http://169.254.169.254/latest/meta-data/placement/region"
	}
	client := i.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", NotFound("imds")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", NotFound("imds")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", NotFound("imds")
	}
	return string(body), nil
}
