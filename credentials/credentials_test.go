package credentials_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/credentials"
)

type countingProvider struct {
	calls int32
	value credentials.Value
	delay time.Duration
}

func (p *countingProvider) Retrieve(ctx context.Context) (credentials.Value, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.value, nil
}

func TestChainTriesProvidersInOrder(t *testing.T) {
	chain := &credentials.Chain{Providers: []credentials.Provider{
		credentials.Static{}, // empty, NotFound
		credentials.Static{Value: credentials.Value{AccessKeyID: "AKID", SecretAccessKey: "secret"}},
	}}
	v, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKID", v.AccessKeyID)
}

func TestChainExhaustedReturnsError(t *testing.T) {
	chain := &credentials.Chain{Providers: []credentials.Provider{credentials.Static{}}}
	_, err := chain.Retrieve(context.Background())
	require.Error(t, err)
}

func TestCacheDedupsConcurrentRefresh(t *testing.T) {
	source := &countingProvider{
		value: credentials.Value{AccessKeyID: "AKID", SecretAccessKey: "secret"},
		delay: 50 * time.Millisecond,
	}
	cache := credentials.NewCache(source)

	const n = 10
	results := make(chan credentials.Value, n)
	for i := 0; i < n; i++ {
		go func() {
			v, err := cache.Retrieve(context.Background())
			require.NoError(t, err)
			results <- v
		}()
	}
	for i := 0; i < n; i++ {
		v := <-results
		require.Equal(t, "AKID", v.AccessKeyID)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&source.calls))
}

func TestCacheRefreshesAfterExpiry(t *testing.T) {
	source := &countingProvider{value: credentials.Value{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Expires:         time.Now().Add(-time.Minute),
	}}
	cache := credentials.NewCache(source)

	_, err := cache.Retrieve(context.Background())
	require.NoError(t, err)
	_, err = cache.Retrieve(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&source.calls))
}
