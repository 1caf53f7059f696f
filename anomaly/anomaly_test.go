package anomaly

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetriable(t *testing.T) {
	cases := map[Category]bool{
		Busy:        true,
		Interrupted: true,
		Unavailable: true,
		Incorrect:   false,
		Forbidden:   false,
		NotFound:    false,
		Conflict:    false,
		Unsupported: false,
		Fault:       false,
	}
	for category, want := range cases {
		a := New(category, "boom")
		require.Equal(t, want, Retriable(a))
	}
	require.False(t, Retriable(nil))
}

func TestAsFaultPassesThroughExistingAnomaly(t *testing.T) {
	original := New(Incorrect, "bad request")
	require.Same(t, original, AsFault(original))
}

func TestAsFaultWrapsPlainError(t *testing.T) {
	cause := errors.New("boom")
	got := AsFault(cause)
	require.Equal(t, Fault, got.Category)
	require.ErrorIs(t, got, cause)
}

func TestErrorMessage(t *testing.T) {
	a := New(NotFound, "no such bucket")
	require.Equal(t, "not-found: no such bucket", a.Error())
}

func TestIs(t *testing.T) {
	a := New(Busy, "slow down")
	require.True(t, Is(a, Busy))
	require.False(t, Is(a, Fault))
	require.False(t, Is(errors.New("plain"), Busy))
}
