package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/anomaly"
	"github.com/nyaws/awsclient/internal/protocol"
)

func TestCategoryForStatusTable(t *testing.T) {
	cases := map[int]anomaly.Category{
		399: anomaly.Fault,
		400: anomaly.Incorrect,
		403: anomaly.Forbidden,
		404: anomaly.NotFound,
		409: anomaly.Conflict,
		429: anomaly.Busy,
		499: anomaly.Incorrect,
		500: anomaly.Fault,
		502: anomaly.Unavailable,
		503: anomaly.Busy,
		504: anomaly.Unavailable,
		599: anomaly.Fault,
	}
	for status, want := range cases {
		require.Equal(t, want, categoryForStatus(status), "status %d", status)
	}
}

func TestClassifyErrorFallsBackToCodeWhenMessageEmpty(t *testing.T) {
	a := classifyError(&protocol.ErrorInfo{Code: "ThrottlingException", StatusCode: 429})
	require.Equal(t, anomaly.Busy, a.Category)
	require.Equal(t, "ThrottlingException", a.Message)
	require.Equal(t, "ThrottlingException", a.Data["code"])
	require.Equal(t, 429, a.Data["status_code"])
}

func TestClassifyErrorPrefersMessage(t *testing.T) {
	a := classifyError(&protocol.ErrorInfo{Code: "NoSuchBucket", Message: "The bucket does not exist", StatusCode: 404})
	require.Equal(t, anomaly.NotFound, a.Category)
	require.Equal(t, "The bucket does not exist", a.Message)
}
