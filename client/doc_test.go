package client_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/clienttest"
	"github.com/nyaws/awsclient/internal/descriptor"
)

func TestOpsListsSortedOperationNames(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	ft := clienttest.NewFakeTransport()
	c, err := clienttest.New(svc, ft)
	require.NoError(t, err)

	ops := c.Ops()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		require.Less(t, ops[i-1], ops[i])
	}
	require.Contains(t, ops, "Invoke")
}

func TestRequestAndResponseSpecKey(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	ft := clienttest.NewFakeTransport()
	c, err := clienttest.New(svc, ft)
	require.NoError(t, err)

	in, err := c.RequestSpecKey("Invoke")
	require.NoError(t, err)
	require.NotEmpty(t, in)

	out, err := c.ResponseSpecKey("Invoke")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	_, err = c.RequestSpecKey("NoSuchOperation")
	require.Error(t, err)
}

func TestValidateRequestsRejectsMissingRequiredMember(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	ft := clienttest.NewFakeTransport()
	c, err := clienttest.New(svc, ft)
	require.NoError(t, err)

	err = c.ValidateRequests("Invoke", map[string]interface{}{})
	require.Error(t, err)
}

func TestDocRendersOperationTable(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	ft := clienttest.NewFakeTransport()
	c, err := clienttest.New(svc, ft)
	require.NoError(t, err)

	doc := c.Doc()
	require.Contains(t, doc, "Invoke")
	require.Contains(t, doc, "Operation")
}
