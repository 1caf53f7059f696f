package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/internal/descriptor"
	"github.com/nyaws/awsclient/internal/validate"
)

func TestRequestMissingRequiredMember(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	op := svc.Operations["Invoke"]

	err = validate.Request(svc, op, map[string]interface{}{})
	require.Error(t, err)
}

func TestRequestEnumViolation(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	op := svc.Operations["Invoke"]

	err = validate.Request(svc, op, map[string]interface{}{
		"FunctionName":   "f",
		"InvocationType": "NotARealType",
	})
	require.Error(t, err)
}

func TestRequestValid(t *testing.T) {
	svc, err := descriptor.Load("lambda")
	require.NoError(t, err)
	op := svc.Operations["Invoke"]

	err = validate.Request(svc, op, map[string]interface{}{
		"FunctionName":   "f",
		"InvocationType": "Event",
	})
	require.NoError(t, err)
}
