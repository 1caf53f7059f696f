package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/internal/model"
)

func TestShapeAndMemberShapeResolution(t *testing.T) {
	svc := &model.Service{
		Shapes: map[string]*model.Shape{
			"String": {Kind: model.KindString},
		},
	}
	require.Equal(t, model.KindString, svc.Shape("String").Kind)
	require.Nil(t, svc.Shape("Missing"))

	member := &model.Member{ShapeName: "String"}
	require.Equal(t, model.KindString, svc.MemberShape(member).Kind)
	require.Nil(t, svc.MemberShape(nil))
}

func TestNilServiceShapeLookupIsSafe(t *testing.T) {
	var svc *model.Service
	require.Nil(t, svc.Shape("anything"))
}

func TestShapeIsRequired(t *testing.T) {
	sh := &model.Shape{Required: []string{"Bucket", "Key"}}
	require.True(t, sh.IsRequired("Bucket"))
	require.True(t, sh.IsRequired("Key"))
	require.False(t, sh.IsRequired("ContentType"))
}
