package serde

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_GetFactory(t *testing.T) {
	ctx := NewContext(nil)

	require.Nil(t, ctx.GetFactory("A"))

	ctx = WithFactory(ctx, "A", testFactory{})

	require.NotNil(t, ctx.GetFactory("A"))
	require.Nil(t, ctx.GetFactory("B"))
}

func TestContext_WithFactory(t *testing.T) {
	parent := NewContext(nil)

	child := WithFactory(parent, "A", testFactory{})

	// The parent keeps its own factory set.
	require.Nil(t, parent.GetFactory("A"))
	require.NotNil(t, child.GetFactory("A"))
}

// -----------------------------------------------------------------------------
// Utility functions

type testFactory struct{}

func (f testFactory) Deserialize(ctx Context, data []byte) (Message, error) {
	return nil, nil
}
