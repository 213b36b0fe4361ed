package fungible

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/schema/types"
)

func TestNewStandard(t *testing.T) {
	std, err := NewStandard()
	require.NoError(t, err)

	require.Equal(t, "FungibleAsset", std.GetName())
	require.NotEqual(t, types.Digest{}, std.GetHash())
	require.Len(t, std.GetErrors(), 3)
}

func TestNewStandard_Deterministic(t *testing.T) {
	a, err := NewStandard()
	require.NoError(t, err)

	b, err := NewStandard()
	require.NoError(t, err)

	require.Equal(t, a.GetHash(), b.GetHash())
}
