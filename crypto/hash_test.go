package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256Factory_New(t *testing.T) {
	factory := NewSha256Factory()
	require.NotNil(t, factory.New())
}

func TestHashFactory_New(t *testing.T) {
	factory := NewHashFactory(Sha3_256)

	h := factory.New()
	require.NotNil(t, h)
	require.Equal(t, 32, h.Size())

	require.Panics(t, func() {
		NewHashFactory(HashAlgorithm(42)).New()
	})
}
