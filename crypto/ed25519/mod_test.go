package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
)

func TestSigner_Sign(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("tampered"), sig)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schnorr verify failed")
}

func TestPublicKey_New(t *testing.T) {
	signer := NewSigner()

	data, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	pk, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, pk.Equal(signer.GetPublicKey()))

	_, err = NewPublicKey([]byte{1, 2, 3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't unmarshal point")
}

func TestPublicKey_Verify(t *testing.T) {
	signer := NewSigner()

	err := signer.GetPublicKey().Verify([]byte("msg"), fake.Signature{})
	require.EqualError(t, err, "invalid signature type 'fake.Signature'")
}

func TestPublicKey_Equal(t *testing.T) {
	a := NewSigner()
	b := NewSigner()

	require.True(t, a.GetPublicKey().Equal(a.GetPublicKey()))
	require.False(t, a.GetPublicKey().Equal(b.GetPublicKey()))
	require.False(t, a.GetPublicKey().Equal(fake.PublicKey{}))
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{4})))
	require.False(t, sig.Equal(fake.Signature{}))
}

func TestSignature_MarshalBinary(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
}
