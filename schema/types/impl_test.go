package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/serde"
)

func TestNewImplementation(t *testing.T) {
	impl := makeImplementation(t)

	require.NotEqual(t, Digest{}, impl.GetHash())
	require.Equal(t, Digest{1}, impl.GetSchema())
	require.Equal(t, Digest{2}, impl.GetInterface())
}

func TestNewImplementation_BadHash(t *testing.T) {
	_, err := NewImplementation(Digest{1}, Digest{2}, Naming{},
		WithImplHashFactory(fake.NewHashFactory(fake.NewBadHash())))
	require.Error(t, err)
	require.Contains(t, err.Error(), "fingerprint failed")
}

func TestImplementation_GetNaming(t *testing.T) {
	impl := makeImplementation(t)

	naming := impl.GetNaming()
	naming.Globals["Spec"] = 99

	id, found := impl.GetGlobalID("Spec")
	require.True(t, found)
	require.Equal(t, GlobalID(2000), id)
}

func TestImplementation_Getters(t *testing.T) {
	impl := makeImplementation(t)

	global, found := impl.GetGlobalID("Spec")
	require.True(t, found)
	require.Equal(t, GlobalID(2000), global)

	owned, found := impl.GetOwnedID("AssetOwner")
	require.True(t, found)
	require.Equal(t, OwnedID(4000), owned)

	valency, found := impl.GetValencyID("BurnEpoch")
	require.True(t, found)
	require.Equal(t, ValencyID(6000), valency)

	op, found := impl.GetOperationID("Transfer")
	require.True(t, found)
	require.Equal(t, OpID(10000), op)

	code, found := impl.GetErrorCode("nonEqualAmounts")
	require.True(t, found)
	require.Equal(t, uint8(2), code)

	_, found = impl.GetGlobalID("nope")
	require.False(t, found)
	_, found = impl.GetOwnedID("nope")
	require.False(t, found)
	_, found = impl.GetValencyID("nope")
	require.False(t, found)
	_, found = impl.GetOperationID("nope")
	require.False(t, found)
	_, found = impl.GetErrorCode("nope")
	require.False(t, found)
}

func TestImplementation_Deterministic(t *testing.T) {
	a := makeImplementation(t)
	b := makeImplementation(t)

	require.Equal(t, a.GetHash(), b.GetHash())
}

func TestImplementation_Fingerprint(t *testing.T) {
	impl := makeImplementation(t)

	buffer := new(bytes.Buffer)

	err := impl.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, FormatVersion, buffer.Bytes()[0])

	err = impl.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write version: fake error")

	err = impl.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write schema id: fake error")

	err = impl.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write interface id: fake error")

	err = impl.Fingerprint(fake.NewBadHashWithDelay(3))
	require.EqualError(t, err, "couldn't write count: fake error")

	err = impl.Fingerprint(fake.NewBadHashWithDelay(4))
	require.EqualError(t, err, "couldn't write name: fake error")

	err = impl.Fingerprint(fake.NewBadHashWithDelay(6))
	require.EqualError(t, err, "couldn't write id: fake error")
}

func TestImplementation_Serialize(t *testing.T) {
	impl := makeImplementation(t)

	data, err := impl.Serialize(fake.NewContextWithFormat(serde.Format("good")))
	require.NoError(t, err)
	require.Equal(t, []byte("fake format"), data)

	_, err = impl.Serialize(fake.NewContextWithFormat(serde.Format("bad")))
	require.EqualError(t, err, "couldn't encode implementation: fake error")
}

func TestImplementationFactory_Deserialize(t *testing.T) {
	factory := ImplementationFactory{}

	msg, err := factory.Deserialize(fake.NewContextWithFormat(serde.Format("good")), nil)
	require.NoError(t, err)
	require.IsType(t, Implementation{}, msg)

	_, err = factory.Deserialize(fake.NewContextWithFormat(serde.Format("bad")), nil)
	require.EqualError(t, err, "couldn't decode implementation: fake error")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeImplementation(t *testing.T) Implementation {
	naming := Naming{
		Globals:    map[string]GlobalID{"Spec": 2000},
		Owned:      map[string]OwnedID{"AssetOwner": 4000},
		Valencies:  map[string]ValencyID{"BurnEpoch": 6000},
		Operations: map[string]OpID{"Transfer": 10000},
		Errors:     map[string]uint8{"nonEqualAmounts": 2},
	}

	impl, err := NewImplementation(Digest{1}, Digest{2}, naming)
	require.NoError(t, err)

	return impl
}
