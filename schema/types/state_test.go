package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/typelib"
)

func TestOccurrence_String(t *testing.T) {
	require.Equal(t, "once", Once.String())
	require.Equal(t, "noneOrOnce", NoneOrOnce.String())
	require.Equal(t, "onceOrMore", OnceOrMore.String())
	require.Equal(t, "noneOrMore", NoneOrMore.String())
	require.Equal(t, "unknown", Occurrence(99).String())
}

func TestGlobalStateDef_Getters(t *testing.T) {
	sem := makeSemType(t, "amount", typelib.NewUnsigned(64))

	def := NewGlobalStateDef(2000, sem, Once)

	require.Equal(t, GlobalID(2000), def.GetID())
	require.Equal(t, sem, def.GetType())
	require.Equal(t, Once, def.GetOccurrence())
}

func TestGlobalStateDef_Fingerprint(t *testing.T) {
	sem := makeSemType(t, "amount", typelib.NewUnsigned(64))

	def := NewGlobalStateDef(2000, sem, NoneOrOnce)

	buffer := new(bytes.Buffer)

	err := def.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 2+32+1, buffer.Len())
	require.Equal(t, byte(NoneOrOnce), buffer.Bytes()[buffer.Len()-1])

	err = def.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write id: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write type: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write occurrence: fake error")
}

func TestOwnedKind_String(t *testing.T) {
	require.Equal(t, "declarative", KindDeclarative.String())
	require.Equal(t, "fungible", KindFungible.String())
	require.Equal(t, "structured", KindStructured.String())
	require.Equal(t, "unknown", OwnedKind(99).String())
}

func TestOwnedStateDef_Getters(t *testing.T) {
	def := NewFungibleDef(4000, NoneOrMore)

	require.Equal(t, OwnedID(4000), def.GetID())
	require.Equal(t, KindFungible, def.GetKind())
	require.True(t, def.GetType().IsZero())
	require.Equal(t, NoneOrMore, def.GetOccurrence())

	def = NewDeclarativeDef(4002, NoneOrOnce)
	require.Equal(t, KindDeclarative, def.GetKind())

	sem := makeSemType(t, "blob", typelib.NewBytesUpTo(512))

	def = NewStructuredDef(4001, sem, Once)
	require.Equal(t, KindStructured, def.GetKind())
	require.Equal(t, sem, def.GetType())
}

func TestOwnedStateDef_Fingerprint(t *testing.T) {
	def := NewFungibleDef(4000, NoneOrMore)

	buffer := new(bytes.Buffer)

	err := def.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 4, buffer.Len())

	sem := makeSemType(t, "blob", typelib.NewBytesUpTo(512))

	buffer.Reset()

	err = NewStructuredDef(4001, sem, Once).Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 4+32, buffer.Len())

	err = def.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write id: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write kind: fake error")

	err = NewStructuredDef(4001, sem, Once).Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write type: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write occurrence: fake error")
}

func TestValencyDef_Fingerprint(t *testing.T) {
	def := NewValencyDef(6000)

	require.Equal(t, ValencyID(6000), def.GetID())

	buffer := new(bytes.Buffer)

	err := def.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 2, buffer.Len())

	err = def.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write id: fake error")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeSemType(t *testing.T, name string, expr typelib.Ty) typelib.SemType {
	builder := typelib.NewBuilder()
	builder.Declare(name, expr)

	lib, err := builder.Resolve()
	require.NoError(t, err)

	return lib.Get(name)
}
