package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/typelib"
)

func TestOpKind_String(t *testing.T) {
	require.Equal(t, "genesis", Genesis.String())
	require.Equal(t, "transition", Transition.String())
	require.Equal(t, "extension", Extension.String())
	require.Equal(t, "unknown", OpKind(99).String())
}

func TestOperationDef_Getters(t *testing.T) {
	def := NewOperationDef(Transition, 10000,
		WithGlobals(2001, 2000),
		WithInputs(4000),
		WithOutputs(4001, 4000),
		WithRedeems(6000),
		WithProvides(6001),
	)

	require.Equal(t, OpID(10000), def.GetID())
	require.Equal(t, Transition, def.GetKind())
	require.Equal(t, []GlobalID{2000, 2001}, def.GetGlobals())
	require.Equal(t, []OwnedID{4000}, def.GetInputs())
	require.Equal(t, []OwnedID{4000, 4001}, def.GetOutputs())
	require.Equal(t, []ValencyID{6000}, def.GetRedeems())
	require.Equal(t, []ValencyID{6001}, def.GetProvides())
	require.True(t, def.GetMeta().IsZero())
}

func TestOperationDef_WithMeta(t *testing.T) {
	sem := makeSemType(t, "note", typelib.NewString(64))

	def := NewOperationDef(Genesis, 0, WithMeta(sem))

	require.Equal(t, sem, def.GetMeta())
}

func TestOperationDef_Fingerprint(t *testing.T) {
	def := NewOperationDef(Transition, 10000, WithInputs(4000), WithOutputs(4000))

	buffer := new(bytes.Buffer)

	err := def.Fingerprint(buffer)
	require.NoError(t, err)
	// id + kind + meta flag + five counted sections, two of them with one
	// entry each.
	require.Equal(t, 2+1+1+5*2+2*2, buffer.Len())

	err = def.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write id: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write kind: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write meta flag: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(3))
	require.EqualError(t, err, "couldn't write length: fake error")

	err = def.Fingerprint(fake.NewBadHashWithDelay(4))
	require.EqualError(t, err, "couldn't write field id: fake error")
}

func TestOperationDef_DeclarationOrder_Fingerprint(t *testing.T) {
	a := NewOperationDef(Transition, 10000, WithInputs(4000, 4001), WithOutputs(4000))
	b := NewOperationDef(Transition, 10000, WithInputs(4001, 4000), WithOutputs(4000))

	bufA := new(bytes.Buffer)
	bufB := new(bytes.Buffer)

	require.NoError(t, a.Fingerprint(bufA))
	require.NoError(t, b.Fingerprint(bufB))

	require.Equal(t, bufA.Bytes(), bufB.Bytes())
}

func TestOperationDef_Meta_Fingerprint(t *testing.T) {
	sem := makeSemType(t, "note", typelib.NewString(64))

	def := NewOperationDef(Genesis, 0, WithMeta(sem))

	buffer := new(bytes.Buffer)

	err := def.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 2+1+1+32+5*2, buffer.Len())

	err = def.Fingerprint(fake.NewBadHashWithDelay(3))
	require.EqualError(t, err, "couldn't write meta: fake error")
}
