package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/typelib"
)

func init() {
	RegisterSchemaFormat(serde.Format("good"), fake.Format{Msg: Schema{}})
	RegisterSchemaFormat(serde.Format("bad"), fake.NewBadFormat())
	RegisterImplementationFormat(serde.Format("good"), fake.Format{Msg: Implementation{}})
	RegisterImplementationFormat(serde.Format("bad"), fake.NewBadFormat())
}

func TestNewSchema(t *testing.T) {
	schema := makeSchema(t)

	require.NotEqual(t, Digest{}, schema.GetHash())
	require.Equal(t, "token", schema.GetName())
	require.Equal(t, int64(1000), schema.GetTimestamp())
	require.Equal(t, "acme", schema.GetDeveloper())

	_, found := schema.GetRoot()
	require.False(t, found)
}

func TestNewSchema_DuplicateGlobal(t *testing.T) {
	lib := makeTestLibrary(t)
	amount := lib.Get("amount")

	globals := []GlobalStateDef{
		NewGlobalStateDef(2000, amount, Once),
		NewGlobalStateDef(2000, amount, Once),
	}

	_, err := NewSchema("token", lib, globals, nil, nil, nil, nil)
	require.EqualError(t, err, "duplicate global id 2000")
}

func TestNewSchema_DuplicateOwned(t *testing.T) {
	lib := makeTestLibrary(t)

	owned := []OwnedStateDef{
		NewFungibleDef(4000, NoneOrMore),
		NewFungibleDef(4000, NoneOrMore),
	}

	_, err := NewSchema("token", lib, nil, owned, nil, nil, nil)
	require.EqualError(t, err, "duplicate owned id 4000")
}

func TestNewSchema_DuplicateValency(t *testing.T) {
	lib := makeTestLibrary(t)

	valencies := []ValencyDef{NewValencyDef(6000), NewValencyDef(6000)}

	_, err := NewSchema("token", lib, nil, nil, valencies, nil, nil)
	require.EqualError(t, err, "duplicate valency id 6000")
}

func TestNewSchema_DuplicateOperation(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{
		NewOperationDef(Genesis, 0),
		NewOperationDef(Genesis, 0),
	}

	scripts := map[OpID]Script{0: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "duplicate operation id 0")
}

func TestNewSchema_GenesisWithInputs(t *testing.T) {
	lib := makeTestLibrary(t)

	owned := []OwnedStateDef{NewFungibleDef(4000, NoneOrMore)}
	ops := []OperationDef{NewOperationDef(Genesis, 0, WithInputs(4000))}
	scripts := map[OpID]Script{0: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, owned, nil, ops, scripts)
	require.EqualError(t, err,
		"operation 0 of kind genesis: genesis declares owned state inputs")
}

func TestNewSchema_GenesisWithRedeems(t *testing.T) {
	lib := makeTestLibrary(t)

	valencies := []ValencyDef{NewValencyDef(6000)}
	ops := []OperationDef{NewOperationDef(Genesis, 0, WithRedeems(6000))}
	scripts := map[OpID]Script{0: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, valencies, ops, scripts)
	require.EqualError(t, err, "operation 0 of kind genesis: genesis redeems valencies")
}

func TestNewSchema_ExtensionWithInputs(t *testing.T) {
	lib := makeTestLibrary(t)

	owned := []OwnedStateDef{NewFungibleDef(4000, NoneOrMore)}
	ops := []OperationDef{NewOperationDef(Extension, 11000, WithInputs(4000))}
	scripts := map[OpID]Script{11000: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, owned, nil, ops, scripts)
	require.EqualError(t, err,
		"operation 11000 of kind extension: extension declares owned state inputs")
}

func TestNewSchema_UnknownKind(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{NewOperationDef(OpKind(99), 1)}
	scripts := map[OpID]Script{1: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 1 of kind unknown: unknown operation kind")
}

func TestNewSchema_UnknownGlobalRef(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{NewOperationDef(Genesis, 0, WithGlobals(2000))}
	scripts := map[OpID]Script{0: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 0 references unknown global id 2000")
}

func TestNewSchema_UnknownOwnedRef(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{NewOperationDef(Transition, 10000, WithInputs(4000))}
	scripts := map[OpID]Script{10000: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 10000 references unknown owned id 4000")

	ops = []OperationDef{NewOperationDef(Transition, 10000, WithOutputs(4000))}

	_, err = NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 10000 references unknown owned id 4000")
}

func TestNewSchema_UnknownValencyRef(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{NewOperationDef(Transition, 10000, WithRedeems(6000))}
	scripts := map[OpID]Script{10000: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 10000 references unknown valency id 6000")

	ops = []OperationDef{NewOperationDef(Transition, 10000, WithProvides(6000))}

	_, err = NewSchema("token", lib, nil, nil, nil, ops, scripts)
	require.EqualError(t, err, "operation 10000 references unknown valency id 6000")
}

func TestNewSchema_ScriptForUnknownOperation(t *testing.T) {
	lib := makeTestLibrary(t)

	scripts := map[OpID]Script{42: NewScript([]byte{0})}

	_, err := NewSchema("token", lib, nil, nil, nil, nil, scripts)
	require.EqualError(t, err, "operation 42 references unknown operation id 42")
}

func TestNewSchema_MissingScript(t *testing.T) {
	lib := makeTestLibrary(t)

	ops := []OperationDef{NewOperationDef(Genesis, 0)}

	_, err := NewSchema("token", lib, nil, nil, nil, ops, nil)
	require.EqualError(t, err, "operation 0 has no validation script")
}

func TestNewSchema_BadHash(t *testing.T) {
	lib := makeTestLibrary(t)

	_, err := NewSchema("token", lib, nil, nil, nil, nil, nil,
		WithHashFactory(fake.NewHashFactory(fake.NewBadHash())))
	require.Error(t, err)
	require.Contains(t, err.Error(), "fingerprint failed")
}

func TestSchema_Deterministic(t *testing.T) {
	a := makeSchema(t)
	b := makeSchema(t)

	require.Equal(t, a.GetHash(), b.GetHash())
}

func TestSchema_ContentChange(t *testing.T) {
	a := makeSchema(t)

	lib := makeTestLibrary(t)

	// Same declarations except for the developer identity.
	b, err := NewSchema("token", lib,
		[]GlobalStateDef{NewGlobalStateDef(2000, lib.Get("amount"), Once)},
		[]OwnedStateDef{NewFungibleDef(4000, NoneOrMore)},
		[]ValencyDef{NewValencyDef(6000)},
		[]OperationDef{
			NewOperationDef(Genesis, 0, WithGlobals(2000), WithOutputs(4000)),
			NewOperationDef(Transition, 10000, WithInputs(4000), WithOutputs(4000)),
		},
		map[OpID]Script{0: NewScript([]byte{0}), 10000: NewScript([]byte{0})},
		WithTimestamp(1000), WithDeveloper("evil"),
	)
	require.NoError(t, err)

	require.NotEqual(t, a.GetHash(), b.GetHash())
}

func TestSchema_WithRoot(t *testing.T) {
	lib := makeTestLibrary(t)

	root := Digest{1, 2, 3}

	schema, err := NewSchema("child", lib, nil, nil, nil, nil, nil, WithRoot(root))
	require.NoError(t, err)

	id, found := schema.GetRoot()
	require.True(t, found)
	require.Equal(t, root, id)

	plain, err := NewSchema("child", lib, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, plain.GetHash(), schema.GetHash())
}

func TestSchema_Getters(t *testing.T) {
	schema := makeSchema(t)

	require.Equal(t, 2, schema.GetTypes().Len())

	def, found := schema.GetGlobal(2000)
	require.True(t, found)
	require.Equal(t, GlobalID(2000), def.GetID())
	require.Len(t, schema.GetGlobals(), 1)

	owned, found := schema.GetOwned(4000)
	require.True(t, found)
	require.Equal(t, KindFungible, owned.GetKind())
	require.Len(t, schema.GetOwnedList(), 1)

	_, found = schema.GetValency(6000)
	require.True(t, found)
	require.Len(t, schema.GetValencies(), 1)

	op, found := schema.GetOperation(10000)
	require.True(t, found)
	require.Equal(t, Transition, op.GetKind())
	require.Len(t, schema.GetOperations(), 2)

	script, found := schema.GetScript(0)
	require.True(t, found)
	require.Equal(t, 1, script.Len())

	_, found = schema.GetGlobal(9)
	require.False(t, found)
	_, found = schema.GetOwned(9)
	require.False(t, found)
	_, found = schema.GetValency(9)
	require.False(t, found)
	_, found = schema.GetOperation(9)
	require.False(t, found)
	_, found = schema.GetScript(9)
	require.False(t, found)
}

func TestSchema_Fingerprint(t *testing.T) {
	schema := makeSchema(t)

	buffer := new(bytes.Buffer)

	err := schema.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, FormatVersion, buffer.Bytes()[0])

	for i := 0; i < 20; i++ {
		err = schema.Fingerprint(fake.NewBadHashWithDelay(i))
		require.Error(t, err)
	}
}

func TestSchema_Serialize(t *testing.T) {
	schema := makeSchema(t)

	data, err := schema.Serialize(fake.NewContextWithFormat(serde.Format("good")))
	require.NoError(t, err)
	require.Equal(t, []byte("fake format"), data)

	_, err = schema.Serialize(fake.NewContextWithFormat(serde.Format("bad")))
	require.EqualError(t, err, "couldn't encode schema: fake error")
}

func TestSchemaFactory_Deserialize(t *testing.T) {
	factory := SchemaFactory{}

	msg, err := factory.Deserialize(fake.NewContextWithFormat(serde.Format("good")), nil)
	require.NoError(t, err)
	require.IsType(t, Schema{}, msg)

	_, err = factory.Deserialize(fake.NewContextWithFormat(serde.Format("bad")), nil)
	require.EqualError(t, err, "couldn't decode schema: fake error")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeTestLibrary(t *testing.T) typelib.Library {
	builder := typelib.NewBuilder()
	builder.Declare("amount", typelib.NewUnsigned(64))
	builder.Declare("blob", typelib.NewBytesUpTo(512))

	lib, err := builder.Resolve()
	require.NoError(t, err)

	return lib
}

func makeSchema(t *testing.T) Schema {
	lib := makeTestLibrary(t)

	schema, err := NewSchema("token", lib,
		[]GlobalStateDef{NewGlobalStateDef(2000, lib.Get("amount"), Once)},
		[]OwnedStateDef{NewFungibleDef(4000, NoneOrMore)},
		[]ValencyDef{NewValencyDef(6000)},
		[]OperationDef{
			NewOperationDef(Genesis, 0, WithGlobals(2000), WithOutputs(4000)),
			NewOperationDef(Transition, 10000, WithInputs(4000), WithOutputs(4000)),
		},
		map[OpID]Script{0: NewScript([]byte{0}), 10000: NewScript([]byte{0})},
		WithTimestamp(1000), WithDeveloper("acme"),
	)
	require.NoError(t, err)

	return schema
}
