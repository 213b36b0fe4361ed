package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/contracts/ia"
	"go.dedis.ch/crest/contracts/nia"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/typelib"
)

func TestSchemaFormat_Encode(t *testing.T) {
	format := schemaFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	schema, err := nia.NewSchema()
	require.NoError(t, err)

	data, err := format.Encode(ctx, schema)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Name":"NonInflatableAsset"`)

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), schema)
	require.EqualError(t, err, "couldn't marshal: fake error")
}

func TestSchemaFormat_RoundTrip(t *testing.T) {
	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	schema, err := nia.NewSchema()
	require.NoError(t, err)

	data, err := schema.Serialize(ctx)
	require.NoError(t, err)

	msg, err := types.SchemaFactory{}.Deserialize(ctx, data)
	require.NoError(t, err)

	decoded, ok := msg.(types.Schema)
	require.True(t, ok)
	require.Equal(t, schema.GetHash(), decoded.GetHash())
	require.Equal(t, schema.GetName(), decoded.GetName())
	require.Equal(t, schema.GetTimestamp(), decoded.GetTimestamp())
}

func TestSchemaFormat_Root_RoundTrip(t *testing.T) {
	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	schema, err := ia.NewSchema()
	require.NoError(t, err)

	data, err := schema.Serialize(ctx)
	require.NoError(t, err)

	msg, err := types.SchemaFactory{}.Deserialize(ctx, data)
	require.NoError(t, err)

	decoded := msg.(types.Schema)
	require.Equal(t, schema.GetHash(), decoded.GetHash())

	root, found := decoded.GetRoot()
	require.True(t, found)

	expected, _ := schema.GetRoot()
	require.Equal(t, expected, root)
}

func TestSchemaFormat_Decode(t *testing.T) {
	format := schemaFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	_, err := format.Decode(ctx, []byte(`not json`))
	require.Error(t, err)

	var malformed types.MalformedEncodingError
	require.ErrorAs(t, err, &malformed)

	_, err = format.Decode(ctx, []byte(`{"Version":9}`))
	require.EqualError(t, err, "malformed encoding: unsupported format version")

	_, err = format.Decode(ctx, []byte(`{"Types":{"a":{}}}`))
	require.EqualError(t, err,
		"couldn't decode type 'a': malformed encoding: empty type expression")

	_, err = format.Decode(ctx,
		[]byte(`{"Types":{"a":{"Unsigned":{"Bits":12}}}}`))
	require.EqualError(t, err,
		"couldn't decode type 'a': malformed encoding: unsupported integer width")

	_, err = format.Decode(ctx,
		[]byte(`{"Globals":[{"ID":2000,"Type":"nope","Occurrence":0}]}`))
	require.EqualError(t, err, "malformed encoding: unknown type 'nope'")

	_, err = format.Decode(ctx,
		[]byte(`{"Globals":[{"ID":2000,"Type":"a","Occurrence":9}],`+
			`"Types":{"a":{"String":{"MaxLen":8}}}}`))
	require.EqualError(t, err, "malformed encoding: unknown occurrence")

	_, err = format.Decode(ctx,
		[]byte(`{"Owned":[{"ID":4000,"Kind":9,"Occurrence":0}]}`))
	require.EqualError(t, err, "malformed encoding: unknown owned kind")

	_, err = format.Decode(ctx,
		[]byte(`{"Operations":[{"ID":0,"Kind":9}]}`))
	require.EqualError(t, err, "malformed encoding: unknown operation kind")

	_, err = format.Decode(ctx, []byte(`{"Root":"AQID"}`))
	require.EqualError(t, err, "malformed encoding: invalid digest length")

	// A declaration failing the schema invariants is rejected as a whole.
	_, err = format.Decode(ctx,
		[]byte(`{"Operations":[{"ID":0,"Kind":0,"Inputs":[4000]}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't create schema")
}

func TestImplFormat_Encode(t *testing.T) {
	format := implFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	impl, err := nia.NewImplementation()
	require.NoError(t, err)

	data, err := format.Encode(ctx, impl)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Schema"`)

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), impl)
	require.EqualError(t, err, "couldn't marshal: fake error")
}

func TestImplFormat_RoundTrip(t *testing.T) {
	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	impl, err := ia.NewImplementation()
	require.NoError(t, err)

	data, err := impl.Serialize(ctx)
	require.NoError(t, err)

	msg, err := types.ImplementationFactory{}.Deserialize(ctx, data)
	require.NoError(t, err)

	decoded, ok := msg.(types.Implementation)
	require.True(t, ok)
	require.Equal(t, impl.GetHash(), decoded.GetHash())
	require.Equal(t, impl.GetSchema(), decoded.GetSchema())
	require.Equal(t, impl.GetNaming(), decoded.GetNaming())
}

func TestImplFormat_Decode(t *testing.T) {
	format := implFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	_, err := format.Decode(ctx, []byte(`not json`))
	require.Error(t, err)

	_, err = format.Decode(ctx, []byte(`{"Version":9}`))
	require.EqualError(t, err, "malformed encoding: unsupported format version")

	_, err = format.Decode(ctx, []byte(`{"Schema":"AQ=="}`))
	require.EqualError(t, err, "malformed encoding: invalid digest length")
}

func TestEncodeTy_Unsupported(t *testing.T) {
	_, err := encodeTy(typelib.NewRef("a"))
	require.EqualError(t, err, "unsupported expression of type 'typelib.Ref'")
}
