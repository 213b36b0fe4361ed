package typelib

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
)

func TestUnsigned_New(t *testing.T) {
	u := NewUnsigned(8)
	require.Equal(t, uint64(255), u.GetMax())

	u = NewUnsigned(64)
	require.Equal(t, uint64(0), u.GetMin())
	require.Equal(t, ^uint64(0), u.GetMax())

	require.Panics(t, func() { NewUnsigned(12) })
}

func TestUnsigned_Range(t *testing.T) {
	u := NewUnsigned(16).Range(10, 100)

	require.Equal(t, uint64(10), u.GetMin())
	require.Equal(t, uint64(100), u.GetMax())
	require.Equal(t, uint8(16), u.GetBits())
}

func TestUnsigned_Fingerprint(t *testing.T) {
	buffer := new(bytes.Buffer)

	err := NewUnsigned(32).Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, 18, buffer.Len())
	require.Equal(t, tagUnsigned, buffer.Bytes()[0])

	err = NewUnsigned(32).Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write unsigned: fake error")
}

func TestBytes_Fingerprint(t *testing.T) {
	buffer := new(bytes.Buffer)

	err := NewBytes(32).Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, []byte{tagBytes, 1, 32, 0}, buffer.Bytes())

	buffer.Reset()

	err = NewBytesUpTo(32).Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, []byte{tagBytes, 0, 32, 0}, buffer.Bytes())

	err = NewBytes(32).Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write bytes: fake error")
}

func TestStr_Fingerprint(t *testing.T) {
	buffer := new(bytes.Buffer)

	err := NewString(40).Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, []byte{tagString, 40, 0}, buffer.Bytes())

	err = NewString(40).Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write string: fake error")
}

func TestEnum_GetVariants(t *testing.T) {
	e := NewEnum(Variant{Name: "a", Ordinal: 0}, Variant{Name: "b", Ordinal: 1})

	require.Len(t, e.GetVariants(), 2)
	require.Equal(t, "b", e.GetVariants()[1].Name)
}

func TestEnum_Fingerprint(t *testing.T) {
	e := NewEnum(Variant{Name: "cents", Ordinal: 2})

	buffer := new(bytes.Buffer)

	err := e.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, []byte{tagEnum, 1, 2, 5, 0, 'c', 'e', 'n', 't', 's'}, buffer.Bytes())

	err = e.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write enum: fake error")

	err = e.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write ordinal: fake error")

	err = e.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write variant: fake error")
}

func TestRecord_GetFields(t *testing.T) {
	r := NewRecord(Field{Name: "f", Type: NewUnsigned(8)})

	require.Len(t, r.GetFields(), 1)
}

func TestRecord_Fingerprint(t *testing.T) {
	r := NewRecord(Field{Name: "f", Type: NewString(4)})

	buffer := new(bytes.Buffer)

	err := r.Fingerprint(buffer)
	require.NoError(t, err)
	require.Equal(t, tagRecord, buffer.Bytes()[0])

	err = r.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write record: fake error")

	err = r.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, "couldn't write field name: fake error")

	bad := NewRecord(Field{Name: "f", Type: NewRef("x")})

	err = bad.Fingerprint(buffer)
	require.EqualError(t, err, "field 'f' fingerprint failed: unresolved reference to 'x'")
}

func TestRef_Fingerprint(t *testing.T) {
	err := NewRef("abc").Fingerprint(new(bytes.Buffer))
	require.EqualError(t, err, "unresolved reference to 'abc'")
}
