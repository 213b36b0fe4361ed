//
// This file contains the type expressions supported by the library: ranged
// unsigned integers, fixed or bounded byte sequences, bounded UTF-8 strings,
// enumerations with explicit ordinals and ordered records.
//

package typelib

import (
	"encoding/binary"
	"io"
	"math"

	"golang.org/x/xerrors"
)

// Kind tags written in front of each expression fingerprint. The tag makes
// the canonical encoding unambiguous between expression kinds.
const (
	tagUnsigned byte = 0x01
	tagBytes    byte = 0x02
	tagString   byte = 0x03
	tagEnum     byte = 0x04
	tagRecord   byte = 0x05
)

// Ty is a type expression. The set of implementations is closed: an
// expression either is concrete, or is a reference to another declaration
// that the library resolution will expand.
type Ty interface {
	// Fingerprint writes the canonical binary representation of the
	// expression. It fails on unresolved references.
	Fingerprint(w io.Writer) error

	// resolve returns the expression with every reference expanded using the
	// provided lookup.
	resolve(lookup func(string) (Ty, error)) (Ty, error)
}

// Unsigned is a fixed-width unsigned integer with an explicit range
// constraint.
//
// - implements typelib.Ty
type Unsigned struct {
	bits uint8
	min  uint64
	max  uint64
}

// NewUnsigned returns an unsigned integer type of the given width in bits.
// The width must be 8, 16, 32 or 64. The range spans the full width.
func NewUnsigned(bits uint8) Unsigned {
	switch bits {
	case 8, 16, 32, 64:
	default:
		panic("unsupported integer width")
	}

	max := uint64(math.MaxUint64)
	if bits < 64 {
		max = 1<<bits - 1
	}

	return Unsigned{bits: bits, max: max}
}

// Range returns a copy of the type restricted to the [min, max] interval.
func (u Unsigned) Range(min, max uint64) Unsigned {
	u.min = min
	u.max = max

	return u
}

// GetBits returns the width of the integer in bits.
func (u Unsigned) GetBits() uint8 {
	return u.bits
}

// GetMin returns the lower bound of the range.
func (u Unsigned) GetMin() uint64 {
	return u.min
}

// GetMax returns the upper bound of the range.
func (u Unsigned) GetMax() uint64 {
	return u.max
}

// Fingerprint implements typelib.Ty.
func (u Unsigned) Fingerprint(w io.Writer) error {
	buffer := make([]byte, 18)
	buffer[0] = tagUnsigned
	buffer[1] = u.bits
	binary.LittleEndian.PutUint64(buffer[2:], u.min)
	binary.LittleEndian.PutUint64(buffer[10:], u.max)

	_, err := w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write unsigned: %v", err)
	}

	return nil
}

func (u Unsigned) resolve(func(string) (Ty, error)) (Ty, error) {
	return u, nil
}

// Bytes is a byte sequence, either of a fixed size or bounded by a maximum
// size.
//
// - implements typelib.Ty
type Bytes struct {
	fixed bool
	size  uint16
}

// NewBytes returns a byte sequence type of a fixed size.
func NewBytes(size uint16) Bytes {
	return Bytes{fixed: true, size: size}
}

// NewBytesUpTo returns a variable-length byte sequence type bounded by the
// maximum size.
func NewBytesUpTo(max uint16) Bytes {
	return Bytes{size: max}
}

// IsFixed returns true when the sequence has a fixed size.
func (b Bytes) IsFixed() bool {
	return b.fixed
}

// GetSize returns the size of the sequence, or its upper bound when the
// sequence is variable-length.
func (b Bytes) GetSize() uint16 {
	return b.size
}

// Fingerprint implements typelib.Ty.
func (b Bytes) Fingerprint(w io.Writer) error {
	buffer := make([]byte, 4)
	buffer[0] = tagBytes
	if b.fixed {
		buffer[1] = 1
	}
	binary.LittleEndian.PutUint16(buffer[2:], b.size)

	_, err := w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write bytes: %v", err)
	}

	return nil
}

func (b Bytes) resolve(func(string) (Ty, error)) (Ty, error) {
	return b, nil
}

// Str is a UTF-8 string bounded by a maximum length in bytes.
//
// - implements typelib.Ty
type Str struct {
	maxLen uint16
}

// NewString returns a string type bounded by the maximum length.
func NewString(maxLen uint16) Str {
	return Str{maxLen: maxLen}
}

// GetMaxLen returns the maximum length of the string in bytes.
func (s Str) GetMaxLen() uint16 {
	return s.maxLen
}

// Fingerprint implements typelib.Ty.
func (s Str) Fingerprint(w io.Writer) error {
	buffer := make([]byte, 3)
	buffer[0] = tagString
	binary.LittleEndian.PutUint16(buffer[1:], s.maxLen)

	_, err := w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write string: %v", err)
	}

	return nil
}

func (s Str) resolve(func(string) (Ty, error)) (Ty, error) {
	return s, nil
}

// Variant is a named ordinal of an enumeration.
type Variant struct {
	Name    string
	Ordinal uint8
}

// Enum is an enumeration with explicit ordinal values.
//
// - implements typelib.Ty
type Enum struct {
	variants []Variant
}

// NewEnum returns an enumeration type with the given variants. The variants
// keep their declaration order.
func NewEnum(variants ...Variant) Enum {
	return Enum{variants: append([]Variant{}, variants...)}
}

// GetVariants returns a copy of the variants of the enumeration.
func (e Enum) GetVariants() []Variant {
	return append([]Variant{}, e.variants...)
}

// Fingerprint implements typelib.Ty.
func (e Enum) Fingerprint(w io.Writer) error {
	_, err := w.Write([]byte{tagEnum, byte(len(e.variants))})
	if err != nil {
		return xerrors.Errorf("couldn't write enum: %v", err)
	}

	for _, variant := range e.variants {
		_, err = w.Write([]byte{variant.Ordinal})
		if err != nil {
			return xerrors.Errorf("couldn't write ordinal: %v", err)
		}

		err = writeString(w, variant.Name)
		if err != nil {
			return xerrors.Errorf("couldn't write variant: %v", err)
		}
	}

	return nil
}

func (e Enum) resolve(func(string) (Ty, error)) (Ty, error) {
	return e, nil
}

// Field is a named field of a record.
type Field struct {
	Name string
	Type Ty
}

// Record is an ordered composite of named fields.
//
// - implements typelib.Ty
type Record struct {
	fields []Field
}

// NewRecord returns a record type with the given fields. The fields keep
// their declaration order.
func NewRecord(fields ...Field) Record {
	return Record{fields: append([]Field{}, fields...)}
}

// GetFields returns a copy of the fields of the record.
func (r Record) GetFields() []Field {
	return append([]Field{}, r.fields...)
}

// Fingerprint implements typelib.Ty.
func (r Record) Fingerprint(w io.Writer) error {
	_, err := w.Write([]byte{tagRecord, byte(len(r.fields))})
	if err != nil {
		return xerrors.Errorf("couldn't write record: %v", err)
	}

	for _, field := range r.fields {
		err = writeString(w, field.Name)
		if err != nil {
			return xerrors.Errorf("couldn't write field name: %v", err)
		}

		err = field.Type.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("field '%s' fingerprint failed: %v", field.Name, err)
		}
	}

	return nil
}

func (r Record) resolve(lookup func(string) (Ty, error)) (Ty, error) {
	fields := make([]Field, len(r.fields))

	for i, field := range r.fields {
		expr, err := field.Type.resolve(lookup)
		if err != nil {
			return nil, err
		}

		fields[i] = Field{Name: field.Name, Type: expr}
	}

	return Record{fields: fields}, nil
}

// Ref is a reference to another declaration of the library. References only
// exist before resolution: a resolved library contains none.
//
// - implements typelib.Ty
type Ref struct {
	name string
}

// NewRef returns a reference to the declaration of the given name.
func NewRef(name string) Ref {
	return Ref{name: name}
}

// GetName returns the name of the referenced declaration.
func (r Ref) GetName() string {
	return r.name
}

// Fingerprint implements typelib.Ty. It always returns an error as a
// reference has no canonical representation.
func (r Ref) Fingerprint(io.Writer) error {
	return xerrors.Errorf("unresolved reference to '%s'", r.name)
}

func (r Ref) resolve(lookup func(string) (Ty, error)) (Ty, error) {
	return lookup(r.name)
}

func writeString(w io.Writer, value string) error {
	buffer := make([]byte, 2)
	binary.LittleEndian.PutUint16(buffer, uint16(len(value)))

	_, err := w.Write(buffer)
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(value))

	return err
}
