// Package json implements the JSON formats of the schema artifacts.
//
// The JSON form is an interchange encoding only: the identifier of an
// artifact is always recomputed from the decoded content and never read from
// the input.
package json

import (
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/typelib"
	"golang.org/x/xerrors"
)

func init() {
	types.RegisterSchemaFormat(serde.FormatJSON, schemaFormat{})
	types.RegisterImplementationFormat(serde.FormatJSON, implFormat{})
}

// UnsignedJSON is the JSON message of an unsigned integer type.
type UnsignedJSON struct {
	Bits uint8
	Min  uint64
	Max  uint64
}

// BytesJSON is the JSON message of a byte sequence type.
type BytesJSON struct {
	Fixed bool
	Size  uint16
}

// StringJSON is the JSON message of a bounded string type.
type StringJSON struct {
	MaxLen uint16
}

// VariantJSON is the JSON message of an enumeration variant.
type VariantJSON struct {
	Name    string
	Ordinal uint8
}

// EnumJSON is the JSON message of an enumeration type.
type EnumJSON struct {
	Variants []VariantJSON
}

// FieldJSON is the JSON message of a record field.
type FieldJSON struct {
	Name string
	Type TyJSON
}

// RecordJSON is the JSON message of a record type.
type RecordJSON struct {
	Fields []FieldJSON
}

// TyJSON is the JSON message of a type expression. Exactly one of the
// pointers is set.
type TyJSON struct {
	Unsigned *UnsignedJSON `json:",omitempty"`
	Bytes    *BytesJSON    `json:",omitempty"`
	String   *StringJSON   `json:",omitempty"`
	Enum     *EnumJSON     `json:",omitempty"`
	Record   *RecordJSON   `json:",omitempty"`
}

// GlobalJSON is the JSON message of a global state declaration.
type GlobalJSON struct {
	ID         uint16
	Type       string
	Occurrence byte
}

// OwnedJSON is the JSON message of an owned state declaration.
type OwnedJSON struct {
	ID         uint16
	Kind       byte
	Type       string `json:",omitempty"`
	Occurrence byte
}

// ValencyJSON is the JSON message of a valency declaration.
type ValencyJSON struct {
	ID uint16
}

// OperationJSON is the JSON message of an operation declaration and its
// validation script.
type OperationJSON struct {
	ID       uint16
	Kind     byte
	Meta     string `json:",omitempty"`
	Globals  []uint16
	Inputs   []uint16
	Outputs  []uint16
	Redeems  []uint16
	Provides []uint16
	Script   []byte
}

// SchemaJSON is the JSON message of a schema artifact.
type SchemaJSON struct {
	Version    byte
	Name       string
	Timestamp  int64
	Developer  string
	Root       []byte `json:",omitempty"`
	Types      map[string]TyJSON
	Globals    []GlobalJSON
	Owned      []OwnedJSON
	Valencies  []ValencyJSON
	Operations []OperationJSON
}

// ImplementationJSON is the JSON message of an implementation record.
type ImplementationJSON struct {
	Version    byte
	Schema     []byte
	Interface  []byte
	Globals    map[string]uint16
	Owned      map[string]uint16
	Valencies  map[string]uint16
	Operations map[string]uint16
	Errors     map[string]uint8
}

// SchemaFormat is the engine to encode and decode schema artifacts in JSON
// format.
//
// - implements serde.FormatEngine
type schemaFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of the
// schema if appropriate, otherwise it returns an error.
func (f schemaFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	schema, ok := msg.(types.Schema)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	lib := schema.GetTypes()

	tys := make(map[string]TyJSON)
	for _, name := range lib.Names() {
		ty, err := encodeTy(lib.Get(name).GetExpr())
		if err != nil {
			return nil, xerrors.Errorf("couldn't encode type '%s': %v", name, err)
		}

		tys[name] = ty
	}

	globals := make([]GlobalJSON, 0, len(schema.GetGlobals()))
	for _, def := range schema.GetGlobals() {
		globals = append(globals, GlobalJSON{
			ID:         uint16(def.GetID()),
			Type:       def.GetType().GetName(),
			Occurrence: byte(def.GetOccurrence()),
		})
	}

	owned := make([]OwnedJSON, 0, len(schema.GetOwnedList()))
	for _, def := range schema.GetOwnedList() {
		m := OwnedJSON{
			ID:         uint16(def.GetID()),
			Kind:       byte(def.GetKind()),
			Occurrence: byte(def.GetOccurrence()),
		}

		if def.GetKind() == types.KindStructured {
			m.Type = def.GetType().GetName()
		}

		owned = append(owned, m)
	}

	valencies := make([]ValencyJSON, 0, len(schema.GetValencies()))
	for _, def := range schema.GetValencies() {
		valencies = append(valencies, ValencyJSON{ID: uint16(def.GetID())})
	}

	ops := make([]OperationJSON, 0, len(schema.GetOperations()))
	for _, def := range schema.GetOperations() {
		script, _ := schema.GetScript(def.GetID())

		m := OperationJSON{
			ID:       uint16(def.GetID()),
			Kind:     byte(def.GetKind()),
			Globals:  globalsToUint16(def.GetGlobals()),
			Inputs:   ownedToUint16(def.GetInputs()),
			Outputs:  ownedToUint16(def.GetOutputs()),
			Redeems:  valenciesToUint16(def.GetRedeems()),
			Provides: valenciesToUint16(def.GetProvides()),
			Script:   script.GetCode(),
		}

		if !def.GetMeta().IsZero() {
			m.Meta = def.GetMeta().GetName()
		}

		ops = append(ops, m)
	}

	m := SchemaJSON{
		Version:    types.FormatVersion,
		Name:       schema.GetName(),
		Timestamp:  schema.GetTimestamp(),
		Developer:  schema.GetDeveloper(),
		Types:      tys,
		Globals:    globals,
		Owned:      owned,
		Valencies:  valencies,
		Operations: ops,
	}

	if root, found := schema.GetRoot(); found {
		m.Root = root.Bytes()
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the schema from the data
// if appropriate, otherwise it returns an error. The identifier of the
// schema is recomputed from the content.
func (f schemaFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := SchemaJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, types.MalformedEncodingError{Reason: err.Error()}
	}

	if m.Version != types.FormatVersion {
		return nil, types.MalformedEncodingError{Reason: "unsupported format version"}
	}

	builder := typelib.NewBuilder()
	for name, ty := range m.Types {
		expr, err := decodeTy(ty)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode type '%s': %w", name, err)
		}

		builder.Declare(name, expr)
	}

	lib, err := builder.Resolve()
	if err != nil {
		return nil, xerrors.Errorf("couldn't resolve library: %v", err)
	}

	globals := make([]types.GlobalStateDef, len(m.Globals))
	for i, def := range m.Globals {
		sem := lib.Get(def.Type)
		if sem.IsZero() {
			return nil, types.MalformedEncodingError{Reason: "unknown type '" + def.Type + "'"}
		}

		occ, err := decodeOccurrence(def.Occurrence)
		if err != nil {
			return nil, err
		}

		globals[i] = types.NewGlobalStateDef(types.GlobalID(def.ID), sem, occ)
	}

	owned := make([]types.OwnedStateDef, len(m.Owned))
	for i, def := range m.Owned {
		occ, err := decodeOccurrence(def.Occurrence)
		if err != nil {
			return nil, err
		}

		switch types.OwnedKind(def.Kind) {
		case types.KindDeclarative:
			owned[i] = types.NewDeclarativeDef(types.OwnedID(def.ID), occ)
		case types.KindFungible:
			owned[i] = types.NewFungibleDef(types.OwnedID(def.ID), occ)
		case types.KindStructured:
			sem := lib.Get(def.Type)
			if sem.IsZero() {
				return nil, types.MalformedEncodingError{Reason: "unknown type '" + def.Type + "'"}
			}

			owned[i] = types.NewStructuredDef(types.OwnedID(def.ID), sem, occ)
		default:
			return nil, types.MalformedEncodingError{Reason: "unknown owned kind"}
		}
	}

	valencies := make([]types.ValencyDef, len(m.Valencies))
	for i, def := range m.Valencies {
		valencies[i] = types.NewValencyDef(types.ValencyID(def.ID))
	}

	ops := make([]types.OperationDef, len(m.Operations))
	scripts := make(map[types.OpID]types.Script)

	for i, def := range m.Operations {
		kind := types.OpKind(def.Kind)
		if kind != types.Genesis && kind != types.Transition && kind != types.Extension {
			return nil, types.MalformedEncodingError{Reason: "unknown operation kind"}
		}

		opts := []types.OperationOption{
			types.WithGlobals(uint16ToGlobals(def.Globals)...),
			types.WithInputs(uint16ToOwned(def.Inputs)...),
			types.WithOutputs(uint16ToOwned(def.Outputs)...),
			types.WithRedeems(uint16ToValencies(def.Redeems)...),
			types.WithProvides(uint16ToValencies(def.Provides)...),
		}

		if def.Meta != "" {
			sem := lib.Get(def.Meta)
			if sem.IsZero() {
				return nil, types.MalformedEncodingError{Reason: "unknown type '" + def.Meta + "'"}
			}

			opts = append(opts, types.WithMeta(sem))
		}

		ops[i] = types.NewOperationDef(kind, types.OpID(def.ID), opts...)
		scripts[types.OpID(def.ID)] = types.NewScript(def.Script)
	}

	opts := []types.SchemaOption{
		types.WithTimestamp(m.Timestamp),
		types.WithDeveloper(m.Developer),
	}

	if m.Root != nil {
		root, err := decodeDigest(m.Root)
		if err != nil {
			return nil, err
		}

		opts = append(opts, types.WithRoot(root))
	}

	schema, err := types.NewSchema(m.Name, lib, globals, owned, valencies,
		ops, scripts, opts...)
	if err != nil {
		return nil, xerrors.Errorf("couldn't create schema: %w", err)
	}

	return schema, nil
}

// ImplFormat is the engine to encode and decode implementation records in
// JSON format.
//
// - implements serde.FormatEngine
type implFormat struct{}

// Encode implements serde.FormatEngine.
func (f implFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	impl, ok := msg.(types.Implementation)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	naming := impl.GetNaming()

	m := ImplementationJSON{
		Version:    types.FormatVersion,
		Schema:     impl.GetSchema().Bytes(),
		Interface:  impl.GetInterface().Bytes(),
		Globals:    globalNaming(naming.Globals),
		Owned:      ownedNaming(naming.Owned),
		Valencies:  valencyNaming(naming.Valencies),
		Operations: opNaming(naming.Operations),
		Errors:     naming.Errors,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. The identifier of the record is
// recomputed from the content.
func (f implFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := ImplementationJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, types.MalformedEncodingError{Reason: err.Error()}
	}

	if m.Version != types.FormatVersion {
		return nil, types.MalformedEncodingError{Reason: "unsupported format version"}
	}

	schemaID, err := decodeDigest(m.Schema)
	if err != nil {
		return nil, err
	}

	ifaceID, err := decodeDigest(m.Interface)
	if err != nil {
		return nil, err
	}

	naming := types.Naming{
		Globals:    make(map[string]types.GlobalID),
		Owned:      make(map[string]types.OwnedID),
		Valencies:  make(map[string]types.ValencyID),
		Operations: make(map[string]types.OpID),
		Errors:     m.Errors,
	}

	for name, id := range m.Globals {
		naming.Globals[name] = types.GlobalID(id)
	}
	for name, id := range m.Owned {
		naming.Owned[name] = types.OwnedID(id)
	}
	for name, id := range m.Valencies {
		naming.Valencies[name] = types.ValencyID(id)
	}
	for name, id := range m.Operations {
		naming.Operations[name] = types.OpID(id)
	}

	impl, err := types.NewImplementation(schemaID, ifaceID, naming)
	if err != nil {
		return nil, xerrors.Errorf("couldn't create implementation: %v", err)
	}

	return impl, nil
}

func encodeTy(expr typelib.Ty) (TyJSON, error) {
	switch ty := expr.(type) {
	case typelib.Unsigned:
		return TyJSON{Unsigned: &UnsignedJSON{
			Bits: ty.GetBits(),
			Min:  ty.GetMin(),
			Max:  ty.GetMax(),
		}}, nil
	case typelib.Bytes:
		return TyJSON{Bytes: &BytesJSON{
			Fixed: ty.IsFixed(),
			Size:  ty.GetSize(),
		}}, nil
	case typelib.Str:
		return TyJSON{String: &StringJSON{MaxLen: ty.GetMaxLen()}}, nil
	case typelib.Enum:
		variants := make([]VariantJSON, 0, len(ty.GetVariants()))
		for _, variant := range ty.GetVariants() {
			variants = append(variants, VariantJSON{
				Name:    variant.Name,
				Ordinal: variant.Ordinal,
			})
		}

		return TyJSON{Enum: &EnumJSON{Variants: variants}}, nil
	case typelib.Record:
		fields := make([]FieldJSON, 0, len(ty.GetFields()))
		for _, field := range ty.GetFields() {
			sub, err := encodeTy(field.Type)
			if err != nil {
				return TyJSON{}, err
			}

			fields = append(fields, FieldJSON{Name: field.Name, Type: sub})
		}

		return TyJSON{Record: &RecordJSON{Fields: fields}}, nil
	default:
		return TyJSON{}, xerrors.Errorf("unsupported expression of type '%T'", expr)
	}
}

func decodeTy(m TyJSON) (typelib.Ty, error) {
	switch {
	case m.Unsigned != nil:
		switch m.Unsigned.Bits {
		case 8, 16, 32, 64:
		default:
			return nil, types.MalformedEncodingError{Reason: "unsupported integer width"}
		}

		return typelib.NewUnsigned(m.Unsigned.Bits).
			Range(m.Unsigned.Min, m.Unsigned.Max), nil
	case m.Bytes != nil:
		if m.Bytes.Fixed {
			return typelib.NewBytes(m.Bytes.Size), nil
		}

		return typelib.NewBytesUpTo(m.Bytes.Size), nil
	case m.String != nil:
		return typelib.NewString(m.String.MaxLen), nil
	case m.Enum != nil:
		variants := make([]typelib.Variant, 0, len(m.Enum.Variants))
		for _, variant := range m.Enum.Variants {
			variants = append(variants, typelib.Variant{
				Name:    variant.Name,
				Ordinal: variant.Ordinal,
			})
		}

		return typelib.NewEnum(variants...), nil
	case m.Record != nil:
		fields := make([]typelib.Field, 0, len(m.Record.Fields))
		for _, field := range m.Record.Fields {
			sub, err := decodeTy(field.Type)
			if err != nil {
				return nil, err
			}

			fields = append(fields, typelib.Field{Name: field.Name, Type: sub})
		}

		return typelib.NewRecord(fields...), nil
	default:
		return nil, types.MalformedEncodingError{Reason: "empty type expression"}
	}
}

func decodeOccurrence(value byte) (types.Occurrence, error) {
	occ := types.Occurrence(value)

	switch occ {
	case types.Once, types.NoneOrOnce, types.OnceOrMore, types.NoneOrMore:
		return occ, nil
	default:
		return 0, types.MalformedEncodingError{Reason: "unknown occurrence"}
	}
}

func decodeDigest(data []byte) (types.Digest, error) {
	digest := types.Digest{}

	if len(data) != len(digest) {
		return digest, types.MalformedEncodingError{Reason: "invalid digest length"}
	}

	copy(digest[:], data)

	return digest, nil
}

func globalsToUint16(ids []types.GlobalID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}

func ownedToUint16(ids []types.OwnedID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}

func valenciesToUint16(ids []types.ValencyID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}

func uint16ToGlobals(ids []uint16) []types.GlobalID {
	res := make([]types.GlobalID, len(ids))
	for i, id := range ids {
		res[i] = types.GlobalID(id)
	}

	return res
}

func uint16ToOwned(ids []uint16) []types.OwnedID {
	res := make([]types.OwnedID, len(ids))
	for i, id := range ids {
		res[i] = types.OwnedID(id)
	}

	return res
}

func uint16ToValencies(ids []uint16) []types.ValencyID {
	res := make([]types.ValencyID, len(ids))
	for i, id := range ids {
		res[i] = types.ValencyID(id)
	}

	return res
}

func globalNaming(m map[string]types.GlobalID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func ownedNaming(m map[string]types.OwnedID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func valencyNaming(m map[string]types.ValencyID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func opNaming(m map[string]types.OpID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}
