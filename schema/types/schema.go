//
// This file contains the assembled schema artifact. A schema is the immutable
// aggregate of the type library, the state field declarations, the operation
// declarations and their validation scripts. Its identifier is the digest of
// its canonical fingerprint: two schemas with the same content have the same
// identifier, and any change of content produces a new identifier.
//

package types

import (
	"io"
	"sort"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/serde/registry"
	"go.dedis.ch/crest/typelib"
	"golang.org/x/xerrors"
)

// FormatVersion is the version tag of the canonical schema encoding. It is
// the first field of the fingerprint and of the persisted artifact stream.
const FormatVersion byte = 0

var schemaFormats = registry.NewSimpleRegistry()

// RegisterSchemaFormat registers the engine for the provided format.
func RegisterSchemaFormat(f serde.Format, e serde.FormatEngine) {
	schemaFormats.Register(f, e)
}

// Schema is the immutable definition of a contract family.
type Schema struct {
	digest    Digest
	name      string
	timestamp int64
	developer string
	root      *Digest
	types     typelib.Library
	globals   map[GlobalID]GlobalStateDef
	owned     map[OwnedID]OwnedStateDef
	valencies map[ValencyID]ValencyDef
	ops       map[OpID]OperationDef
	scripts   map[OpID]Script
}

type schemaTemplate struct {
	Schema
	hashFactory crypto.HashFactory
}

// SchemaOption is the option type to set some fields of a schema.
type SchemaOption func(*schemaTemplate)

// WithHashFactory is an option to set the hash factory used for the
// identifier.
func WithHashFactory(f crypto.HashFactory) SchemaOption {
	return func(tmpl *schemaTemplate) {
		tmpl.hashFactory = f
	}
}

// WithRoot is an option to set the root schema reference. The schema then
// extends the root and must redeclare shared identifiers with an identical
// shape.
func WithRoot(root Digest) SchemaOption {
	return func(tmpl *schemaTemplate) {
		r := root
		tmpl.root = &r
	}
}

// WithTimestamp is an option to set the creation timestamp of the schema. The
// timestamp is part of the content, so it must be a constant of the
// declaration and never read from a clock at assembly time.
func WithTimestamp(ts int64) SchemaOption {
	return func(tmpl *schemaTemplate) {
		tmpl.timestamp = ts
	}
}

// WithDeveloper is an option to set the developer identity of the schema.
func WithDeveloper(identity string) SchemaOption {
	return func(tmpl *schemaTemplate) {
		tmpl.developer = identity
	}
}

// NewSchema creates a schema from the declarations and computes its
// identifier. It validates that the declarations are self-consistent: unique
// identifiers per class, resolvable field references, kind-conformant
// operation shapes and a script for every operation. It does not check root
// compatibility, which requires the root schema itself.
func NewSchema(name string, lib typelib.Library, globals []GlobalStateDef,
	owned []OwnedStateDef, valencies []ValencyDef, ops []OperationDef,
	scripts map[OpID]Script, opts ...SchemaOption) (Schema, error) {

	tmpl := schemaTemplate{
		Schema: Schema{
			name:      name,
			types:     lib,
			globals:   make(map[GlobalID]GlobalStateDef),
			owned:     make(map[OwnedID]OwnedStateDef),
			valencies: make(map[ValencyID]ValencyDef),
			ops:       make(map[OpID]OperationDef),
			scripts:   make(map[OpID]Script),
		},
		hashFactory: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	for _, def := range globals {
		if _, found := tmpl.globals[def.GetID()]; found {
			return Schema{}, DuplicateFieldIDError{Class: ClassGlobal, ID: uint16(def.GetID())}
		}

		tmpl.globals[def.GetID()] = def
	}

	for _, def := range owned {
		if _, found := tmpl.owned[def.GetID()]; found {
			return Schema{}, DuplicateFieldIDError{Class: ClassOwned, ID: uint16(def.GetID())}
		}

		tmpl.owned[def.GetID()] = def
	}

	for _, def := range valencies {
		if _, found := tmpl.valencies[def.GetID()]; found {
			return Schema{}, DuplicateFieldIDError{Class: ClassValency, ID: uint16(def.GetID())}
		}

		tmpl.valencies[def.GetID()] = def
	}

	for _, def := range ops {
		if _, found := tmpl.ops[def.GetID()]; found {
			return Schema{}, DuplicateFieldIDError{Class: ClassOperation, ID: uint16(def.GetID())}
		}

		err := tmpl.checkOperation(def)
		if err != nil {
			return Schema{}, err
		}

		tmpl.ops[def.GetID()] = def
	}

	for id, script := range scripts {
		if _, found := tmpl.ops[id]; !found {
			return Schema{}, UnknownFieldRefError{Operation: id, Class: ClassOperation, ID: uint16(id)}
		}

		tmpl.scripts[id] = script
	}

	for id := range tmpl.ops {
		if _, found := tmpl.scripts[id]; !found {
			return Schema{}, MissingScriptError{Operation: id}
		}
	}

	h := tmpl.hashFactory.New()

	err := tmpl.Fingerprint(h)
	if err != nil {
		return Schema{}, xerrors.Errorf("fingerprint failed: %v", err)
	}

	copy(tmpl.digest[:], h.Sum(nil))

	return tmpl.Schema, nil
}

// checkOperation enforces the kind-specific shape rules and resolves every
// field reference of the declaration.
func (s Schema) checkOperation(def OperationDef) error {
	switch def.GetKind() {
	case Genesis:
		if len(def.GetInputs()) > 0 {
			return InvalidKindError{
				Operation: def.GetID(),
				Kind:      Genesis,
				Reason:    "genesis declares owned state inputs",
			}
		}

		if len(def.GetRedeems()) > 0 {
			return InvalidKindError{
				Operation: def.GetID(),
				Kind:      Genesis,
				Reason:    "genesis redeems valencies",
			}
		}
	case Extension:
		if len(def.GetInputs()) > 0 {
			return InvalidKindError{
				Operation: def.GetID(),
				Kind:      Extension,
				Reason:    "extension declares owned state inputs",
			}
		}
	case Transition:
	default:
		return InvalidKindError{
			Operation: def.GetID(),
			Kind:      def.GetKind(),
			Reason:    "unknown operation kind",
		}
	}

	for _, id := range def.GetGlobals() {
		if _, found := s.globals[id]; !found {
			return UnknownFieldRefError{Operation: def.GetID(), Class: ClassGlobal, ID: uint16(id)}
		}
	}

	for _, id := range def.GetInputs() {
		if _, found := s.owned[id]; !found {
			return UnknownFieldRefError{Operation: def.GetID(), Class: ClassOwned, ID: uint16(id)}
		}
	}

	for _, id := range def.GetOutputs() {
		if _, found := s.owned[id]; !found {
			return UnknownFieldRefError{Operation: def.GetID(), Class: ClassOwned, ID: uint16(id)}
		}
	}

	for _, id := range def.GetRedeems() {
		if _, found := s.valencies[id]; !found {
			return UnknownFieldRefError{Operation: def.GetID(), Class: ClassValency, ID: uint16(id)}
		}
	}

	for _, id := range def.GetProvides() {
		if _, found := s.valencies[id]; !found {
			return UnknownFieldRefError{Operation: def.GetID(), Class: ClassValency, ID: uint16(id)}
		}
	}

	return nil
}

// GetHash returns the identifier of the schema.
func (s Schema) GetHash() Digest {
	return s.digest
}

// GetName returns the name of the schema.
func (s Schema) GetName() string {
	return s.name
}

// GetTimestamp returns the creation timestamp of the schema.
func (s Schema) GetTimestamp() int64 {
	return s.timestamp
}

// GetDeveloper returns the developer identity of the schema.
func (s Schema) GetDeveloper() string {
	return s.developer
}

// GetRoot returns the identifier of the root schema, or false when the schema
// extends no root.
func (s Schema) GetRoot() (Digest, bool) {
	if s.root == nil {
		return Digest{}, false
	}

	return *s.root, true
}

// GetTypes returns the type library of the schema.
func (s Schema) GetTypes() typelib.Library {
	return s.types
}

// GetGlobal returns the global state declaration of the identifier if it
// exists.
func (s Schema) GetGlobal(id GlobalID) (GlobalStateDef, bool) {
	def, found := s.globals[id]
	return def, found
}

// GetGlobals returns the global state declarations sorted by identifier.
func (s Schema) GetGlobals() []GlobalStateDef {
	defs := make([]GlobalStateDef, 0, len(s.globals))
	for _, def := range s.globals {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].GetID() < defs[j].GetID() })

	return defs
}

// GetOwned returns the owned state declaration of the identifier if it
// exists.
func (s Schema) GetOwned(id OwnedID) (OwnedStateDef, bool) {
	def, found := s.owned[id]
	return def, found
}

// GetOwnedList returns the owned state declarations sorted by identifier.
func (s Schema) GetOwnedList() []OwnedStateDef {
	defs := make([]OwnedStateDef, 0, len(s.owned))
	for _, def := range s.owned {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].GetID() < defs[j].GetID() })

	return defs
}

// GetValency returns the valency declaration of the identifier if it exists.
func (s Schema) GetValency(id ValencyID) (ValencyDef, bool) {
	def, found := s.valencies[id]
	return def, found
}

// GetValencies returns the valency declarations sorted by identifier.
func (s Schema) GetValencies() []ValencyDef {
	defs := make([]ValencyDef, 0, len(s.valencies))
	for _, def := range s.valencies {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].GetID() < defs[j].GetID() })

	return defs
}

// GetOperation returns the operation declaration of the identifier if it
// exists.
func (s Schema) GetOperation(id OpID) (OperationDef, bool) {
	def, found := s.ops[id]
	return def, found
}

// GetOperations returns the operation declarations sorted by identifier.
func (s Schema) GetOperations() []OperationDef {
	defs := make([]OperationDef, 0, len(s.ops))
	for _, def := range s.ops {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].GetID() < defs[j].GetID() })

	return defs
}

// GetScript returns the validation script of the operation if it exists.
func (s Schema) GetScript(id OpID) (Script, bool) {
	script, found := s.scripts[id]
	return script, found
}

// Fingerprint implements serde.Fingerprinter. It writes the canonical binary
// representation of the schema: the format version tag first, then the
// metadata, the type library, the field declarations, the operation
// declarations and the scripts, every section in a fixed deterministic order.
// The identifier itself is never part of the stream.
func (s Schema) Fingerprint(w io.Writer) error {
	_, err := w.Write([]byte{FormatVersion})
	if err != nil {
		return xerrors.Errorf("couldn't write version: %v", err)
	}

	err = writeString(w, s.name)
	if err != nil {
		return xerrors.Errorf("couldn't write name: %v", err)
	}

	err = writeUint64(w, uint64(s.timestamp))
	if err != nil {
		return xerrors.Errorf("couldn't write timestamp: %v", err)
	}

	err = writeString(w, s.developer)
	if err != nil {
		return xerrors.Errorf("couldn't write developer: %v", err)
	}

	if s.root != nil {
		_, err = w.Write([]byte{1})
		if err == nil {
			_, err = w.Write(s.root.Bytes())
		}
	} else {
		_, err = w.Write([]byte{0})
	}
	if err != nil {
		return xerrors.Errorf("couldn't write root: %v", err)
	}

	err = s.types.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("library fingerprint failed: %v", err)
	}

	globals := s.GetGlobals()

	err = writeUint16(w, uint16(len(globals)))
	if err != nil {
		return xerrors.Errorf("couldn't write global count: %v", err)
	}

	for _, def := range globals {
		err = def.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("global %d fingerprint failed: %v", def.GetID(), err)
		}
	}

	owned := s.GetOwnedList()

	err = writeUint16(w, uint16(len(owned)))
	if err != nil {
		return xerrors.Errorf("couldn't write owned count: %v", err)
	}

	for _, def := range owned {
		err = def.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("owned %d fingerprint failed: %v", def.GetID(), err)
		}
	}

	valencies := s.GetValencies()

	err = writeUint16(w, uint16(len(valencies)))
	if err != nil {
		return xerrors.Errorf("couldn't write valency count: %v", err)
	}

	for _, def := range valencies {
		err = def.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("valency %d fingerprint failed: %v", def.GetID(), err)
		}
	}

	ops := s.GetOperations()

	err = writeUint16(w, uint16(len(ops)))
	if err != nil {
		return xerrors.Errorf("couldn't write operation count: %v", err)
	}

	for _, def := range ops {
		err = def.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("operation %d fingerprint failed: %v", def.GetID(), err)
		}

		script := s.scripts[def.GetID()]

		err = script.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("script %d fingerprint failed: %v", def.GetID(), err)
		}
	}

	return nil
}

// Serialize implements serde.Message.
func (s Schema) Serialize(ctx serde.Context) ([]byte, error) {
	format := schemaFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, s)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode schema: %v", err)
	}

	return data, nil
}

// SchemaFactory is a factory to deserialize schema artifacts.
//
// - implements serde.Factory
type SchemaFactory struct{}

// Deserialize implements serde.Factory. It reconstructs the schema from the
// data and recomputes its identifier, so that a stored identifier is never
// trusted from the input.
func (f SchemaFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := schemaFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode schema: %v", err)
	}

	return msg, nil
}

func writeString(w io.Writer, value string) error {
	err := writeUint16(w, uint16(len(value)))
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(value))

	return err
}
