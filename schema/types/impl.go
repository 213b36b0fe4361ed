//
// This file contains the implementation record produced when binding a schema
// to an interface standard. The record maps the abstract names of the
// standard onto the concrete numeric identifiers of the schema, so that
// generic tooling can operate on the schema through the vocabulary of the
// standard. Binding never alters the schema.
//

package types

import (
	"io"
	"sort"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/serde/registry"
	"golang.org/x/xerrors"
)

var implFormats = registry.NewSimpleRegistry()

// RegisterImplementationFormat registers the engine for the provided format.
func RegisterImplementationFormat(f serde.Format, e serde.FormatEngine) {
	implFormats.Register(f, e)
}

// Naming is the correspondence from the abstract names of an interface
// standard to the concrete identifiers of a schema.
type Naming struct {
	Globals    map[string]GlobalID
	Owned      map[string]OwnedID
	Valencies  map[string]ValencyID
	Operations map[string]OpID

	// Errors maps the named diagnostic variants of the standard to the
	// numeric codes reported by the validation scripts.
	Errors map[string]uint8
}

// Implementation is the immutable record of a schema bound to an interface
// standard.
type Implementation struct {
	digest Digest
	schema Digest
	iface  Digest
	naming Naming
}

type implTemplate struct {
	Implementation
	hashFactory crypto.HashFactory
}

// ImplOption is the option type to set some fields of an implementation.
type ImplOption func(*implTemplate)

// WithImplHashFactory is an option to set the hash factory used for the
// identifier of the implementation.
func WithImplHashFactory(f crypto.HashFactory) ImplOption {
	return func(tmpl *implTemplate) {
		tmpl.hashFactory = f
	}
}

// NewImplementation creates an implementation record and computes its
// identifier.
func NewImplementation(schema, iface Digest, naming Naming,
	opts ...ImplOption) (Implementation, error) {

	tmpl := implTemplate{
		Implementation: Implementation{
			schema: schema,
			iface:  iface,
			naming: copyNaming(naming),
		},
		hashFactory: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	h := tmpl.hashFactory.New()

	err := tmpl.Fingerprint(h)
	if err != nil {
		return Implementation{}, xerrors.Errorf("fingerprint failed: %v", err)
	}

	copy(tmpl.digest[:], h.Sum(nil))

	return tmpl.Implementation, nil
}

// GetHash returns the identifier of the implementation.
func (impl Implementation) GetHash() Digest {
	return impl.digest
}

// GetSchema returns the identifier of the schema the implementation refers
// to.
func (impl Implementation) GetSchema() Digest {
	return impl.schema
}

// GetInterface returns the identifier of the interface standard.
func (impl Implementation) GetInterface() Digest {
	return impl.iface
}

// GetNaming returns a copy of the naming correspondence.
func (impl Implementation) GetNaming() Naming {
	return copyNaming(impl.naming)
}

// GetGlobalID returns the global state identifier bound to the abstract name.
func (impl Implementation) GetGlobalID(name string) (GlobalID, bool) {
	id, found := impl.naming.Globals[name]
	return id, found
}

// GetOwnedID returns the owned state identifier bound to the abstract name.
func (impl Implementation) GetOwnedID(name string) (OwnedID, bool) {
	id, found := impl.naming.Owned[name]
	return id, found
}

// GetValencyID returns the valency identifier bound to the abstract name.
func (impl Implementation) GetValencyID(name string) (ValencyID, bool) {
	id, found := impl.naming.Valencies[name]
	return id, found
}

// GetOperationID returns the operation identifier bound to the abstract name.
func (impl Implementation) GetOperationID(name string) (OpID, bool) {
	id, found := impl.naming.Operations[name]
	return id, found
}

// GetErrorCode returns the diagnostic code bound to the named variant.
func (impl Implementation) GetErrorCode(name string) (uint8, bool) {
	code, found := impl.naming.Errors[name]
	return code, found
}

// Fingerprint implements serde.Fingerprinter. It writes the identifiers of
// the schema and of the standard followed by every naming section in
// lexicographic order of the names.
func (impl Implementation) Fingerprint(w io.Writer) error {
	_, err := w.Write([]byte{FormatVersion})
	if err != nil {
		return xerrors.Errorf("couldn't write version: %v", err)
	}

	_, err = w.Write(impl.schema.Bytes())
	if err != nil {
		return xerrors.Errorf("couldn't write schema id: %v", err)
	}

	_, err = w.Write(impl.iface.Bytes())
	if err != nil {
		return xerrors.Errorf("couldn't write interface id: %v", err)
	}

	sections := []map[string]uint16{
		globalNamesToUint16(impl.naming.Globals),
		ownedNamesToUint16(impl.naming.Owned),
		valencyNamesToUint16(impl.naming.Valencies),
		opNamesToUint16(impl.naming.Operations),
		errorNamesToUint16(impl.naming.Errors),
	}

	for _, section := range sections {
		err = writeUint16(w, uint16(len(section)))
		if err != nil {
			return xerrors.Errorf("couldn't write count: %v", err)
		}

		for _, name := range sortedNames(section) {
			err = writeString(w, name)
			if err != nil {
				return xerrors.Errorf("couldn't write name: %v", err)
			}

			err = writeUint16(w, section[name])
			if err != nil {
				return xerrors.Errorf("couldn't write id: %v", err)
			}
		}
	}

	return nil
}

// Serialize implements serde.Message.
func (impl Implementation) Serialize(ctx serde.Context) ([]byte, error) {
	format := implFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, impl)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode implementation: %v", err)
	}

	return data, nil
}

// ImplementationFactory is a factory to deserialize implementation records.
//
// - implements serde.Factory
type ImplementationFactory struct{}

// Deserialize implements serde.Factory. It reconstructs the implementation
// from the data and recomputes its identifier.
func (f ImplementationFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := implFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode implementation: %v", err)
	}

	return msg, nil
}

func copyNaming(naming Naming) Naming {
	res := Naming{
		Globals:    make(map[string]GlobalID),
		Owned:      make(map[string]OwnedID),
		Valencies:  make(map[string]ValencyID),
		Operations: make(map[string]OpID),
		Errors:     make(map[string]uint8),
	}

	for name, id := range naming.Globals {
		res.Globals[name] = id
	}
	for name, id := range naming.Owned {
		res.Owned[name] = id
	}
	for name, id := range naming.Valencies {
		res.Valencies[name] = id
	}
	for name, id := range naming.Operations {
		res.Operations[name] = id
	}
	for name, code := range naming.Errors {
		res.Errors[name] = code
	}

	return res
}

func sortedNames(section map[string]uint16) []string {
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func globalNamesToUint16(m map[string]GlobalID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func ownedNamesToUint16(m map[string]OwnedID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func valencyNamesToUint16(m map[string]ValencyID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func opNamesToUint16(m map[string]OpID) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, id := range m {
		res[name] = uint16(id)
	}

	return res
}

func errorNamesToUint16(m map[string]uint8) map[string]uint16 {
	res := make(map[string]uint16, len(m))
	for name, code := range m {
		res[name] = uint16(code)
	}

	return res
}
