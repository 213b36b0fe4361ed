// Package iface defines the interface standards and the binding of a schema
// to a standard.
//
// An interface standard declares, under abstract names, the state fields and
// operations a compliant contract family must expose. It knows nothing of the
// numeric identifiers of a concrete schema. Binding produces an
// implementation record mapping the abstract names onto the identifiers of
// one schema, after checking that every requirement of the standard is
// satisfied. Binding never alters the schema, so one schema can satisfy
// several unrelated standards simultaneously.
package iface

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/schema/types"
	"golang.org/x/xerrors"
)

// UnsatisfiedRequirementError is returned when a standard declares an
// abstract member that the naming does not map to a concrete declaration of
// the schema.
//
// - implements error
type UnsatisfiedRequirementError struct {
	Standard string
	Class    types.Class
	Name     string
}

// Error implements error.
func (e UnsatisfiedRequirementError) Error() string {
	return fmt.Sprintf("standard '%s' requires %s '%s'", e.Standard, e.Class, e.Name)
}

// OpRequirement is the requirement of an abstract operation: its expected
// kind and whether a compliant schema must provide it.
type OpRequirement struct {
	Kind     types.OpKind
	Required bool
}

// Standard is an immutable interface standard, identified by the digest of
// its canonical fingerprint.
type Standard struct {
	digest     types.Digest
	name       string
	globals    map[string]bool
	owned      map[string]bool
	valencies  map[string]bool
	operations map[string]OpRequirement
	errors     []string
}

type standardTemplate struct {
	Standard
	hashFactory crypto.HashFactory
}

// StandardOption is the option type to declare the members of a standard.
type StandardOption func(*standardTemplate)

// WithGlobal declares an abstract global state field.
func WithGlobal(name string, required bool) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.globals[name] = required
	}
}

// WithOwned declares an abstract owned state field.
func WithOwned(name string, required bool) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.owned[name] = required
	}
}

// WithValency declares an abstract valency.
func WithValency(name string, required bool) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.valencies[name] = required
	}
}

// WithOperation declares an abstract operation of the expected kind.
func WithOperation(name string, kind types.OpKind, required bool) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.operations[name] = OpRequirement{Kind: kind, Required: required}
	}
}

// WithErrors declares the named diagnostic variants of the standard.
func WithErrors(names ...string) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.errors = append(tmpl.errors, names...)
	}
}

// WithStandardHashFactory is an option to set the hash factory used for the
// identifier of the standard.
func WithStandardHashFactory(f crypto.HashFactory) StandardOption {
	return func(tmpl *standardTemplate) {
		tmpl.hashFactory = f
	}
}

// NewStandard creates an interface standard and computes its identifier.
func NewStandard(name string, opts ...StandardOption) (Standard, error) {
	tmpl := standardTemplate{
		Standard: Standard{
			name:       name,
			globals:    make(map[string]bool),
			owned:      make(map[string]bool),
			valencies:  make(map[string]bool),
			operations: make(map[string]OpRequirement),
		},
		hashFactory: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	sort.Strings(tmpl.errors)

	h := tmpl.hashFactory.New()

	err := tmpl.Fingerprint(h)
	if err != nil {
		return Standard{}, xerrors.Errorf("fingerprint failed: %v", err)
	}

	copy(tmpl.digest[:], h.Sum(nil))

	return tmpl.Standard, nil
}

// GetHash returns the identifier of the standard.
func (std Standard) GetHash() types.Digest {
	return std.digest
}

// GetName returns the name of the standard.
func (std Standard) GetName() string {
	return std.name
}

// GetErrors returns the named diagnostic variants of the standard.
func (std Standard) GetErrors() []string {
	return append([]string{}, std.errors...)
}

// Fingerprint implements serde.Fingerprinter. It writes the members of the
// standard in lexicographic order of their names.
func (std Standard) Fingerprint(w io.Writer) error {
	err := writeString(w, std.name)
	if err != nil {
		return xerrors.Errorf("couldn't write name: %v", err)
	}

	for _, section := range []map[string]bool{std.globals, std.owned, std.valencies} {
		for _, name := range sortedKeys(section) {
			err = writeString(w, name)
			if err != nil {
				return xerrors.Errorf("couldn't write member: %v", err)
			}

			flag := byte(0)
			if section[name] {
				flag = 1
			}

			_, err = w.Write([]byte{flag})
			if err != nil {
				return xerrors.Errorf("couldn't write flag: %v", err)
			}
		}
	}

	opNames := make([]string, 0, len(std.operations))
	for name := range std.operations {
		opNames = append(opNames, name)
	}
	sort.Strings(opNames)

	for _, name := range opNames {
		err = writeString(w, name)
		if err != nil {
			return xerrors.Errorf("couldn't write operation: %v", err)
		}

		req := std.operations[name]

		flag := byte(0)
		if req.Required {
			flag = 1
		}

		_, err = w.Write([]byte{byte(req.Kind), flag})
		if err != nil {
			return xerrors.Errorf("couldn't write requirement: %v", err)
		}
	}

	for _, name := range std.errors {
		err = writeString(w, name)
		if err != nil {
			return xerrors.Errorf("couldn't write error variant: %v", err)
		}
	}

	return nil
}

// Bind checks that the naming satisfies every requirement of the standard
// against the schema and produces the implementation record. Only the schema's
// own declarations are consulted: a member inherited from the root must be
// redeclared by the extension schema to be exposed through a standard. The
// schema is never modified.
func Bind(schema types.Schema, std Standard, naming types.Naming,
	opts ...types.ImplOption) (types.Implementation, error) {

	for name, required := range std.globals {
		id, mapped := naming.Globals[name]

		if !mapped {
			if required {
				return types.Implementation{}, UnsatisfiedRequirementError{
					Standard: std.name,
					Class:    types.ClassGlobal,
					Name:     name,
				}
			}

			continue
		}

		if _, found := schema.GetGlobal(id); !found {
			return types.Implementation{}, UnsatisfiedRequirementError{
				Standard: std.name,
				Class:    types.ClassGlobal,
				Name:     name,
			}
		}
	}

	for name, required := range std.owned {
		id, mapped := naming.Owned[name]

		if !mapped {
			if required {
				return types.Implementation{}, UnsatisfiedRequirementError{
					Standard: std.name,
					Class:    types.ClassOwned,
					Name:     name,
				}
			}

			continue
		}

		if _, found := schema.GetOwned(id); !found {
			return types.Implementation{}, UnsatisfiedRequirementError{
				Standard: std.name,
				Class:    types.ClassOwned,
				Name:     name,
			}
		}
	}

	for name, required := range std.valencies {
		id, mapped := naming.Valencies[name]

		if !mapped {
			if required {
				return types.Implementation{}, UnsatisfiedRequirementError{
					Standard: std.name,
					Class:    types.ClassValency,
					Name:     name,
				}
			}

			continue
		}

		if _, found := schema.GetValency(id); !found {
			return types.Implementation{}, UnsatisfiedRequirementError{
				Standard: std.name,
				Class:    types.ClassValency,
				Name:     name,
			}
		}
	}

	for name, req := range std.operations {
		id, mapped := naming.Operations[name]

		if !mapped {
			if req.Required {
				return types.Implementation{}, UnsatisfiedRequirementError{
					Standard: std.name,
					Class:    types.ClassOperation,
					Name:     name,
				}
			}

			continue
		}

		def, found := schema.GetOperation(id)
		if !found || def.GetKind() != req.Kind {
			return types.Implementation{}, UnsatisfiedRequirementError{
				Standard: std.name,
				Class:    types.ClassOperation,
				Name:     name,
			}
		}
	}

	for name := range naming.Errors {
		if !contains(std.errors, name) {
			return types.Implementation{}, xerrors.Errorf(
				"error variant '%s' is not declared by standard '%s'", name, std.name)
		}
	}

	impl, err := types.NewImplementation(schema.GetHash(), std.digest, naming, opts...)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't create implementation: %v", err)
	}

	return impl, nil
}

// Registry is an immutable mapping from standard identifiers to standards. It
// is built once at startup and passed by handle to consumers.
type Registry struct {
	standards map[types.Digest]Standard
}

// NewRegistry returns a registry holding the given standards.
func NewRegistry(standards ...Standard) Registry {
	reg := Registry{
		standards: make(map[types.Digest]Standard),
	}

	for _, std := range standards {
		reg.standards[std.GetHash()] = std
	}

	return reg
}

// Get returns the standard of the identifier if it exists.
func (reg Registry) Get(id types.Digest) (Standard, bool) {
	std, found := reg.standards[id]
	return std, found
}

// Len returns the number of standards in the registry.
func (reg Registry) Len() int {
	return len(reg.standards)
}

func sortedKeys(section map[string]bool) []string {
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func contains(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}

	return false
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
