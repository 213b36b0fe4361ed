// Package typelib defines the library of semantic types used by the state
// fields of a contract schema.
//
// A library is built from a set of named type declarations. Declarations may
// reference each other by name, but the references must form a directed
// acyclic graph: the resolution step expands every reference to a fully
// concrete structural type and rejects recursive or unresolved references.
// After resolution the library is immutable and each semantic type carries a
// content-addressed identifier computed from its canonical fingerprint.
package typelib

import (
	"fmt"
	"io"
	"sort"

	"go.dedis.ch/crest/crypto"
	"golang.org/x/xerrors"
)

// SemID is the content-addressed identifier of a resolved semantic type. It
// is the digest of the canonical fingerprint of the type expression.
type SemID [32]byte

func (id SemID) String() string {
	return fmt.Sprintf("%x", id[:])[:8]
}

// Bytes returns the slice of bytes of the identifier.
func (id SemID) Bytes() []byte {
	return id[:]
}

// SemType is a named, fully resolved semantic type.
type SemType struct {
	name string
	expr Ty
	id   SemID
}

// GetName returns the name of the semantic type.
func (s SemType) GetName() string {
	return s.name
}

// GetExpr returns the resolved type expression.
func (s SemType) GetExpr() Ty {
	return s.expr
}

// GetID returns the content-addressed identifier of the type.
func (s SemType) GetID() SemID {
	return s.id
}

// IsZero returns true when the semantic type is not set.
func (s SemType) IsZero() bool {
	return s.expr == nil
}

// Fingerprint implements serde.Fingerprinter. It writes the name followed by
// the canonical representation of the expression.
func (s SemType) Fingerprint(w io.Writer) error {
	err := writeString(w, s.name)
	if err != nil {
		return xerrors.Errorf("couldn't write name: %v", err)
	}

	err = s.expr.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("expression fingerprint failed: %v", err)
	}

	return nil
}

// TypeResolutionError is the error returned when a declaration references an
// unknown name, or when the references form a cycle.
//
// - implements error
type TypeResolutionError struct {
	// Name is the offending declaration.
	Name string

	// Recursive is true when the failure is a reference cycle, false when it
	// is a missing reference.
	Recursive bool
}

// Error implements error.
func (e TypeResolutionError) Error() string {
	if e.Recursive {
		return fmt.Sprintf("recursive reference to type '%s'", e.Name)
	}

	return fmt.Sprintf("unresolved reference to type '%s'", e.Name)
}

// Library is an immutable mapping from semantic type names to resolved types.
type Library struct {
	types map[string]SemType
}

// Get returns the semantic type associated with the name. The returned value
// is zero if the name is unknown, which can be tested with IsZero.
func (lib Library) Get(name string) SemType {
	return lib.types[name]
}

// Len returns the number of types in the library.
func (lib Library) Len() int {
	return len(lib.types)
}

// Names returns the sorted list of the type names of the library.
func (lib Library) Names() []string {
	names := make([]string, 0, len(lib.types))
	for name := range lib.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Fingerprint implements serde.Fingerprinter. It writes the types of the
// library in lexicographic order of their names.
func (lib Library) Fingerprint(w io.Writer) error {
	for _, name := range lib.Names() {
		err := lib.types[name].Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("type '%s' fingerprint failed: %v", name, err)
		}
	}

	return nil
}

// Builder collects named type declarations and resolves them into a library.
type Builder struct {
	decls       map[string]Ty
	order       []string
	hashFactory crypto.HashFactory
}

// NewBuilder returns a new empty library builder.
func NewBuilder() *Builder {
	return &Builder{
		decls:       make(map[string]Ty),
		hashFactory: crypto.NewSha256Factory(),
	}
}

// SetHashFactory sets the hash factory used for the type identifiers.
func (b *Builder) SetHashFactory(f crypto.HashFactory) {
	b.hashFactory = f
}

// Declare records a named type declaration. Declaring the same name twice
// overwrites the previous declaration.
func (b *Builder) Declare(name string, expr Ty) {
	if _, found := b.decls[name]; !found {
		b.order = append(b.order, name)
	}

	b.decls[name] = expr
}

// Resolve expands every reference of the declarations to a concrete type and
// returns the immutable library. It returns a TypeResolutionError when a
// reference is unknown or recursive.
func (b *Builder) Resolve() (Library, error) {
	// The walk is a colored depth-first search: a name seen while it is still
	// being expanded closes a cycle.
	states := make(map[string]visitState)
	resolved := make(map[string]Ty)

	var expand func(name string) (Ty, error)

	visit := func(expr Ty, resolve func(string) (Ty, error)) (Ty, error) {
		return expr.resolve(resolve)
	}

	expand = func(name string) (Ty, error) {
		switch states[name] {
		case stateVisiting:
			return nil, TypeResolutionError{Name: name, Recursive: true}
		case stateDone:
			return resolved[name], nil
		}

		decl, found := b.decls[name]
		if !found {
			return nil, TypeResolutionError{Name: name}
		}

		states[name] = stateVisiting

		expr, err := visit(decl, expand)
		if err != nil {
			return nil, err
		}

		states[name] = stateDone
		resolved[name] = expr

		return expr, nil
	}

	lib := Library{
		types: make(map[string]SemType),
	}

	for _, name := range b.order {
		expr, err := expand(name)
		if err != nil {
			return Library{}, xerrors.Errorf("couldn't resolve library: %w", err)
		}

		h := b.hashFactory.New()

		sem := SemType{name: name, expr: expr}

		err = sem.Fingerprint(h)
		if err != nil {
			return Library{}, xerrors.Errorf("fingerprint failed: %v", err)
		}

		copy(sem.id[:], h.Sum(nil))

		lib.types[name] = sem
	}

	return lib, nil
}

type visitState int

const (
	stateVisiting visitState = iota + 1
	stateDone
)
