//
// This file contains the operation declarations of a schema. An operation
// declares which state fields it may read, consume and produce. The shape of
// an operation is constrained by its kind: a genesis creates state from
// nothing, a transition consumes and reproduces owned state, and an extension
// attaches state to public valencies without consuming owned state.
//

package types

import (
	"io"
	"sort"

	"go.dedis.ch/crest/typelib"
	"golang.org/x/xerrors"
)

// OpID is the identifier of an operation declaration.
type OpID uint16

// OpKind is the kind of an operation.
type OpKind byte

const (
	// Genesis is the unique operation originating the initial state of a
	// contract.
	Genesis OpKind = iota

	// Transition is an operation consuming owned state and producing new
	// owned state.
	Transition

	// Extension is an operation attaching state to public valencies without
	// consuming owned state.
	Extension
)

func (k OpKind) String() string {
	switch k {
	case Genesis:
		return "genesis"
	case Transition:
		return "transition"
	case Extension:
		return "extension"
	default:
		return "unknown"
	}
}

// OperationDef declares an operation of a schema.
type OperationDef struct {
	id       OpID
	kind     OpKind
	meta     typelib.SemType
	globals  []GlobalID
	inputs   []OwnedID
	outputs  []OwnedID
	redeems  []ValencyID
	provides []ValencyID
}

// OperationOption is the option type to set the fields of an operation
// declaration.
type OperationOption func(*OperationDef)

// WithGlobals sets the global state fields the operation may declare.
func WithGlobals(ids ...GlobalID) OperationOption {
	return func(def *OperationDef) {
		def.globals = sortedGlobals(ids)
	}
}

// WithInputs sets the owned state fields the operation consumes.
func WithInputs(ids ...OwnedID) OperationOption {
	return func(def *OperationDef) {
		def.inputs = sortedOwned(ids)
	}
}

// WithOutputs sets the owned state fields the operation produces.
func WithOutputs(ids ...OwnedID) OperationOption {
	return func(def *OperationDef) {
		def.outputs = sortedOwned(ids)
	}
}

// WithRedeems sets the valencies the operation consumes.
func WithRedeems(ids ...ValencyID) OperationOption {
	return func(def *OperationDef) {
		def.redeems = sortedValencies(ids)
	}
}

// WithProvides sets the valencies the operation provides.
func WithProvides(ids ...ValencyID) OperationOption {
	return func(def *OperationDef) {
		def.provides = sortedValencies(ids)
	}
}

// WithMeta sets the semantic type of the operation metadata.
func WithMeta(sem typelib.SemType) OperationOption {
	return func(def *OperationDef) {
		def.meta = sem
	}
}

// NewOperationDef returns an operation declaration of the given kind. The
// field sets are stored sorted so that the declaration order never influences
// the canonical representation.
func NewOperationDef(kind OpKind, id OpID, opts ...OperationOption) OperationDef {
	def := OperationDef{
		id:   id,
		kind: kind,
	}

	for _, opt := range opts {
		opt(&def)
	}

	return def
}

// GetID returns the identifier of the operation.
func (def OperationDef) GetID() OpID {
	return def.id
}

// GetKind returns the kind of the operation.
func (def OperationDef) GetKind() OpKind {
	return def.kind
}

// GetMeta returns the semantic type of the operation metadata. The type is
// zero when the operation carries no metadata.
func (def OperationDef) GetMeta() typelib.SemType {
	return def.meta
}

// GetGlobals returns the global state fields the operation may declare.
func (def OperationDef) GetGlobals() []GlobalID {
	return append([]GlobalID{}, def.globals...)
}

// GetInputs returns the owned state fields the operation consumes.
func (def OperationDef) GetInputs() []OwnedID {
	return append([]OwnedID{}, def.inputs...)
}

// GetOutputs returns the owned state fields the operation produces.
func (def OperationDef) GetOutputs() []OwnedID {
	return append([]OwnedID{}, def.outputs...)
}

// GetRedeems returns the valencies the operation consumes.
func (def OperationDef) GetRedeems() []ValencyID {
	return append([]ValencyID{}, def.redeems...)
}

// GetProvides returns the valencies the operation provides.
func (def OperationDef) GetProvides() []ValencyID {
	return append([]ValencyID{}, def.provides...)
}

// Fingerprint implements serde.Fingerprinter. It writes the declaration with
// every field set in ascending order of the identifiers.
func (def OperationDef) Fingerprint(w io.Writer) error {
	err := writeUint16(w, uint16(def.id))
	if err != nil {
		return xerrors.Errorf("couldn't write id: %v", err)
	}

	_, err = w.Write([]byte{byte(def.kind)})
	if err != nil {
		return xerrors.Errorf("couldn't write kind: %v", err)
	}

	hasMeta := byte(0)
	if !def.meta.IsZero() {
		hasMeta = 1
	}

	_, err = w.Write([]byte{hasMeta})
	if err != nil {
		return xerrors.Errorf("couldn't write meta flag: %v", err)
	}

	if hasMeta == 1 {
		_, err = w.Write(def.meta.GetID().Bytes())
		if err != nil {
			return xerrors.Errorf("couldn't write meta: %v", err)
		}
	}

	sections := [][]uint16{
		globalsToUint16(def.globals),
		ownedToUint16(def.inputs),
		ownedToUint16(def.outputs),
		valenciesToUint16(def.redeems),
		valenciesToUint16(def.provides),
	}

	for _, ids := range sections {
		err = writeUint16(w, uint16(len(ids)))
		if err != nil {
			return xerrors.Errorf("couldn't write length: %v", err)
		}

		for _, id := range ids {
			err = writeUint16(w, id)
			if err != nil {
				return xerrors.Errorf("couldn't write field id: %v", err)
			}
		}
	}

	return nil
}

func sortedGlobals(ids []GlobalID) []GlobalID {
	res := append([]GlobalID{}, ids...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })

	return res
}

func sortedOwned(ids []OwnedID) []OwnedID {
	res := append([]OwnedID{}, ids...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })

	return res
}

func sortedValencies(ids []ValencyID) []ValencyID {
	res := append([]ValencyID{}, ids...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })

	return res
}

func globalsToUint16(ids []GlobalID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}

func ownedToUint16(ids []OwnedID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}

func valenciesToUint16(ids []ValencyID) []uint16 {
	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}

	return res
}
