//
// This file contains the state field declarations of a schema: global state
// fields, owned state fields and public valencies, each keyed by a numeric
// identifier that is stable across the versions of a schema family.
//

package types

import (
	"encoding/binary"
	"io"

	"go.dedis.ch/crest/typelib"
	"golang.org/x/xerrors"
)

// GlobalID is the identifier of a global state field.
type GlobalID uint16

// OwnedID is the identifier of an owned state field.
type OwnedID uint16

// ValencyID is the identifier of a public valency.
type ValencyID uint16

// Occurrence is the cardinality constraint of a state field.
type Occurrence byte

const (
	// Once requires exactly one occurrence.
	Once Occurrence = iota

	// NoneOrOnce allows at most one occurrence.
	NoneOrOnce

	// OnceOrMore requires at least one occurrence.
	OnceOrMore

	// NoneOrMore allows any number of occurrences.
	NoneOrMore
)

func (o Occurrence) String() string {
	switch o {
	case Once:
		return "once"
	case NoneOrOnce:
		return "noneOrOnce"
	case OnceOrMore:
		return "onceOrMore"
	case NoneOrMore:
		return "noneOrMore"
	default:
		return "unknown"
	}
}

// GlobalStateDef declares a global state field: contract-wide state that is
// not tied to a spendable output.
type GlobalStateDef struct {
	id  GlobalID
	sem typelib.SemType
	occ Occurrence
}

// NewGlobalStateDef returns a global state field declaration.
func NewGlobalStateDef(id GlobalID, sem typelib.SemType, occ Occurrence) GlobalStateDef {
	return GlobalStateDef{id: id, sem: sem, occ: occ}
}

// GetID returns the identifier of the field.
func (def GlobalStateDef) GetID() GlobalID {
	return def.id
}

// GetType returns the semantic type of the field.
func (def GlobalStateDef) GetType() typelib.SemType {
	return def.sem
}

// GetOccurrence returns the cardinality constraint of the field.
func (def GlobalStateDef) GetOccurrence() Occurrence {
	return def.occ
}

// Fingerprint implements serde.Fingerprinter.
func (def GlobalStateDef) Fingerprint(w io.Writer) error {
	err := writeUint16(w, uint16(def.id))
	if err != nil {
		return xerrors.Errorf("couldn't write id: %v", err)
	}

	_, err = w.Write(def.sem.GetID().Bytes())
	if err != nil {
		return xerrors.Errorf("couldn't write type: %v", err)
	}

	_, err = w.Write([]byte{byte(def.occ)})
	if err != nil {
		return xerrors.Errorf("couldn't write occurrence: %v", err)
	}

	return nil
}

// OwnedKind is the flavor of an owned state field.
type OwnedKind byte

const (
	// KindDeclarative is a right without an attached value.
	KindDeclarative OwnedKind = iota

	// KindFungible is a confidential 64-bit amount.
	KindFungible

	// KindStructured is a bounded structured data blob.
	KindStructured
)

func (k OwnedKind) String() string {
	switch k {
	case KindDeclarative:
		return "declarative"
	case KindFungible:
		return "fungible"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// OwnedStateDef declares an owned state field: state bound to a spendable
// output, consumed and reproduced by state transitions.
type OwnedStateDef struct {
	id   OwnedID
	kind OwnedKind
	sem  typelib.SemType
	occ  Occurrence
}

// NewFungibleDef returns an owned state declaration holding a confidential
// 64-bit amount.
func NewFungibleDef(id OwnedID, occ Occurrence) OwnedStateDef {
	return OwnedStateDef{id: id, kind: KindFungible, occ: occ}
}

// NewDeclarativeDef returns an owned state declaration carrying a right
// without a value.
func NewDeclarativeDef(id OwnedID, occ Occurrence) OwnedStateDef {
	return OwnedStateDef{id: id, kind: KindDeclarative, occ: occ}
}

// NewStructuredDef returns an owned state declaration holding structured data
// of the given semantic type.
func NewStructuredDef(id OwnedID, sem typelib.SemType, occ Occurrence) OwnedStateDef {
	return OwnedStateDef{id: id, kind: KindStructured, sem: sem, occ: occ}
}

// GetID returns the identifier of the field.
func (def OwnedStateDef) GetID() OwnedID {
	return def.id
}

// GetKind returns the flavor of the field.
func (def OwnedStateDef) GetKind() OwnedKind {
	return def.kind
}

// GetType returns the semantic type of a structured field. The type is zero
// for the other kinds.
func (def OwnedStateDef) GetType() typelib.SemType {
	return def.sem
}

// GetOccurrence returns the cardinality constraint of the field.
func (def OwnedStateDef) GetOccurrence() Occurrence {
	return def.occ
}

// Fingerprint implements serde.Fingerprinter.
func (def OwnedStateDef) Fingerprint(w io.Writer) error {
	err := writeUint16(w, uint16(def.id))
	if err != nil {
		return xerrors.Errorf("couldn't write id: %v", err)
	}

	_, err = w.Write([]byte{byte(def.kind)})
	if err != nil {
		return xerrors.Errorf("couldn't write kind: %v", err)
	}

	if def.kind == KindStructured {
		_, err = w.Write(def.sem.GetID().Bytes())
		if err != nil {
			return xerrors.Errorf("couldn't write type: %v", err)
		}
	}

	_, err = w.Write([]byte{byte(def.occ)})
	if err != nil {
		return xerrors.Errorf("couldn't write occurrence: %v", err)
	}

	return nil
}

// ValencyDef declares a public valency: a non-owned attachment point that
// state extensions may bind to without spending owned state.
type ValencyDef struct {
	id ValencyID
}

// NewValencyDef returns a valency declaration.
func NewValencyDef(id ValencyID) ValencyDef {
	return ValencyDef{id: id}
}

// GetID returns the identifier of the valency.
func (def ValencyDef) GetID() ValencyID {
	return def.id
}

// Fingerprint implements serde.Fingerprinter.
func (def ValencyDef) Fingerprint(w io.Writer) error {
	err := writeUint16(w, uint16(def.id))
	if err != nil {
		return xerrors.Errorf("couldn't write id: %v", err)
	}

	return nil
}

func writeUint16(w io.Writer, value uint16) error {
	buffer := make([]byte, 2)
	binary.LittleEndian.PutUint16(buffer, value)

	_, err := w.Write(buffer)

	return err
}

func writeUint64(w io.Writer, value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	_, err := w.Write(buffer)

	return err
}
