//
// This file contains the validation script type. A script is an opaque,
// immutable bytecode buffer attached to an operation declaration. The
// assembly subsystem never interprets it: execution is the responsibility of
// the virtual machine collaborator, under the contract that a script is a
// pure, deterministic and total function of the operation it validates.
//

package types

import (
	"io"

	"golang.org/x/xerrors"
)

// Script is the validation bytecode of a single operation declaration.
type Script struct {
	code []byte
}

// NewScript returns a script holding a private copy of the bytecode.
func NewScript(code []byte) Script {
	return Script{
		code: append([]byte{}, code...),
	}
}

// GetCode returns a copy of the bytecode of the script.
func (s Script) GetCode() []byte {
	return append([]byte{}, s.code...)
}

// Len returns the length of the bytecode in bytes.
func (s Script) Len() int {
	return len(s.code)
}

// Fingerprint implements serde.Fingerprinter.
func (s Script) Fingerprint(w io.Writer) error {
	err := writeUint16(w, uint16(len(s.code)))
	if err != nil {
		return xerrors.Errorf("couldn't write length: %v", err)
	}

	_, err = w.Write(s.code)
	if err != nil {
		return xerrors.Errorf("couldn't write code: %v", err)
	}

	return nil
}
