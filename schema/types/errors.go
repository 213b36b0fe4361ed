//
// This file contains the definitional errors of the schema model. They are
// raised while assembling or decoding a schema, never while validating live
// contract operations, and they always carry the offending identifier so
// that the schema author can correct the declaration.
//

package types

import "fmt"

// Class identifies the class of a state field declaration. Numeric
// identifiers are only unique within their class.
type Class string

const (
	// ClassGlobal is the class of the global state fields.
	ClassGlobal Class = "global"

	// ClassOwned is the class of the owned state fields.
	ClassOwned Class = "owned"

	// ClassValency is the class of the public valencies.
	ClassValency Class = "valency"

	// ClassOperation is the class of the operation declarations.
	ClassOperation Class = "operation"
)

// DuplicateFieldIDError is returned when a numeric identifier is declared
// twice in the same class.
//
// - implements error
type DuplicateFieldIDError struct {
	Class Class
	ID    uint16
}

// Error implements error.
func (e DuplicateFieldIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %d", e.Class, e.ID)
}

// UnknownFieldRefError is returned when an operation references a state field
// identifier that is not declared.
//
// - implements error
type UnknownFieldRefError struct {
	Operation OpID
	Class     Class
	ID        uint16
}

// Error implements error.
func (e UnknownFieldRefError) Error() string {
	return fmt.Sprintf("operation %d references unknown %s id %d",
		e.Operation, e.Class, e.ID)
}

// InvalidKindError is returned when an operation declares a shape that its
// kind forbids, like a genesis with owned state inputs.
//
// - implements error
type InvalidKindError struct {
	Operation OpID
	Kind      OpKind
	Reason    string
}

// Error implements error.
func (e InvalidKindError) Error() string {
	return fmt.Sprintf("operation %d of kind %s: %s", e.Operation, e.Kind, e.Reason)
}

// MissingScriptError is returned when a declared operation has no validation
// script attached at assembly time.
//
// - implements error
type MissingScriptError struct {
	Operation OpID
}

// Error implements error.
func (e MissingScriptError) Error() string {
	return fmt.Sprintf("operation %d has no validation script", e.Operation)
}

// IncompatibleExtensionError is returned when a schema extending a root
// redeclares an identifier with a different shape than the root declaration.
//
// - implements error
type IncompatibleExtensionError struct {
	Class Class
	ID    uint16
}

// Error implements error.
func (e IncompatibleExtensionError) Error() string {
	return fmt.Sprintf("%s id %d is incompatible with the root declaration",
		e.Class, e.ID)
}

// MalformedEncodingError is returned when decoding an artifact from a
// truncated or out-of-range input.
//
// - implements error
type MalformedEncodingError struct {
	Reason string
}

// Error implements error.
func (e MalformedEncodingError) Error() string {
	return fmt.Sprintf("malformed encoding: %s", e.Reason)
}
