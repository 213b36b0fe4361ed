package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDuplicateFieldIDError_Error(t *testing.T) {
	err := DuplicateFieldIDError{Class: ClassGlobal, ID: 2000}

	require.EqualError(t, err, "duplicate global id 2000")
}

func TestUnknownFieldRefError_Error(t *testing.T) {
	err := UnknownFieldRefError{Operation: 10000, Class: ClassOwned, ID: 4000}

	require.EqualError(t, err, "operation 10000 references unknown owned id 4000")
}

func TestInvalidKindError_Error(t *testing.T) {
	err := InvalidKindError{Operation: 0, Kind: Genesis, Reason: "genesis redeems valencies"}

	require.EqualError(t, err, "operation 0 of kind genesis: genesis redeems valencies")
}

func TestMissingScriptError_Error(t *testing.T) {
	err := MissingScriptError{Operation: 10000}

	require.EqualError(t, err, "operation 10000 has no validation script")
}

func TestIncompatibleExtensionError_Error(t *testing.T) {
	err := IncompatibleExtensionError{Class: ClassGlobal, ID: 7}

	require.EqualError(t, err, "global id 7 is incompatible with the root declaration")
}

func TestMalformedEncodingError_Error(t *testing.T) {
	err := MalformedEncodingError{Reason: "truncated digest"}

	require.EqualError(t, err, "malformed encoding: truncated digest")
}
