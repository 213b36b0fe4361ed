// Package unique declares the interface standard of unique asset contracts.
//
// A unique asset exists as a single indivisible token: the genesis declares
// the token data in the global state and assigns the token to its first owner
// as a structured allocation, and the transfer moves the whole allocation to
// a new owner.
package unique

import (
	"go.dedis.ch/crest/iface"
	"go.dedis.ch/crest/schema/types"
)

// Abstract member names of the standard.
const (
	// Spec is the nominal specification of the asset (ticker, name,
	// precision).
	Spec = "spec"

	// Terms is the contract terms text.
	Terms = "terms"

	// Created is the creation timestamp of the contract.
	Created = "created"

	// Tokens is the token data declared at genesis.
	Tokens = "tokens"

	// Attachment is the media attachment of the token.
	Attachment = "attachment"

	// AssetOwner is the owned allocation of the token.
	AssetOwner = "assetOwner"

	// Transfer is the operation moving the allocation to a new owner.
	Transfer = "Transfer"
)

// Named diagnostic variants of the standard.
const (
	// ErrInvalidIndex reports an allocation referring to an undeclared token.
	ErrInvalidIndex = "invalidIndex"

	// ErrNonUnitFraction reports an allocation splitting the token.
	ErrNonUnitFraction = "nonUnitFraction"
)

// NewStandard returns the unique asset standard.
func NewStandard() (iface.Standard, error) {
	return iface.NewStandard("UniqueAsset",
		iface.WithGlobal(Spec, true),
		iface.WithGlobal(Terms, true),
		iface.WithGlobal(Created, true),
		iface.WithGlobal(Tokens, true),
		iface.WithGlobal(Attachment, false),
		iface.WithOwned(AssetOwner, true),
		iface.WithOperation(Transfer, types.Transition, true),
		iface.WithErrors(ErrInvalidIndex, ErrNonUnitFraction),
	)
}
