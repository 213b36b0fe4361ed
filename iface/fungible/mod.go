// Package fungible declares the interface standard of fungible asset
// contracts.
//
// The standard requires a nominal asset specification, a reported issued
// supply, an owned amount assignment and a transfer operation. Inflation is
// optional: a compliant schema may additionally expose an issue operation
// together with a maximal supply and an inflation allowance.
package fungible

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

	// IssuedSupply is the reported total of issued assets.
	IssuedSupply = "issuedSupply"

	// MaxSupply is the maximal supply of an inflatable asset.
	MaxSupply = "maxSupply"

	// AssetOwner is the owned amount assignment.
	AssetOwner = "assetOwner"

	// InflationAllowance is the owned right to issue more assets.
	InflationAllowance = "inflationAllowance"

	// Transfer is the operation moving amounts between owners.
	Transfer = "Transfer"

	// Issue is the operation issuing new assets against an inflation
	// allowance.
	Issue = "Issue"
)

// Named diagnostic variants of the standard.
const (
	// ErrNonEqualAmounts reports a transfer with unbalanced amounts.
	ErrNonEqualAmounts = "nonEqualAmounts"

	// ErrIssuedMismatch reports a genesis whose owned amounts do not match
	// the reported issued supply.
	ErrIssuedMismatch = "issuedMismatch"

	// ErrInflationExceeded reports an issue beyond the inflation allowance.
	ErrInflationExceeded = "inflationExceeded"
)

// NewStandard returns the fungible asset standard.
func NewStandard() (iface.Standard, error) {
	return iface.NewStandard("FungibleAsset",
		iface.WithGlobal(Spec, true),
		iface.WithGlobal(Terms, true),
		iface.WithGlobal(IssuedSupply, true),
		iface.WithGlobal(MaxSupply, false),
		iface.WithOwned(AssetOwner, true),
		iface.WithOwned(InflationAllowance, false),
		iface.WithOperation(Transfer, types.Transition, true),
		iface.WithOperation(Issue, types.Transition, false),
		iface.WithErrors(ErrNonEqualAmounts, ErrIssuedMismatch, ErrInflationExceeded),
	)
}
