// Package ia declares the schema of inflatable fungible assets.
//
// The schema extends the non-inflatable asset schema: it keeps its state
// fields and its transfer operation with the exact same shapes, and adds a
// maximal supply, an inflation allowance and an issue operation that turns
// allowance into circulating assets. A burn epoch valency with its extension
// lets anyone attach a burn right without consuming owned state.
package ia

import (
	"go.dedis.ch/crest/contracts/nia"
	"go.dedis.ch/crest/iface"
	"go.dedis.ch/crest/iface/fungible"
	"go.dedis.ch/crest/schema"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/vm/native"
	"golang.org/x/xerrors"
)

// Additional identifiers of the schema. The identifiers shared with the
// non-inflatable schema keep their values and shapes.
const (
	GlobalMaxSupply types.GlobalID = 2004

	OwnedInflationAllowance types.OwnedID = 4001
	OwnedBurnRight          types.OwnedID = 4002

	ValencyBurnEpoch types.ValencyID = 6000

	OpGenesis   types.OpID = 1
	OpIssue     types.OpID = 10001
	OpBurnEpoch types.OpID = 11000
)

// Diagnostic codes reported by the validation scripts, in addition to the
// ones of the non-inflatable schema.
const (
	CodeInflationExceeded uint8 = 3
)

// Timestamp is the creation timestamp of the schema.
const Timestamp int64 = 1719887551

// NewSchema assembles the schema of inflatable assets, using the
// non-inflatable schema as root.
func NewSchema() (types.Schema, error) {
	root, err := nia.NewSchema()
	if err != nil {
		return types.Schema{}, xerrors.Errorf("couldn't assemble root: %v", err)
	}

	lib, err := nia.NewTypes()
	if err != nil {
		return types.Schema{}, err
	}

	builder := schema.NewBuilder("InflatableAsset", lib)
	builder.SetTimestamp(Timestamp)
	builder.SetDeveloper(nia.Developer)
	builder.SetRoot(root)

	builder.DeclareGlobal(nia.GlobalSpec, lib.Get("AssetSpec"), types.Once)
	builder.DeclareGlobal(nia.GlobalTerms, lib.Get("ContractTerms"), types.Once)
	builder.DeclareGlobal(nia.GlobalIssuedSupply, lib.Get("Amount"), types.Once)
	builder.DeclareGlobal(nia.GlobalCreated, lib.Get("Timestamp"), types.Once)
	builder.DeclareGlobal(GlobalMaxSupply, lib.Get("Amount"), types.Once)

	builder.DeclareOwned(types.NewFungibleDef(nia.OwnedAsset, types.OnceOrMore))
	builder.DeclareOwned(types.NewFungibleDef(OwnedInflationAllowance, types.OnceOrMore))
	builder.DeclareOwned(types.NewDeclarativeDef(OwnedBurnRight, types.NoneOrMore))

	builder.DeclareValency(ValencyBurnEpoch)

	builder.DeclareOperation(types.NewOperationDef(types.Genesis, OpGenesis,
		types.WithGlobals(nia.GlobalSpec, nia.GlobalTerms, nia.GlobalIssuedSupply,
			nia.GlobalCreated, GlobalMaxSupply),
		types.WithOutputs(nia.OwnedAsset, OwnedInflationAllowance),
		types.WithProvides(ValencyBurnEpoch),
	))

	builder.DeclareOperation(types.NewOperationDef(types.Transition, nia.OpTransfer,
		types.WithInputs(nia.OwnedAsset),
		types.WithOutputs(nia.OwnedAsset),
	))

	builder.DeclareOperation(types.NewOperationDef(types.Transition, OpIssue,
		types.WithGlobals(nia.GlobalIssuedSupply),
		types.WithInputs(OwnedInflationAllowance),
		types.WithOutputs(OwnedInflationAllowance, nia.OwnedAsset),
	))

	builder.DeclareOperation(types.NewOperationDef(types.Extension, OpBurnEpoch,
		types.WithRedeems(ValencyBurnEpoch),
		types.WithOutputs(OwnedBurnRight),
	))

	// The genesis check verifies that the issued amounts match the reported
	// supply, and that the issued amounts plus the remaining allowance match
	// the maximal supply.
	builder.AttachScript(OpGenesis, native.NewProgram().
		SetErr(nia.CodeIssuedMismatch).
		CheckReported(nia.OwnedAsset, nia.GlobalIssuedSupply).
		Ret().
		Bytes())

	builder.AttachScript(nia.OpTransfer, native.NewProgram().
		SetErr(nia.CodeNonEqualAmounts).
		CheckBalance(nia.OwnedAsset).
		Ret().
		Bytes())

	// The issue check verifies that the allowance consumed equals the
	// allowance reproduced plus the assets issued, so that the total supply
	// can never exceed the allowance granted at genesis.
	builder.AttachScript(OpIssue, native.NewProgram().
		SetErr(CodeInflationExceeded).
		CheckIssuance(OwnedInflationAllowance, nia.OwnedAsset).
		Ret().
		Bytes())

	builder.AttachScript(OpBurnEpoch, native.NewProgram().
		Ret().
		Bytes())

	return builder.Assemble()
}

// NewImplementation binds the schema to the fungible asset standard,
// including the optional inflation members.
func NewImplementation() (types.Implementation, error) {
	sc, err := NewSchema()
	if err != nil {
		return types.Implementation{}, err
	}

	std, err := fungible.NewStandard()
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't create standard: %v", err)
	}

	naming := types.Naming{
		Globals: map[string]types.GlobalID{
			fungible.Spec:         nia.GlobalSpec,
			fungible.Terms:        nia.GlobalTerms,
			fungible.IssuedSupply: nia.GlobalIssuedSupply,
			fungible.MaxSupply:    GlobalMaxSupply,
		},
		Owned: map[string]types.OwnedID{
			fungible.AssetOwner:         nia.OwnedAsset,
			fungible.InflationAllowance: OwnedInflationAllowance,
		},
		Operations: map[string]types.OpID{
			fungible.Transfer: nia.OpTransfer,
			fungible.Issue:    OpIssue,
		},
		Errors: map[string]uint8{
			fungible.ErrIssuedMismatch:    nia.CodeIssuedMismatch,
			fungible.ErrNonEqualAmounts:   nia.CodeNonEqualAmounts,
			fungible.ErrInflationExceeded: CodeInflationExceeded,
		},
	}

	impl, err := iface.Bind(sc, std, naming)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't bind: %w", err)
	}

	return impl, nil
}
