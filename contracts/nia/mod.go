// Package nia declares the schema of non-inflatable fungible assets and its
// binding to the fungible asset standard.
//
// A non-inflatable asset is issued once at genesis: the genesis reports the
// issued supply in the global state and distributes it as owned amounts, and
// the only operation afterwards is the transfer, which must preserve the
// total amount.
package nia

import (
	"go.dedis.ch/crest/iface"
	"go.dedis.ch/crest/iface/fungible"
	"go.dedis.ch/crest/schema"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/typelib"
	"go.dedis.ch/crest/vm/native"
	"golang.org/x/xerrors"
)

// State field and operation identifiers of the schema.
const (
	GlobalSpec         types.GlobalID = 2000
	GlobalTerms        types.GlobalID = 2001
	GlobalIssuedSupply types.GlobalID = 2002
	GlobalCreated      types.GlobalID = 2003

	OwnedAsset types.OwnedID = 4000

	OpGenesis  types.OpID = 0
	OpTransfer types.OpID = 10000
)

// Diagnostic codes reported by the validation scripts.
const (
	CodeIssuedMismatch  uint8 = 1
	CodeNonEqualAmounts uint8 = 2
)

// Timestamp is the creation timestamp of the schema. It is part of the
// content, so it is a constant of the declaration.
const Timestamp int64 = 1711405444

// Developer is the developer identity of the schema.
const Developer = "dedis/crest"

// NewTypes returns the resolved type library of the schema.
func NewTypes() (typelib.Library, error) {
	builder := typelib.NewBuilder()

	builder.Declare("Ticker", typelib.NewString(8))
	builder.Declare("AssetName", typelib.NewString(40))
	builder.Declare("Precision", typelib.NewEnum(
		typelib.Variant{Name: "indivisible", Ordinal: 0},
		typelib.Variant{Name: "deci", Ordinal: 1},
		typelib.Variant{Name: "centi", Ordinal: 2},
		typelib.Variant{Name: "milli", Ordinal: 3},
		typelib.Variant{Name: "micro", Ordinal: 6},
		typelib.Variant{Name: "nano", Ordinal: 9},
	))
	builder.Declare("AssetSpec", typelib.NewRecord(
		typelib.Field{Name: "ticker", Type: typelib.NewRef("Ticker")},
		typelib.Field{Name: "name", Type: typelib.NewRef("AssetName")},
		typelib.Field{Name: "precision", Type: typelib.NewRef("Precision")},
	))
	builder.Declare("ContractTerms", typelib.NewString(4096))
	builder.Declare("Amount", typelib.NewUnsigned(64))
	builder.Declare("Timestamp", typelib.NewUnsigned(64))

	lib, err := builder.Resolve()
	if err != nil {
		return typelib.Library{}, xerrors.Errorf("couldn't resolve types: %v", err)
	}

	return lib, nil
}

// NewSchema assembles the schema of non-inflatable assets.
func NewSchema() (types.Schema, error) {
	lib, err := NewTypes()
	if err != nil {
		return types.Schema{}, err
	}

	builder := schema.NewBuilder("NonInflatableAsset", lib)
	builder.SetTimestamp(Timestamp)
	builder.SetDeveloper(Developer)

	builder.DeclareGlobal(GlobalSpec, lib.Get("AssetSpec"), types.Once)
	builder.DeclareGlobal(GlobalTerms, lib.Get("ContractTerms"), types.Once)
	builder.DeclareGlobal(GlobalIssuedSupply, lib.Get("Amount"), types.Once)
	builder.DeclareGlobal(GlobalCreated, lib.Get("Timestamp"), types.Once)

	builder.DeclareOwned(types.NewFungibleDef(OwnedAsset, types.OnceOrMore))

	builder.DeclareOperation(types.NewOperationDef(types.Genesis, OpGenesis,
		types.WithGlobals(GlobalSpec, GlobalTerms, GlobalIssuedSupply, GlobalCreated),
		types.WithOutputs(OwnedAsset),
	))

	builder.DeclareOperation(types.NewOperationDef(types.Transition, OpTransfer,
		types.WithInputs(OwnedAsset),
		types.WithOutputs(OwnedAsset),
	))

	// The genesis check verifies that the reported issued supply matches the
	// owned amounts created by the genesis.
	builder.AttachScript(OpGenesis, native.NewProgram().
		SetErr(CodeIssuedMismatch).
		CheckReported(OwnedAsset, GlobalIssuedSupply).
		Ret().
		Bytes())

	// The transfer check verifies that the sum of the input amounts equals
	// the sum of the output amounts.
	builder.AttachScript(OpTransfer, native.NewProgram().
		SetErr(CodeNonEqualAmounts).
		CheckBalance(OwnedAsset).
		Ret().
		Bytes())

	return builder.Assemble()
}

// NewImplementation binds the schema to the fungible asset standard.
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
			fungible.Spec:         GlobalSpec,
			fungible.Terms:        GlobalTerms,
			fungible.IssuedSupply: GlobalIssuedSupply,
		},
		Owned: map[string]types.OwnedID{
			fungible.AssetOwner: OwnedAsset,
		},
		Operations: map[string]types.OpID{
			fungible.Transfer: OpTransfer,
		},
		Errors: map[string]uint8{
			fungible.ErrIssuedMismatch:  CodeIssuedMismatch,
			fungible.ErrNonEqualAmounts: CodeNonEqualAmounts,
		},
	}

	impl, err := iface.Bind(sc, std, naming)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't bind: %w", err)
	}

	return impl, nil
}
