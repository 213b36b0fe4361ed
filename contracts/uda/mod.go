// Package uda declares the schema of unique digital assets and its binding to
// the unique asset standard.
//
// A unique digital asset is a single indivisible token. The genesis declares
// the token data in the global state and assigns the token to its first owner
// as a structured allocation, and the only operation afterwards is the
// transfer, which moves the whole allocation to a new owner.
package uda

import (
	"go.dedis.ch/crest/iface"
	"go.dedis.ch/crest/iface/unique"
	"go.dedis.ch/crest/schema"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/typelib"
	"go.dedis.ch/crest/vm/native"
	"golang.org/x/xerrors"
)

// State field and operation identifiers of the schema.
const (
	GlobalSpec    types.GlobalID = 2000
	GlobalTerms   types.GlobalID = 2001
	GlobalCreated types.GlobalID = 2003
	GlobalTokens  types.GlobalID = 2102
	GlobalAttach  types.GlobalID = 2104

	OwnedAsset types.OwnedID = 4000

	OpGenesis  types.OpID = 0
	OpTransfer types.OpID = 10000
)

// Timestamp is the creation timestamp of the schema. It is part of the
// content, so it is a constant of the declaration.
const Timestamp int64 = 1711420123

// Developer is the developer identity of the schema.
const Developer = "dedis/crest"

// NewTypes returns the resolved type library of the schema.
func NewTypes() (typelib.Library, error) {
	builder := typelib.NewBuilder()

	builder.Declare("Ticker", typelib.NewString(8))
	builder.Declare("AssetName", typelib.NewString(40))
	builder.Declare("Precision", typelib.NewEnum(
		typelib.Variant{Name: "indivisible", Ordinal: 0},
	))
	builder.Declare("AssetSpec", typelib.NewRecord(
		typelib.Field{Name: "ticker", Type: typelib.NewRef("Ticker")},
		typelib.Field{Name: "name", Type: typelib.NewRef("AssetName")},
		typelib.Field{Name: "precision", Type: typelib.NewRef("Precision")},
	))
	builder.Declare("ContractTerms", typelib.NewString(4096))
	builder.Declare("Timestamp", typelib.NewUnsigned(64))
	builder.Declare("TokenIndex", typelib.NewUnsigned(32))
	builder.Declare("Fraction", typelib.NewUnsigned(64))
	builder.Declare("AttachmentID", typelib.NewString(64))
	builder.Declare("TokenData", typelib.NewRecord(
		typelib.Field{Name: "index", Type: typelib.NewRef("TokenIndex")},
		typelib.Field{Name: "attachment", Type: typelib.NewRef("AttachmentID")},
	))
	builder.Declare("Allocation", typelib.NewRecord(
		typelib.Field{Name: "index", Type: typelib.NewRef("TokenIndex")},
		typelib.Field{Name: "fraction", Type: typelib.NewRef("Fraction")},
	))

	lib, err := builder.Resolve()
	if err != nil {
		return typelib.Library{}, xerrors.Errorf("couldn't resolve types: %v", err)
	}

	return lib, nil
}

// NewSchema assembles the schema of unique digital assets.
func NewSchema() (types.Schema, error) {
	lib, err := NewTypes()
	if err != nil {
		return types.Schema{}, err
	}

	builder := schema.NewBuilder("UniqueDigitalAsset", lib)
	builder.SetTimestamp(Timestamp)
	builder.SetDeveloper(Developer)

	builder.DeclareGlobal(GlobalSpec, lib.Get("AssetSpec"), types.Once)
	builder.DeclareGlobal(GlobalTerms, lib.Get("ContractTerms"), types.Once)
	builder.DeclareGlobal(GlobalCreated, lib.Get("Timestamp"), types.Once)
	builder.DeclareGlobal(GlobalTokens, lib.Get("TokenData"), types.Once)
	builder.DeclareGlobal(GlobalAttach, lib.Get("AttachmentID"), types.NoneOrOnce)

	builder.DeclareOwned(types.NewStructuredDef(OwnedAsset, lib.Get("Allocation"), types.Once))

	builder.DeclareOperation(types.NewOperationDef(types.Genesis, OpGenesis,
		types.WithGlobals(GlobalSpec, GlobalTerms, GlobalCreated, GlobalTokens, GlobalAttach),
		types.WithOutputs(OwnedAsset),
	))

	builder.DeclareOperation(types.NewOperationDef(types.Transition, OpTransfer,
		types.WithInputs(OwnedAsset),
		types.WithOutputs(OwnedAsset),
	))

	// The allocation is declared exactly once on every operation, so the
	// uniqueness of the token is a shape rule and the scripts have no numeric
	// relation left to check.
	builder.AttachScript(OpGenesis, native.NewProgram().Ret().Bytes())
	builder.AttachScript(OpTransfer, native.NewProgram().Ret().Bytes())

	return builder.Assemble()
}

// NewImplementation binds the schema to the unique asset standard.
func NewImplementation() (types.Implementation, error) {
	sc, err := NewSchema()
	if err != nil {
		return types.Implementation{}, err
	}

	std, err := unique.NewStandard()
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't create standard: %v", err)
	}

	naming := types.Naming{
		Globals: map[string]types.GlobalID{
			unique.Spec:       GlobalSpec,
			unique.Terms:      GlobalTerms,
			unique.Created:    GlobalCreated,
			unique.Tokens:     GlobalTokens,
			unique.Attachment: GlobalAttach,
		},
		Owned: map[string]types.OwnedID{
			unique.AssetOwner: OwnedAsset,
		},
		Operations: map[string]types.OpID{
			unique.Transfer: OpTransfer,
		},
	}

	impl, err := iface.Bind(sc, std, naming)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't bind: %w", err)
	}

	return impl, nil
}
