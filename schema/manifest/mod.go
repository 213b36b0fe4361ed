// Package manifest implements the declarative YAML form of a schema.
//
// A manifest is the authoring format consumed by the command line tool: it
// declares the type library, the state fields, the operations and their
// validation programs, and assembles to the exact same immutable schema
// artifact a programmatic declaration would produce.
package manifest

import (
	"go.dedis.ch/crest/schema"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/typelib"
	"go.dedis.ch/crest/vm/native"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Manifest is the top-level YAML document of a schema declaration.
type Manifest struct {
	Name       string
	Timestamp  int64
	Developer  string
	Types      map[string]TypeDecl
	Globals    []GlobalDecl
	Owned      []OwnedDecl
	Valencies  []ValencyDecl
	Operations []OperationDecl
}

// TypeDecl declares a type expression. Exactly one member is set.
type TypeDecl struct {
	Unsigned *UnsignedDecl `yaml:"unsigned"`
	Bytes    *BytesDecl    `yaml:"bytes"`
	String   *StringDecl   `yaml:"string"`
	Enum     *EnumDecl     `yaml:"enum"`
	Record   *RecordDecl   `yaml:"record"`
	Ref      string        `yaml:"ref"`
}

// UnsignedDecl declares a ranged unsigned integer.
type UnsignedDecl struct {
	Bits uint8
	Min  *uint64
	Max  *uint64
}

// BytesDecl declares a byte sequence.
type BytesDecl struct {
	Fixed bool
	Size  uint16
}

// StringDecl declares a bounded string.
type StringDecl struct {
	MaxLen uint16 `yaml:"maxlen"`
}

// EnumDecl declares an enumeration.
type EnumDecl struct {
	Variants []VariantDecl
}

// VariantDecl declares an enumeration variant.
type VariantDecl struct {
	Name    string
	Ordinal uint8
}

// RecordDecl declares an ordered record.
type RecordDecl struct {
	Fields []FieldDecl
}

// FieldDecl declares a record field.
type FieldDecl struct {
	Name string
	Type TypeDecl
}

// GlobalDecl declares a global state field.
type GlobalDecl struct {
	ID         uint16 `yaml:"id"`
	Type       string
	Occurrence string
}

// OwnedDecl declares an owned state field.
type OwnedDecl struct {
	ID         uint16 `yaml:"id"`
	Kind       string
	Type       string
	Occurrence string
}

// ValencyDecl declares a public valency.
type ValencyDecl struct {
	ID uint16 `yaml:"id"`
}

// OperationDecl declares an operation and its validation program.
type OperationDecl struct {
	ID       uint16 `yaml:"id"`
	Kind     string
	Meta     string
	Globals  []uint16
	Inputs   []uint16
	Outputs  []uint16
	Redeems  []uint16
	Provides []uint16
	Script   []InstructionDecl
}

// InstructionDecl declares one instruction of a native validation program.
// Exactly one member is set.
type InstructionDecl struct {
	SetErr        *uint8             `yaml:"seterr"`
	CheckBalance  *uint16            `yaml:"checkbalance"`
	CheckReported *CheckReportedDecl `yaml:"checkreported"`
	CheckIssuance *CheckIssuanceDecl `yaml:"checkissuance"`
	Ret           bool               `yaml:"ret"`
}

// CheckReportedDecl declares the operands of a reported amount check.
type CheckReportedDecl struct {
	Owned  uint16
	Global uint16
}

// CheckIssuanceDecl declares the operands of an issuance check.
type CheckIssuanceDecl struct {
	Allowance uint16
	Asset     uint16
}

// Parse reads a manifest from its YAML form.
func Parse(data []byte) (Manifest, error) {
	m := Manifest{}

	err := yaml.Unmarshal(data, &m)
	if err != nil {
		return Manifest{}, xerrors.Errorf("couldn't unmarshal manifest: %v", err)
	}

	return m, nil
}

// Assemble resolves the type library and assembles the schema declared by
// the manifest.
func (m Manifest) Assemble() (types.Schema, error) {
	libBuilder := typelib.NewBuilder()

	for name, decl := range m.Types {
		expr, err := decl.toExpr()
		if err != nil {
			return types.Schema{}, xerrors.Errorf("type '%s': %v", name, err)
		}

		libBuilder.Declare(name, expr)
	}

	lib, err := libBuilder.Resolve()
	if err != nil {
		return types.Schema{}, xerrors.Errorf("couldn't resolve types: %w", err)
	}

	builder := schema.NewBuilder(m.Name, lib)
	builder.SetTimestamp(m.Timestamp)
	builder.SetDeveloper(m.Developer)

	for _, decl := range m.Globals {
		sem := lib.Get(decl.Type)
		if sem.IsZero() {
			return types.Schema{}, xerrors.Errorf("global %d: unknown type '%s'", decl.ID, decl.Type)
		}

		occ, err := parseOccurrence(decl.Occurrence)
		if err != nil {
			return types.Schema{}, xerrors.Errorf("global %d: %v", decl.ID, err)
		}

		builder.DeclareGlobal(types.GlobalID(decl.ID), sem, occ)
	}

	for _, decl := range m.Owned {
		occ, err := parseOccurrence(decl.Occurrence)
		if err != nil {
			return types.Schema{}, xerrors.Errorf("owned %d: %v", decl.ID, err)
		}

		switch decl.Kind {
		case "declarative":
			builder.DeclareOwned(types.NewDeclarativeDef(types.OwnedID(decl.ID), occ))
		case "fungible":
			builder.DeclareOwned(types.NewFungibleDef(types.OwnedID(decl.ID), occ))
		case "structured":
			sem := lib.Get(decl.Type)
			if sem.IsZero() {
				return types.Schema{}, xerrors.Errorf("owned %d: unknown type '%s'", decl.ID, decl.Type)
			}

			builder.DeclareOwned(types.NewStructuredDef(types.OwnedID(decl.ID), sem, occ))
		default:
			return types.Schema{}, xerrors.Errorf("owned %d: unknown kind '%s'", decl.ID, decl.Kind)
		}
	}

	for _, decl := range m.Valencies {
		builder.DeclareValency(types.ValencyID(decl.ID))
	}

	for _, decl := range m.Operations {
		kind, err := parseKind(decl.Kind)
		if err != nil {
			return types.Schema{}, xerrors.Errorf("operation %d: %v", decl.ID, err)
		}

		opts := []types.OperationOption{
			types.WithGlobals(toGlobals(decl.Globals)...),
			types.WithInputs(toOwned(decl.Inputs)...),
			types.WithOutputs(toOwned(decl.Outputs)...),
			types.WithRedeems(toValencies(decl.Redeems)...),
			types.WithProvides(toValencies(decl.Provides)...),
		}

		if decl.Meta != "" {
			sem := lib.Get(decl.Meta)
			if sem.IsZero() {
				return types.Schema{}, xerrors.Errorf("operation %d: unknown type '%s'", decl.ID, decl.Meta)
			}

			opts = append(opts, types.WithMeta(sem))
		}

		builder.DeclareOperation(types.NewOperationDef(kind, types.OpID(decl.ID), opts...))

		program := native.NewProgram()
		for _, ins := range decl.Script {
			err := ins.append(program)
			if err != nil {
				return types.Schema{}, xerrors.Errorf("operation %d: %v", decl.ID, err)
			}
		}

		builder.AttachScript(types.OpID(decl.ID), program.Bytes())
	}

	return builder.Assemble()
}

func (decl TypeDecl) toExpr() (typelib.Ty, error) {
	switch {
	case decl.Unsigned != nil:
		switch decl.Unsigned.Bits {
		case 8, 16, 32, 64:
		default:
			return nil, xerrors.Errorf("unsupported integer width %d", decl.Unsigned.Bits)
		}

		expr := typelib.NewUnsigned(decl.Unsigned.Bits)

		if decl.Unsigned.Min != nil || decl.Unsigned.Max != nil {
			min := uint64(0)
			if decl.Unsigned.Min != nil {
				min = *decl.Unsigned.Min
			}

			max := expr.GetMax()
			if decl.Unsigned.Max != nil {
				max = *decl.Unsigned.Max
			}

			expr = expr.Range(min, max)
		}

		return expr, nil
	case decl.Bytes != nil:
		if decl.Bytes.Fixed {
			return typelib.NewBytes(decl.Bytes.Size), nil
		}

		return typelib.NewBytesUpTo(decl.Bytes.Size), nil
	case decl.String != nil:
		return typelib.NewString(decl.String.MaxLen), nil
	case decl.Enum != nil:
		variants := make([]typelib.Variant, 0, len(decl.Enum.Variants))
		for _, variant := range decl.Enum.Variants {
			variants = append(variants, typelib.Variant{
				Name:    variant.Name,
				Ordinal: variant.Ordinal,
			})
		}

		return typelib.NewEnum(variants...), nil
	case decl.Record != nil:
		fields := make([]typelib.Field, 0, len(decl.Record.Fields))
		for _, field := range decl.Record.Fields {
			sub, err := field.Type.toExpr()
			if err != nil {
				return nil, err
			}

			fields = append(fields, typelib.Field{Name: field.Name, Type: sub})
		}

		return typelib.NewRecord(fields...), nil
	case decl.Ref != "":
		return typelib.NewRef(decl.Ref), nil
	default:
		return nil, xerrors.New("empty type declaration")
	}
}

func (ins InstructionDecl) append(program *native.Program) error {
	switch {
	case ins.SetErr != nil:
		program.SetErr(*ins.SetErr)
	case ins.CheckBalance != nil:
		program.CheckBalance(types.OwnedID(*ins.CheckBalance))
	case ins.CheckReported != nil:
		program.CheckReported(
			types.OwnedID(ins.CheckReported.Owned),
			types.GlobalID(ins.CheckReported.Global))
	case ins.CheckIssuance != nil:
		program.CheckIssuance(
			types.OwnedID(ins.CheckIssuance.Allowance),
			types.OwnedID(ins.CheckIssuance.Asset))
	case ins.Ret:
		program.Ret()
	default:
		return xerrors.New("empty instruction")
	}

	return nil
}

func parseOccurrence(value string) (types.Occurrence, error) {
	switch value {
	case "once":
		return types.Once, nil
	case "noneOrOnce":
		return types.NoneOrOnce, nil
	case "onceOrMore":
		return types.OnceOrMore, nil
	case "noneOrMore":
		return types.NoneOrMore, nil
	default:
		return 0, xerrors.Errorf("unknown occurrence '%s'", value)
	}
}

func parseKind(value string) (types.OpKind, error) {
	switch value {
	case "genesis":
		return types.Genesis, nil
	case "transition":
		return types.Transition, nil
	case "extension":
		return types.Extension, nil
	default:
		return 0, xerrors.Errorf("unknown kind '%s'", value)
	}
}

func toGlobals(ids []uint16) []types.GlobalID {
	res := make([]types.GlobalID, len(ids))
	for i, id := range ids {
		res[i] = types.GlobalID(id)
	}

	return res
}

func toOwned(ids []uint16) []types.OwnedID {
	res := make([]types.OwnedID, len(ids))
	for i, id := range ids {
		res[i] = types.OwnedID(id)
	}

	return res
}

func toValencies(ids []uint16) []types.ValencyID {
	res := make([]types.ValencyID, len(ids))
	for i, id := range ids {
		res[i] = types.ValencyID(id)
	}

	return res
}
