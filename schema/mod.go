// Package schema implements the assembly of contract schemata.
//
// A builder collects the declarations of a schema family while it is in the
// declaring state: the type library, the state fields, the operations and
// their validation scripts. Assembling validates the declarations as a whole
// and produces the immutable schema artifact with its content-addressed
// identifier. Any assembly error aborts the assembly entirely, so that no
// partial schema is ever produced.
//
// A schema may extend a root schema, referenced by identifier. In that case
// the assembly walks the chain of roots and verifies that every identifier
// the child reuses keeps the exact shape of the root declaration.
package schema

import (
	"bytes"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/typelib"
	"golang.org/x/xerrors"
)

// Resolver is the interface to look up a schema by its identifier. It is used
// to walk the chain of root schemata during assembly.
type Resolver interface {
	Resolve(id types.Digest) (types.Schema, error)
}

// Builder collects the declarations of a schema before assembly.
type Builder struct {
	name        string
	lib         typelib.Library
	timestamp   int64
	developer   string
	globals     []types.GlobalStateDef
	owned       []types.OwnedStateDef
	valencies   []types.ValencyDef
	ops         []types.OperationDef
	scripts     map[types.OpID]types.Script
	root        *types.Schema
	resolver    Resolver
	hashFactory crypto.HashFactory
}

// NewBuilder returns a builder in the declaring state for a schema of the
// given name, using the resolved type library for its state fields.
func NewBuilder(name string, lib typelib.Library) *Builder {
	return &Builder{
		name:        name,
		lib:         lib,
		scripts:     make(map[types.OpID]types.Script),
		hashFactory: crypto.NewSha256Factory(),
	}
}

// SetHashFactory sets the hash factory used for the schema identifier.
func (b *Builder) SetHashFactory(f crypto.HashFactory) {
	b.hashFactory = f
}

// SetTimestamp sets the creation timestamp of the schema. The timestamp is
// part of the content and must be a constant of the declaration.
func (b *Builder) SetTimestamp(ts int64) {
	b.timestamp = ts
}

// SetDeveloper sets the developer identity of the schema.
func (b *Builder) SetDeveloper(identity string) {
	b.developer = identity
}

// SetRoot sets the root schema that this schema extends. The assembled schema
// references the root by identifier only.
func (b *Builder) SetRoot(root types.Schema) {
	r := root
	b.root = &r
}

// SetResolver sets the resolver used to look up the ancestors of the root
// when the root itself extends another schema.
func (b *Builder) SetResolver(r Resolver) {
	b.resolver = r
}

// DeclareGlobal declares a global state field.
func (b *Builder) DeclareGlobal(id types.GlobalID, sem typelib.SemType, occ types.Occurrence) {
	b.globals = append(b.globals, types.NewGlobalStateDef(id, sem, occ))
}

// DeclareOwned declares an owned state field.
func (b *Builder) DeclareOwned(def types.OwnedStateDef) {
	b.owned = append(b.owned, def)
}

// DeclareValency declares a public valency.
func (b *Builder) DeclareValency(id types.ValencyID) {
	b.valencies = append(b.valencies, types.NewValencyDef(id))
}

// DeclareOperation declares an operation.
func (b *Builder) DeclareOperation(def types.OperationDef) {
	b.ops = append(b.ops, def)
}

// AttachScript attaches the validation bytecode to the operation of the
// identifier. Every declared operation must have exactly one script at
// assembly time.
func (b *Builder) AttachScript(id types.OpID, code []byte) {
	b.scripts[id] = types.NewScript(code)
}

// Assemble validates the declarations and produces the immutable schema. It
// returns the first definitional error encountered, identifying the
// offending declaration.
func (b *Builder) Assemble() (types.Schema, error) {
	opts := []types.SchemaOption{
		types.WithHashFactory(b.hashFactory),
		types.WithTimestamp(b.timestamp),
		types.WithDeveloper(b.developer),
	}

	if b.root != nil {
		opts = append(opts, types.WithRoot(b.root.GetHash()))
	}

	schema, err := types.NewSchema(b.name, b.lib, b.globals, b.owned,
		b.valencies, b.ops, b.scripts, opts...)
	if err != nil {
		return types.Schema{}, xerrors.Errorf("couldn't assemble '%s': %w", b.name, err)
	}

	if b.root != nil {
		err = b.checkRootChain(schema)
		if err != nil {
			return types.Schema{}, xerrors.Errorf("couldn't assemble '%s': %w", b.name, err)
		}
	}

	return schema, nil
}

// checkRootChain walks the chain of root schemata iteratively and verifies
// that every identifier the child reuses has the exact shape of the ancestor
// declaration.
func (b *Builder) checkRootChain(child types.Schema) error {
	current := *b.root

	for {
		err := checkCompatible(child, current)
		if err != nil {
			return err
		}

		rootID, found := current.GetRoot()
		if !found {
			return nil
		}

		if b.resolver == nil {
			return xerrors.Errorf("no resolver to look up root %v", rootID)
		}

		next, err := b.resolver.Resolve(rootID)
		if err != nil {
			return xerrors.Errorf("couldn't resolve root %v: %v", rootID, err)
		}

		current = next
	}
}

// checkCompatible verifies the shape compatibility of the child against one
// ancestor: a redeclared identifier must match the ancestor declaration
// byte-for-byte in the fingerprint sense. Scripts are not compared, as a
// child may strengthen the validation of an inherited operation.
func checkCompatible(child, ancestor types.Schema) error {
	for _, def := range child.GetGlobals() {
		root, found := ancestor.GetGlobal(def.GetID())
		if found && !sameShape(def, root) {
			return types.IncompatibleExtensionError{
				Class: types.ClassGlobal,
				ID:    uint16(def.GetID()),
			}
		}
	}

	for _, def := range child.GetOwnedList() {
		root, found := ancestor.GetOwned(def.GetID())
		if found && !sameShape(def, root) {
			return types.IncompatibleExtensionError{
				Class: types.ClassOwned,
				ID:    uint16(def.GetID()),
			}
		}
	}

	for _, def := range child.GetOperations() {
		root, found := ancestor.GetOperation(def.GetID())
		if found && !sameShape(def, root) {
			return types.IncompatibleExtensionError{
				Class: types.ClassOperation,
				ID:    uint16(def.GetID()),
			}
		}
	}

	return nil
}

func sameShape(a, b serde.Fingerprinter) bool {
	bufA := new(bytes.Buffer)
	bufB := new(bytes.Buffer)

	if a.Fingerprint(bufA) != nil || b.Fingerprint(bufB) != nil {
		return false
	}

	return bytes.Equal(bufA.Bytes(), bufB.Bytes())
}
