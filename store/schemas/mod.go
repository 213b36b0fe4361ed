// Package schemas implements the content-addressed store of schema
// artifacts.
//
// Artifacts are stored under the bytes of their identifier. The identifier
// of a loaded artifact is always recomputed from the decoded content and
// compared against the storage key, so that a corrupted or tampered record
// can never impersonate another identifier. The store also serves as the
// resolver of root schema chains during assembly.
package schemas

import (
	"go.dedis.ch/crest"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde"
	"go.dedis.ch/crest/store/kv"
	"golang.org/x/xerrors"
)

var (
	schemaBucket = []byte("schemata")
	implBucket   = []byte("implementations")
)

// Store persists schema artifacts keyed by their content-addressed
// identifier.
//
// - implements schema.Resolver
type Store struct {
	db  kv.DB
	ctx serde.Context
}

// NewStore returns a store using the database and the serialization context.
func NewStore(db kv.DB, ctx serde.Context) Store {
	return Store{
		db:  db,
		ctx: ctx,
	}
}

// PutSchema stores the schema under its identifier.
func (s Store) PutSchema(schema types.Schema) error {
	data, err := schema.Serialize(s.ctx)
	if err != nil {
		return xerrors.Errorf("couldn't serialize schema: %v", err)
	}

	err = s.db.Update(schemaBucket, func(bucket kv.Bucket) error {
		return bucket.Set(schema.GetHash().Bytes(), data)
	})
	if err != nil {
		return xerrors.Errorf("couldn't store schema: %v", err)
	}

	crest.Logger.Trace().Msgf("stored schema %v", schema.GetHash())

	return nil
}

// GetSchema returns the schema of the identifier. It fails when the record is
// missing, or when the recomputed identifier of the stored content does not
// match the requested one.
func (s Store) GetSchema(id types.Digest) (types.Schema, error) {
	var data []byte

	err := s.db.View(schemaBucket, func(bucket kv.Bucket) error {
		value := bucket.Get(id.Bytes())
		if value == nil {
			return xerrors.Errorf("schema %v not found", id)
		}

		data = append(data, value...)

		return nil
	})
	if err != nil {
		return types.Schema{}, err
	}

	msg, err := types.SchemaFactory{}.Deserialize(s.ctx, data)
	if err != nil {
		return types.Schema{}, xerrors.Errorf("couldn't deserialize schema: %v", err)
	}

	schema, ok := msg.(types.Schema)
	if !ok {
		return types.Schema{}, xerrors.Errorf("invalid message of type '%T'", msg)
	}

	if schema.GetHash() != id {
		return types.Schema{}, xerrors.Errorf(
			"content mismatch: stored %v, recomputed %v", id, schema.GetHash())
	}

	return schema, nil
}

// Resolve implements schema.Resolver.
func (s Store) Resolve(id types.Digest) (types.Schema, error) {
	return s.GetSchema(id)
}

// PutImplementation stores the implementation under its identifier.
func (s Store) PutImplementation(impl types.Implementation) error {
	data, err := impl.Serialize(s.ctx)
	if err != nil {
		return xerrors.Errorf("couldn't serialize implementation: %v", err)
	}

	err = s.db.Update(implBucket, func(bucket kv.Bucket) error {
		return bucket.Set(impl.GetHash().Bytes(), data)
	})
	if err != nil {
		return xerrors.Errorf("couldn't store implementation: %v", err)
	}

	crest.Logger.Trace().Msgf("stored implementation %v", impl.GetHash())

	return nil
}

// GetImplementation returns the implementation of the identifier, with the
// same content verification as GetSchema.
func (s Store) GetImplementation(id types.Digest) (types.Implementation, error) {
	var data []byte

	err := s.db.View(implBucket, func(bucket kv.Bucket) error {
		value := bucket.Get(id.Bytes())
		if value == nil {
			return xerrors.Errorf("implementation %v not found", id)
		}

		data = append(data, value...)

		return nil
	})
	if err != nil {
		return types.Implementation{}, err
	}

	msg, err := types.ImplementationFactory{}.Deserialize(s.ctx, data)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't deserialize implementation: %v", err)
	}

	impl, ok := msg.(types.Implementation)
	if !ok {
		return types.Implementation{}, xerrors.Errorf("invalid message of type '%T'", msg)
	}

	if impl.GetHash() != id {
		return types.Implementation{}, xerrors.Errorf(
			"content mismatch: stored %v, recomputed %v", id, impl.GetHash())
	}

	return impl, nil
}
