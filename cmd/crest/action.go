package main

import (
	"fmt"
	"os"

	"go.dedis.ch/crest/bundle"
	"go.dedis.ch/crest/cli"
	"go.dedis.ch/crest/contracts/ia"
	"go.dedis.ch/crest/contracts/nia"
	"go.dedis.ch/crest/contracts/uda"
	"go.dedis.ch/crest/crypto/ed25519"
	"go.dedis.ch/crest/schema/manifest"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde/json"
	"go.dedis.ch/crest/store/kv"
	"go.dedis.ch/crest/store/schemas"
	"golang.org/x/xerrors"
)

func exportAction(cfg config) cli.Action {
	return func(flags cli.Flags) error {
		var bdl bundle.Bundle
		var err error

		ctx := json.NewContext()

		switch flags.String("kind") {
		case "schema":
			var schema types.Schema

			switch flags.String("contract") {
			case "nia":
				schema, err = nia.NewSchema()
			case "ia":
				schema, err = ia.NewSchema()
			case "uda":
				schema, err = uda.NewSchema()
			default:
				return xerrors.Errorf("unknown contract '%s'", flags.String("contract"))
			}

			if err != nil {
				return xerrors.Errorf("couldn't make the schema: %v", err)
			}

			bdl, err = bundle.FromSchema(schema, ctx)

		case "impl":
			var impl types.Implementation

			switch flags.String("contract") {
			case "nia":
				impl, err = nia.NewImplementation()
			case "ia":
				impl, err = ia.NewImplementation()
			case "uda":
				impl, err = uda.NewImplementation()
			default:
				return xerrors.Errorf("unknown contract '%s'", flags.String("contract"))
			}

			if err != nil {
				return xerrors.Errorf("couldn't make the implementation: %v", err)
			}

			bdl, err = bundle.FromImplementation(impl, ctx)

		default:
			return xerrors.Errorf("unknown kind '%s'", flags.String("kind"))
		}

		if err != nil {
			return xerrors.Errorf("couldn't make the bundle: %v", err)
		}

		if flags.Bool("sign") {
			signer := ed25519.NewSigner()

			bdl, err = bdl.Sign(signer)
			if err != nil {
				return xerrors.Errorf("couldn't sign the bundle: %v", err)
			}
		}

		err = save(bdl, flags.String("out"), flags.Bool("armor"))
		if err != nil {
			return err
		}

		fmt.Fprintf(cfg.Writer, "%v %s written to %s\n",
			bdl.GetKind(), bdl.GetID(), flags.String("out"))

		return nil
	}
}

func assembleAction(cfg config) cli.Action {
	return func(flags cli.Flags) error {
		data, err := loadFile(flags.String("manifest"))
		if err != nil {
			return xerrors.Errorf("couldn't read the manifest: %v", err)
		}

		m, err := manifest.Parse(data)
		if err != nil {
			return xerrors.Errorf("couldn't parse the manifest: %v", err)
		}

		schema, err := m.Assemble()
		if err != nil {
			return xerrors.Errorf("couldn't assemble the schema: %v", err)
		}

		bdl, err := bundle.FromSchema(schema, json.NewContext())
		if err != nil {
			return xerrors.Errorf("couldn't make the bundle: %v", err)
		}

		err = save(bdl, flags.String("out"), flags.Bool("armor"))
		if err != nil {
			return err
		}

		fmt.Fprintf(cfg.Writer, "schema %s written to %s\n",
			schema.GetHash(), flags.String("out"))

		return nil
	}
}

func inspectAction(cfg config) cli.Action {
	return func(flags cli.Flags) error {
		bdl, err := bundle.Load(flags.String("path"))
		if err != nil {
			return xerrors.Errorf("couldn't load the bundle: %v", err)
		}

		err = bdl.Verify()
		if err != nil {
			return xerrors.Errorf("invalid bundle: %v", err)
		}

		fmt.Fprintf(cfg.Writer, "Kind: %v\n", bdl.GetKind())
		fmt.Fprintf(cfg.Writer, "Id: %x\n", bdl.GetID().Bytes())
		fmt.Fprintf(cfg.Writer, "Signed: %v\n", bdl.IsSigned())

		ctx := json.NewContext()

		switch bdl.GetKind() {
		case bundle.KindSchema:
			schema, err := bdl.AsSchema(ctx)
			if err != nil {
				return xerrors.Errorf("couldn't decode the schema: %v", err)
			}

			fmt.Fprintf(cfg.Writer, "Name: %s\n", schema.GetName())
			fmt.Fprintf(cfg.Writer, "Developer: %s\n", schema.GetDeveloper())
			fmt.Fprintf(cfg.Writer, "Operations: %d\n", len(schema.GetOperations()))

		case bundle.KindImplementation:
			impl, err := bdl.AsImplementation(ctx)
			if err != nil {
				return xerrors.Errorf("couldn't decode the implementation: %v", err)
			}

			fmt.Fprintf(cfg.Writer, "Schema: %s\n", impl.GetSchema())
			fmt.Fprintf(cfg.Writer, "Interface: %s\n", impl.GetInterface())
		}

		return nil
	}
}

func importAction(cfg config) cli.Action {
	return func(flags cli.Flags) error {
		bdl, err := bundle.Load(flags.String("path"))
		if err != nil {
			return xerrors.Errorf("couldn't load the bundle: %v", err)
		}

		err = bdl.Verify()
		if err != nil {
			return xerrors.Errorf("invalid bundle: %v", err)
		}

		db, err := kv.New(flags.String("db"))
		if err != nil {
			return xerrors.Errorf("couldn't open the database: %v", err)
		}

		defer db.Close()

		ctx := json.NewContext()
		store := schemas.NewStore(db, ctx)

		switch bdl.GetKind() {
		case bundle.KindSchema:
			schema, err := bdl.AsSchema(ctx)
			if err != nil {
				return xerrors.Errorf("couldn't decode the schema: %v", err)
			}

			err = store.PutSchema(schema)
			if err != nil {
				return xerrors.Errorf("couldn't store the schema: %v", err)
			}

		case bundle.KindImplementation:
			impl, err := bdl.AsImplementation(ctx)
			if err != nil {
				return xerrors.Errorf("couldn't decode the implementation: %v", err)
			}

			err = store.PutImplementation(impl)
			if err != nil {
				return xerrors.Errorf("couldn't store the implementation: %v", err)
			}
		}

		fmt.Fprintf(cfg.Writer, "%v %s imported\n", bdl.GetKind(), bdl.GetID())

		return nil
	}
}

func save(bdl bundle.Bundle, path string, armor bool) error {
	if armor {
		err := writeFile(path, []byte(bdl.String()))
		if err != nil {
			return xerrors.Errorf("couldn't write the bundle: %v", err)
		}

		return nil
	}

	err := bdl.Save(path)
	if err != nil {
		return xerrors.Errorf("couldn't write the bundle: %v", err)
	}

	return nil
}

func loadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}
