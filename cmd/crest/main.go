// Package main implements the crest command line tool. It can export the
// built-in contract schemata, assemble a schema from a manifest, and inspect
// or import shipped bundles.
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/crest/cli"
	"go.dedis.ch/crest/cli/ucli"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

type config struct {
	Writer io.Writer
}

func runWithCfg(args []string, cfg config) error {
	builder := ucli.NewBuilder("crest", nil)

	cmd := builder.SetCommand("export")
	cmd.SetDescription("export a built-in contract schema or implementation")
	cmd.SetFlags(
		cli.StringFlag{
			Name:  "contract",
			Usage: "name of the contract (nia, ia or uda)",
			Value: "nia",
		},
		cli.StringFlag{
			Name:  "kind",
			Usage: "what to export (schema or impl)",
			Value: "schema",
		},
		cli.StringFlag{
			Name:     "out",
			Usage:    "path of the output file",
			Required: true,
		},
		cli.BoolFlag{
			Name:  "armor",
			Usage: "write an ASCII armored bundle",
		},
		cli.BoolFlag{
			Name:  "sign",
			Usage: "sign the bundle with a fresh developer key",
		},
	)
	cmd.SetAction(exportAction(cfg))

	cmd = builder.SetCommand("assemble")
	cmd.SetDescription("assemble a schema from a YAML manifest")
	cmd.SetFlags(
		cli.StringFlag{
			Name:     "manifest",
			Usage:    "path of the manifest file",
			Required: true,
		},
		cli.StringFlag{
			Name:     "out",
			Usage:    "path of the output file",
			Required: true,
		},
		cli.BoolFlag{
			Name:  "armor",
			Usage: "write an ASCII armored bundle",
		},
	)
	cmd.SetAction(assembleAction(cfg))

	cmd = builder.SetCommand("inspect")
	cmd.SetDescription("print the content of a shipped bundle")
	cmd.SetFlags(
		cli.StringFlag{
			Name:     "path",
			Usage:    "path of the bundle file",
			Required: true,
		},
	)
	cmd.SetAction(inspectAction(cfg))

	cmd = builder.SetCommand("import")
	cmd.SetDescription("verify a bundle and store it in the local database")
	cmd.SetFlags(
		cli.StringFlag{
			Name:     "path",
			Usage:    "path of the bundle file",
			Required: true,
		},
		cli.StringFlag{
			Name:     "db",
			Usage:    "path of the database file",
			Value:    "crest.db",
		},
	)
	cmd.SetAction(importAction(cfg))

	return builder.Build().Run(args)
}
