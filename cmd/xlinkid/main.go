package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

/******************************************************************************

This file is the entry point for the cross-link identification command line
utility. It also acts as a general template that outlines everything
available to the user.

Initial argparsing and app definition is done entirely through
"github.com/urfave/cli/v2" for which you can find the docs here:

https://github.com/urfave/cli/blob/master/docs/v2/manual.md

The app is defined via the &cli.App{} struct which is initialized with data
needed to run the app: Name, Usage, Flags, and Commands at the top level.

******************************************************************************/

// main is the entry point for the command line app. Separated from the
// actual &cli.App{} to help with testing.
func main() {
	run(os.Args)
}

// run is separated from main and application for debugging's sake.
func run(args []string) {
	app := application()
	err := app.Run(args)
	if err != nil {
		log.Fatal(err)
	}
}

// application defines the CLI surface and where global flags live. Each
// subcommand can define its own flags that override globals.
func application() *cli.App {
	app := &cli.App{
		Name:  "xlinkid",
		Usage: "Identify cross-linked peptides in tandem mass spectrometry data.",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML configuration file. Unset fields keep their defaults.",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of spectrum-processing workers. 0 uses a sensible default.",
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Fingerprint hash algorithm: blake3, blake2b_256, or blake2b_512.",
			},
		},

		Commands: []*cli.Command{
			{
				Name:  "digest",
				Usage: "Digest a protein FASTA file and print the resulting modified peptide candidates.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "protein",
						Usage:    "Path to a FASTA file containing the protein(s) to digest.",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "missed-cleavages",
						Value: 2,
						Usage: "Maximum number of missed trypsin cleavages per peptide.",
					},
				},
				Action: func(c *cli.Context) error {
					return digestCommand(c)
				},
			},
			{
				Name:  "run",
				Usage: "Identify cross-linked candidates for a protein FASTA file and an observed-spectra file.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "protein",
						Usage:    "Path to a FASTA file containing the digested protein(s).",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "spectra",
						Usage:    "Path to a JSON file containing observed spectra.",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Path to write the ranked-match report (in the chosen -format). Defaults to stdout.",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "table",
						Usage: "Output format: table or json.",
					},
				},
				Action: func(c *cli.Context) error {
					return runCommand(c)
				},
			},
			{
				Name:  "report",
				Usage: "Render a previously produced JSON ranked-match file as a human-readable table.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Usage:    "Path to a JSON ranked-match file produced by `run -format json`.",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "annotations",
						Usage: "Include matched fragment-ion labels in the table.",
					},
				},
				Action: func(c *cli.Context) error {
					return reportCommand(c)
				},
			},
		},
	}

	return app
}
