package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Run with `go run ./cmd/nearflat`

func main() {
	app := &cli.App{
		Name:     "nearflat",
		HelpName: "nearflat",
		Usage:    "fetch NEAR-like chain data and maintain a flat-state snapshot",
		Commands: []*cli.Command{
			&fetchCommand,
			&dumpStateCommand,
			&dumpRPCCommand,
			&inspectCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
