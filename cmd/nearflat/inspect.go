package main

import (
	"github.com/fastnear/nearflat/flatstate"
	"github.com/urfave/cli/v2"
)

var loadPathFlag = cli.StringFlag{
	Name:     "path",
	Usage:    "snapshot file to load",
	Required: true,
}

var inspectCommand = cli.Command{
	Action: runInspect,
	Name:   "inspect",
	Usage:  "load a snapshot file and print summary counts",
	Flags: []cli.Flag{
		&loadPathFlag,
	},
}

func runInspect(ctx *cli.Context) error {
	state, err := flatstate.Load(ctx.String(loadPathFlag.Name))
	if err != nil {
		return err
	}
	printStateInfo(state)
	return nil
}
