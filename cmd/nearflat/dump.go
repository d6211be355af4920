package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fastnear/nearflat/flatstate"
	"github.com/fastnear/nearflat/internal/coretypes"
	"github.com/urfave/cli/v2"
)

var (
	stateDumpPathFlag = cli.StringFlag{
		Name:     "path",
		Usage:    "directory containing genesis.json and records.json",
		Required: true,
	}
	accountsFlag = cli.StringFlag{
		Name:  "accounts",
		Usage: "comma-separated account IDs to track; omit to track every account",
	}
	savePathFlag = cli.StringFlag{
		Name:  "save",
		Usage: "snapshot file to write after construction",
	}
)

var dumpStateCommand = cli.Command{
	Action: runDumpState,
	Name:   "from-state-dump",
	Usage:  "build a flat-state snapshot by replaying a genesis state dump",
	Flags: []cli.Flag{
		&stateDumpPathFlag,
		&accountsFlag,
		&savePathFlag,
	},
}

func parseAccountsFlag(raw string) flatstate.Filter {
	if raw == "" {
		return flatstate.Full()
	}
	parts := strings.Split(raw, ",")
	accounts := make([]coretypes.AccountId, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			accounts = append(accounts, coretypes.AccountId(p))
		}
	}
	return flatstate.FromAccounts(accounts)
}

func runDumpState(ctx *cli.Context) error {
	filter := parseAccountsFlag(ctx.String(accountsFlag.Name))

	fmt.Println("Loading state...")
	state, err := flatstate.NewFromStateDump(context.Background(), filter, ctx.String(stateDumpPathFlag.Name))
	if err != nil {
		return err
	}
	printStateInfo(state)

	if savePath := ctx.String(savePathFlag.Name); savePath != "" {
		fmt.Println("Saving state...")
		if err := state.Save(savePath); err != nil {
			return err
		}
		fmt.Printf("State saved to: %s\n", savePath)
	}
	return nil
}

func printStateInfo(state *flatstate.FlatState) {
	fmt.Printf("chain: %s\n", state.Config.ChainId)
	fmt.Printf("block: height=%d hash=%s\n", state.BlockHeader.Height, state.BlockHash)
	fmt.Printf("accounts: %d\n", len(state.Data.Accounts))
	fmt.Printf("accounts with access keys: %d\n", len(state.Data.AccessKeys))
	fmt.Printf("accounts with contract data: %d\n", len(state.Data.Data))
	fmt.Printf("accounts with deployed code: %d\n", len(state.Data.ContractsCode))
}
