package main

import (
	"context"
	"fmt"

	"github.com/fastnear/nearflat/flatstate"
	"github.com/fastnear/nearflat/internal/coretypes"
	"github.com/urfave/cli/v2"
)

var (
	rpcURLFlag = cli.StringFlag{
		Name:     "rpc-url",
		Usage:    "JSON-RPC endpoint to query",
		Required: true,
	}
	rpcAccountsFlag = cli.StringFlag{
		Name:     "accounts",
		Usage:    "comma-separated account IDs to snapshot",
		Required: true,
	}
	rpcChainFlag = cli.StringFlag{
		Name:  "chain",
		Usage: "chain id: mainnet or testnet",
		Value: "mainnet",
	}
	rpcFinalityFlag = cli.StringFlag{
		Name:  "finality",
		Usage: "final or optimistic",
		Value: "final",
	}
)

var dumpRPCCommand = cli.Command{
	Action: runDumpRPC,
	Name:   "from-rpc",
	Usage:  "build a flat-state snapshot of a fixed account set via JSON-RPC",
	Flags: []cli.Flag{
		&rpcURLFlag,
		&rpcAccountsFlag,
		&rpcChainFlag,
		&rpcFinalityFlag,
		&savePathFlag,
	},
}

func runDumpRPC(ctx *cli.Context) error {
	chainId, err := coretypes.ParseChainId(ctx.String(rpcChainFlag.Name))
	if err != nil {
		return err
	}
	filter := parseAccountsFlag(ctx.String(rpcAccountsFlag.Name))

	client := flatstate.NewRPCClient(ctx.String(rpcURLFlag.Name), 0)
	state, err := flatstate.NewFromRPC(
		context.Background(),
		flatstate.Config{ChainId: chainId, Filter: filter},
		client,
		flatstate.ByFinality(ctx.String(rpcFinalityFlag.Name)),
	)
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
