package main

import (
	"context"
	"fmt"

	"github.com/fastnear/nearflat/fetcher"
	"github.com/fastnear/nearflat/internal/coretypes"
	"github.com/fastnear/nearflat/internal/interrupt"
	"github.com/urfave/cli/v2"
)

var (
	chainFlag = cli.StringFlag{
		Name:  "chain",
		Usage: "chain id: mainnet or testnet",
		Value: "mainnet",
	}
	startHeightFlag = cli.Uint64Flag{
		Name:  "start-height",
		Usage: "first block height to emit; defaults to the current tip",
	}
	endHeightFlag = cli.Uint64Flag{
		Name:  "end-height",
		Usage: "inclusive last block height to emit; unset means unbounded",
	}
	numThreadsFlag = cli.Uint64Flag{
		Name:  "num-threads",
		Usage: "archive-sync and backfill worker count",
		Value: 4,
	}
	authTokenFlag = cli.StringFlag{
		Name:  "auth-token",
		Usage: "bearer token sent with every HTTP request",
	}
	disableArchiveSyncFlag = cli.BoolFlag{
		Name:  "disable-archive-sync",
		Usage: "always fetch block-by-block even when far behind the tip",
	}
	enableR2Flag = cli.BoolFlag{
		Name:  "enable-r2-archive-sync",
		Usage: "prefer the R2-backed archive bundle mirror when in range",
	}
)

var fetchCommand = cli.Command{
	Action: runFetch,
	Name:   "fetch",
	Usage:  "stream blocks from a chain, in order, printing their heights",
	Flags: []cli.Flag{
		&chainFlag,
		&startHeightFlag,
		&endHeightFlag,
		&numThreadsFlag,
		&authTokenFlag,
		&disableArchiveSyncFlag,
		&enableR2Flag,
	},
}

func runFetch(ctx *cli.Context) error {
	chainId, err := coretypes.ParseChainId(ctx.String(chainFlag.Name))
	if err != nil {
		return err
	}

	cfg := fetcher.Config{
		ChainId:             chainId,
		Finality:            fetcher.Final,
		NumThreads:          ctx.Uint64(numThreadsFlag.Name),
		AuthBearerToken:     ctx.String(authTokenFlag.Name),
		DisableArchiveSync:  ctx.Bool(disableArchiveSyncFlag.Name),
		EnableR2ArchiveSync: ctx.Bool(enableR2Flag.Name),
	}
	if ctx.IsSet(startHeightFlag.Name) {
		v := ctx.Uint64(startHeightFlag.Name)
		cfg.StartBlockHeight = &v
	}
	if ctx.IsSet(endHeightFlag.Name) {
		v := ctx.Uint64(endHeightFlag.Name)
		cfg.EndBlockHeight = &v
	}

	runCtx := interrupt.Register(context.Background())
	isRunning := interrupt.RunningFlag(runCtx)

	sink := make(chan coretypes.BlockWithTxHashes, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- fetcher.Run(runCtx, cfg, sink, isRunning)
		close(sink)
	}()

	for block := range sink {
		fmt.Printf("%d %s\n", block.Block.Header.Height, block.Block.Header.Hash)
	}
	return <-errCh
}
