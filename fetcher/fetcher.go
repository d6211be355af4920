package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fastnear/nearflat/internal/coretypes"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// ArchiveSyncThreshold is the gap (in blocks) from the tip above which the
// loop prefers bulk archive-tgz downloads over per-block fetches — twice
// BlocksPerArchive.
const ArchiveSyncThreshold = 2 * BlocksPerArchive

// watchPollInterval is how often Run polls the caller's cancellation flag
// to derive context cancellation for in-flight retries and waits. Purely
// a responsiveness knob; spec.md §9 is explicit that wait/poll durations
// are heuristics no test should assert on.
const watchPollInterval = 20 * time.Millisecond

// watchCancellation derives a context from parent that is cancelled once
// isRunning is cleared; watchPollInterval bounds how promptly that is
// observed by in-flight backoff.Retry calls and channel sends.
func watchCancellation(parent context.Context, isRunning *atomic.Bool) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ticker := time.NewTicker(watchPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !isRunning.Load() {
					cancel()
					return
				}
			}
		}
	}()
	return ctx, cancel
}

// loop bundles the configuration and shared collaborators every worker in
// a single Run call needs.
type loop struct {
	cfg       Config
	client    HTTPClient
	logger    interface{ Printf(string, ...any) }
	isRunning *atomic.Bool
	sink      chan<- coretypes.BlockWithTxHashes
	cache     *lru.Cache[uint64, []coretypes.BlockWithTxHashes]
}

// Run streams blocks from start_block_height (or the current tip, if
// unset) through end_block_height (or forever) into sink, in strictly
// ascending height order, until isRunning is cleared or end_block_height
// is reached. Transport failures are logged and retried forever; the only
// returned errors are fatal, non-transport failures (e.g. a malformed
// archive bundle after retries were exhausted is never fatal — archive
// and transport errors both retry indefinitely; Run only returns non-nil
// on cancellation-unrelated programming errors surfaced by the context).
func Run(ctx context.Context, cfg Config, sink chan<- coretypes.BlockWithTxHashes, isRunning *atomic.Bool) error {
	runCtx, cancel := watchCancellation(ctx, isRunning)
	defer cancel()

	var cache *lru.Cache[uint64, []coretypes.BlockWithTxHashes]
	if cfg.BundleCacheSize > 0 {
		c, err := lru.New[uint64, []coretypes.BlockWithTxHashes](cfg.BundleCacheSize)
		if err != nil {
			return err
		}
		cache = c
	}

	l := &loop{
		cfg:       cfg,
		client:    cfg.httpClient(),
		logger:    cfg.logger(),
		isRunning: isRunning,
		sink:      sink,
		cache:     cache,
	}

	start, err := l.initialStart(runCtx)
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			return nil
		}
		return err
	}

	nextSinkBlock := &atomic.Uint64{}
	nextSinkBlock.Store(start)

	for isRunning.Load() {
		current := nextSinkBlock.Load()
		if cfg.EndBlockHeight != nil && current > *cfg.EndBlockHeight {
			return nil
		}

		last, err := l.fetchLastBlockHeight(runCtx)
		if err != nil {
			if errors.Is(err, ErrInterrupted) {
				return nil
			}
			return err
		}
		if cfg.EndBlockHeight != nil && *cfg.EndBlockHeight < last {
			last = *cfg.EndBlockHeight
		}

		rounded := last - last%BlocksPerArchive

		if !cfg.DisableArchiveSync && rounded > current+ArchiveSyncThreshold {
			if err := l.archiveSync(runCtx, nextSinkBlock, current, rounded); err != nil {
				if errors.Is(err, ErrInterrupted) {
					return nil
				}
				return err
			}
			continue
		}

		if err := l.liveSync(runCtx, nextSinkBlock, current, last); err != nil {
			if errors.Is(err, ErrInterrupted) {
				return nil
			}
			return err
		}
	}
	return nil
}

// initialStart resolves the first height to emit: the configured
// StartBlockHeight, or the server's current tip if unset.
func (l *loop) initialStart(ctx context.Context) (uint64, error) {
	if l.cfg.StartBlockHeight != nil {
		return *l.cfg.StartBlockHeight, nil
	}
	return l.fetchLastBlockHeight(ctx)
}

// fetchLastBlockHeight polls the chain tip, retrying transport failures
// forever until the block is returned or cancellation is observed.
func (l *loop) fetchLastBlockHeight(ctx context.Context) (uint64, error) {
	url := LastBlockURL(l.cfg.ChainId, l.cfg.Finality)
	block, err := l.fetchBlockJSONUntilSuccess(ctx, url)
	if err != nil {
		return 0, err
	}
	return block.Block.Header.Height, nil
}

func (l *loop) fetchBlockJSONUntilSuccess(ctx context.Context, url string) (*coretypes.BlockWithTxHashes, error) {
	var result *coretypes.BlockWithTxHashes
	op := func() error {
		if !l.isRunning.Load() {
			return backoff.Permanent(ErrInterrupted)
		}
		block, err := FetchJSON[coretypes.BlockWithTxHashes](ctx, l.client, url, l.cfg.AuthBearerToken, l.cfg.timeout())
		if err != nil {
			l.logger.Printf("fetcher: failed to fetch %s, retrying: %v", url, err)
			return err
		}
		result = block
		return nil
	}
	bo := backoff.WithContext(backoff.NewConstantBackOff(l.cfg.retryDuration()), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if isInterrupted(ctx, err) {
			return nil, ErrInterrupted
		}
		return nil, err
	}
	return result, nil
}

// fetchBlockOrNilUntilSuccess retries a single-block fetch until it
// succeeds (returning the block, or nil if the height is absent) or
// cancellation is observed.
func (l *loop) fetchBlockOrNilUntilSuccess(ctx context.Context, height uint64) (*coretypes.BlockWithTxHashes, error) {
	url := BlockURL(l.cfg.ChainId, height, l.cfg.Finality)
	var result *coretypes.BlockWithTxHashes
	op := func() error {
		if !l.isRunning.Load() {
			return backoff.Permanent(ErrInterrupted)
		}
		block, err := FetchBlockOrNil(ctx, l.client, url, l.cfg.AuthBearerToken, l.cfg.timeout())
		if err != nil {
			l.logger.Printf("fetcher: failed to fetch block %d, retrying: %v", height, err)
			return err
		}
		result = block
		return nil
	}
	bo := backoff.WithContext(backoff.NewConstantBackOff(l.cfg.retryDuration()), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if isInterrupted(ctx, err) {
			return nil, ErrInterrupted
		}
		return nil, err
	}
	return result, nil
}

// fetchArchiveBundleUntilSuccess retries an archive bundle fetch+decode
// until it succeeds (returning its blocks, possibly empty for a 404) or
// cancellation is observed. Successfully decoded bundles are cached by
// base height so a cancelled-mid-send retry does not redecode.
func (l *loop) fetchArchiveBundleUntilSuccess(ctx context.Context, base uint64) ([]coretypes.BlockWithTxHashes, error) {
	if l.cache != nil {
		if blocks, ok := l.cache.Get(base); ok {
			return blocks, nil
		}
	}

	url := ArchiveURL(l.cfg.ChainId, base, l.cfg.EnableR2ArchiveSync)
	var result []coretypes.BlockWithTxHashes
	op := func() error {
		if !l.isRunning.Load() {
			return backoff.Permanent(ErrInterrupted)
		}
		raw, err := FetchArchiveBytes(ctx, l.client, url, l.cfg.AuthBearerToken, l.cfg.timeout())
		if err != nil {
			l.logger.Printf("fetcher: failed to fetch archive bundle %d, retrying: %v", base, err)
			return err
		}
		if raw == nil {
			result = nil
			return nil
		}
		blocks, err := DecodeArchive(raw)
		if err != nil {
			l.logger.Printf("fetcher: failed to decode archive bundle %d, retrying: %v", base, err)
			return err
		}
		result = blocks
		return nil
	}
	bo := backoff.WithContext(backoff.NewConstantBackOff(l.cfg.retryDuration()), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if isInterrupted(ctx, err) {
			return nil, ErrInterrupted
		}
		return nil, err
	}
	if l.cache != nil {
		l.cache.Add(base, result)
	}
	return result, nil
}

func isInterrupted(ctx context.Context, err error) bool {
	return errors.Is(err, ErrInterrupted) || ctx.Err() != nil
}

// archiveSync bulk-downloads archive bundles covering [start, end) (end
// is a multiple of BlocksPerArchive) across cfg.numThreads() workers,
// emitting blocks in strict height order.
func (l *loop) archiveSync(ctx context.Context, nextSinkBlock *atomic.Uint64, start, end uint64) error {
	archiveStart := start - start%BlocksPerArchive
	nextFetchArchive := &atomic.Uint64{}
	nextFetchArchive.Store(archiveStart)

	g, gctx := errgroup.WithContext(ctx)
	threads := l.cfg.numThreads()
	for i := uint64(0); i < threads; i++ {
		g.Go(func() error {
			for {
				if !l.isRunning.Load() {
					return ErrInterrupted
				}
				base := nextFetchArchive.Add(BlocksPerArchive) - BlocksPerArchive
				if base >= end {
					return nil
				}

				blocks, err := l.fetchArchiveBundleUntilSuccess(gctx, base)
				if err != nil {
					return err
				}

				if err := waitForTurn(gctx, l.isRunning, nextSinkBlock, base, BlocksPerArchive); err != nil {
					return err
				}

				floor := nextSinkBlock.Load()
				for _, block := range blocks {
					if block.Block.Header.Height < floor {
						continue
					}
					select {
					case l.sink <- block:
					case <-gctx.Done():
						return ErrInterrupted
					}
				}
				// Store, not fetch_add: this is the reorder barrier that
				// keeps next_sink_block correct even when the archive
				// sync entered on a height that wasn't bundle-aligned.
				nextSinkBlock.Store(base + BlocksPerArchive)
			}
		})
	}
	return g.Wait()
}

// liveSync fetches blocks one at a time. If the gap to the tip exceeds
// cfg.numThreads(), it backfills the bounded range [start, last] across
// cfg.numThreads() workers; otherwise a single worker fetches forward
// from start with no upper bound other than cfg.EndBlockHeight and
// cancellation.
func (l *loop) liveSync(ctx context.Context, nextSinkBlock *atomic.Uint64, start, last uint64) error {
	isBackfill := last > start+l.cfg.numThreads()
	threads := uint64(1)
	if isBackfill {
		threads = l.cfg.numThreads()
	}

	nextFetchBlock := &atomic.Uint64{}
	nextFetchBlock.Store(start)

	g, gctx := errgroup.WithContext(ctx)
	for i := uint64(0); i < threads; i++ {
		g.Go(func() error {
			for {
				if !l.isRunning.Load() {
					return ErrInterrupted
				}
				height := nextFetchBlock.Add(1) - 1
				if isBackfill && height > last {
					return nil
				}
				if !isBackfill && l.cfg.EndBlockHeight != nil && height > *l.cfg.EndBlockHeight {
					return nil
				}

				block, err := l.fetchBlockOrNilUntilSuccess(gctx, height)
				if err != nil {
					return err
				}

				if err := waitForTurn(gctx, l.isRunning, nextSinkBlock, height, 1); err != nil {
					return err
				}

				if !l.isRunning.Load() {
					return ErrInterrupted
				}
				if block != nil {
					select {
					case l.sink <- *block:
					case <-gctx.Done():
						return ErrInterrupted
					}
				}
				nextSinkBlock.Add(1)
			}
		})
	}
	return g.Wait()
}

// waitForTurn blocks the calling worker until next_sink_block has caught
// up to claimed (i.e. it is this worker's turn to send), sleeping in
// between per the heuristic policy in spec.md §4.10. granularity is 1 for
// live mode and BlocksPerArchive for archive mode, used only to scale the
// sleep duration.
func waitForTurn(ctx context.Context, isRunning *atomic.Bool, nextSinkBlock *atomic.Uint64, claimed uint64, granularity uint64) error {
	for {
		if !isRunning.Load() {
			return ErrInterrupted
		}
		expected := nextSinkBlock.Load()
		if expected >= claimed {
			return nil
		}
		var sleepMS uint64
		if granularity <= 1 {
			sleepMS = claimed - expected
		} else {
			gap := claimed - expected
			sleepMS = ((gap + granularity - 1) / granularity) * granularity
		}
		select {
		case <-ctx.Done():
			return ErrInterrupted
		case <-time.After(time.Duration(sleepMS) * time.Millisecond):
		}
	}
}
