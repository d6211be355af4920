package fetcher

import (
	"fmt"

	"github.com/fastnear/nearflat/internal/coretypes"
)

// Finality selects which tip a caller is asking about: the last
// irreversibly committed block, or the most recent tentative one.
type Finality uint8

const (
	Final Finality = iota
	Optimistic
)

// BlocksPerArchive is the number of consecutive blocks bundled into one
// archive tgz.
const BlocksPerArchive = 10

const (
	mainnetR2LastHeight    = 142_000_000
	testnetR2LastHeight    = 185_670_000
	mainnetLiveURL         = "https://mainnet.neardata.xyz"
	testnetLiveURL         = "https://testnet.neardata.xyz"
	r2ArchiveMainnetPrefix = "https://archive.data.fastnear.com/mainnet/"
	r2ArchiveTestnetPrefix = "https://archive.data.fastnear.com/testnet/"
	testnetArchivePrefix   = "https://testnet.neardata.xyz/raw/"
)

// mainnetArchiveBoundaries are the height boundaries between successive
// a{k}.mainnet.neardata.xyz archive buckets, in ascending order.
var mainnetArchiveBoundaries = []uint64{122_000_000, 142_000_000}

// LiveBaseURL returns the base URL for per-block "live" endpoints for the
// given chain.
func LiveBaseURL(chain coretypes.ChainId) string {
	if chain == coretypes.Testnet {
		return testnetLiveURL
	}
	return mainnetLiveURL
}

// LastBlockURL returns the URL for polling the current chain tip at the
// given finality.
func LastBlockURL(chain coretypes.ChainId, finality Finality) string {
	suffix := "/v0/last_block/final"
	if finality == Optimistic {
		suffix = "/v0/last_block/optimistic"
	}
	return LiveBaseURL(chain) + suffix
}

// BlockURL returns the URL for fetching a single block by height at the
// given finality.
func BlockURL(chain coretypes.ChainId, height uint64, finality Finality) string {
	if finality == Optimistic {
		return fmt.Sprintf("%s/v0/block_opt/%d", LiveBaseURL(chain), height)
	}
	return fmt.Sprintf("%s/v0/block/%d", LiveBaseURL(chain), height)
}

// archiveSuffix returns the "{H[0:6]}/{H[6:9]}/{H}.tgz" path suffix for a
// 12-digit zero-padded archive block height.
func archiveSuffix(archiveBlockHeight uint64) string {
	h := fmt.Sprintf("%012d", archiveBlockHeight)
	return fmt.Sprintf("%s/%s/%s.tgz", h[0:6], h[6:9], h)
}

// archivePrefix returns the base URL tier an archive bundle for the given
// height (a multiple of BlocksPerArchive) should be fetched from.
func archivePrefix(chain coretypes.ChainId, archiveBlockHeight uint64, enableR2 bool) string {
	switch chain {
	case coretypes.Mainnet:
		if enableR2 && archiveBlockHeight <= mainnetR2LastHeight {
			return r2ArchiveMainnetPrefix
		}
		k := len(mainnetArchiveBoundaries)
		for i, boundary := range mainnetArchiveBoundaries {
			if archiveBlockHeight < boundary {
				k = i
				break
			}
		}
		return fmt.Sprintf("https://a%d.mainnet.neardata.xyz/raw/", k)
	case coretypes.Testnet:
		if enableR2 && archiveBlockHeight <= testnetR2LastHeight {
			return r2ArchiveTestnetPrefix
		}
		return testnetArchivePrefix
	default:
		return testnetArchivePrefix
	}
}

// ArchiveURL returns the full URL of the archive bundle covering
// archiveBlockHeight (which must be a multiple of BlocksPerArchive).
func ArchiveURL(chain coretypes.ChainId, archiveBlockHeight uint64, enableR2 bool) string {
	return archivePrefix(chain, archiveBlockHeight, enableR2) + archiveSuffix(archiveBlockHeight)
}
