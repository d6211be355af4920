package fetcher

import (
	"strings"
	"testing"

	"github.com/fastnear/nearflat/internal/coretypes"
)

func TestLastBlockURL(t *testing.T) {
	cases := []struct {
		chain    coretypes.ChainId
		finality Finality
		want     string
	}{
		{coretypes.Mainnet, Final, "https://mainnet.neardata.xyz/v0/last_block/final"},
		{coretypes.Mainnet, Optimistic, "https://mainnet.neardata.xyz/v0/last_block/optimistic"},
		{coretypes.Testnet, Final, "https://testnet.neardata.xyz/v0/last_block/final"},
	}
	for _, tc := range cases {
		if got := LastBlockURL(tc.chain, tc.finality); got != tc.want {
			t.Errorf("LastBlockURL(%v, %v) = %q, want %q", tc.chain, tc.finality, got, tc.want)
		}
	}
}

func TestBlockURL(t *testing.T) {
	if got, want := BlockURL(coretypes.Mainnet, 100, Final), "https://mainnet.neardata.xyz/v0/block/100"; got != want {
		t.Errorf("BlockURL(final) = %q, want %q", got, want)
	}
	if got, want := BlockURL(coretypes.Mainnet, 100, Optimistic), "https://mainnet.neardata.xyz/v0/block_opt/100"; got != want {
		t.Errorf("BlockURL(optimistic) = %q, want %q", got, want)
	}
}

func TestArchiveSuffixPadsAndSplits(t *testing.T) {
	got := archiveSuffix(130_000_000)
	want := "000130/000/000130000000.tgz"
	if got != want {
		t.Errorf("archiveSuffix(130_000_000) = %q, want %q", got, want)
	}
}

func TestArchiveURLMainnetHeightTiers(t *testing.T) {
	cases := []struct {
		height   uint64
		enableR2 bool
		wantTier string
	}{
		{130_000_000, false, "https://a1.mainnet.neardata.xyz/raw/"},
		{100_000_000, false, "https://a0.mainnet.neardata.xyz/raw/"},
		{50_000_000, true, "https://archive.data.fastnear.com/mainnet/"},
		{150_000_000, false, "https://a2.mainnet.neardata.xyz/raw/"},
	}
	for _, tc := range cases {
		got := ArchiveURL(coretypes.Mainnet, tc.height, tc.enableR2)
		if !strings.HasPrefix(got, tc.wantTier) {
			t.Errorf("ArchiveURL(%d, r2=%v) = %q, want prefix %q", tc.height, tc.enableR2, got, tc.wantTier)
		}
	}
}

func TestArchiveURLTestnetUsesRawByDefault(t *testing.T) {
	got := ArchiveURL(coretypes.Testnet, 1_000_000, false)
	want := "https://testnet.neardata.xyz/raw/000001/000/000001000000.tgz"
	if got != want {
		t.Errorf("ArchiveURL(testnet) = %q, want %q", got, want)
	}
}

func TestArchiveURLTestnetR2Boundary(t *testing.T) {
	got := ArchiveURL(coretypes.Testnet, 185_670_000, true)
	if !strings.HasPrefix(got, "https://archive.data.fastnear.com/testnet/") {
		t.Errorf("ArchiveURL(testnet, at boundary) = %q, want the R2 mirror", got)
	}
	got = ArchiveURL(coretypes.Testnet, 185_670_010, true)
	if !strings.HasPrefix(got, "https://testnet.neardata.xyz/raw/") {
		t.Errorf("ArchiveURL(testnet, past boundary) = %q, want the raw mirror", got)
	}
}
