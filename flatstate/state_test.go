package flatstate

import (
	"errors"
	"testing"

	"github.com/fastnear/nearflat/internal/coretypes"
)

func hashOf(b byte) coretypes.CryptoHash {
	var h coretypes.CryptoHash
	h[0] = b
	return h
}

func newEmptyState(filter Filter) *FlatState {
	return &FlatState{
		Config: Config{ChainId: coretypes.Mainnet, Filter: filter},
		Data:   NewFlatStateData(),
	}
}

func TestApplyBlockRejectsHashMismatch(t *testing.T) {
	s := newEmptyState(Full())
	s.BlockHash = hashOf(1)

	block := coretypes.BlockWithTxHashes{Block: coretypes.Block{Header: coretypes.BlockHeader{
		Height:   1,
		Hash:     hashOf(2),
		PrevHash: hashOf(9), // does not match s.BlockHash
	}}}

	err := s.ApplyBlock(block)
	if !errors.Is(err, BlockHashMismatchError) {
		t.Fatalf("ApplyBlock() error = %v, want BlockHashMismatchError", err)
	}
	if s.BlockHash != hashOf(1) {
		t.Error("state must be unchanged after a rejected ApplyBlock")
	}
}

func TestApplyBlockAdvancesAndAppliesFilteredDeltas(t *testing.T) {
	s := newEmptyState(FromAccounts([]coretypes.AccountId{"alice.near"}))
	s.BlockHash = hashOf(1)

	block := coretypes.BlockWithTxHashes{Block: coretypes.Block{
		Header: coretypes.BlockHeader{Height: 2, Hash: hashOf(2), PrevHash: hashOf(1)},
		Shards: []coretypes.Shard{
			{StateChanges: []coretypes.StateChange{
				{Value: coretypes.StateChangeValue{Kind: coretypes.AccountDeletion, AccountId: "alice.near"}},
				{Value: coretypes.StateChangeValue{Kind: coretypes.AccountDeletion, AccountId: "bob.near"}},
			}},
		},
	}}

	// seed both accounts directly, then apply the block
	s.Data.Accounts["alice.near"] = coretypes.Account{}
	s.Data.Accounts["bob.near"] = coretypes.Account{}

	if err := s.ApplyBlock(block); err != nil {
		t.Fatalf("ApplyBlock(): %v", err)
	}
	if s.BlockHash != hashOf(2) {
		t.Errorf("BlockHash = %v, want %v", s.BlockHash, hashOf(2))
	}
	if s.BlockHeader.Height != 2 {
		t.Errorf("BlockHeader.Height = %d, want 2", s.BlockHeader.Height)
	}
	if _, ok := s.Data.Accounts["alice.near"]; ok {
		t.Error("expected alice.near's delta to be applied")
	}
	if _, ok := s.Data.Accounts["bob.near"]; !ok {
		t.Error("expected bob.near's delta to be filtered out, leaving the account untouched")
	}
}

func TestApplyBlockProcessesShardsAndChangesInOrder(t *testing.T) {
	s := newEmptyState(Full())
	s.BlockHash = hashOf(1)

	block := coretypes.BlockWithTxHashes{Block: coretypes.Block{
		Header: coretypes.BlockHeader{Height: 2, Hash: hashOf(2), PrevHash: hashOf(1)},
		Shards: []coretypes.Shard{
			{StateChanges: []coretypes.StateChange{
				{Value: coretypes.StateChangeValue{Kind: coretypes.DataUpdate, AccountId: "a", Key: []byte("k"), Value: []byte("1")}},
			}},
			{StateChanges: []coretypes.StateChange{
				{Value: coretypes.StateChangeValue{Kind: coretypes.DataUpdate, AccountId: "a", Key: []byte("k"), Value: []byte("2")}},
			}},
		},
	}}

	if err := s.ApplyBlock(block); err != nil {
		t.Fatalf("ApplyBlock(): %v", err)
	}
	if got := string(s.Data.Data["a"]["k"]); got != "2" {
		t.Errorf("final value = %q, want %q (later shard should win)", got, "2")
	}
}
