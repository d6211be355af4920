package flatstate

import "github.com/fastnear/nearflat/internal/coretypes"

// Config pairs the chain this projection tracks with the account filter
// restricting which accounts it retains.
type Config struct {
	ChainId coretypes.ChainId
	Filter  Filter
}

// FlatState wraps a FlatStateData projection with its configuration and
// its position in the chain: the hash and header of the last block
// applied. It is created once by NewFromStateDump or NewFromRPC, then
// advanced only by ApplyBlock.
type FlatState struct {
	Config      Config
	BlockHash   coretypes.CryptoHash
	BlockHeader coretypes.BlockHeaderInnerLite
	Data        *FlatStateData
}

// ApplyBlock advances the projection by one block. It requires
// block.Header.PrevHash to equal the engine's current BlockHash; on
// mismatch it returns BlockHashMismatchError and leaves the state
// unchanged. On success it advances BlockHash/BlockHeader and applies,
// in order, every state change in every shard whose account passes the
// configured filter.
func (s *FlatState) ApplyBlock(block coretypes.BlockWithTxHashes) error {
	header := block.Block.Header
	if header.PrevHash != s.BlockHash {
		return BlockHashMismatchError
	}

	s.BlockHash = header.Hash
	s.BlockHeader = coretypes.BlockHeaderInnerLite{
		Height:   header.Height,
		Hash:     header.Hash,
		PrevHash: header.PrevHash,
	}

	for _, shard := range block.Block.Shards {
		for _, change := range shard.StateChanges {
			if !s.Config.Filter.IsAccountAllowed(change.Value.AccountId) {
				continue
			}
			s.Data.ApplyStateChange(change.Value)
		}
	}
	return nil
}
