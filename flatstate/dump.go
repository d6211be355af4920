package flatstate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fastnear/nearflat/fetcher"
	"github.com/fastnear/nearflat/internal/coretypes"
)

const (
	genesisConfigFilename = "genesis.json"
	recordsFilename       = "records.json"
)

type wireGenesisConfig struct {
	ChainId       string `json:"chain_id"`
	GenesisHeight uint64 `json:"genesis_height"`
}

type wireGenesis struct {
	Config wireGenesisConfig `json:"config"`
}

// wireStateRecord mirrors the NEAR StateRecord enum as it appears in a
// genesis records.json dump: an externally-tagged object with exactly one
// of these keys present. Variants this projection does not track
// (PostponedReceipt, ReceivedData, DelayedReceipt) are left unmapped and
// silently ignored by encoding/json.
type wireStateRecord struct {
	Account *struct {
		AccountId coretypes.AccountId `json:"account_id"`
		Account   coretypes.Account   `json:"account"`
	} `json:"Account"`
	Data *struct {
		AccountId coretypes.AccountId `json:"account_id"`
		DataKey   []byte              `json:"data_key"`
		Value     []byte              `json:"value"`
	} `json:"Data"`
	Contract *struct {
		AccountId coretypes.AccountId `json:"account_id"`
		Code      []byte              `json:"code"`
	} `json:"Contract"`
	AccessKey *struct {
		AccountId coretypes.AccountId `json:"account_id"`
		PublicKey coretypes.PublicKey `json:"public_key"`
		AccessKey coretypes.AccessKey `json:"access_key"`
	} `json:"AccessKey"`
}

// accountId reports the account a record belongs to, or ("", false) for a
// variant this projection does not track.
func (r wireStateRecord) accountId() (coretypes.AccountId, bool) {
	switch {
	case r.Account != nil:
		return r.Account.AccountId, true
	case r.Data != nil:
		return r.Data.AccountId, true
	case r.Contract != nil:
		return r.Contract.AccountId, true
	case r.AccessKey != nil:
		return r.AccessKey.AccountId, true
	default:
		return "", false
	}
}

// toStateChangeValue translates a tracked record variant into the delta
// ApplyStateChange expects.
func (r wireStateRecord) toStateChangeValue() (coretypes.StateChangeValue, bool) {
	switch {
	case r.Account != nil:
		return coretypes.StateChangeValue{
			Kind:      coretypes.AccountUpdate,
			AccountId: r.Account.AccountId,
			Account:   r.Account.Account,
		}, true
	case r.Data != nil:
		return coretypes.StateChangeValue{
			Kind:      coretypes.DataUpdate,
			AccountId: r.Data.AccountId,
			Key:       r.Data.DataKey,
			Value:     r.Data.Value,
		}, true
	case r.Contract != nil:
		return coretypes.StateChangeValue{
			Kind:      coretypes.ContractCodeUpdate,
			AccountId: r.Contract.AccountId,
			Code:      r.Contract.Code,
		}, true
	case r.AccessKey != nil:
		return coretypes.StateChangeValue{
			Kind:      coretypes.AccessKeyUpdate,
			AccountId: r.AccessKey.AccountId,
			PublicKey: r.AccessKey.PublicKey,
			AccessKey: r.AccessKey.AccessKey,
		}, true
	default:
		return coretypes.StateChangeValue{}, false
	}
}

// NewFromStateDump builds a FlatState by replaying a genesis state dump:
// path/genesis.json supplies the chain ID and genesis height (used to
// pin the projection to the genesis block), and path/records.json is
// streamed lazily, one record at a time, translating and filtering each
// into a delta applied directly to a fresh FlatStateData.
func NewFromStateDump(ctx context.Context, filter Filter, path string) (*FlatState, error) {
	genesis, err := readGenesisConfig(filepath.Join(path, genesisConfigFilename))
	if err != nil {
		return nil, &StateDumpError{Msg: fmt.Sprintf("failed to load genesis config: %v", err)}
	}

	chainId, err := coretypes.ParseChainId(genesis.ChainId)
	if err != nil {
		return nil, &StateDumpError{Msg: fmt.Sprintf("failed to parse chain id from genesis config: %v", err)}
	}

	client := fetcher.NewHTTPClient()
	blockURL := fetcher.BlockURL(chainId, genesis.GenesisHeight, fetcher.Final)
	block, err := fetcher.FetchJSON[coretypes.BlockWithTxHashes](ctx, client, blockURL, "", fetcher.DefaultTimeout)
	if err != nil {
		return nil, &StateDumpError{Msg: fmt.Sprintf("failed to fetch genesis block at height %d: %v", genesis.GenesisHeight, err)}
	}

	data := NewFlatStateData()
	if err := streamRecords(filepath.Join(path, recordsFilename), filter, data); err != nil {
		return nil, &StateDumpError{Msg: fmt.Sprintf("failed to stream records: %v", err)}
	}

	header := block.Block.Header
	return &FlatState{
		Config:    Config{ChainId: chainId, Filter: filter},
		BlockHash: header.Hash,
		BlockHeader: coretypes.BlockHeaderInnerLite{
			Height:   header.Height,
			Hash:     header.Hash,
			PrevHash: header.PrevHash,
		},
		Data: data,
	}, nil
}

func readGenesisConfig(path string) (wireGenesisConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return wireGenesisConfig{}, err
	}
	defer f.Close()

	var genesis wireGenesis
	if err := json.NewDecoder(f).Decode(&genesis); err != nil {
		return wireGenesisConfig{}, err
	}
	return genesis.Config, nil
}

// streamRecords reads path as a JSON array, decoding and applying one
// record at a time rather than buffering the whole (potentially huge)
// file in memory.
func streamRecords(path string, filter Filter, data *FlatStateData) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if _, err := dec.Token(); err != nil { // consume the opening '['
		return fmt.Errorf("opening records array: %w", err)
	}

	for dec.More() {
		var record wireStateRecord
		if err := dec.Decode(&record); err != nil {
			return fmt.Errorf("decoding record: %w", err)
		}

		accountId, tracked := record.accountId()
		if !tracked || !filter.IsAccountAllowed(accountId) {
			continue
		}
		change, ok := record.toStateChangeValue()
		if !ok {
			continue
		}
		data.ApplyStateChange(change)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF { // consume the closing ']'
		return fmt.Errorf("closing records array: %w", err)
	}
	return nil
}
