package flatstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fastnear/nearflat/internal/coretypes"
)

// BlockReference selects which block a JSON-RPC query targets. Exactly
// one field is set.
type BlockReference struct {
	Finality string               // "final" or "optimistic"; empty if unset.
	Hash     *coretypes.CryptoHash // set by ByHash.
}

// ByFinality builds a BlockReference targeting the latest block at the
// given finality.
func ByFinality(finality string) BlockReference {
	return BlockReference{Finality: finality}
}

// ByHash builds a BlockReference pinned to a specific block hash.
func ByHash(hash coretypes.CryptoHash) BlockReference {
	return BlockReference{Hash: &hash}
}

func (r BlockReference) marshalParam() map[string]any {
	if r.Hash != nil {
		return map[string]any{"block_id": r.Hash.String()}
	}
	finality := r.Finality
	if finality == "" {
		finality = "final"
	}
	return map[string]any{"finality": finality}
}

//go:generate mockgen -source rpc.go -destination rpc_mock.go -package flatstate

// RPCClient issues NEAR JSON-RPC 2.0 calls. The production implementation
// wraps *http.Client; tests substitute a mock (see rpc_mock.go).
type RPCClient interface {
	// Call issues method with params, decoding the "result" field of a
	// successful response into result. A JSON-RPC error response is
	// returned as *RPCError so callers can pattern-match on
	// ErrorName/CauseName (e.g. "UNKNOWN_ACCOUNT", "NO_CONTRACT_CODE").
	Call(ctx context.Context, method string, params any, result any) error
}

// RPCError is a JSON-RPC 2.0 error response, including NEAR's nested
// cause classification used to distinguish expected conditions (an
// account or contract that simply doesn't exist) from real failures.
type RPCError struct {
	Code      int
	Message   string
	CauseName string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s (cause=%s)", e.Code, e.Message, e.CauseName)
}

type httpRPCClient struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// NewRPCClient builds the production RPCClient against a NEAR-like
// JSON-RPC endpoint.
func NewRPCClient(url string, timeout time.Duration) RPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpRPCClient{client: &http.Client{}, url: url, timeout: timeout}
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type jsonRPCErrorCause struct {
	Name string `json:"name"`
}

type jsonRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Cause   json.RawMessage `json:"cause"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

func (c *httpRPCClient) Call(ctx context.Context, method string, params any, result any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: "1", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encoding rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decoding rpc response: %w", err)
	}
	if decoded.Error != nil {
		cause := decodeRPCErrorCauseName(decoded.Error)
		return &RPCError{Code: decoded.Error.Code, Message: decoded.Error.Message, CauseName: cause}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, result); err != nil {
		return fmt.Errorf("decoding rpc result for %s: %w", method, err)
	}
	return nil
}

func decodeRPCErrorCauseName(e *jsonRPCError) string {
	var cause jsonRPCErrorCause
	if len(e.Cause) > 0 {
		_ = json.Unmarshal(e.Cause, &cause)
	}
	if cause.Name == "" && len(e.Data) > 0 {
		_ = json.Unmarshal(e.Data, &cause)
	}
	return cause.Name
}

const (
	causeUnknownAccount = "UNKNOWN_ACCOUNT"
	causeNoContractCode = "NO_CONTRACT_CODE"
)

func isRPCCause(err error, cause string) bool {
	var rpcErr *RPCError
	if e, ok := err.(*RPCError); ok {
		rpcErr = e
	} else {
		return false
	}
	return rpcErr.CauseName == cause
}

type rpcBlockHeader struct {
	Height   uint64               `json:"height"`
	Hash     coretypes.CryptoHash `json:"hash"`
	PrevHash coretypes.CryptoHash `json:"prev_hash"`
}

type rpcBlockResult struct {
	Header rpcBlockHeader `json:"header"`
}

type rpcViewAccountResult struct {
	coretypes.Account
}

type rpcAccessKeyListEntry struct {
	PublicKey coretypes.PublicKey `json:"public_key"`
	AccessKey coretypes.AccessKey `json:"access_key"`
}

type rpcAccessKeyListResult struct {
	Keys []rpcAccessKeyListEntry `json:"keys"`
}

type rpcViewCodeResult struct {
	CodeBase64 []byte `json:"code_base64"`
}

type rpcStateItem struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

type rpcViewStateResult struct {
	Values []rpcStateItem `json:"values"`
}

// NewFromRPC snapshots a fixed set of accounts via JSON-RPC, pinning every
// query to the block resolved from blockReference. The filter must name
// at least one account and must not carry any account ranges.
func NewFromRPC(ctx context.Context, config Config, client RPCClient, blockReference BlockReference) (*FlatState, error) {
	if len(config.Filter.AccountRanges) != 0 {
		return nil, &FilterError{Msg: "Account ranges are not supported with RPC initialization"}
	}
	accounts := config.Filter.SortedAccounts()
	if len(accounts) == 0 {
		return nil, &FilterError{Msg: "The filter should contain at least one account ID with RPC initialization"}
	}

	var block rpcBlockResult
	if err := client.Call(ctx, "block", blockReference.marshalParam(), &block); err != nil {
		return nil, &RpcError{Msg: fmt.Sprintf("failed to fetch block: %v", err)}
	}
	blockHash := block.Header.Hash
	pinned := ByHash(blockHash)

	var changes []coretypes.StateChangeValue
	for _, accountId := range accounts {
		accountChanges, err := fetchAccountState(ctx, client, pinned, accountId)
		if err != nil {
			return nil, err
		}
		changes = append(changes, accountChanges...)
	}

	data := NewFlatStateData()
	for _, change := range changes {
		data.ApplyStateChange(change)
	}

	return &FlatState{
		Config:    config,
		BlockHash: blockHash,
		BlockHeader: coretypes.BlockHeaderInnerLite{
			Height:   block.Header.Height,
			Hash:     block.Header.Hash,
			PrevHash: block.Header.PrevHash,
		},
		Data: data,
	}, nil
}

func fetchAccountState(ctx context.Context, client RPCClient, ref BlockReference, accountId coretypes.AccountId) ([]coretypes.StateChangeValue, error) {
	var changes []coretypes.StateChangeValue

	var account rpcViewAccountResult
	err := client.Call(ctx, "query", viewParams(ref, "view_account", accountId, nil), &account)
	if err != nil {
		if isRPCCause(err, causeUnknownAccount) {
			return nil, nil
		}
		return nil, &RpcError{Msg: fmt.Sprintf("failed to fetch account %s: %v", accountId, err)}
	}
	changes = append(changes, coretypes.StateChangeValue{Kind: coretypes.AccountUpdate, AccountId: accountId, Account: account.Account})

	var keys rpcAccessKeyListResult
	if err := client.Call(ctx, "query", viewParams(ref, "view_access_key_list", accountId, nil), &keys); err != nil {
		return nil, &RpcError{Msg: fmt.Sprintf("failed to fetch access keys %s: %v", accountId, err)}
	}
	for _, k := range keys.Keys {
		changes = append(changes, coretypes.StateChangeValue{Kind: coretypes.AccessKeyUpdate, AccountId: accountId, PublicKey: k.PublicKey, AccessKey: k.AccessKey})
	}

	var code rpcViewCodeResult
	err = client.Call(ctx, "query", viewParams(ref, "view_code", accountId, nil), &code)
	if err != nil {
		if !isRPCCause(err, causeNoContractCode) {
			return nil, &RpcError{Msg: fmt.Sprintf("failed to fetch contract code %s: %v", accountId, err)}
		}
	} else {
		changes = append(changes, coretypes.StateChangeValue{Kind: coretypes.ContractCodeUpdate, AccountId: accountId, Code: code.CodeBase64})
	}

	extra := map[string]any{"prefix_base64": "", "include_proof": false}
	var state rpcViewStateResult
	err = client.Call(ctx, "query", viewParams(ref, "view_state", accountId, extra), &state)
	if err != nil {
		if !isRPCCause(err, causeUnknownAccount) {
			return nil, &RpcError{Msg: fmt.Sprintf("failed to fetch state %s: %v", accountId, err)}
		}
	} else {
		for _, item := range state.Values {
			changes = append(changes, coretypes.StateChangeValue{Kind: coretypes.DataUpdate, AccountId: accountId, Key: item.Key, Value: item.Value})
		}
	}

	return changes, nil
}

func viewParams(ref BlockReference, requestType string, accountId coretypes.AccountId, extra map[string]any) map[string]any {
	params := ref.marshalParam()
	params["request_type"] = requestType
	params["account_id"] = string(accountId)
	for k, v := range extra {
		params[k] = v
	}
	return params
}
