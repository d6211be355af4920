package flatstate

import "github.com/fastnear/nearflat/internal/coretypes"

// FlatStateData is the mutable in-memory projection of on-chain account
// state: accounts, their access keys, their contract storage, and their
// deployed code, each keyed by account ID.
//
// Invariant: an account absent from AccessKeys/Data has no entry in that
// map at all — an inner map is never left present-but-empty. No
// referential coupling is enforced between Accounts and the three side
// maps: an AccessKeyUpdate for an account absent from Accounts still
// creates the AccessKeys side entry.
type FlatStateData struct {
	Accounts      map[coretypes.AccountId]coretypes.Account
	AccessKeys    map[coretypes.AccountId]map[string]coretypes.AccessKeyEntry
	Data          map[coretypes.AccountId]map[string][]byte
	ContractsCode map[coretypes.AccountId][]byte
}

// NewFlatStateData returns an empty projection.
func NewFlatStateData() *FlatStateData {
	return &FlatStateData{
		Accounts:      map[coretypes.AccountId]coretypes.Account{},
		AccessKeys:    map[coretypes.AccountId]map[string]coretypes.AccessKeyEntry{},
		Data:          map[coretypes.AccountId]map[string][]byte{},
		ContractsCode: map[coretypes.AccountId][]byte{},
	}
}

// ApplyStateChange applies a single state-change delta. Total and
// infallible: every StateChangeKind has a defined effect. Order-dependent
// — callers must preserve the sequence emitted by a block.
func (d *FlatStateData) ApplyStateChange(v coretypes.StateChangeValue) {
	switch v.Kind {
	case coretypes.AccountUpdate:
		d.Accounts[v.AccountId] = v.Account
	case coretypes.AccountDeletion:
		delete(d.Accounts, v.AccountId)
	case coretypes.DataUpdate:
		inner, ok := d.Data[v.AccountId]
		if !ok {
			inner = map[string][]byte{}
			d.Data[v.AccountId] = inner
		}
		inner[string(v.Key)] = v.Value
	case coretypes.DataDeletion:
		inner, ok := d.Data[v.AccountId]
		if !ok {
			return
		}
		delete(inner, string(v.Key))
		if len(inner) == 0 {
			delete(d.Data, v.AccountId)
		}
	case coretypes.AccessKeyUpdate:
		inner, ok := d.AccessKeys[v.AccountId]
		if !ok {
			inner = map[string]coretypes.AccessKeyEntry{}
			d.AccessKeys[v.AccountId] = inner
		}
		inner[v.PublicKey.String()] = coretypes.AccessKeyEntry{PublicKey: v.PublicKey, AccessKey: v.AccessKey}
	case coretypes.AccessKeyDeletion:
		inner, ok := d.AccessKeys[v.AccountId]
		if !ok {
			return
		}
		delete(inner, v.PublicKey.String())
		if len(inner) == 0 {
			delete(d.AccessKeys, v.AccountId)
		}
	case coretypes.ContractCodeUpdate:
		d.ContractsCode[v.AccountId] = v.Code
	case coretypes.ContractCodeDeletion:
		delete(d.ContractsCode, v.AccountId)
	}
}
