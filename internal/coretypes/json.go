package coretypes

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// MarshalJSON renders a CryptoHash as its base58 string form, matching the
// wire format used by block and RPC JSON.
func (h CryptoHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON parses a base58-encoded CryptoHash.
func (h *CryptoHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base58Decode(s)
	if err != nil {
		return fmt.Errorf("decoding hash %q: %w", s, err)
	}
	if len(raw) != HashSize {
		return fmt.Errorf("hash %q decodes to %d bytes, want %d", s, len(raw), HashSize)
	}
	copy(h[:], raw)
	return nil
}

// MarshalJSON renders a PublicKey as "ed25519:<base58>" or
// "secp256k1:<base58>".
func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a "<curve>:<base58>" public key.
func (k *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	i := 0
	for i < len(s) && s[i] != ':' {
		i++
	}
	if i == len(s) {
		return fmt.Errorf("public key %q missing curve prefix", s)
	}
	prefix, encoded := s[:i], s[i+1:]
	raw, err := base58Decode(encoded)
	if err != nil {
		return fmt.Errorf("decoding public key %q: %w", s, err)
	}
	var parsed PublicKey
	switch prefix {
	case "ed25519":
		parsed, err = NewED25519PublicKey(raw)
	case "secp256k1":
		parsed, err = NewSECP256K1PublicKey(raw)
	default:
		return fmt.Errorf("public key %q has unknown curve %q", s, prefix)
	}
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// wireAccount mirrors the NEAR account view: balances are serialised as
// decimal strings since they exceed JSON's safe integer range.
type wireAccount struct {
	Amount       string     `json:"amount"`
	Locked       string     `json:"locked"`
	CodeHash     CryptoHash `json:"code_hash"`
	StorageUsage uint64     `json:"storage_usage"`
}

// MarshalJSON renders an Account in the NEAR account-view shape, with
// balances as decimal strings.
func (a Account) MarshalJSON() ([]byte, error) {
	amount, locked := a.Amount, a.Locked
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	if locked == nil {
		locked = uint256.NewInt(0)
	}
	return json.Marshal(wireAccount{
		Amount:       amount.Dec(),
		Locked:       locked.Dec(),
		CodeHash:     a.CodeHash,
		StorageUsage: a.StorageUsage,
	})
}

// UnmarshalJSON parses an Account from the NEAR account-view shape.
func (a *Account) UnmarshalJSON(data []byte) error {
	var w wireAccount
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := parseUint256Dec(w.Amount)
	if err != nil {
		return fmt.Errorf("parsing account amount %q: %w", w.Amount, err)
	}
	locked, err := parseUint256Dec(w.Locked)
	if err != nil {
		return fmt.Errorf("parsing account locked %q: %w", w.Locked, err)
	}
	a.Amount = amount
	a.Locked = locked
	a.CodeHash = w.CodeHash
	a.StorageUsage = w.StorageUsage
	return nil
}

func parseUint256Dec(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// wireFunctionCallPermission mirrors the NEAR FunctionCall permission
// variant's "change" payload.
type wireFunctionCallPermission struct {
	Allowance   *uint64  `json:"allowance,omitempty"`
	ReceiverId  AccountId `json:"receiver_id"`
	MethodNames []string `json:"method_names"`
}

// MarshalJSON renders an AccessKeyPermission as the bare string
// "FullAccess" or a {"FunctionCall": {...}} object, matching the NEAR
// access-key-permission view.
func (p AccessKeyPermission) MarshalJSON() ([]byte, error) {
	if p.FullAccess {
		return json.Marshal("FullAccess")
	}
	return json.Marshal(map[string]wireFunctionCallPermission{
		"FunctionCall": {
			Allowance:   p.Allowance,
			ReceiverId:  p.Receiver,
			MethodNames: p.MethodNames,
		},
	})
}

// UnmarshalJSON parses an AccessKeyPermission from either wire shape.
func (p *AccessKeyPermission) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "FullAccess" {
			return fmt.Errorf("unknown access key permission %q", tag)
		}
		*p = FullAccessPermission()
		return nil
	}

	var wrapper struct {
		FunctionCall wireFunctionCallPermission `json:"FunctionCall"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("decoding access key permission: %w", err)
	}
	*p = AccessKeyPermission{
		FullAccess:  false,
		Receiver:    wrapper.FunctionCall.ReceiverId,
		MethodNames: wrapper.FunctionCall.MethodNames,
		Allowance:   wrapper.FunctionCall.Allowance,
	}
	return nil
}

type wireAccessKey struct {
	Nonce      uint64              `json:"nonce"`
	Permission AccessKeyPermission `json:"permission"`
}

// MarshalJSON renders an AccessKey in the NEAR access-key-view shape.
func (k AccessKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAccessKey{Nonce: k.Nonce, Permission: k.Permission})
}

// UnmarshalJSON parses an AccessKey from the NEAR access-key-view shape.
func (k *AccessKey) UnmarshalJSON(data []byte) error {
	var w wireAccessKey
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	k.Nonce = w.Nonce
	k.Permission = w.Permission
	return nil
}

// stateChangeKindWire maps each StateChangeKind to the "type" tag the
// wire format uses, and back.
var stateChangeKindWire = [...]string{
	AccountUpdate:        "account_update",
	AccountDeletion:      "account_deletion",
	DataUpdate:           "data_update",
	DataDeletion:         "data_deletion",
	AccessKeyUpdate:      "access_key_update",
	AccessKeyDeletion:    "access_key_deletion",
	ContractCodeUpdate:   "contract_code_update",
	ContractCodeDeletion: "contract_code_deletion",
}

// wireStateChangeEnvelope is the adjacently-tagged "type"/"change" shape a
// StateChangeValue is carried in on the wire; cause metadata alongside it
// (if present) is ignored.
type wireStateChangeEnvelope struct {
	Type   string          `json:"type"`
	Change json.RawMessage `json:"change"`
}

// UnmarshalJSON decodes a StateChangeValue from its adjacently-tagged wire
// form, dispatching the "change" payload by the "type" tag.
func (v *StateChangeValue) UnmarshalJSON(data []byte) error {
	var env wireStateChangeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding state change envelope: %w", err)
	}

	switch env.Type {
	case stateChangeKindWire[AccountUpdate]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
			Account   Account   `json:"account"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding account_update: %w", err)
		}
		*v = StateChangeValue{Kind: AccountUpdate, AccountId: payload.AccountId, Account: payload.Account}

	case stateChangeKindWire[AccountDeletion]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding account_deletion: %w", err)
		}
		*v = StateChangeValue{Kind: AccountDeletion, AccountId: payload.AccountId}

	case stateChangeKindWire[DataUpdate]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
			Key       []byte    `json:"key"`
			Value     []byte    `json:"value"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding data_update: %w", err)
		}
		*v = StateChangeValue{Kind: DataUpdate, AccountId: payload.AccountId, Key: payload.Key, Value: payload.Value}

	case stateChangeKindWire[DataDeletion]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
			Key       []byte    `json:"key"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding data_deletion: %w", err)
		}
		*v = StateChangeValue{Kind: DataDeletion, AccountId: payload.AccountId, Key: payload.Key}

	case stateChangeKindWire[AccessKeyUpdate]:
		var payload struct {
			AccountId  AccountId `json:"account_id"`
			PublicKey  PublicKey `json:"public_key"`
			AccessKey  AccessKey `json:"access_key"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding access_key_update: %w", err)
		}
		*v = StateChangeValue{Kind: AccessKeyUpdate, AccountId: payload.AccountId, PublicKey: payload.PublicKey, AccessKey: payload.AccessKey}

	case stateChangeKindWire[AccessKeyDeletion]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
			PublicKey PublicKey `json:"public_key"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding access_key_deletion: %w", err)
		}
		*v = StateChangeValue{Kind: AccessKeyDeletion, AccountId: payload.AccountId, PublicKey: payload.PublicKey}

	case stateChangeKindWire[ContractCodeUpdate]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
			Code      []byte    `json:"code"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding contract_code_update: %w", err)
		}
		*v = StateChangeValue{Kind: ContractCodeUpdate, AccountId: payload.AccountId, Code: payload.Code}

	case stateChangeKindWire[ContractCodeDeletion]:
		var payload struct {
			AccountId AccountId `json:"account_id"`
		}
		if err := json.Unmarshal(env.Change, &payload); err != nil {
			return fmt.Errorf("decoding contract_code_deletion: %w", err)
		}
		*v = StateChangeValue{Kind: ContractCodeDeletion, AccountId: payload.AccountId}

	default:
		return fmt.Errorf("unknown state change type %q", env.Type)
	}
	return nil
}
