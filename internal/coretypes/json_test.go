package coretypes

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
)

func TestCryptoHashJSONRoundTrip(t *testing.T) {
	var h CryptoHash
	for i := range h {
		h[i] = byte(i)
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded CryptoHash
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != h {
		t.Errorf("round-trip = %v, want %v", decoded, h)
	}
}

func TestPublicKeyJSONRoundTrip(t *testing.T) {
	for _, k := range []PublicKey{
		mustED25519(t, make([]byte, 32)),
		mustSECP256K1(t, make([]byte, 64)),
	} {
		data, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var decoded PublicKey
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal %s: %v", data, err)
		}
		if decoded.Kind != k.Kind || decoded.Compare(k) != 0 {
			t.Errorf("round-trip of %s = %+v, want %+v", data, decoded, k)
		}
	}
}

func mustED25519(t *testing.T, raw []byte) PublicKey {
	t.Helper()
	k, err := NewED25519PublicKey(raw)
	if err != nil {
		t.Fatalf("NewED25519PublicKey: %v", err)
	}
	return k
}

func mustSECP256K1(t *testing.T, raw []byte) PublicKey {
	t.Helper()
	k, err := NewSECP256K1PublicKey(raw)
	if err != nil {
		t.Fatalf("NewSECP256K1PublicKey: %v", err)
	}
	return k
}

func TestAccountJSONRoundTrip(t *testing.T) {
	a := Account{
		Amount:       uint256.NewInt(123456789),
		Locked:       uint256.NewInt(0),
		CodeHash:     CryptoHash{1, 2, 3},
		StorageUsage: 42,
	}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Account
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal %s: %v", data, err)
	}
	if !decoded.Equal(a) {
		t.Errorf("round-trip of %s = %+v, want %+v", data, decoded, a)
	}
}

func TestAccessKeyPermissionJSON(t *testing.T) {
	full := FullAccessPermission()
	data, err := json.Marshal(full)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"FullAccess"` {
		t.Errorf("Marshal(FullAccess) = %s, want \"FullAccess\"", data)
	}
	var decodedFull AccessKeyPermission
	if err := json.Unmarshal(data, &decodedFull); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decodedFull.FullAccess {
		t.Error("expected decoded permission to be FullAccess")
	}

	allowance := uint64(100)
	restricted := AccessKeyPermission{
		Receiver:    "contract.near",
		MethodNames: []string{"transfer", "mint"},
		Allowance:   &allowance,
	}
	data, err = json.Marshal(restricted)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decodedRestricted AccessKeyPermission
	if err := json.Unmarshal(data, &decodedRestricted); err != nil {
		t.Fatalf("Unmarshal %s: %v", data, err)
	}
	if decodedRestricted.FullAccess {
		t.Error("expected decoded permission to not be FullAccess")
	}
	if decodedRestricted.Receiver != restricted.Receiver || len(decodedRestricted.MethodNames) != 2 {
		t.Errorf("round-trip of %s = %+v, want %+v", data, decodedRestricted, restricted)
	}
	if decodedRestricted.Allowance == nil || *decodedRestricted.Allowance != allowance {
		t.Errorf("round-trip lost allowance: got %+v", decodedRestricted.Allowance)
	}
}

func TestStateChangeValueUnmarshalVariants(t *testing.T) {
	cases := []struct {
		name string
		json string
		kind StateChangeKind
	}{
		{"account_update", `{"type":"account_update","change":{"account_id":"alice.near","account":{"amount":"100","locked":"0","code_hash":"11111111111111111111111111111111","storage_usage":0}}}`, AccountUpdate},
		{"account_deletion", `{"type":"account_deletion","change":{"account_id":"alice.near"}}`, AccountDeletion},
		{"data_update", `{"type":"data_update","change":{"account_id":"alice.near","key":"a2V5","value":"dmFs"}}`, DataUpdate},
		{"contract_code_deletion", `{"type":"contract_code_deletion","change":{"account_id":"alice.near"}}`, ContractCodeDeletion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v StateChangeValue
			if err := json.Unmarshal([]byte(tc.json), &v); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if v.Kind != tc.kind {
				t.Errorf("Kind = %v, want %v", v.Kind, tc.kind)
			}
			if v.AccountId != "alice.near" {
				t.Errorf("AccountId = %q, want alice.near", v.AccountId)
			}
		})
	}
}

func TestStateChangeValueUnmarshalUnknownType(t *testing.T) {
	var v StateChangeValue
	err := json.Unmarshal([]byte(`{"type":"nonsense","change":{}}`), &v)
	if err == nil {
		t.Error("expected an error for an unknown state change type")
	}
}
