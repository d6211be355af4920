package coretypes

import "testing"

func TestStateChangeKindString(t *testing.T) {
	cases := []struct {
		kind StateChangeKind
		want string
	}{
		{AccountUpdate, "AccountUpdate"},
		{AccountDeletion, "AccountDeletion"},
		{DataUpdate, "DataUpdate"},
		{DataDeletion, "DataDeletion"},
		{AccessKeyUpdate, "AccessKeyUpdate"},
		{AccessKeyDeletion, "AccessKeyDeletion"},
		{ContractCodeUpdate, "ContractCodeUpdate"},
		{ContractCodeDeletion, "ContractCodeDeletion"},
		{StateChangeKind(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("StateChangeKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestStateChangeUnmarshalDropsCause(t *testing.T) {
	raw := []byte(`{
		"type": "account_deletion",
		"change": {"account_id": "alice.near"},
		"cause": {"type": "transaction_processing", "tx_hash": "11111111111111111111111111111111"}
	}`)
	var c StateChange
	if err := c.UnmarshalJSON(raw); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if c.Value.Kind != AccountDeletion {
		t.Errorf("Kind = %v, want AccountDeletion", c.Value.Kind)
	}
	if c.Value.AccountId != "alice.near" {
		t.Errorf("AccountId = %q, want alice.near", c.Value.AccountId)
	}
}
