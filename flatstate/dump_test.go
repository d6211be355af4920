package flatstate

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fastnear/nearflat/internal/coretypes"
)

func TestReadGenesisConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(`{"config":{"chain_id":"testnet","genesis_height":12345}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := readGenesisConfig(path)
	if err != nil {
		t.Fatalf("readGenesisConfig(): %v", err)
	}
	if got.ChainId != "testnet" || got.GenesisHeight != 12345 {
		t.Errorf("got %+v, want {testnet 12345}", got)
	}
}

func TestReadGenesisConfigErrorsOnMissingFile(t *testing.T) {
	if _, err := readGenesisConfig(filepath.Join(t.TempDir(), "genesis.json")); err == nil {
		t.Error("expected an error for a missing genesis.json")
	}
}

func TestNewFromStateDumpErrorsOnMissingGenesis(t *testing.T) {
	_, err := NewFromStateDump(context.Background(), Full(), t.TempDir())
	if _, ok := err.(*StateDumpError); !ok {
		t.Fatalf("err = %v (%T), want *StateDumpError", err, err)
	}
}

// recordsFixture renders a records.json array covering every tracked
// variant (Account, Data, Contract, AccessKey) for two accounts plus the
// three variants this projection never tracks (PostponedReceipt,
// ReceivedData, DelayedReceipt).
func recordsFixture(t *testing.T, keyStr string) string {
	t.Helper()
	dataKey := base64.StdEncoding.EncodeToString([]byte("storage-key"))
	dataValue := base64.StdEncoding.EncodeToString([]byte("storage-value"))
	code := base64.StdEncoding.EncodeToString([]byte("wasm-code"))
	zeroHash := coretypes.CryptoHash{}.String()

	return fmt.Sprintf(`[
		{"Account":{"account_id":"alice.near","account":{"amount":"100","locked":"0","code_hash":"%s","storage_usage":182}}},
		{"Data":{"account_id":"alice.near","data_key":"%s","value":"%s"}},
		{"Contract":{"account_id":"alice.near","code":"%s"}},
		{"AccessKey":{"account_id":"alice.near","public_key":"%s","access_key":{"nonce":1,"permission":"FullAccess"}}},
		{"Account":{"account_id":"bob.near","account":{"amount":"5","locked":"0","code_hash":"%s","storage_usage":10}}},
		{"PostponedReceipt":{}},
		{"ReceivedData":{}},
		{"DelayedReceipt":{}}
	]`, zeroHash, dataKey, dataValue, code, keyStr, zeroHash)
}

func TestStreamRecordsAppliesTrackedVariantsAndHonorsFilter(t *testing.T) {
	key, err := coretypes.NewED25519PublicKey(make([]byte, 32))
	if err != nil {
		t.Fatalf("NewED25519PublicKey: %v", err)
	}

	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(recordsFixture(t, key.String())), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data := NewFlatStateData()
	filter := FromAccounts([]coretypes.AccountId{"alice.near"})
	if err := streamRecords(path, filter, data); err != nil {
		t.Fatalf("streamRecords(): %v", err)
	}

	if _, ok := data.Accounts["alice.near"]; !ok {
		t.Error("expected alice.near in Accounts")
	}
	if _, ok := data.Accounts["bob.near"]; ok {
		t.Error("bob.near should have been filtered out")
	}
	if got := string(data.Data["alice.near"]["storage-key"]); got != "storage-value" {
		t.Errorf("Data = %q, want %q", got, "storage-value")
	}
	if got := string(data.ContractsCode["alice.near"]); got != "wasm-code" {
		t.Errorf("ContractsCode = %q, want %q", got, "wasm-code")
	}
	entry, ok := data.AccessKeys["alice.near"][key.String()]
	if !ok {
		t.Fatal("expected an access key entry for alice.near")
	}
	if entry.AccessKey.Nonce != 1 || !entry.AccessKey.Permission.FullAccess {
		t.Errorf("AccessKey = %+v, want nonce 1 FullAccess", entry.AccessKey)
	}
}

func TestStreamRecordsSkipsUntrackedVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	body := `[{"PostponedReceipt":{}},{"ReceivedData":{}},{"DelayedReceipt":{}}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data := NewFlatStateData()
	if err := streamRecords(path, Full(), data); err != nil {
		t.Fatalf("streamRecords(): %v", err)
	}
	if len(data.Accounts) != 0 || len(data.AccessKeys) != 0 || len(data.Data) != 0 || len(data.ContractsCode) != 0 {
		t.Errorf("expected an empty projection, got %+v", data)
	}
}
