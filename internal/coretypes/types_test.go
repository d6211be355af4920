package coretypes

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestAccountIdLess(t *testing.T) {
	if !AccountId("alice.near").Less("bob.near") {
		t.Error("expected alice.near < bob.near")
	}
	if AccountId("bob.near").Less("alice.near") {
		t.Error("expected bob.near not less than alice.near")
	}
}

func TestChainIdRoundTrip(t *testing.T) {
	for _, c := range []ChainId{Mainnet, Testnet} {
		parsed, err := ParseChainId(c.String())
		if err != nil {
			t.Fatalf("ParseChainId(%q): %v", c.String(), err)
		}
		if parsed != c {
			t.Errorf("ParseChainId(%q) = %v, want %v", c.String(), parsed, c)
		}
	}
	if _, err := ParseChainId("Mainnet"); err == nil {
		t.Error("expected ParseChainId to reject wrong case")
	}
}

func TestCryptoHashIsZero(t *testing.T) {
	var h CryptoHash
	if !h.IsZero() {
		t.Error("zero-valued CryptoHash should report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Error("non-zero CryptoHash should not report IsZero")
	}
}

func TestPublicKeyConstructorsValidateLength(t *testing.T) {
	if _, err := NewED25519PublicKey(make([]byte, 31)); err == nil {
		t.Error("expected an error for a short ed25519 key")
	}
	if _, err := NewSECP256K1PublicKey(make([]byte, 63)); err == nil {
		t.Error("expected an error for a short secp256k1 key")
	}
	if _, err := NewED25519PublicKey(make([]byte, 32)); err != nil {
		t.Errorf("unexpected error for a valid ed25519 key: %v", err)
	}
}

func TestPublicKeyCompareOrdersByKindThenBytes(t *testing.T) {
	ed, _ := NewED25519PublicKey(make([]byte, 32))
	secp, _ := NewSECP256K1PublicKey(make([]byte, 64))
	if ed.Compare(secp) >= 0 {
		t.Error("expected ed25519 to sort before secp256k1")
	}

	a, _ := NewED25519PublicKey(append([]byte{1}, make([]byte, 31)...))
	b, _ := NewED25519PublicKey(append([]byte{2}, make([]byte, 31)...))
	if a.Compare(b) >= 0 {
		t.Error("expected key with lower leading byte to sort first")
	}
}

func TestAccountEqual(t *testing.T) {
	a := Account{Amount: uint256.NewInt(100), Locked: uint256.NewInt(0)}
	b := Account{Amount: uint256.NewInt(100), Locked: uint256.NewInt(0)}
	if !a.Equal(b) {
		t.Error("expected equal accounts to compare equal")
	}
	b.Amount = uint256.NewInt(101)
	if a.Equal(b) {
		t.Error("expected accounts with different balances to compare unequal")
	}
}

func TestFullAccessPermission(t *testing.T) {
	p := FullAccessPermission()
	if !p.FullAccess {
		t.Error("FullAccessPermission() should set FullAccess")
	}
	if p.Receiver != "" || len(p.MethodNames) != 0 || p.Allowance != nil {
		t.Error("FullAccessPermission() should leave restricted fields zero-valued")
	}
}
