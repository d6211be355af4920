// Package coretypes holds the domain types shared by the fetcher and the
// flat-state engine: chain identifiers, account identifiers, cryptographic
// hashes, public keys, and the closed set of state-change variants that a
// block carries.
package coretypes

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ChainId identifies a NEAR-like network.
type ChainId uint8

const (
	Mainnet ChainId = iota
	Testnet
)

func (c ChainId) String() string {
	switch c {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("chainid(%d)", uint8(c))
	}
}

// ParseChainId parses the lowercase form produced by String. Unlike
// String, this is case-sensitive: "Mainnet" is rejected.
func ParseChainId(s string) (ChainId, error) {
	switch s {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	default:
		return 0, fmt.Errorf("unknown chain id %q", s)
	}
}

// AccountId is an opaque, totally ordered account identifier.
type AccountId string

// Less reports whether a sorts strictly before b under AccountId's total
// order (plain byte-wise string order, matching NEAR's account ID rules).
func (a AccountId) Less(b AccountId) bool {
	return a < b
}

// HashSize is the byte length of a CryptoHash.
const HashSize = 32

// CryptoHash is a 32-byte content hash, used for block hashes and epoch
// IDs.
type CryptoHash [HashSize]byte

func (h CryptoHash) String() string {
	return base58Encode(h[:])
}

// IsZero reports whether h is the zero hash, used as the synthetic
// "parent" of a chain's genesis block.
func (h CryptoHash) IsZero() bool {
	return h == CryptoHash{}
}

// KeyKind distinguishes the two public-key curves NEAR-like chains use.
type KeyKind uint8

const (
	KeyKindED25519 KeyKind = iota
	KeyKindSECP256K1
)

const (
	ed25519KeySize   = 32
	secp256k1KeySize = 64
)

// PublicKey is a tagged union over the two supported key curves.
type PublicKey struct {
	Kind KeyKind
	Data []byte
}

// NewED25519PublicKey validates and wraps a 32-byte ED25519 public key.
func NewED25519PublicKey(data []byte) (PublicKey, error) {
	if len(data) != ed25519KeySize {
		return PublicKey{}, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519KeySize, len(data))
	}
	return PublicKey{Kind: KeyKindED25519, Data: append([]byte(nil), data...)}, nil
}

// NewSECP256K1PublicKey validates and wraps a 64-byte SECP256K1 public key.
func NewSECP256K1PublicKey(data []byte) (PublicKey, error) {
	if len(data) != secp256k1KeySize {
		return PublicKey{}, fmt.Errorf("secp256k1 public key must be %d bytes, got %d", secp256k1KeySize, len(data))
	}
	return PublicKey{Kind: KeyKindSECP256K1, Data: append([]byte(nil), data...)}, nil
}

// Compare orders public keys first by kind, then lexicographically by
// their bytes. Used to keep access-key maps deterministic when serialised.
func (k PublicKey) Compare(other PublicKey) int {
	if k.Kind != other.Kind {
		if k.Kind < other.Kind {
			return -1
		}
		return 1
	}
	n := len(k.Data)
	if len(other.Data) < n {
		n = len(other.Data)
	}
	for i := 0; i < n; i++ {
		if k.Data[i] != other.Data[i] {
			if k.Data[i] < other.Data[i] {
				return -1
			}
			return 1
		}
	}
	return len(k.Data) - len(other.Data)
}

func (k PublicKey) String() string {
	prefix := "ed25519"
	if k.Kind == KeyKindSECP256K1 {
		prefix = "secp256k1"
	}
	return prefix + ":" + base58Encode(k.Data)
}

// AccessKeyPermission is a tagged union: either unrestricted access, or a
// restriction to calling specific methods on a specific contract.
type AccessKeyPermission struct {
	FullAccess bool

	// The following fields apply only when FullAccess is false.
	Receiver    AccountId
	MethodNames []string
	// Allowance is the remaining balance this key may spend on gas/fees.
	// Nil means unlimited.
	Allowance *uint64
}

// FullAccessPermission builds an unrestricted AccessKeyPermission.
func FullAccessPermission() AccessKeyPermission {
	return AccessKeyPermission{FullAccess: true}
}

// AccessKey is a NEAR-like access key: a replay-protection nonce plus a
// permission.
type AccessKey struct {
	Nonce      uint64
	Permission AccessKeyPermission
}

// AccessKeyEntry pairs a PublicKey with its AccessKey record, used as the
// value type of the per-account access-key map (keyed externally by the
// key's canonical string form so the map stays a plain Go map while
// remaining able to recover the original key bytes).
type AccessKeyEntry struct {
	PublicKey PublicKey
	AccessKey AccessKey
}

// Account is the opaque on-chain account record tracked per AccountId.
type Account struct {
	// Amount is the liquid balance, in yoctoNEAR-like smallest units.
	Amount *uint256.Int
	// Locked is the balance locked by stake, in the same units.
	Locked *uint256.Int
	// CodeHash is the hash of the deployed contract code, or the zero
	// hash if the account has no contract.
	CodeHash CryptoHash
	// StorageUsage is the number of bytes of on-chain storage the
	// account occupies.
	StorageUsage uint64
}

// Equal reports whether two accounts carry the same balances and code.
func (a Account) Equal(b Account) bool {
	amountEq := (a.Amount == nil && b.Amount == nil) || (a.Amount != nil && b.Amount != nil && a.Amount.Eq(b.Amount))
	lockedEq := (a.Locked == nil && b.Locked == nil) || (a.Locked != nil && b.Locked != nil && a.Locked.Eq(b.Locked))
	return amountEq && lockedEq && a.CodeHash == b.CodeHash && a.StorageUsage == b.StorageUsage
}

// BlockHeaderInnerLite is the subset of a block header the flat-state
// engine retains: enough to identify the block and its place in the
// chain without keeping the full header.
type BlockHeaderInnerLite struct {
	Height    uint64     `json:"height"`
	Hash      CryptoHash `json:"hash"`
	PrevHash  CryptoHash `json:"prev_hash"`
	Timestamp uint64     `json:"timestamp"`
	EpochId   CryptoHash `json:"epoch_id"`
}
