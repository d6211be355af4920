package flatstate

import (
	"github.com/fastnear/nearflat/internal/coretypes"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// The snapshot format requires deterministic map iteration order so that
// Save produces byte-identical output across repeated calls on the same
// state. These helpers sort map keys before encoding.

func sortedAccountIds(m map[coretypes.AccountId]coretypes.Account) []coretypes.AccountId {
	out := make([]coretypes.AccountId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedKeysOfAccessKeys(m map[coretypes.AccountId]map[string]coretypes.AccessKeyEntry) []coretypes.AccountId {
	out := make([]coretypes.AccountId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedAccessKeyEntries(m map[string]coretypes.AccessKeyEntry) []coretypes.AccessKeyEntry {
	out := make([]coretypes.AccessKeyEntry, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b coretypes.AccessKeyEntry) bool {
		return a.PublicKey.Compare(b.PublicKey) < 0
	})
	return out
}

func sortedKeysOfData(m map[coretypes.AccountId]map[string][]byte) []coretypes.AccountId {
	out := make([]coretypes.AccountId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedKeysOfCode(m map[coretypes.AccountId][]byte) []coretypes.AccountId {
	out := make([]coretypes.AccountId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedStringKeys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func uint256ToBytes(v *uint256.Int) [32]byte {
	var out [32]byte
	if v == nil {
		return out
	}
	return v.Bytes32()
}

func bytesToUint256(b [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b[:])
}
