package flatstate

import (
	"github.com/fastnear/nearflat/internal/coretypes"
	"golang.org/x/exp/slices"
)

// AccountRange is an inclusive account-id range; a nil bound is
// unbounded on that side.
type AccountRange struct {
	Start *coretypes.AccountId
	End   *coretypes.AccountId
}

// Filter is an allow predicate over account IDs: an account is allowed if
// it is named explicitly, or falls within one of the inclusive ranges.
type Filter struct {
	Accounts      map[coretypes.AccountId]struct{}
	AccountRanges []AccountRange
}

// Full returns a Filter that allows every account.
func Full() Filter {
	return Filter{
		Accounts:      map[coretypes.AccountId]struct{}{},
		AccountRanges: []AccountRange{{}},
	}
}

// FromAccounts returns a Filter that allows exactly the given accounts.
func FromAccounts(accounts []coretypes.AccountId) Filter {
	set := make(map[coretypes.AccountId]struct{}, len(accounts))
	for _, a := range accounts {
		set[a] = struct{}{}
	}
	return Filter{Accounts: set}
}

// IsAccountAllowed reports whether account passes this filter: explicit
// membership, or containment in any configured range.
func (f Filter) IsAccountAllowed(account coretypes.AccountId) bool {
	if _, ok := f.Accounts[account]; ok {
		return true
	}
	for _, r := range f.AccountRanges {
		if (r.Start == nil || *r.Start <= account) && (r.End == nil || *r.End >= account) {
			return true
		}
	}
	return false
}

// SortedAccounts returns the filter's explicit accounts in ascending
// order, used wherever deterministic iteration matters (snapshot
// serialisation, RPC snapshotting).
func (f Filter) SortedAccounts() []coretypes.AccountId {
	out := make([]coretypes.AccountId, 0, len(f.Accounts))
	for a := range f.Accounts {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
