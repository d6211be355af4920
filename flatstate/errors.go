package flatstate

import "errors"

// ConstError is an error type for immutable error constants, mirroring the
// sentinel-error convention used throughout this codebase: compare with
// errors.Is, wrap with fmt.Errorf("...: %w", err) at call boundaries.
type ConstError string

func (e ConstError) Error() string { return string(e) }

// BlockHashMismatchError is returned by FlatState.ApplyBlock when the
// incoming block's PrevHash does not match the engine's current block
// hash.
const BlockHashMismatchError = ConstError("block hash mismatch")

// FilterError reports that NewFromRPC was given a filter shape it
// cannot serve (account ranges, or no accounts at all).
type FilterError struct {
	Msg string
}

func (e *FilterError) Error() string { return "filter error: " + e.Msg }

// RpcError reports a JSON-RPC transport or response failure while
// snapshotting via NewFromRPC.
type RpcError struct {
	Msg string
}

func (e *RpcError) Error() string { return "rpc error: " + e.Msg }

// StateDumpError reports malformed or missing genesis/records input while
// building a FlatState from a state dump.
type StateDumpError struct {
	Msg string
}

func (e *StateDumpError) Error() string { return "state dump error: " + e.Msg }

// StorageError reports a snapshot save/load failure: I/O error or an
// unsupported version tag.
type StorageError struct {
	Msg string
}

func (e *StorageError) Error() string { return "storage error: " + e.Msg }

// unsupportedVersionMsg is the exact message Load reports when the
// snapshot's version byte is not SnapshotVersion, matching the
// specification's required wording.
const unsupportedVersionMsg = "Unsupported version"

// BlockHashMismatch reports whether err is (or wraps) the hash-linkage
// precondition failure.
func BlockHashMismatch(err error) bool {
	return errors.Is(err, BlockHashMismatchError)
}
