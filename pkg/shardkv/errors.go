package shardkv

// errors.go collects the sentinel errors shardkv returns instead of panicking.
// Invalid arguments never abort the process: a nil value, an empty GetCopy
// destination and misuse of a Handle surface one of these, while a nil
// Store receiver, a nil handle passed to Del/Unlock and a nil ForEach
// visitor are silent no-ops (GetCopy on a nil Store reports ErrNotFound).
// Contract violations that the
// library cannot cheaply detect (reusing a handle after Unlock, calling
// Delete on a handle obtained from GetRO from a goroutine that raced past
// the released check, using a store after Close) remain undefined
// behaviour.
//
// © 2025 shardkv authors. MIT License.

import "errors"

var (
	// ErrNilValue is returned by Set when value is nil; the store never
	// stores a nil reference.
	ErrNilValue = errors.New("shardkv: value must not be nil")

	// ErrNilHandle is returned by Handle.Set invoked on a nil receiver.
	// Delete and Unlock on a nil handle, and Store.Del/Store.Unlock with a
	// nil handle argument, are no-ops.
	ErrNilHandle = errors.New("shardkv: handle is nil")

	// ErrHandleReleased is returned when a write operation is attempted on a
	// handle that was already released via Unlock or Delete.
	ErrHandleReleased = errors.New("shardkv: handle already released")

	// ErrReadOnlyHandle is returned by Delete and Set when called on a
	// handle obtained from GetRO; only a write handle from Get may mutate or
	// delete its node.
	ErrReadOnlyHandle = errors.New("shardkv: handle is read-only")

	// ErrNotFound is returned by GetCopy when the key is absent or
	// tombstoned.
	ErrNotFound = errors.New("shardkv: key not found")

	// ErrInvalidLength is returned by GetCopy when the destination slice is
	// empty.
	ErrInvalidLength = errors.New("shardkv: destination length must be positive")
)
