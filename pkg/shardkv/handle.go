package shardkv

// handle.go implements the caller-visible borrow object returned by Get and
// GetRO. A Handle owns the node's reader-writer lock until Unlock or Delete
// releases it; it is a scope-bound guard that encodes the handle lifecycle
// in a type rather than a raw pointer, so reuse-after-release is at least
// locally detectable (ErrHandleReleased) instead of silently corrupting
// state.
//
// ForEach/ForEachRO deliberately do NOT hand out a Handle at all: see
// visit.go for why a visitor cannot forget to release what it never holds.
//
// © 2025 shardkv authors. MIT License.

import "unsafe"

// Handle is a live borrow of one node, obtained from Store.Get (write
// handle) or Store.GetRO (read handle). It MUST be paired with exactly one
// call to Unlock or, for write handles only, Delete. Using a Handle after
// releasing it returns ErrHandleReleased; it never panics or corrupts
// shared state, but a Handle that is simply never released wedges its
// shard's next resize forever — that remains a contract violation shardkv
// cannot detect or recover from.
type Handle struct {
	shard    *shard
	node     *node
	write    bool
	released bool
}

// Value returns the opaque reference currently stored at this handle's key.
// Returns nil if the handle has already been released.
func (h *Handle) Value() unsafe.Pointer {
	if h == nil || h.released {
		return nil
	}
	return h.node.value
}

// Set overwrites the value referenced by a write handle. Only valid before
// release and only on a handle obtained from Get (not GetRO).
func (h *Handle) Set(value unsafe.Pointer) error {
	if h == nil {
		return ErrNilHandle
	}
	if h.released {
		return ErrHandleReleased
	}
	if !h.write {
		return ErrReadOnlyHandle
	}
	if value == nil {
		return ErrNilValue
	}
	h.node.value = value
	return nil
}

// Delete tombstones the entry this handle refers to and releases the
// handle. Only valid on a write handle obtained from Get; calling Delete on
// a handle from GetRO returns ErrReadOnlyHandle and leaves the read lock
// held — callers must still Unlock it themselves.
func (h *Handle) Delete() error {
	if h == nil {
		return nil
	}
	if h.released {
		return ErrHandleReleased
	}
	if !h.write {
		return ErrReadOnlyHandle
	}
	h.released = true
	h.shard.delLocked(h.node)
	return nil
}

// Unlock releases the handle's lock with no other state change. Valid after
// both Get (write) and GetRO (read); a second call is a no-op.
func (h *Handle) Unlock() {
	if h == nil || h.released {
		return
	}
	h.released = true
	if h.write {
		h.node.lock.Unlock()
	} else {
		h.node.lock.RUnlock()
	}
}
