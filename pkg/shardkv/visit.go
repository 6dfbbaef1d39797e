package shardkv

// visit.go defines the ForEach/ForEachRO callback contract. A foreach
// callback that held a node's lock and forgot to release it would wedge the
// shard permanently. Rather than hand a
// releasable Handle into the callback and trust it to call Unlock/Delete,
// shardkv's visitor returns a decision value and never exposes a lockable
// object at all — releasing the node is then ForEach's job, not the
// visitor's, so forgetting becomes structurally impossible instead of
// merely discouraged.
//
// © 2025 shardkv authors. MIT License.

import "unsafe"

// VisitDecision tells ForEach/ForEachRO what to do with the entry just
// visited.
type VisitDecision int

const (
	// VisitContinue moves on to the next entry, leaving this one untouched.
	VisitContinue VisitDecision = iota

	// VisitStop ends iteration immediately after this entry.
	VisitStop

	// VisitDelete tombstones this entry before moving on. Only honoured by
	// ForEach (the write variant); a ForEachRO visitor returning VisitDelete
	// has it ignored and logged, since deleting requires the write lock
	// ForEachRO never takes.
	VisitDelete
)

// VisitFunc is invoked once per live entry during ForEach/ForEachRO, with
// the node already locked for the duration of the call (write-locked under
// ForEach, read-locked under ForEachRO). It must not call back into the
// same Store's Set/Get/Del/ForEach for the same shard — doing so deadlocks
// against the shard mutex ForEach already holds.
type VisitFunc func(key uint64, value unsafe.Pointer) VisitDecision
