package shardkv

// shard.go is the sharded segment of shardkv. A Store is split into a fixed
// number of independent shards, each owning its own bucket-array, live
// count, grow/shrink thresholds, and a mutex guarding every structural
// mutation: inserting a new chain head, resizing, and updating the live
// count. A node's own reader-writer lock (see node.go) is a separate,
// finer-grained lock layered on top, so unrelated keys in the same shard
// never contend on the shard mutex beyond the lookup itself.
//
// Lock ordering (must be respected everywhere in this file):
//
//  1. shard mutex -> node lock           (lookups, resize's lock-drain sweep)
//  2. node lock alone                    (Unlock, and Delete's tombstone flip)
//  3. node lock -> shard mutex           (Delete's bookkeeping step only)
//
// There is never a shard -> shard dependency; shards are fully independent.
//
// © 2025 shardkv authors. MIT License.

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Voskan/shardkv/internal/unsafehelpers"
)

// shard owns all mutable structures for one slice of the key-space.
type shard struct {
	mu sync.Mutex // guards everything below except a node's own lock/value

	buckets []*node
	size    int // == len(buckets); re-evaluated on every access after resize
	minSize int // profile.Size / profile.Shards; shrink floor

	n          int // live (non-tombstoned) entries
	loadFactor int
	growAt     int
	shrinkAt   int

	index   int // this shard's position in Store.shards, for logging/metrics
	logger  *zap.Logger
	metrics metricsSink
}

func newShard(initialSize, minSize, loadFactor, index int, logger *zap.Logger, metrics metricsSink) *shard {
	s := &shard{
		buckets:    make([]*node, initialSize),
		size:       initialSize,
		minSize:    minSize,
		loadFactor: loadFactor,
		index:      index,
		logger:     logger,
		metrics:    metrics,
	}
	s.recomputeThresholds()
	return s
}

// recomputeThresholds must be called with mu held whenever size changes.
func (s *shard) recomputeThresholds() {
	s.growAt = s.size * s.loadFactor / 100
	if s.size > s.minSize {
		s.shrinkAt = s.growAt / 5
	} else {
		s.shrinkAt = 0
	}
}

func (s *shard) bucketIndex(key uint64) int {
	return int(key % uint64(s.size))
}

// findLocked walks the bucket chain for key. Caller must hold mu.
func (s *shard) findLocked(key uint64) *node {
	for n := s.buckets[s.bucketIndex(key)]; n != nil; n = n.next {
		if n.key == key {
			return n
		}
	}
	return nil
}

// set implements the insert-or-overwrite contract: resurrect a tombstoned
// node in place, overwrite a live one, or link a fresh node at the bucket
// head. Auto-rehash is evaluated before the shard mutex is released.
func (s *shard) set(key uint64, value unsafe.Pointer) {
	s.mu.Lock()
	if n := s.findLocked(key); n != nil {
		n.lock.Lock()
		if n.deleted {
			s.n++
		}
		n.deleted = false
		n.value = value
		n.lock.Unlock()
		s.mu.Unlock()
		return
	}

	idx := s.bucketIndex(key)
	n := &node{key: key, value: value, next: s.buckets[idx]}
	s.buckets[idx] = n
	s.n++
	s.autoRehash()
	s.mu.Unlock()
}

// get locates a live entry and returns it write-locked, ready to back a
// Handle. Returns nil if the key is absent or tombstoned.
func (s *shard) get(key uint64) *node {
	s.mu.Lock()
	n := s.findLocked(key)
	if n == nil {
		s.mu.Unlock()
		return nil
	}
	n.lock.Lock()
	s.mu.Unlock()

	if n.deleted {
		n.lock.Unlock()
		return nil
	}
	return n
}

// getRO is identical to get except the node is read-locked, allowing
// concurrent readers of the same key.
func (s *shard) getRO(key uint64) *node {
	s.mu.Lock()
	n := s.findLocked(key)
	if n == nil {
		s.mu.Unlock()
		return nil
	}
	n.lock.RLock()
	s.mu.Unlock()

	if n.deleted {
		n.lock.RUnlock()
		return nil
	}
	return n
}

// getCopy performs a read-locked lookup and copies exactly len(dst) bytes
// from the stored reference into dst, releasing the node lock before
// returning. No handle is exposed; the caller is responsible for len(dst)
// being meaningful for the type actually stored at key.
func (s *shard) getCopy(key uint64, dst []byte) bool {
	s.mu.Lock()
	n := s.findLocked(key)
	if n == nil {
		s.mu.Unlock()
		return false
	}
	n.lock.RLock()
	s.mu.Unlock()
	defer n.lock.RUnlock()

	if n.deleted || n.value == nil {
		return false
	}
	src := unsafehelpers.ByteSliceFrom(n.value, len(dst))
	copy(dst, src)
	return true
}

// delLocked tombstones n and updates shard bookkeeping. The caller must
// already hold n.lock (write) and must NOT hold s.mu — this is the one path
// in the package that acquires the shard mutex while a node lock is held,
// per the asymmetric ordering documented at the top of this file.
func (s *shard) delLocked(n *node) {
	n.deleted = true
	s.mu.Lock()
	s.n--
	// Release n before auto-rehash: its lock-drain sweep write-locks every
	// node in the shard, n included.
	n.lock.Unlock()
	s.autoRehash()
	s.mu.Unlock()
}

// autoRehash examines n against the shard's thresholds and, if warranted,
// replaces the bucket array in place. Must be called with mu held. Go's
// allocator has no recoverable out-of-memory signal from make(): a failing
// allocation here panics the caller's goroutine instead of returning an
// error autoRehash could catch and abandon, same as any other make() in the
// standard library.
func (s *shard) autoRehash() {
	var newSize int
	switch {
	case s.n > s.growAt:
		newSize = s.size * 2
	case s.n < s.shrinkAt:
		newSize = s.size / 2
	default:
		return
	}
	if newSize < 1 {
		return
	}

	oldBuckets := s.buckets
	oldSize := s.size
	newBuckets := make([]*node, newSize)

	for i := 0; i < oldSize; i++ {
		n := oldBuckets[i]
		for n != nil {
			next := n.next

			// Lock-drain barrier: wait for any outstanding borrower to
			// release this node before deciding its fate. No new borrower
			// can appear because finding a node requires this shard's
			// mutex, which we still hold.
			n.lock.Lock()
			if n.deleted {
				n.lock.Unlock()
				// Tombstone swept: drop the reference, let the GC reclaim
				// it. The node's address is never reused.
			} else {
				idx := int(n.key % uint64(newSize))
				n.next = newBuckets[idx]
				newBuckets[idx] = n
				n.lock.Unlock()
			}
			n = next
		}
	}

	s.buckets = newBuckets
	s.size = newSize
	s.recomputeThresholds()

	if s.logger != nil {
		dir := "grow"
		if newSize < oldSize {
			dir = "shrink"
		}
		s.logger.Debug("shard resized",
			zap.Int("shard", s.index),
			zap.String("direction", dir),
			zap.Int("old_size", oldSize),
			zap.Int("new_size", newSize),
			zap.Int("live", s.n),
		)
	}
	if s.metrics != nil {
		s.metrics.incResize(s.index)
		s.metrics.setSize(s.index, int64(newSize))
	}
}

// foreach visits every live entry in this shard exactly once, holding the
// shard mutex for the whole walk so that resize cannot run concurrently and
// invalidate next pointers. write selects whether each node is locked for
// read or write while the visitor runs. Returns false if the visitor asked
// to stop iteration.
func (s *shard) foreach(visit VisitFunc, write bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.buckets {
		for n := s.buckets[i]; n != nil; {
			next := n.next

			if write {
				n.lock.Lock()
			} else {
				n.lock.RLock()
			}
			if n.deleted {
				if write {
					n.lock.Unlock()
				} else {
					n.lock.RUnlock()
				}
				n = next
				continue
			}

			decision := visit(n.key, n.value)

			if decision == VisitDelete && !write {
				if s.logger != nil {
					s.logger.Warn("ForEachRO visitor returned VisitDelete; ignoring",
						zap.Int("shard", s.index), zap.Uint64("key", n.key))
				}
				decision = VisitContinue
			}

			switch decision {
			case VisitDelete:
				n.deleted = true
				s.n--
				n.lock.Unlock()
			case VisitStop:
				if write {
					n.lock.Unlock()
				} else {
					n.lock.RUnlock()
				}
				return false
			default:
				if write {
					n.lock.Unlock()
				} else {
					n.lock.RUnlock()
				}
			}
			n = next
		}
	}
	return true
}

// len returns the shard's live-entry count under its mutex.
func (s *shard) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// ShardSnapshot reports a shard's structural state at a point in time, used
// by Store.Snapshot and cmd/shardkv-snapshot.
type ShardSnapshot struct {
	Index    int `json:"index"`
	Size     int `json:"size"`
	Live     int `json:"live"`
	GrowAt   int `json:"grow_at"`
	ShrinkAt int `json:"shrink_at"`
}

func (s *shard) snapshot() ShardSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ShardSnapshot{Index: s.index, Size: s.size, Live: s.n, GrowAt: s.growAt, ShrinkAt: s.shrinkAt}
}
