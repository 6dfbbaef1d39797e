package shardkv

// store.go routes operations to shards and exposes the full operation
// protocol: Set, Get, GetRO, GetCopy, Del, Unlock, ForEach, ForEachRO, plus
// construction and Close.
//
// A Store owns an immutable Profile and a fixed-length shard array; only the
// per-shard bucket arrays ever resize. Shard selection is key % len(shards);
// within a shard, bucket selection is key % shard.size and is re-evaluated
// on every access since a resize can change it.
//
// © 2025 shardkv authors. MIT License.

import "unsafe"

// Store is a concurrent, sharded, in-memory map from uint64 keys to
// caller-owned opaque value references. The zero value is not usable; build
// one with New.
type Store struct {
	profile Profile
	shards  []*shard
	metrics metricsSink
}

// New constructs a Store. A nil profile uses DefaultProfile. The profile is
// sanitized once, against a copy, before any shard is built; the caller's
// Profile value is never retained or mutated.
func New(profile *Profile, opts ...Option) *Store {
	p := sanitize(profile)
	cfg := applyOptions(opts)
	metrics := newMetricsSink(p.Shards, cfg.registry)

	st := &Store{
		profile: p,
		shards:  make([]*shard, p.Shards),
		metrics: metrics,
	}

	shardSize := p.shardSize()
	for i := range st.shards {
		st.shards[i] = newShard(shardSize, shardSize, p.LoadFactor, i, cfg.logger, metrics)
	}
	return st
}

// Profile returns the sanitized profile this store was built with.
func (st *Store) Profile() Profile {
	if st == nil {
		return Profile{}
	}
	return st.profile
}

func (st *Store) shardFor(key uint64) *shard {
	return st.shards[key%uint64(len(st.shards))]
}

// Set inserts a new entry or overwrites an existing one, resurrecting a
// tombstoned node for the same key in place. Returns ErrNilValue if value is
// nil; silently no-ops if st is nil.
func (st *Store) Set(key uint64, value unsafe.Pointer) error {
	if st == nil {
		return nil
	}
	if value == nil {
		return ErrNilValue
	}
	sh := st.shardFor(key)
	sh.set(key, value)
	if st.metrics != nil {
		st.metrics.incSet(sh.index)
	}
	return nil
}

// Get locates a live entry and returns a write-capable Handle over it. The
// returned handle MUST be paired with exactly one call to Unlock or Delete.
// Returns (nil, false) if st is nil or the key is absent/tombstoned.
func (st *Store) Get(key uint64) (*Handle, bool) {
	if st == nil {
		return nil, false
	}
	sh := st.shardFor(key)
	n := sh.get(key)
	if n == nil {
		if st.metrics != nil {
			st.metrics.incMiss(sh.index)
		}
		return nil, false
	}
	if st.metrics != nil {
		st.metrics.incHit(sh.index)
	}
	return &Handle{shard: sh, node: n, write: true}, true
}

// GetRO is identical to Get except the returned Handle holds a read lock,
// allowing concurrent GetRO callers on the same or different keys within a
// shard. The handle cannot Delete; only Unlock.
func (st *Store) GetRO(key uint64) (*Handle, bool) {
	if st == nil {
		return nil, false
	}
	sh := st.shardFor(key)
	n := sh.getRO(key)
	if n == nil {
		if st.metrics != nil {
			st.metrics.incMiss(sh.index)
		}
		return nil, false
	}
	if st.metrics != nil {
		st.metrics.incHit(sh.index)
	}
	return &Handle{shard: sh, node: n, write: false}, true
}

// GetCopy performs a read-locked lookup and copies exactly len(dst) bytes
// from the stored reference into dst. No handle is returned or needs
// releasing. The caller is responsible for len(dst) matching the size of
// whatever was actually stored at key; this is an unchecked binary copy.
func (st *Store) GetCopy(key uint64, dst []byte) error {
	if st == nil {
		return ErrNotFound
	}
	if len(dst) == 0 {
		return ErrInvalidLength
	}
	sh := st.shardFor(key)
	if !sh.getCopy(key, dst) {
		return ErrNotFound
	}
	return nil
}

// Del tombstones the entry referenced by handle and releases it. handle
// must have come from Get; calling Del with a handle from GetRO returns
// ErrReadOnlyHandle. Silently no-ops if handle is nil.
func (st *Store) Del(handle *Handle) error {
	if handle == nil {
		return nil
	}
	if st != nil && st.metrics != nil && !handle.released && handle.write {
		st.metrics.incDelete(handle.shard.index)
	}
	return handle.Delete()
}

// Unlock releases handle's lock with no other state change. Silently no-ops
// if handle is nil.
func (st *Store) Unlock(handle *Handle) {
	if handle == nil {
		return
	}
	handle.Unlock()
}

// ForEach visits every live entry across every shard exactly once, write-
// locking each node for the duration of the visitor call. Shards are walked
// in index order; within a shard, the shard mutex is held for the entire
// walk so resize cannot run concurrently. No-ops if st or visit is nil.
func (st *Store) ForEach(visit VisitFunc) {
	if st == nil || visit == nil {
		return
	}
	for _, sh := range st.shards {
		if !sh.foreach(visit, true) {
			return
		}
	}
}

// ForEachRO is identical to ForEach except each node is read-locked, so
// concurrent readers elsewhere are not excluded. A visitor that returns
// VisitDelete is ignored (and logged) since deleting requires the write
// lock ForEachRO never takes.
func (st *Store) ForEachRO(visit VisitFunc) {
	if st == nil || visit == nil {
		return
	}
	for _, sh := range st.shards {
		if !sh.foreach(visit, false) {
			return
		}
	}
}

// Len returns the total number of live entries across all shards.
func (st *Store) Len() int {
	if st == nil {
		return 0
	}
	total := 0
	for _, sh := range st.shards {
		total += sh.len()
	}
	return total
}

// Snapshot reports the structural state of every shard: size, live count,
// and grow/shrink thresholds. Used by cmd/shardkv-snapshot; it takes each shard's mutex briefly and in turn, so
// it is not a single atomic point-in-time view across shards.
func (st *Store) Snapshot() []ShardSnapshot {
	if st == nil {
		return nil
	}
	out := make([]ShardSnapshot, len(st.shards))
	for i, sh := range st.shards {
		out[i] = sh.snapshot()
	}
	return out
}

// Close releases every entry the store holds, invoking cleanup (if non-nil)
// once per live entry with its key and value reference so the caller can
// free or otherwise account for it. cleanup is only ever called for live
// entries, never for tombstones. Close does not itself free any caller
// memory; shardkv never owns the bytes behind a value reference.
func (st *Store) Close(cleanup func(key uint64, value unsafe.Pointer)) {
	if st == nil {
		return
	}
	for _, sh := range st.shards {
		sh.mu.Lock()
		for i := range sh.buckets {
			for n := sh.buckets[i]; n != nil; n = n.next {
				if !n.deleted && cleanup != nil {
					cleanup(n.key, n.value)
				}
			}
			sh.buckets[i] = nil
		}
		sh.n = 0
		sh.mu.Unlock()
	}
}
