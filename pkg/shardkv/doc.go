// Package shardkv implements a concurrent, in-memory, sharded hash map that
// stores opaque caller-owned values keyed by a 64-bit unsigned integer.
//
// The map is split into a fixed number of independent shards, each guarded by
// its own mutex, so unrelated keys can be read and written in parallel. Every
// entry additionally carries its own reader-writer lock: Get and GetRO return
// a *Handle that borrows that lock until the caller releases it with Unlock
// or Delete. ForEach and ForEachRO visit every live entry under the shard
// lock without exposing a borrowable handle at all, so a visitor can never
// forget to release one.
//
// Deletion is deferred: Delete only flips a tombstone flag. The physical
// unlink happens the next time the owning shard resizes, which also drains
// any handle a concurrent caller still holds on the node before the node is
// dropped. A later Set on the same key resurrects the tombstone instead of
// allocating a new node, so at most one node per key is ever reachable from a
// bucket.
//
// Resizing ("auto-rehash") runs synchronously inside Set and Delete whenever
// a shard's live count crosses its grow or shrink threshold. It never moves a
// node's address, so handles obtained before a resize remain valid pointers
// afterwards; it only relocates chain heads into a freshly sized bucket
// array and frees the tombstones it sweeps along the way.
//
// shardkv holds no background goroutines. Every operation runs to completion
// on the caller's goroutine; resizing a hot shard can therefore pause other
// operations on that shard for O(size) time, but never affects other shards.
//
// © 2025 shardkv authors. MIT License.
package shardkv
