// Package unsafehelpers centralises the one unavoidable use of the `unsafe`
// standard-library package inside shardkv: turning the opaque unsafe.Pointer
// a caller hands to Set into a read-only []byte view so GetCopy can memcpy
// out of it. Keeping it in its own package makes that single unsafe call
// easy to find and audit independently of the locking logic in shard.go.
//
// ⚠️  DISCLAIMER  These helpers deliberately break the Go memory-safety model
// for the sake of a zero-allocation byte view. The caller of GetCopy is
// responsible for length being meaningful for whatever type was actually
// stored at the key; shardkv itself never interprets the bytes.
//
// © 2025 shardkv authors. MIT License.

package unsafehelpers

import "unsafe"

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with the
// given length. The caller must ensure the memory block is at least length
// bytes and that it remains valid for as long as the returned slice is used;
// shardkv only calls this while holding the owning node's read lock, which
// keeps the underlying value pointer from being reassigned concurrently.
func ByteSliceFrom(ptr unsafe.Pointer, length int) []byte {
    if ptr == nil || length <= 0 {
        return nil
    }
    return unsafe.Slice((*byte)(ptr), length)
}
