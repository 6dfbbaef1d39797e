// Package snapshot exports a store's structural state for offline
// inspection, either as a human-readable table or as a point-in-time
// key/value export into a Badger database. It is a library rather than a
// tool so it can be embedded directly in a process that holds the store as
// well as driven from the standalone cmd/shardkv-snapshot CLI.
//
// © 2025 shardkv authors. MIT License.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"text/tabwriter"
	"unsafe"

	badger "github.com/dgraph-io/badger/v4"

	shardkv "github.com/Voskan/shardkv/pkg/shardkv"
)

// WriteTable renders one row per shard: index, bucket size, live entries,
// and the grow/shrink thresholds that govern the next resize.
func WriteTable(w io.Writer, snaps []shardkv.ShardSnapshot) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "SHARD\tSIZE\tLIVE\tGROW_AT\tSHRINK_AT")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", s.Index, s.Size, s.Live, s.GrowAt, s.ShrinkAt)
	}
	return tw.Flush()
}

// ExportBadger walks st with ForEachRO under read locks and writes every
// live key/value pair into a fresh Badger database at path. encode converts
// a stored value into its on-disk byte representation; the caller owns the
// meaning of that encoding, the same way it owns the meaning of the
// unsafe.Pointer values it hands to Set.
//
// This is a point-in-time dump, not a live replication target: Badger never
// backs the store itself, matching shardkv's in-memory-only contract.
func ExportBadger(path string, st *shardkv.Store, encode func(unsafe.Pointer) []byte) error {
	bdb, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("snapshot: open badger at %s: %w", path, err)
	}
	defer bdb.Close()

	var keyBuf [8]byte
	return bdb.Update(func(txn *badger.Txn) error {
		var setErr error
		st.ForEachRO(func(key uint64, value unsafe.Pointer) shardkv.VisitDecision {
			binary.BigEndian.PutUint64(keyBuf[:], key)
			k := make([]byte, 8)
			copy(k, keyBuf[:])
			if err := txn.Set(k, encode(value)); err != nil {
				setErr = err
				return shardkv.VisitStop
			}
			return shardkv.VisitContinue
		})
		return setErr
	})
}
