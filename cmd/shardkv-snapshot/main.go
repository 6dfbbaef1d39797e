package main

// cmd/shardkv-snapshot builds a scratch store from a uint64 key dataset,
// then reports its structural state: a per-shard table to stdout and,
// optionally, a point-in-time Badger export for offline inspection. The
// dataset can come from a newline-delimited file (-keys) or be generated
// on the fly (-gen), optionally following a Zipf distribution to reproduce
// hot-key / skewed-access patterns against a handful of shards instead of
// a uniform spread.
//
// Unlike the remote-scraping inspector this replaces, it is linked directly
// against a *shardkv.Store — see pkg/shardkv/snapshot, which is the
// importable half of this tool and is equally usable from inside a running
// service.
//
// Run:
//   go run ./cmd/shardkv-snapshot -gen 100000 -dist zipf -badger-out ./snap
//   go run ./cmd/shardkv-snapshot -keys keys.txt -badger-out ./snap
//
// © 2025 shardkv authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
	"unsafe"

	shardkv "github.com/Voskan/shardkv/pkg/shardkv"
	"github.com/Voskan/shardkv/pkg/shardkv/snapshot"
)

func main() {
	var (
		keysPath  = flag.String("keys", "", "newline-delimited uint64 key dataset; mutually exclusive with -gen")
		genCount  = flag.Int("gen", 0, "generate this many synthetic keys instead of reading -keys")
		genDist   = flag.String("dist", "uniform", "synthetic key distribution when using -gen: uniform or zipf")
		zipfS     = flag.Float64("zipfs", 1.2, "zipf s parameter (>1), used when -dist=zipf")
		zipfV     = flag.Float64("zipfv", 1.0, "zipf v parameter (>0), used when -dist=zipf")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed for -gen")
		badgerOut = flag.String("badger-out", "", "if set, export a Badger snapshot to this directory")
		shards    = flag.Int("shards", 16, "shard count for the scratch store")
	)
	flag.Parse()

	var (
		keys []uint64
		err  error
	)
	switch {
	case *keysPath != "" && *genCount > 0:
		fmt.Fprintln(os.Stderr, "shardkv-snapshot: -keys and -gen are mutually exclusive")
		os.Exit(1)
	case *genCount > 0:
		keys, err = generateKeys(*genCount, *genDist, *zipfS, *zipfV, *seed)
	case *keysPath != "":
		keys, err = readKeys(*keysPath)
	default:
		fmt.Fprintln(os.Stderr, "usage: shardkv-snapshot (-keys <file> | -gen <n>) [-badger-out <dir>]")
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}

	st := shardkv.New(&shardkv.Profile{Size: len(keys) + 1, Shards: *shards, LoadFactor: 80})
	for _, k := range keys {
		if err := st.Set(k, keyPtr(k)); err != nil {
			fatal(fmt.Errorf("set %d: %w", k, err))
		}
	}

	if err := snapshot.WriteTable(os.Stdout, st.Snapshot()); err != nil {
		fatal(err)
	}

	if *badgerOut != "" {
		err := snapshot.ExportBadger(*badgerOut, st, func(v unsafe.Pointer) []byte {
			return []byte(strconv.FormatUint(*(*uint64)(v), 10))
		})
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stdout, "badger snapshot written to %s\n", *badgerOut)
	}
}

// generateKeys produces count synthetic uint64 keys without touching disk.
// A zipf distribution concentrates keys on a small hot set, useful for
// exercising auto-rehash and lock contention on a handful of shards rather
// than the even spread a uniform key space gives you.
func generateKeys(count int, dist string, zipfS, zipfV float64, seed int64) ([]uint64, error) {
	rng := rand.New(rand.NewSource(seed))

	var gen func() uint64
	switch dist {
	case "uniform":
		gen = rng.Uint64
	case "zipf":
		if zipfS <= 1.0 || zipfV <= 0 {
			return nil, fmt.Errorf("generateKeys: zipfs must be >1 and zipfv >0")
		}
		gen = rand.NewZipf(rng, zipfS, zipfV, ^uint64(0)).Uint64
	default:
		return nil, fmt.Errorf("generateKeys: unknown distribution %q", dist)
	}

	keys := make([]uint64, count)
	for i := range keys {
		keys[i] = gen()
	}
	return keys, nil
}

func readKeys(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []uint64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		k, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse key %q: %w", line, err)
		}
		keys = append(keys, k)
	}
	return keys, sc.Err()
}

// keyPtr stores the key itself as its value, since this tool cares only
// about structural shape, not caller-supplied payloads.
func keyPtr(k uint64) unsafe.Pointer {
	v := k
	return unsafe.Pointer(&v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "shardkv-snapshot:", err)
	os.Exit(1)
}
