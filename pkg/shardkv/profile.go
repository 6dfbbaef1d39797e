package shardkv

// profile.go defines Profile, the construct-time-only configuration object,
// and the sanitizer applied exactly once against a copy of the caller's
// profile when a Store is created. Defaults live in one place, sanitization
// rules are deterministic and idempotent, and the caller never hands a live
// pointer into the store that could be mutated later out from under it.
//
// © 2025 shardkv authors. MIT License.

const (
	defaultSize       = 10
	defaultShards     = 2
	defaultLoadFactor = 80
)

// Profile carries the construction-time knobs for a Store: the initial and
// minimum total capacity across all shards, the shard count, and the load
// factor (as a percentage) that drives grow/shrink thresholds.
type Profile struct {
	// Size is the initial (and minimum) total bucket capacity across every
	// shard. It is rounded up, if necessary, so it divides evenly by Shards.
	Size int

	// Shards is the number of independent shards the store is split into.
	// It is fixed for the lifetime of the Store.
	Shards int

	// LoadFactor is the percentage of a shard's bucket-array length above
	// which that shard grows. Non-positive values fall back to the default.
	LoadFactor int
}

// DefaultProfile returns the profile used when New is called with a nil
// Profile: ten total buckets split across two shards at an 80% load factor.
func DefaultProfile() Profile {
	return Profile{Size: defaultSize, Shards: defaultShards, LoadFactor: defaultLoadFactor}
}

// sanitize clamps nonsense values and returns a standalone copy; it never
// mutates the caller's Profile. Rules, in order:
//
//  1. size <- max(size, 1)
//  2. shards <- max(shards, 1)
//  3. size <- max(size, shards)
//  4. if size mod shards != 0, round size up so it divides evenly
//  5. load_factor <- default (80) if non-positive
func sanitize(p *Profile) Profile {
	out := DefaultProfile()
	if p != nil {
		out = *p
	}

	if out.Size < 1 {
		out.Size = 1
	}
	if out.Shards < 1 {
		out.Shards = 1
	}
	if out.Size < out.Shards {
		out.Size = out.Shards
	}
	if rem := out.Size % out.Shards; rem != 0 {
		out.Size += out.Shards - rem
	}
	if out.LoadFactor <= 0 {
		out.LoadFactor = defaultLoadFactor
	}
	return out
}

// shardSize returns the initial bucket-array length each shard is
// constructed with: Size evenly divided across Shards.
func (p Profile) shardSize() int {
	return p.Size / p.Shards
}
