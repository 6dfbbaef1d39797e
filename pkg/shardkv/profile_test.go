package shardkv

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   *Profile
		want Profile
	}{
		{
			name: "nil profile uses defaults",
			in:   nil,
			want: Profile{Size: 10, Shards: 2, LoadFactor: 80},
		},
		{
			name: "all zero clamps to minimums",
			in:   &Profile{Size: 0, Shards: 0, LoadFactor: 0},
			want: Profile{Size: 1, Shards: 1, LoadFactor: 80},
		},
		{
			name: "size smaller than shards grows to shards",
			in:   &Profile{Size: 1, Shards: 4, LoadFactor: 80},
			want: Profile{Size: 4, Shards: 4, LoadFactor: 80},
		},
		{
			name: "size rounds up to divide evenly",
			in:   &Profile{Size: 10, Shards: 4, LoadFactor: 80},
			want: Profile{Size: 12, Shards: 4, LoadFactor: 80},
		},
		{
			name: "negative load factor falls back to default",
			in:   &Profile{Size: 16, Shards: 4, LoadFactor: -5},
			want: Profile{Size: 16, Shards: 4, LoadFactor: 80},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sanitize(tc.in)
			if got != tc.want {
				t.Errorf("sanitize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewDefaultProfileShardSize(t *testing.T) {
	st := New(nil)
	if got, want := len(st.shards), 2; got != want {
		t.Fatalf("shard count = %d, want %d", got, want)
	}
	for i, sh := range st.shards {
		if sh.size != 5 {
			t.Errorf("shard %d bucket count = %d, want 5", i, sh.size)
		}
	}
}
