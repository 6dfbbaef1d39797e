package shardkv

import (
	"testing"
	"unsafe"
)

// ptrTo returns an unsafe.Pointer to a freshly allocated copy of v, so tests
// can exercise the opaque-reference contract the same way a caller would.
func ptrTo(v int) unsafe.Pointer {
	p := new(int)
	*p = v
	return unsafe.Pointer(p)
}

func deref(p unsafe.Pointer) int {
	return *(*int)(p)
}

func TestSetGetRoundTrip(t *testing.T) {
	st := New(nil)

	if err := st.Set(0, ptrTo(0)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, ok := st.Get(0)
	if !ok {
		t.Fatal("Get(0) not found")
	}
	if got := deref(h.Value()); got != 0 {
		t.Errorf("value = %d, want 0", got)
	}
	h.Unlock()
}

func TestSetDelGet(t *testing.T) {
	st := New(nil)

	if err := st.Set(5, ptrTo(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, ok := st.Get(5)
	if !ok {
		t.Fatal("Get(5) not found")
	}
	if got := deref(h.Value()); got != 7 {
		t.Errorf("value = %d, want 7", got)
	}
	if err := h.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := st.Get(5); ok {
		t.Error("Get(5) found after Delete, want not found")
	}
	if _, ok := st.GetRO(5); ok {
		t.Error("GetRO(5) found after Delete, want not found")
	}
}

func TestSetDelSetResurrects(t *testing.T) {
	st := New(nil)

	must(t, st.Set(9, ptrTo(1)))
	h, _ := st.Get(9)
	must(t, h.Delete())

	must(t, st.Set(9, ptrTo(2)))
	h2, ok := st.Get(9)
	if !ok {
		t.Fatal("Get(9) not found after resurrecting Set")
	}
	if got := deref(h2.Value()); got != 2 {
		t.Errorf("value = %d, want 2", got)
	}
	h2.Unlock()
}

func TestGetCopy(t *testing.T) {
	st := New(nil)
	must(t, st.Set(42, ptrTo(1234)))

	var dst [8]byte
	if err := st.GetCopy(42, dst[:unsafe.Sizeof(int(0))]); err != nil {
		t.Fatalf("GetCopy: %v", err)
	}

	var got int
	copy((*[unsafe.Sizeof(int(0))]byte)(unsafe.Pointer(&got))[:], dst[:unsafe.Sizeof(int(0))])
	if got != 1234 {
		t.Errorf("GetCopy round trip = %d, want 1234", got)
	}
}

func TestGetCopyNotFound(t *testing.T) {
	st := New(nil)
	var dst [8]byte
	if err := st.GetCopy(1, dst[:]); err != ErrNotFound {
		t.Errorf("GetCopy on missing key = %v, want ErrNotFound", err)
	}
}

func TestGetCopyInvalidLength(t *testing.T) {
	st := New(nil)
	must(t, st.Set(1, ptrTo(1)))
	if err := st.GetCopy(1, nil); err != ErrInvalidLength {
		t.Errorf("GetCopy with empty dst = %v, want ErrInvalidLength", err)
	}
}

func TestForeachAccumulation(t *testing.T) {
	st := New(nil)
	values := map[uint64]int{0: 7, 1: 3, 2: 4, 3: 5}
	for k, v := range values {
		must(t, st.Set(k, ptrTo(v)))
	}

	sum := func(acc int) int {
		total := acc
		st.ForEach(func(key uint64, value unsafe.Pointer) VisitDecision {
			total += deref(value)
			return VisitContinue
		})
		return total
	}

	if got := sum(12); got != 31 {
		t.Errorf("first pass accumulator = %d, want 31", got)
	}
	// Second, unmutated pass proves the first pass released every handle;
	// if it hadn't, this call would deadlock on a node lock.
	if got := sum(31); got != 50 {
		t.Errorf("second pass accumulator = %d, want 50", got)
	}
}

func TestForeachDelete(t *testing.T) {
	st := New(nil)
	for k := uint64(0); k < 4; k++ {
		must(t, st.Set(k, ptrTo(int(k))))
	}

	st.ForEach(func(key uint64, value unsafe.Pointer) VisitDecision {
		if key%2 == 0 {
			return VisitDelete
		}
		return VisitContinue
	})

	for k := uint64(0); k < 4; k++ {
		_, ok := st.Get(k)
		wantFound := k%2 != 0
		if ok != wantFound {
			t.Errorf("Get(%d) found=%v, want %v", k, ok, wantFound)
		}
	}
}

func TestForeachStop(t *testing.T) {
	st := New(&Profile{Size: 1, Shards: 1, LoadFactor: 80})
	for k := uint64(0); k < 10; k++ {
		must(t, st.Set(k, ptrTo(1)))
	}

	visited := 0
	st.ForEach(func(key uint64, value unsafe.Pointer) VisitDecision {
		visited++
		return VisitStop
	})
	if visited != 1 {
		t.Errorf("visited = %d, want 1", visited)
	}
}

func TestForeachROIgnoresDelete(t *testing.T) {
	st := New(nil)
	must(t, st.Set(1, ptrTo(1)))

	st.ForEachRO(func(key uint64, value unsafe.Pointer) VisitDecision {
		return VisitDelete
	})

	if _, ok := st.Get(1); !ok {
		t.Error("ForEachRO's VisitDelete must not delete; key 1 should still be live")
	}
}

func TestAutoGrow(t *testing.T) {
	st := New(&Profile{Size: 16, Shards: 4, LoadFactor: 80})
	// Keys 0, 4, 8, 12 all land in shard 0 (key % 4 == 0) and bucket 0
	// within a size-4 shard (key % 4 == 0), forcing collisions until grow.
	keys := []uint64{0, 4, 8, 12}
	for _, k := range keys {
		must(t, st.Set(k, ptrTo(int(k))))
	}

	sh := st.shards[0]
	if sh.size != 8 {
		t.Errorf("shard 0 size after 4th insert = %d, want 8 (grown from 4)", sh.size)
	}

	for _, k := range keys {
		var dst [8]byte
		if err := st.GetCopy(k, dst[:unsafe.Sizeof(int(0))]); err != nil {
			t.Fatalf("GetCopy(%d) after grow: %v", k, err)
		}
		var got int
		copy((*[unsafe.Sizeof(int(0))]byte)(unsafe.Pointer(&got))[:], dst[:unsafe.Sizeof(int(0))])
		if uint64(got) != k {
			t.Errorf("GetCopy(%d) = %d, want %d", k, got, k)
		}
	}
}

func TestHandleDoubleReleaseIsNoop(t *testing.T) {
	st := New(nil)
	must(t, st.Set(1, ptrTo(1)))
	h, _ := st.Get(1)
	h.Unlock()
	h.Unlock() // must not panic or double-unlock the underlying mutex

	if h.Value() != nil {
		t.Error("Value() after release should return nil")
	}
}

func TestGetROReadOnlyCannotDelete(t *testing.T) {
	st := New(nil)
	must(t, st.Set(1, ptrTo(1)))

	h, ok := st.GetRO(1)
	if !ok {
		t.Fatal("GetRO(1) not found")
	}
	if err := h.Delete(); err != ErrReadOnlyHandle {
		t.Errorf("Delete on read handle = %v, want ErrReadOnlyHandle", err)
	}
	h.Unlock()
}

func TestNilStoreIsSilent(t *testing.T) {
	var st *Store
	if err := st.Set(1, ptrTo(1)); err != nil {
		t.Errorf("Set on nil store = %v, want nil", err)
	}
	if _, ok := st.Get(1); ok {
		t.Error("Get on nil store should report not found")
	}
	st.ForEach(func(uint64, unsafe.Pointer) VisitDecision { return VisitContinue })
	st.Close(nil)
}

func TestSetNilValue(t *testing.T) {
	st := New(nil)
	if err := st.Set(1, nil); err != ErrNilValue {
		t.Errorf("Set with nil value = %v, want ErrNilValue", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
