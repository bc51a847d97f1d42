package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evictAll(t *testing.T, r *LRUKReplacer, want ...int) {
	t.Helper()
	for _, w := range want {
		got, ok := r.Evict()
		require.True(t, ok)
		require.Equal(t, w, got)
	}
}

// Replacer 3/2: record(1,2,3); make all evictable; evict in insertion
// order since none of them has reached K=2 accesses (all +inf, tie
// broken by oldest timestamp).
func TestLRUK_ThreeFramesTwoAccesses(t *testing.T) {
	r := New(8, 2)

	r.RecordAccess(1)
	r.RecordAccess(2)
	r.RecordAccess(3)
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true)

	evictAll(t, r, 1, 2, 3)

	_, ok := r.Evict()
	require.False(t, ok)
}

// Mirrors spec.md §8 scenario 2 (the canonical CMU 15-445 LRU-K trace).
func TestLRUK_MixedTrace(t *testing.T) {
	r := New(8, 2)

	for _, f := range []int{1, 2, 3, 4, 5, 6} {
		r.RecordAccess(f)
	}
	for _, f := range []int{1, 2, 3, 4, 5} {
		r.SetEvictable(f, true)
	}
	r.SetEvictable(6, false)
	require.Equal(t, 5, r.Size())

	r.RecordAccess(1)

	// 1 now has 2 accesses (finite k-distance); 2,3,4,5 still have just
	// one each (+inf), tie-broken by oldest timestamp: 2 < 3 < 4.
	evictAll(t, r, 2, 3, 4)
	require.Equal(t, 2, r.Size())

	// 3 and 4 are re-touched (fresh nodes after eviction); 5 gets a
	// second access, reaching a finite k-distance.
	r.RecordAccess(3)
	r.RecordAccess(4)
	r.RecordAccess(5)
	r.RecordAccess(4)
	r.SetEvictable(3, true)
	r.SetEvictable(4, true)
	// 3 has only 1 access since its node was recreated -> +inf, wins.
	evictAll(t, r, 3)

	r.SetEvictable(6, true)
	// 6 has only 1 access ever -> +inf, wins over 1/4/5's finite distances.
	evictAll(t, r, 6)

	r.SetEvictable(1, false)
	// Between 4 and 5 (both finite), 5's oldest access is further back.
	evictAll(t, r, 5)

	// Two fresh accesses on 1 give it a small, recent k-distance, so 4
	// (whose window has aged further) is evicted first.
	r.RecordAccess(1)
	r.RecordAccess(1)
	r.SetEvictable(1, true)
	evictAll(t, r, 4)
	evictAll(t, r, 1)

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestLRUK_RemoveNonEvictablePanics(t *testing.T) {
	r := New(8, 2)
	r.RecordAccess(1)

	require.Panics(t, func() {
		r.Remove(1)
	})
}

func TestLRUK_RemoveUnknownFramePanics(t *testing.T) {
	r := New(8, 2)
	require.Panics(t, func() {
		r.Remove(5)
	})
}

func TestLRUK_RemoveEvictableShrinksSize(t *testing.T) {
	r := New(8, 2)
	r.RecordAccess(1)
	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.Remove(1)
	require.Equal(t, 0, r.Size())

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestLRUK_InvalidFrameIDPanics(t *testing.T) {
	r := New(4, 2)
	require.Panics(t, func() { r.RecordAccess(-1) })
	require.Panics(t, func() { r.RecordAccess(4) })
	require.Panics(t, func() { r.SetEvictable(10, true) })
}
