package hashindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBucket(maxSize uint32) *BucketPage[int64, int64] {
	buf := make([]byte, 4096)
	b := NewBucketPage[int64, int64](buf, Int64Codec{}, Int64Codec{})
	b.Init(maxSize)
	return b
}

func TestBucketPage_InsertLookupRemove(t *testing.T) {
	b := newTestBucket(4)
	cmp := Int64Comparator{}

	require.True(t, b.Insert(1, 100, cmp))
	require.True(t, b.Insert(2, 200, cmp))
	require.False(t, b.Insert(1, 999, cmp), "duplicate key rejected")

	v, ok := b.Lookup(2, cmp)
	require.True(t, ok)
	require.Equal(t, int64(200), v)

	require.True(t, b.Remove(1, cmp))
	_, ok = b.Lookup(1, cmp)
	require.False(t, ok)
	require.Equal(t, uint32(1), b.Size())
}

func TestBucketPage_IsFullAtMaxSize(t *testing.T) {
	b := newTestBucket(2)
	cmp := Int64Comparator{}

	require.True(t, b.Insert(1, 1, cmp))
	require.False(t, b.IsFull())
	require.True(t, b.Insert(2, 2, cmp))
	require.True(t, b.IsFull())
	require.False(t, b.Insert(3, 3, cmp), "insert into a full bucket fails")
}

func TestBucketPage_RemoveAtSwapsWithLast(t *testing.T) {
	b := newTestBucket(4)
	cmp := Int64Comparator{}
	b.Insert(1, 10, cmp)
	b.Insert(2, 20, cmp)
	b.Insert(3, 30, cmp)

	b.RemoveAt(0) // swaps index 0 with the last entry (key 3)

	require.Equal(t, uint32(2), b.Size())
	require.Equal(t, int64(3), b.KeyAt(0))
	require.Equal(t, int64(2), b.KeyAt(1))
}

func TestMaxBucketSize_RespectsConfiguredCap(t *testing.T) {
	kc, vc := Int64Codec{}, Int64Codec{}
	natural := MaxBucketSize(kc, vc, 0)
	require.Greater(t, natural, 2)
	require.Equal(t, 2, MaxBucketSize(kc, vc, 2))
}
