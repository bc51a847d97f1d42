package hashindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDirectory(maxDepth uint32) *DirectoryPage {
	buf := make([]byte, 4096)
	d := NewDirectoryPage(buf)
	d.Init(maxDepth)
	return d
}

func TestDirectoryPage_IncrGlobalDepthCopiesToSplitImages(t *testing.T) {
	d := newTestDirectory(4)
	d.SetBucketPageID(0, 7)
	d.SetLocalDepth(0, 0)

	d.IncrGlobalDepth()

	require.Equal(t, uint32(1), d.GetGlobalDepth())
	require.Equal(t, int32(7), d.GetBucketPageID(0))
	require.Equal(t, int32(7), d.GetBucketPageID(1))
}

func TestDirectoryPage_CanShrinkTracksLocalDepthGap(t *testing.T) {
	d := newTestDirectory(4)
	d.IncrGlobalDepth() // global depth 1, size 2
	d.SetLocalDepth(0, 1)
	d.SetLocalDepth(1, 1)
	require.False(t, d.CanShrink())

	d.SetLocalDepth(1, 0)
	require.False(t, d.CanShrink(), "slot 0 still at global depth")

	d.SetLocalDepth(0, 0)
	require.True(t, d.CanShrink())
}

func TestDirectoryPage_DecrGlobalDepthClearsFalloffSlots(t *testing.T) {
	d := newTestDirectory(4)
	d.IncrGlobalDepth()
	d.IncrGlobalDepth() // size 4
	for i := uint32(0); i < 4; i++ {
		d.SetBucketPageID(i, int32(i)+1)
	}

	d.DecrGlobalDepth() // size back to 2

	require.Equal(t, uint32(1), d.GetGlobalDepth())
	require.Equal(t, int32(1), d.GetBucketPageID(0))
	require.Equal(t, int32(2), d.GetBucketPageID(1))
	require.Equal(t, InvalidPageID, d.GetBucketPageID(2))
	require.Equal(t, InvalidPageID, d.GetBucketPageID(3))
}

func TestDirectoryPage_FanOutUpdatesEveryAliasingSlot(t *testing.T) {
	// global depth 2 (size 4), all slots aliasing bucket 0 at local depth 0.
	d := newTestDirectory(4)
	d.IncrGlobalDepth()
	d.IncrGlobalDepth()
	for i := uint32(0); i < 4; i++ {
		d.SetBucketPageID(i, 1)
		d.SetLocalDepth(i, 0)
	}

	tbl := &ExtendibleHashTable[int64, int64]{}
	// bucketIdx=0, splitImage=1, newLocalDepth=1: slots {0,2} keep the old
	// bucket, slots {1,3} get the new one -- not just index 1 alone.
	tbl.updateDirectoryMapping(d, 0, 1, 1, 2, 1)

	require.Equal(t, int32(1), d.GetBucketPageID(0))
	require.Equal(t, int32(2), d.GetBucketPageID(1))
	require.Equal(t, int32(1), d.GetBucketPageID(2))
	require.Equal(t, int32(2), d.GetBucketPageID(3))
	for i := uint32(0); i < 4; i++ {
		require.Equal(t, uint32(1), d.GetLocalDepth(i))
	}
}
