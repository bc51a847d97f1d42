package diskio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskManager_WriteReadRoundTrip(t *testing.T) {
	dm, err := New(t.TempDir(), "data")
	require.NoError(t, err)
	defer dm.Close()

	buf := make([]byte, PageSize)
	buf[0] = 0xAB
	buf[PageSize-1] = 0xCD
	require.NoError(t, dm.WritePage(3, buf))

	out := make([]byte, PageSize)
	require.NoError(t, dm.ReadPage(3, out))
	require.Equal(t, buf, out)
}

func TestDiskManager_ReadUnwrittenPageIsZeroed(t *testing.T) {
	dm, err := New(t.TempDir(), "data")
	require.NoError(t, err)
	defer dm.Close()

	out := make([]byte, PageSize)
	for i := range out {
		out[i] = 0xFF
	}
	require.NoError(t, dm.ReadPage(7, out))

	for _, b := range out {
		require.Equal(t, byte(0), b)
	}
}

func TestDiskManager_RejectsWrongSizedBuffers(t *testing.T) {
	dm, err := New(t.TempDir(), "data")
	require.NoError(t, err)
	defer dm.Close()

	require.Error(t, dm.WritePage(0, make([]byte, 10)))
	require.Error(t, dm.ReadPage(0, make([]byte, 10)))
}

func TestDiskManager_CrossesSegmentBoundary(t *testing.T) {
	dm, err := New(t.TempDir(), "data")
	require.NoError(t, err)
	defer dm.Close()

	// Page id chosen to fall in the second segment.
	pid := int32(pagesPerSegment + 5)
	buf := make([]byte, PageSize)
	buf[0] = 42
	require.NoError(t, dm.WritePage(pid, buf))

	out := make([]byte, PageSize)
	require.NoError(t, dm.ReadPage(pid, out))
	require.Equal(t, byte(42), out[0])
}
