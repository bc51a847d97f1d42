package hashindex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/corepage/internal/bufferpool"
	"github.com/tuannm99/corepage/internal/hash"
	"github.com/tuannm99/corepage/internal/scheduler"
)

type memDisk struct {
	mu    sync.Mutex
	pages map[int32][]byte
}

func newMemDisk() *memDisk { return &memDisk{pages: make(map[int32][]byte)} }

func (d *memDisk) ReadPage(pageID int32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if data, ok := d.pages[pageID]; ok {
		copy(buf, data)
	}
	return nil
}

func (d *memDisk) WritePage(pageID int32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	d.pages[pageID] = cp
	return nil
}

func newTestTable(t *testing.T, poolSize int, cfg Config) *ExtendibleHashTable[int64, int64] {
	t.Helper()
	sched := scheduler.New(newMemDisk())
	t.Cleanup(sched.Shutdown)
	bpm := bufferpool.New(poolSize, 2, sched)

	kc := Int64Codec{}
	hasher := CodecHasher[int64]{Codec: kc, H: hash.XXHasher{}}
	tbl, err := New[int64, int64](bpm, kc, Int64Codec{}, Int64Comparator{}, hasher, cfg)
	require.NoError(t, err)
	return tbl
}

func TestHashTable_GrowShrinkRoundTrip(t *testing.T) {
	tbl := newTestTable(t, 32, Config{
		HeaderMaxDepth:    1,
		DirectoryMaxDepth: 4,
		BucketMaxSize:     2,
	})

	for i := int64(0); i < 8; i++ {
		ok, err := tbl.Insert(i, i*10)
		require.NoError(t, err)
		require.True(t, ok, "insert %d", i)
	}

	for i := int64(0); i < 8; i++ {
		v, ok, err := tbl.GetValue(i)
		require.NoError(t, err)
		require.True(t, ok, "lookup %d", i)
		require.Equal(t, i*10, v)
	}

	for i := int64(0); i < 8; i++ {
		ok, err := tbl.Remove(i)
		require.NoError(t, err)
		require.True(t, ok, "remove %d", i)
	}

	for i := int64(0); i < 8; i++ {
		_, ok, err := tbl.GetValue(i)
		require.NoError(t, err)
		require.False(t, ok, "post-remove lookup %d", i)
	}
}

func TestHashTable_DuplicateInsertFails(t *testing.T) {
	tbl := newTestTable(t, 32, Config{
		HeaderMaxDepth:    1,
		DirectoryMaxDepth: 4,
		BucketMaxSize:     2,
	})

	ok, err := tbl.Insert(42, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tbl.Insert(42, 2)
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := tbl.GetValue(42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}

func TestHashTable_RemoveIsIdempotent(t *testing.T) {
	tbl := newTestTable(t, 32, Config{
		HeaderMaxDepth:    1,
		DirectoryMaxDepth: 4,
		BucketMaxSize:     2,
	})

	_, err := tbl.Insert(7, 70)
	require.NoError(t, err)

	ok, err := tbl.Remove(7)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tbl.Remove(7)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashTable_MissingKeyLookupMisses(t *testing.T) {
	tbl := newTestTable(t, 32, Config{
		HeaderMaxDepth:    1,
		DirectoryMaxDepth: 4,
		BucketMaxSize:     2,
	})

	_, ok, err := tbl.GetValue(999)
	require.NoError(t, err)
	require.False(t, ok)
}
