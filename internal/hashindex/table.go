// Package hashindex implements the on-disk extendible hash table: a
// three-level index (header -> directory -> bucket) built entirely on
// top of buffer pool page guards. Grounded on
// container/disk/hash/disk_extendible_hash_table.cpp.
package hashindex

import (
	"github.com/tuannm99/corepage/internal/bufferpool"
)

// Config fixes the shape of one hash table instance.
type Config struct {
	HeaderMaxDepth    uint32
	DirectoryMaxDepth uint32
	// BucketMaxSize caps entries per bucket; 0 means "as many as fit in
	// one page for this codec pair."
	BucketMaxSize int
}

// ExtendibleHashTable is a disk-resident hash index over keys of type K
// mapping to values of type V, both fixed-width via their Codec.
type ExtendibleHashTable[K, V any] struct {
	bpm    *bufferpool.BufferPoolManager
	cmp    Comparator[K]
	hasher Hasher[K]
	kc     Codec[K]
	vc     Codec[V]

	directoryMaxDepth uint32
	bucketMaxSize     uint32

	headerPageID int32
}

// New allocates a fresh header page and returns a ready-to-use table.
func New[K, V any](
	bpm *bufferpool.BufferPoolManager,
	kc Codec[K], vc Codec[V],
	cmp Comparator[K], hasher Hasher[K],
	cfg Config,
) (*ExtendibleHashTable[K, V], error) {
	bucketMaxSize := uint32(MaxBucketSize(kc, vc, cfg.BucketMaxSize))

	g, headerPID, err := bpm.NewPageGuarded()
	if err != nil {
		return nil, err
	}
	wg := g.UpgradeWrite()
	hp := NewHeaderPage(wg.DataMut())
	hp.Init(cfg.HeaderMaxDepth)
	wg.Drop()

	return &ExtendibleHashTable[K, V]{
		bpm:               bpm,
		cmp:               cmp,
		hasher:            hasher,
		kc:                kc,
		vc:                vc,
		directoryMaxDepth: cfg.DirectoryMaxDepth,
		bucketMaxSize:     bucketMaxSize,
		headerPageID:      headerPID,
	}, nil
}

// HeaderPageID returns the page holding this table's header, for
// diagnostics and tests.
func (t *ExtendibleHashTable[K, V]) HeaderPageID() int32 { return t.headerPageID }

// GetValue returns the value stored for key, if any.
func (t *ExtendibleHashTable[K, V]) GetValue(key K) (V, bool, error) {
	var zero V
	h := t.hasher.Hash(key)

	hg, err := t.bpm.FetchPageRead(t.headerPageID)
	if err != nil {
		return zero, false, err
	}
	hp := NewHeaderPage(hg.Data())
	dirIdx := hp.HashToDirectoryIndex(h)
	if !hp.IsInit(dirIdx) {
		hg.Drop()
		return zero, false, nil
	}
	dirPID := hp.GetDirectoryPageID(dirIdx)
	hg.Drop()

	dg, err := t.bpm.FetchPageRead(dirPID)
	if err != nil {
		return zero, false, err
	}
	dp := NewDirectoryPage(dg.Data())
	bucketIdx := dp.HashToBucketIndex(h)
	bucketPID := dp.GetBucketPageID(bucketIdx)
	dg.Drop()
	if bucketPID == InvalidPageID {
		return zero, false, nil
	}

	bg, err := t.bpm.FetchPageRead(bucketPID)
	if err != nil {
		return zero, false, err
	}
	defer bg.Drop()
	bp := NewBucketPage[K, V](bg.Data(), t.kc, t.vc)
	v, ok := bp.Lookup(key, t.cmp)
	return v, ok, nil
}

func (t *ExtendibleHashTable[K, V]) fetchOrCreateBucket(dp *DirectoryPage, bucketIdx uint32) (*bufferpool.WritePageGuard, error) {
	if dp.GetBucketPageID(bucketIdx) != InvalidPageID {
		return t.bpm.FetchPageWrite(dp.GetBucketPageID(bucketIdx))
	}
	g, pid, err := t.bpm.NewPageGuarded()
	if err != nil {
		return nil, err
	}
	wg := g.UpgradeWrite()
	bp := NewBucketPage[K, V](wg.DataMut(), t.kc, t.vc)
	bp.Init(t.bucketMaxSize)
	dp.SetBucketPageID(bucketIdx, pid)
	return wg, nil
}

// updateDirectoryMapping installs oldBucketPageID and newBucketPageID at
// every directory slot whose low newLocalDepth bits match bucketIdx or
// splitImage respectively, and bumps each such slot's local depth. This
// replaces the source's NotImplementedException stub: correct
// extendible-hash semantics require fanning out to every aliasing slot,
// not just bucketIdx and splitImage themselves, whenever local depth was
// below global depth before the split.
func (t *ExtendibleHashTable[K, V]) updateDirectoryMapping(
	dp *DirectoryPage,
	bucketIdx, splitImage uint32,
	oldBucketPageID, newBucketPageID int32,
	newLocalDepth uint32,
) {
	mask := (uint32(1) << newLocalDepth) - 1
	oldPattern := bucketIdx & mask
	newPattern := splitImage & mask
	for i := uint32(0); i < dp.Size(); i++ {
		switch i & mask {
		case oldPattern:
			dp.SetBucketPageID(i, oldBucketPageID)
			dp.SetLocalDepth(i, newLocalDepth)
		case newPattern:
			dp.SetBucketPageID(i, newBucketPageID)
			dp.SetLocalDepth(i, newLocalDepth)
		}
	}
}

// Insert adds (key, value), splitting buckets and growing the directory
// as needed. It returns false if key already exists or if the directory
// has hit directory_max_depth and cannot grow further.
func (t *ExtendibleHashTable[K, V]) Insert(key K, value V) (bool, error) {
	h := t.hasher.Hash(key)

	hg, err := t.bpm.FetchPageWrite(t.headerPageID)
	if err != nil {
		return false, err
	}
	defer hg.Drop()
	hp := NewHeaderPage(hg.DataMut())
	dirIdx := hp.HashToDirectoryIndex(h)

	var dirPID int32
	var dg *bufferpool.WritePageGuard
	if !hp.IsInit(dirIdx) {
		g, pid, err := t.bpm.NewPageGuarded()
		if err != nil {
			return false, err
		}
		dg = g.UpgradeWrite()
		dirPID = pid
		dp := NewDirectoryPage(dg.DataMut())
		dp.Init(t.directoryMaxDepth)
		hp.SetDirectoryPageID(dirIdx, dirPID)
	} else {
		dirPID = hp.GetDirectoryPageID(dirIdx)
		dg, err = t.bpm.FetchPageWrite(dirPID)
		if err != nil {
			return false, err
		}
	}
	defer dg.Drop()
	dp := NewDirectoryPage(dg.DataMut())

	bucketIdx := dp.HashToBucketIndex(h)
	bg, err := t.fetchOrCreateBucket(dp, bucketIdx)
	if err != nil {
		return false, err
	}
	bp := NewBucketPage[K, V](bg.DataMut(), t.kc, t.vc)

	if _, exists := bp.Lookup(key, t.cmp); exists {
		bg.Drop()
		return false, nil
	}

	for bp.IsFull() {
		if dp.GetLocalDepth(bucketIdx) == dp.GetGlobalDepth() {
			if dp.GetGlobalDepth() >= t.directoryMaxDepth {
				bg.Drop()
				return false, nil
			}
			dp.IncrGlobalDepth()
		}

		bucketIdx = dp.HashToBucketIndex(h)
		localDepth := dp.GetLocalDepth(bucketIdx)
		newLocalDepth := localDepth + 1
		splitImage := bucketIdx ^ (uint32(1) << localDepth)

		ng, newBucketPID, err := t.bpm.NewPageGuarded()
		if err != nil {
			bg.Drop()
			return false, err
		}
		nwg := ng.UpgradeWrite()
		newBP := NewBucketPage[K, V](nwg.DataMut(), t.kc, t.vc)
		newBP.Init(t.bucketMaxSize)

		newLocalMask := (uint32(1) << newLocalDepth) - 1
		splitPattern := splitImage & newLocalMask
		i := uint32(0)
		for i < bp.Size() {
			entryKey := bp.KeyAt(i)
			if t.hasher.Hash(entryKey)&newLocalMask == splitPattern {
				newBP.Insert(entryKey, bp.ValueAt(i), t.cmp)
				bp.RemoveAt(i)
				continue
			}
			i++
		}

		t.updateDirectoryMapping(dp, bucketIdx, splitImage, bg.PageID(), newBucketPID, newLocalDepth)
		nwg.Drop()

		bucketIdx = dp.HashToBucketIndex(h)
		if resolved := dp.GetBucketPageID(bucketIdx); resolved != bg.PageID() {
			bg.Drop()
			bg, err = t.bpm.FetchPageWrite(resolved)
			if err != nil {
				return false, err
			}
		}
		bp = NewBucketPage[K, V](bg.DataMut(), t.kc, t.vc)
	}

	bp.Insert(key, value, t.cmp)
	bg.Drop()
	return true, nil
}

// Remove deletes key, then recursively merges the emptied bucket with
// its split image and shrinks the directory while possible.
func (t *ExtendibleHashTable[K, V]) Remove(key K) (bool, error) {
	h := t.hasher.Hash(key)

	hg, err := t.bpm.FetchPageWrite(t.headerPageID)
	if err != nil {
		return false, err
	}
	defer hg.Drop()
	hp := NewHeaderPage(hg.DataMut())
	dirIdx := hp.HashToDirectoryIndex(h)
	if !hp.IsInit(dirIdx) {
		return false, nil
	}

	dg, err := t.bpm.FetchPageWrite(hp.GetDirectoryPageID(dirIdx))
	if err != nil {
		return false, err
	}
	defer dg.Drop()
	dp := NewDirectoryPage(dg.DataMut())

	bucketIdx := dp.HashToBucketIndex(h)
	bucketPID := dp.GetBucketPageID(bucketIdx)
	if bucketPID == InvalidPageID {
		return false, nil
	}
	bg, err := t.bpm.FetchPageWrite(bucketPID)
	if err != nil {
		return false, err
	}
	bp := NewBucketPage[K, V](bg.DataMut(), t.kc, t.vc)
	removed := bp.Remove(key, t.cmp)

	for bp.IsEmpty() && dp.GetGlobalDepth() > 0 {
		localDepth := dp.GetLocalDepth(bucketIdx)
		if localDepth == 0 {
			break
		}
		splitImageIdx := bucketIdx ^ (uint32(1) << (localDepth - 1))
		splitImagePID := dp.GetBucketPageID(splitImageIdx)
		if splitImagePID == InvalidPageID {
			break
		}

		sg, err := t.bpm.FetchPageWrite(splitImagePID)
		if err != nil {
			bg.Drop()
			return removed, err
		}
		sbp := NewBucketPage[K, V](sg.DataMut(), t.kc, t.vc)

		if !sbp.IsEmpty() || localDepth != dp.GetLocalDepth(splitImageIdx) {
			sg.Drop()
			break
		}

		// Every slot aliasing either half now points at bucketPID, one
		// local depth shallower.
		mergedMask := (uint32(1) << (localDepth - 1)) - 1
		for i := uint32(0); i < dp.Size(); i++ {
			if i&mergedMask == bucketIdx&mergedMask {
				dp.SetBucketPageID(i, bucketPID)
				dp.SetLocalDepth(i, localDepth-1)
			}
		}
		for dp.CanShrink() {
			dp.DecrGlobalDepth()
		}
		bg.Drop()
		sg.Drop()

		bucketIdx = dp.HashToBucketIndex(h)
		bucketPID = dp.GetBucketPageID(bucketIdx)
		bg, err = t.bpm.FetchPageWrite(bucketPID)
		if err != nil {
			return removed, err
		}
		bp = NewBucketPage[K, V](bg.DataMut(), t.kc, t.vc)
	}

	bg.Drop()
	return removed, nil
}
