package bufferpool

import "github.com/tuannm99/corepage/internal/frame"

// BasicPageGuard bounds a pinned frame's lifetime without holding any
// per-frame latch. Ported from BusTub's storage/page/page_guard.cpp:
// C++ relies on move-only semantics and a destructor to guarantee Drop
// runs exactly once; Go has neither, so the guard instead tracks a
// dropped flag and makes Drop idempotent. Callers are expected to
// `defer guard.Drop()` immediately after acquiring one.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	f       *frame.Frame
	dirty   bool
	dropped bool
}

func newBasicGuard(bpm *BufferPoolManager, f *frame.Frame) *BasicPageGuard {
	return &BasicPageGuard{bpm: bpm, f: f}
}

// PageID returns the id of the page this guard holds pinned.
func (g *BasicPageGuard) PageID() int32 { return g.f.PageID() }

// Data returns a read-only view of the page's bytes.
func (g *BasicPageGuard) Data() []byte { return g.f.Data() }

// DataMut returns a mutable view of the page's bytes and marks the page
// dirty: any write through the returned slice must be reflected on the
// eventual Unpin.
func (g *BasicPageGuard) DataMut() []byte {
	g.dirty = true
	return g.f.DataMut()
}

// MarkDirty records that the page has been modified without going
// through DataMut (for example, via a typed overlay that wraps Data()).
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// Drop unpins the page, propagating the dirty bit accumulated since
// acquisition. It is safe to call more than once; only the first call
// has any effect.
func (g *BasicPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.bpm.UnpinPage(g.f.PageID(), g.dirty)
}

// UpgradeRead consumes the basic guard and returns a ReadPageGuard over
// the same pinned frame, now protected by its reader latch. The basic
// guard must not be used again.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	f, dirty := g.f, g.dirty
	g.dropped = true
	f.RLatch()
	return &ReadPageGuard{basic: BasicPageGuard{bpm: g.bpm, f: f, dirty: dirty}}
}

// UpgradeWrite consumes the basic guard and returns a WritePageGuard
// over the same pinned frame, now protected by its writer latch. The
// basic guard must not be used again.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	f, dirty := g.f, g.dirty
	g.dropped = true
	f.WLatch()
	return &WritePageGuard{basic: BasicPageGuard{bpm: g.bpm, f: f, dirty: dirty}}
}

// ReadPageGuard additionally holds the frame's reader latch, acquired
// outside the BPM's own mutex by the factory that built it.
type ReadPageGuard struct {
	basic BasicPageGuard
}

func (g *ReadPageGuard) PageID() int32 { return g.basic.PageID() }
func (g *ReadPageGuard) Data() []byte  { return g.basic.Data() }

// Drop releases the reader latch, then unpins the page.
func (g *ReadPageGuard) Drop() {
	if g.basic.dropped {
		return
	}
	g.basic.f.RUnlatch()
	g.basic.Drop()
}

// WritePageGuard additionally holds the frame's writer latch, acquired
// outside the BPM's own mutex by the factory that built it.
type WritePageGuard struct {
	basic BasicPageGuard
}

func (g *WritePageGuard) PageID() int32   { return g.basic.PageID() }
func (g *WritePageGuard) Data() []byte    { return g.basic.Data() }
func (g *WritePageGuard) DataMut() []byte { return g.basic.DataMut() }

// Drop releases the writer latch, then unpins the page, propagating
// whatever dirty state DataMut calls accumulated.
func (g *WritePageGuard) Drop() {
	if g.basic.dropped {
		return
	}
	g.basic.f.WUnlatch()
	g.basic.Drop()
}

// NewPageGuarded allocates a fresh page and returns it wrapped in a
// BasicPageGuard.
func (b *BufferPoolManager) NewPageGuarded() (*BasicPageGuard, int32, error) {
	f, pid, err := b.NewPage()
	if err != nil {
		return nil, frame.InvalidPageID, err
	}
	return newBasicGuard(b, f), pid, nil
}

// FetchPageBasic fetches pid and returns it wrapped in a BasicPageGuard.
func (b *BufferPoolManager) FetchPageBasic(pid int32) (*BasicPageGuard, error) {
	f, err := b.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	return newBasicGuard(b, f), nil
}

// FetchPageRead fetches pid, pins it, and acquires its reader latch. The
// latch is taken outside the BPM mutex (which FetchPage has already
// released by the time this runs) to avoid a latching-order inversion
// between the pool-wide lock and per-frame latches.
func (b *BufferPoolManager) FetchPageRead(pid int32) (*ReadPageGuard, error) {
	f, err := b.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	f.RLatch()
	return &ReadPageGuard{basic: BasicPageGuard{bpm: b, f: f}}, nil
}

// FetchPageWrite fetches pid, pins it, and acquires its writer latch,
// outside the BPM mutex for the same reason as FetchPageRead.
func (b *BufferPoolManager) FetchPageWrite(pid int32) (*WritePageGuard, error) {
	f, err := b.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	f.WLatch()
	return &WritePageGuard{basic: BasicPageGuard{bpm: b, f: f}}, nil
}
