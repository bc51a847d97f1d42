// Package diskio implements the concrete DiskManager the disk scheduler
// drives: a page-addressable file backed by segments on the local
// filesystem. Adapted from the teacher's internal/storage/sm.go
// (LocalFileSet + per-segment os.File), with the page size changed to
// spec's 4096 bytes and the heap-tuple/slot machinery removed -- this
// module's pages are raw typed overlays (internal/hashindex), not
// slotted SQL tuple pages.
package diskio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tuannm99/corepage/internal/frame"
)

// PageSize mirrors frame.PageSize; DiskManager reads/writes exactly one
// page at a time.
const PageSize = frame.PageSize

// SegmentSize bounds how many pages live in a single backing file before
// a new segment is opened, keeping any one file well under common
// filesystem limits.
const SegmentSize = 1 << 30 // 1 GiB
const pagesPerSegment = SegmentSize / PageSize

// FileMode0644 is the permission new segment files are created with.
const FileMode0644 = 0o644

// DiskManager is the external collaborator spec.md treats as out of
// scope beyond its two-method contract; this is the concrete
// implementation the rest of the module runs against.
type DiskManager struct {
	dir  string
	base string

	mu       sync.Mutex
	segments map[int32]*os.File
}

// New creates a DiskManager rooted at dir, naming segment files
// "<base>", "<base>.1", "<base>.2", ...
func New(dir, base string) (*DiskManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diskio: create data dir: %w", err)
	}
	return &DiskManager{
		dir:      dir,
		base:     base,
		segments: make(map[int32]*os.File),
	}, nil
}

func (d *DiskManager) segmentPath(segNo int32) string {
	name := d.base
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", d.base, segNo)
	}
	return filepath.Join(d.dir, name)
}

func (d *DiskManager) openSegment(segNo int32) (*os.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f, ok := d.segments[segNo]; ok {
		return f, nil
	}
	f, err := os.OpenFile(d.segmentPath(segNo), os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("diskio: open segment %d: %w", segNo, err)
	}
	d.segments[segNo] = f
	return f, nil
}

func locate(pageID int32) (segNo int32, offset int64) {
	segNo = pageID / pagesPerSegment
	pageInSeg := pageID % pagesPerSegment
	return segNo, int64(pageInSeg) * PageSize
}

// ReadPage fills buf (exactly PageSize bytes) with the on-disk contents
// of pageID. Reading a page beyond the current end of file yields a
// zero-filled buffer, so pages are effectively lazily initialized.
func (d *DiskManager) ReadPage(pageID int32, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("diskio: read buffer must be %d bytes, got %d", PageSize, len(buf))
	}
	segNo, off := locate(pageID)
	f, err := d.openSegment(segNo)
	if err != nil {
		return err
	}

	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("diskio: read page %d: %w", pageID, err)
	}
	for i := n; i < PageSize; i++ {
		buf[i] = 0
	}
	return nil
}

// WritePage persists exactly PageSize bytes from buf at pageID's offset.
func (d *DiskManager) WritePage(pageID int32, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("diskio: write buffer must be %d bytes, got %d", PageSize, len(buf))
	}
	segNo, off := locate(pageID)
	f, err := d.openSegment(segNo)
	if err != nil {
		return err
	}

	n, err := f.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("diskio: write page %d: %w", pageID, err)
	}
	if n != PageSize {
		return fmt.Errorf("diskio: write page %d: %w", pageID, io.ErrShortWrite)
	}
	return nil
}

// Close releases all open segment file handles.
func (d *DiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for _, f := range d.segments {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.segments = make(map[int32]*os.File)
	return firstErr
}
