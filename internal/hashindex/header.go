package hashindex

import (
	"github.com/tuannm99/corepage/internal/bx"
	"github.com/tuannm99/corepage/internal/frame"
)

// InvalidPageID marks an unset directory/bucket slot, reusing the same
// sentinel the buffer pool manager uses for an empty frame.
const InvalidPageID = frame.InvalidPageID

// HeaderMaxDirSlots bounds header_max_depth to 9, per spec.md §4.F: 2^9
// directory-id slots is the most that fits in one page alongside the
// max_depth field.
const HeaderMaxDirSlots = 512

const headerLayoutSize = 4 + HeaderMaxDirSlots*4

// HeaderPage is the root of the index: a fixed-size table of directory
// page ids, chosen by the top bits of the hash. Grounded on
// storage/page/extendible_htable_header_page.cpp.
type HeaderPage struct {
	buf []byte
}

// NewHeaderPage wraps a raw 4 KiB page buffer as a HeaderPage view. The
// buffer's lifetime is owned by the caller's page guard.
func NewHeaderPage(buf []byte) *HeaderPage {
	return &HeaderPage{buf: buf}
}

func (h *HeaderPage) MaxDepth() uint32 { return bx.U32At(h.buf, 0) }

// Init zeroes the header and sets its max_depth. All directory-id slots
// start unset (InvalidPageID).
func (h *HeaderPage) Init(maxDepth uint32) {
	bx.PutU32At(h.buf, 0, maxDepth)
	for i := 0; i < HeaderMaxDirSlots; i++ {
		bx.PutI32At(h.buf, 4+i*4, InvalidPageID)
	}
}

// HashToDirectoryIndex takes the top MaxDepth bits of a 32-bit hash.
func (h *HeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	shift := 32 - h.MaxDepth()
	if shift >= 32 {
		return 0
	}
	return hash >> shift
}

func (h *HeaderPage) IsInit(directoryIdx uint32) bool {
	return h.GetDirectoryPageID(directoryIdx) != InvalidPageID
}

func (h *HeaderPage) GetDirectoryPageID(directoryIdx uint32) int32 {
	return bx.I32At(h.buf, 4+int(directoryIdx)*4)
}

func (h *HeaderPage) SetDirectoryPageID(directoryIdx uint32, pageID int32) {
	bx.PutI32At(h.buf, 4+int(directoryIdx)*4, pageID)
}

// MaxSize returns 2^max_depth, the number of directory slots addressable
// by this header.
func (h *HeaderPage) MaxSize() uint32 { return 1 << h.MaxDepth() }
