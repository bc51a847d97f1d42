package hashindex

import "github.com/tuannm99/corepage/internal/bx"

// Codec fixes the on-page encoding of a key or value type to a constant
// width, standing in for the C++ template parameter lists BusTub uses
// (GenericKey<N>, RID, int). Go has no equivalent of a templated struct
// overlay, so bucket pages encode/decode through this interface instead
// of reinterpreting raw bytes.
type Codec[T any] interface {
	// Size is the fixed number of bytes T occupies on a page.
	Size() int
	Encode(v T, buf []byte)
	Decode(buf []byte) T
}

// Comparator gives keys a total order, matching the source's KeyComparator
// template parameter. Bucket lookups use it instead of relying on
// Go's == over arbitrary K.
type Comparator[K any] interface {
	Compare(a, b K) int
}

// Hasher produces the 32-bit digest the directory and header indices are
// computed from.
type Hasher[K any] interface {
	Hash(k K) uint32
}

// Int64Codec encodes a signed 64-bit integer key or value, little-endian.
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }
func (Int64Codec) Encode(v int64, buf []byte) {
	bx.PutU64(buf, uint64(v))
}
func (Int64Codec) Decode(buf []byte) int64 {
	return int64(bx.U64(buf))
}

// Uint32Codec encodes an unsigned 32-bit key or value, little-endian.
type Uint32Codec struct{}

func (Uint32Codec) Size() int                  { return 4 }
func (Uint32Codec) Encode(v uint32, buf []byte) { bx.PutU32(buf, v) }
func (Uint32Codec) Decode(buf []byte) uint32    { return bx.U32(buf) }

// FixedBytesCodec encodes a []byte key or value zero-padded (and
// truncated) to a fixed width N, for callers that want string-ish keys
// without pulling in a variable-length bucket layout.
type FixedBytesCodec struct {
	N int
}

func (c FixedBytesCodec) Size() int { return c.N }

func (c FixedBytesCodec) Encode(v []byte, buf []byte) {
	n := copy(buf[:c.N], v)
	for i := n; i < c.N; i++ {
		buf[i] = 0
	}
}

func (c FixedBytesCodec) Decode(buf []byte) []byte {
	out := make([]byte, c.N)
	copy(out, buf[:c.N])
	return out
}

// Int64Comparator orders int64 keys numerically.
type Int64Comparator struct{}

func (Int64Comparator) Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FixedBytesComparator orders []byte keys lexicographically.
type FixedBytesComparator struct{}

func (FixedBytesComparator) Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// CodecHasher adapts any Codec into a Hasher by encoding the key to its
// fixed-width byte form and running it through an underlying byte
// hasher (typically hash.XXHasher).
type CodecHasher[K any] struct {
	Codec Codec[K]
	H     interface{ Hash(key []byte) uint32 }
}

func (h CodecHasher[K]) Hash(k K) uint32 {
	buf := make([]byte, h.Codec.Size())
	h.Codec.Encode(k, buf)
	return h.H.Hash(buf)
}
