package hashindex

import "github.com/tuannm99/corepage/internal/bx"

const (
	bucketOffSize    = 0
	bucketOffMaxSize = 4
	bucketOffEntries = 8
)

// BucketPage is a leaf: a flat, unsorted array of unique (key, value)
// pairs. Grounded on
// storage/page/extendible_htable_bucket_page.cpp, generalized from its
// C++ template parameters to Go generics plus a Codec[T] pair standing
// in for the on-page (de)serialization the template specializations did
// implicitly via struct layout.
type BucketPage[K, V any] struct {
	buf    []byte
	kc     Codec[K]
	vc     Codec[V]
	stride int
}

// NewBucketPage wraps a raw page buffer as a BucketPage view using the
// given key/value codecs.
func NewBucketPage[K, V any](buf []byte, kc Codec[K], vc Codec[V]) *BucketPage[K, V] {
	return &BucketPage[K, V]{buf: buf, kc: kc, vc: vc, stride: kc.Size() + vc.Size()}
}

// MaxBucketSize returns how many (key, value) entries of this codec pair
// fit in one page, capped by configuration.
func MaxBucketSize[K, V any](kc Codec[K], vc Codec[V], configuredCap int) int {
	fit := (4096 - bucketOffEntries) / (kc.Size() + vc.Size())
	if configuredCap > 0 && configuredCap < fit {
		return configuredCap
	}
	return fit
}

func (b *BucketPage[K, V]) Init(maxSize uint32) {
	bx.PutU32At(b.buf, bucketOffSize, 0)
	bx.PutU32At(b.buf, bucketOffMaxSize, maxSize)
}

func (b *BucketPage[K, V]) Size() uint32    { return bx.U32At(b.buf, bucketOffSize) }
func (b *BucketPage[K, V]) MaxSize() uint32 { return bx.U32At(b.buf, bucketOffMaxSize) }
func (b *BucketPage[K, V]) IsFull() bool    { return b.Size() == b.MaxSize() }
func (b *BucketPage[K, V]) IsEmpty() bool   { return b.Size() == 0 }

func (b *BucketPage[K, V]) entryOffset(i uint32) int {
	return bucketOffEntries + int(i)*b.stride
}

func (b *BucketPage[K, V]) KeyAt(i uint32) K {
	off := b.entryOffset(i)
	return b.kc.Decode(b.buf[off : off+b.kc.Size()])
}

func (b *BucketPage[K, V]) ValueAt(i uint32) V {
	off := b.entryOffset(i) + b.kc.Size()
	return b.vc.Decode(b.buf[off : off+b.vc.Size()])
}

func (b *BucketPage[K, V]) setEntry(i uint32, key K, value V) {
	off := b.entryOffset(i)
	b.kc.Encode(key, b.buf[off:off+b.kc.Size()])
	b.vc.Encode(value, b.buf[off+b.kc.Size():off+b.stride])
}

// Lookup linear-scans the bucket for key using cmp.
func (b *BucketPage[K, V]) Lookup(key K, cmp Comparator[K]) (V, bool) {
	var zero V
	n := b.Size()
	for i := uint32(0); i < n; i++ {
		if cmp.Compare(key, b.KeyAt(i)) == 0 {
			return b.ValueAt(i), true
		}
	}
	return zero, false
}

// Insert appends (key, value) if the bucket has room and key is not
// already present.
func (b *BucketPage[K, V]) Insert(key K, value V, cmp Comparator[K]) bool {
	if b.IsFull() {
		return false
	}
	if _, ok := b.Lookup(key, cmp); ok {
		return false
	}
	n := b.Size()
	b.setEntry(n, key, value)
	bx.PutU32At(b.buf, bucketOffSize, n+1)
	return true
}

// Remove deletes key by swapping in the last entry, per the source's
// swap-and-shrink strategy (bucket order is not meaningful).
func (b *BucketPage[K, V]) Remove(key K, cmp Comparator[K]) bool {
	n := b.Size()
	for i := uint32(0); i < n; i++ {
		if cmp.Compare(key, b.KeyAt(i)) == 0 {
			b.RemoveAt(i)
			return true
		}
	}
	return false
}

// RemoveAt deletes the entry at index i by overwriting it with the last
// live entry and shrinking the size.
func (b *BucketPage[K, V]) RemoveAt(i uint32) {
	n := b.Size()
	last := n - 1
	if i != last {
		b.setEntry(i, b.KeyAt(last), b.ValueAt(last))
	}
	bx.PutU32At(b.buf, bucketOffSize, last)
}
