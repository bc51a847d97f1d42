package hashindex

import "github.com/tuannm99/corepage/internal/bx"

// DirectoryMaxSlots bounds directory_max_depth to 9, matching
// HeaderMaxDirSlots -- see spec.md §4.F.
const DirectoryMaxSlots = 512

const (
	dirOffMaxDepth    = 0
	dirOffGlobalDepth = 4
	dirOffBucketIDs   = 8
	dirOffLocalDepths = dirOffBucketIDs + DirectoryMaxSlots*4
)

// DirectoryPage fans a hashed key out to one of up to 2^global_depth
// buckets. Grounded on
// storage/page/extendible_htable_directory_page.cpp.
type DirectoryPage struct {
	buf []byte
}

func NewDirectoryPage(buf []byte) *DirectoryPage {
	return &DirectoryPage{buf: buf}
}

func (d *DirectoryPage) MaxDepth() uint32    { return bx.U32At(d.buf, dirOffMaxDepth) }
func (d *DirectoryPage) GetGlobalDepth() uint32 { return bx.U32At(d.buf, dirOffGlobalDepth) }

func (d *DirectoryPage) setGlobalDepth(v uint32) { bx.PutU32At(d.buf, dirOffGlobalDepth, v) }

// Init zeroes the directory: global_depth 0, every bucket slot unset.
func (d *DirectoryPage) Init(maxDepth uint32) {
	bx.PutU32At(d.buf, dirOffMaxDepth, maxDepth)
	d.setGlobalDepth(0)
	for i := 0; i < DirectoryMaxSlots; i++ {
		d.SetBucketPageID(uint32(i), InvalidPageID)
		d.SetLocalDepth(uint32(i), 0)
	}
}

func (d *DirectoryPage) GetGlobalDepthMask() uint32 {
	return (uint32(1) << d.GetGlobalDepth()) - 1
}

func (d *DirectoryPage) GetLocalDepthMask(bucketIdx uint32) uint32 {
	return (uint32(1) << d.GetLocalDepth(bucketIdx)) - 1
}

// HashToBucketIndex takes the low global_depth bits of a hash.
func (d *DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	return hash & d.GetGlobalDepthMask()
}

func (d *DirectoryPage) GetBucketPageID(bucketIdx uint32) int32 {
	return bx.I32At(d.buf, dirOffBucketIDs+int(bucketIdx)*4)
}

func (d *DirectoryPage) SetBucketPageID(bucketIdx uint32, pageID int32) {
	bx.PutI32At(d.buf, dirOffBucketIDs+int(bucketIdx)*4, pageID)
}

// GetSplitImageIndex returns the index that shares bucketIdx's bucket
// before a split at the current global depth.
func (d *DirectoryPage) GetSplitImageIndex(bucketIdx uint32) uint32 {
	gd := d.GetGlobalDepth()
	if gd == 0 {
		return 0
	}
	return bucketIdx ^ (uint32(1) << (gd - 1))
}

// IncrGlobalDepth doubles the live directory, copying every entry
// (bucket id and local depth) to its split image.
func (d *DirectoryPage) IncrGlobalDepth() {
	initialSize := d.Size()
	d.setGlobalDepth(d.GetGlobalDepth() + 1)
	for i := uint32(0); i < initialSize; i++ {
		image := i ^ initialSize
		d.SetBucketPageID(image, d.GetBucketPageID(i))
		d.SetLocalDepth(image, d.GetLocalDepth(i))
	}
}

// DecrGlobalDepth halves the live directory, clearing the entries that
// fall off.
func (d *DirectoryPage) DecrGlobalDepth() {
	initialSize := d.Size()
	d.setGlobalDepth(d.GetGlobalDepth() - 1)
	for i := d.Size(); i < initialSize; i++ {
		d.SetLocalDepth(i, 0)
		d.SetBucketPageID(i, InvalidPageID)
	}
}

// CanShrink reports whether every live entry has local depth strictly
// less than global depth -- i.e. the directory can be halved without
// losing any distinct bucket mapping.
func (d *DirectoryPage) CanShrink() bool {
	gd := d.GetGlobalDepth()
	for i := uint32(0); i < d.Size(); i++ {
		if d.GetLocalDepth(i) == gd {
			return false
		}
	}
	return true
}

// Size returns 2^global_depth, the number of live directory entries.
func (d *DirectoryPage) Size() uint32 { return 1 << d.GetGlobalDepth() }

func (d *DirectoryPage) GetLocalDepth(bucketIdx uint32) uint32 {
	return uint32(bx.U8At(d.buf, dirOffLocalDepths+int(bucketIdx)))
}

func (d *DirectoryPage) SetLocalDepth(bucketIdx uint32, depth uint32) {
	bx.PutU8At(d.buf, dirOffLocalDepths+int(bucketIdx), uint8(depth))
}

func (d *DirectoryPage) IncrLocalDepth(bucketIdx uint32) {
	d.SetLocalDepth(bucketIdx, d.GetLocalDepth(bucketIdx)+1)
}

func (d *DirectoryPage) DecrLocalDepth(bucketIdx uint32) {
	d.SetLocalDepth(bucketIdx, d.GetLocalDepth(bucketIdx)-1)
}
