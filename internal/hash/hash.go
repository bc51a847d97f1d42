// Package hash provides the pluggable hash function the extendible hash
// table consumes (spec.md §6: "hash(k) -> u32. Pure; good avalanche
// properties assumed"). The default implementation is XXH64 truncated to
// its low 32 bits: the pack (ShubhamNegi4-DaemonDB/go.mod, via its
// dgraph-io/ristretto dependency) already carries cespare/xxhash/v2
// transitively, and it is a well-established, high-avalanche hash with
// no 32-bit variant in that module -- truncation is the standard way to
// get a 32-bit digest out of it, and is called out explicitly here per
// spec.md §9's requirement to document the hash width.
package hash

import "github.com/cespare/xxhash/v2"

// Hasher maps an opaque byte-encoded key to a 32-bit digest.
type Hasher interface {
	Hash(key []byte) uint32
}

// XXHasher is the default Hasher.
type XXHasher struct{}

func (XXHasher) Hash(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

var _ Hasher = XXHasher{}
