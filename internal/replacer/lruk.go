// Package replacer implements the LRU-K page replacement policy used by
// the buffer pool manager to pick a victim frame when it needs to reclaim
// space. Ported from BusTub's lru_k_replacer.{h,cpp}.
//
// LRU-K resists scan pollution: a frame touched once has a backward
// k-distance of +inf and is preferred for eviction until it accrues K
// hits. Victim selection is O(n) in the number of tracked frames, which
// is acceptable for pool sizes in the thousands; a priority structure is
// a later optimization, not a correctness requirement.
package replacer

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/atomic"
)

const infDistance = math.MaxUint64

type node struct {
	history   []uint64 // oldest first, length capped at k
	evictable bool
}

func (n *node) recordAccess(ts uint64, k int) {
	n.history = append(n.history, ts)
	if len(n.history) > k {
		n.history = n.history[len(n.history)-k:]
	}
}

func (n *node) backwardKDistance(now uint64, k int) uint64 {
	if len(n.history) < k {
		return infDistance
	}
	return now - n.history[0]
}

// LRUKReplacer tracks access history for resident frames and selects a
// victim among those marked evictable.
type LRUKReplacer struct {
	mu sync.Mutex

	nodes    map[int]*node
	capacity int
	k        int

	currentTS atomic.Uint64
	currSize  atomic.Int64
}

// New creates a replacer sized for up to capacity distinct frames, using
// the K most recent accesses per frame to compute backward k-distance.
func New(capacity, k int) *LRUKReplacer {
	return &LRUKReplacer{
		nodes:    make(map[int]*node, capacity),
		capacity: capacity,
		k:        k,
	}
}

func (r *LRUKReplacer) checkFrame(frameID int) {
	if frameID < 0 || frameID >= r.capacity {
		panic(fmt.Sprintf("replacer: invalid frame id %d (capacity %d)", frameID, r.capacity))
	}
}

// RecordAccess notes that frameID was accessed at the current logical
// timestamp, creating its history entry if this is the first time the
// frame has been seen.
func (r *LRUKReplacer) RecordAccess(frameID int) {
	r.checkFrame(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.currentTS.Add(1)
	n, ok := r.nodes[frameID]
	if !ok {
		n = &node{}
		r.nodes[frameID] = n
	}
	n.recordAccess(ts, r.k)
}

// SetEvictable toggles whether frameID may be chosen as an eviction
// victim. This also maintains Size(), which counts only evictable nodes.
func (r *LRUKReplacer) SetEvictable(frameID int, evictable bool) {
	r.checkFrame(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.currSize.Add(1)
	} else {
		r.currSize.Add(-1)
	}
}

// Remove drops frameID's access history outright, without evicting
// anything else. It is only legal to call this on a node that exists and
// is evictable; calling it on an unknown or non-evictable frame is a
// precondition violation and panics.
func (r *LRUKReplacer) Remove(frameID int) {
	r.checkFrame(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[frameID]
	if !ok {
		panic(fmt.Sprintf("replacer: Remove called on unknown frame %d", frameID))
	}
	if !n.evictable {
		panic(fmt.Sprintf("replacer: Remove called on non-evictable frame %d", frameID))
	}
	delete(r.nodes, frameID)
	r.currSize.Add(-1)
}

// Evict selects the evictable frame with the maximum backward k-distance,
// breaking ties (multiple frames at +inf) in favor of the frame whose
// oldest recorded access is smallest (classic LRU). It removes the
// winner's history and reports false if no frame is evictable.
func (r *LRUKReplacer) Evict() (frameID int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.currentTS.Load()

	best := -1
	var bestDist uint64
	var bestOldest uint64

	for fid, n := range r.nodes {
		if !n.evictable {
			continue
		}
		dist := n.backwardKDistance(now, r.k)
		oldest := n.history[0]

		switch {
		case best == -1:
			best, bestDist, bestOldest = fid, dist, oldest
		case dist > bestDist:
			best, bestDist, bestOldest = fid, dist, oldest
		case dist == bestDist && dist == infDistance && oldest < bestOldest:
			best, bestDist, bestOldest = fid, dist, oldest
		}
	}

	if best == -1 {
		return 0, false
	}

	delete(r.nodes, best)
	r.currSize.Add(-1)
	return best, true
}

// Size returns the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	return int(r.currSize.Load())
}
