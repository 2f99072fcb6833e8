package dendrogram

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"

	"reneu/pkg/errors"
)

// DisjointSets groups segment ids into merged objects. The representative of
// every set is its smallest id, so roots are stable no matter the union order.
type DisjointSets struct {
	parent map[uint64]uint64
}

// MergePair maps a segment id to the root of its set.
type MergePair struct {
	ID   uint64
	Root uint64
}

// NewDisjointSets returns an empty forest.
func NewDisjointSets() *DisjointSets {
	return &DisjointSets{parent: make(map[uint64]uint64)}
}

// MakeSet adds id as a singleton. Existing ids are left alone.
func (s *DisjointSets) MakeSet(id uint64) {
	if _, ok := s.parent[id]; !ok {
		s.parent[id] = id
	}
}

// Find returns the root of id. Unknown ids are their own root.
func (s *DisjointSets) Find(id uint64) uint64 {
	p, ok := s.parent[id]
	if !ok {
		return id
	}
	for p != id {
		gp := s.parent[p]
		s.parent[id] = gp // path halving
		id, p = gp, s.parent[gp]
	}
	return id
}

// Union merges the sets of a and b, adding either id if it is unknown.
// Returns false if they were already in the same set.
func (s *DisjointSets) Union(a, b uint64) bool {
	s.MakeSet(a)
	s.MakeSet(b)
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return false
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	return true
}

// Len returns the number of ids in the forest.
func (s *DisjointSets) Len() int { return len(s.parent) }

// MergePairs returns every id whose root differs from itself, ordered by id.
func (s *DisjointSets) MergePairs() []MergePair {
	var pairs []MergePair
	for id := range s.parent {
		if root := s.Find(id); root != id {
			pairs = append(pairs, MergePair{ID: id, Root: root})
		}
	}
	slices.SortFunc(pairs, func(a, b MergePair) int { return cmp.Compare(a.ID, b.ID) })
	return pairs
}

// Relabel rewrites every non-zero label of vol to the root of its set and
// returns the number of voxels changed.
func (s *DisjointSets) Relabel(vol *Volume) int {
	changed := 0
	for i, label := range vol.Data {
		if label == 0 {
			continue
		}
		if root := s.Find(label); root != label {
			vol.Data[i] = root
			changed++
		}
	}
	log.Debug("relabel", "voxels", vol.Len(), "changed", changed)
	return changed
}

// DisjointSets unions the endpoints of every edge with weight >= threshold,
// visiting edges in priority order.
func (d *Dendrogram) DisjointSets(threshold float32) *DisjointSets {
	h := edgeHeap{items: make([]heapItem, 0, len(d.edges))}
	for i, e := range d.edges {
		h.Push(e, i)
	}

	sets := NewDisjointSets()
	merged := 0
	for h.Len() > 0 && h.PeekWeight() >= threshold {
		e := h.Pop().edge
		if sets.Union(e.A, e.B) {
			merged++
		}
	}
	log.Debug("disjoint sets", "threshold", threshold, "edges", len(d.edges), "unions", merged)
	return sets
}

// MergePairs returns the segment-to-root mapping produced by merging every
// edge accepted at threshold.
func (d *Dendrogram) MergePairs(threshold float32) []MergePair {
	return d.DisjointSets(threshold).MergePairs()
}

// AgglomerationPairs compares a fragment volume with an agglomerated
// segmentation of the same shape and returns the fragment pairs that share a
// face and were merged into the same segment. Background fragments never pair.
func AgglomerationPairs(frag, seg *Volume) ([]Pair, error) {
	if frag.Shape != seg.Shape {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "fragment shape %v differs from segmentation shape %v", frag.Shape, seg.Shape)
	}

	pairs := make(PairSet)
	visit := func(z, y, x, z1, y1, x1 int) {
		a, b := frag.At(z, y, x), frag.At(z1, y1, x1)
		if a != 0 && b != 0 && a != b && seg.At(z, y, x) == seg.At(z1, y1, x1) {
			pairs.Add(a, b)
		}
	}
	sz, sy, sx := frag.Shape[0], frag.Shape[1], frag.Shape[2]
	for z := range sz {
		for y := range sy {
			for x := range sx {
				if z > 0 {
					visit(z, y, x, z-1, y, x)
				}
				if y > 0 {
					visit(z, y, x, z, y-1, x)
				}
				if x > 0 {
					visit(z, y, x, z, y, x-1)
				}
			}
		}
	}
	return pairs.Sorted(), nil
}
