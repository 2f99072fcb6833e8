package dendrogram

import (
	"cmp"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"reneu/pkg/errors"
)

// Pair is an unordered segment id pair stored as Lo <= Hi.
type Pair struct {
	Lo uint64
	Hi uint64
}

// MakePair orders a and b.
func MakePair(a, b uint64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Lo: a, Hi: b}
}

// PairSet is a set of unordered segment id pairs.
type PairSet map[Pair]struct{}

// Add inserts the pair {a, b}.
func (s PairSet) Add(a, b uint64) { s[MakePair(a, b)] = struct{}{} }

// Has reports whether {a, b} is in the set, in either order.
func (s PairSet) Has(a, b uint64) bool {
	_, ok := s[MakePair(a, b)]
	return ok
}

// Sorted returns the pairs ordered by Lo, then Hi.
func (s PairSet) Sorted() []Pair {
	pairs := make([]Pair, 0, len(s))
	for p := range s {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
			return c
		}
		return cmp.Compare(a.Hi, b.Hi)
	})
	return pairs
}

// blockGrid tiles a volume with blocks anchored at the origin. Blocks on the
// far faces are cut to the volume bounds.
type blockGrid struct {
	shape [3]int
	block [3]int
	count [3]int
}

func newBlockGrid(shape, block [3]int) (blockGrid, error) {
	g := blockGrid{shape: shape, block: block}
	for i := range 3 {
		if block[i] <= 0 {
			return blockGrid{}, errors.New(errors.ErrCodeInvalidBlockShape, "block shape %v has non-positive dimension %d", block, i)
		}
		g.count[i] = (shape[i] + block[i] - 1) / block[i]
	}
	return g, nil
}

func (g blockGrid) len() int { return g.count[0] * g.count[1] * g.count[2] }

// bounds returns the [lo, hi) voxel range of block b.
func (g blockGrid) bounds(b int) (lo, hi [3]int) {
	idx := [3]int{
		b / (g.count[1] * g.count[2]),
		b / g.count[2] % g.count[1],
		b % g.count[2],
	}
	for i := range 3 {
		lo[i] = idx[i] * g.block[i]
		hi[i] = min(lo[i]+g.block[i], g.shape[i])
	}
	return lo, hi
}

// scanBlock adds every pair of distinct non-zero labels that share a face
// inside [lo, hi).
func scanBlock(vol *Volume, lo, hi [3]int, pairs PairSet) {
	for z := lo[0]; z < hi[0]; z++ {
		for y := lo[1]; y < hi[1]; y++ {
			for x := lo[2]; x < hi[2]; x++ {
				a := vol.At(z, y, x)
				if a == 0 {
					continue
				}
				if z+1 < hi[0] {
					if b := vol.At(z+1, y, x); b != 0 && b != a {
						pairs.Add(a, b)
					}
				}
				if y+1 < hi[1] {
					if b := vol.At(z, y+1, x); b != 0 && b != a {
						pairs.Add(a, b)
					}
				}
				if x+1 < hi[2] {
					if b := vol.At(z, y, x+1); b != 0 && b != a {
						pairs.Add(a, b)
					}
				}
			}
		}
	}
}

// ContactingPairs returns the label pairs that touch within at least one
// block. Voxels touch when they share a face and lie in the same block;
// label 0 is background and never pairs. workers <= 1 scans sequentially.
// The result does not depend on the number of workers.
func ContactingPairs(vol *Volume, block [3]int, workers int) (PairSet, error) {
	grid, err := newBlockGrid(vol.Shape, block)
	if err != nil {
		return nil, err
	}
	numBlocks := grid.len()

	if workers <= 1 || numBlocks <= 1 {
		pairs := make(PairSet)
		for b := range numBlocks {
			lo, hi := grid.bounds(b)
			scanBlock(vol, lo, hi, pairs)
		}
		return pairs, nil
	}

	// Each worker scans a contiguous range of blocks into its own set.
	var wg sync.WaitGroup
	blocksPerWorker := (numBlocks + workers - 1) / workers
	local := make([]PairSet, workers)

	for w := 0; w < workers; w++ {
		start := w * blocksPerWorker
		end := min(start+blocksPerWorker, numBlocks)
		if start >= numBlocks {
			break
		}

		local[w] = make(PairSet)
		wg.Add(1)
		go func(start, end int, pairs PairSet) {
			defer wg.Done()
			for b := start; b < end; b++ {
				lo, hi := grid.bounds(b)
				scanBlock(vol, lo, hi, pairs)
			}
		}(start, end, local[w])
	}

	wg.Wait()

	pairs := make(PairSet)
	for _, s := range local {
		for p := range s {
			pairs[p] = struct{}{}
		}
	}
	return pairs, nil
}

// KeepOnlyContactingEdges drops every edge whose labels do not touch within
// some block of vol. Blocks tile vol from the origin; partial blocks at the
// far faces are scanned as smaller blocks. Surviving edges keep their order.
func (d *Dendrogram) KeepOnlyContactingEdges(vol *Volume, block [3]int) error {
	return d.KeepOnlyContactingEdgesWorkers(vol, block, 1)
}

// KeepOnlyContactingEdgesWorkers is KeepOnlyContactingEdges with the block
// scan spread over workers goroutines.
func (d *Dendrogram) KeepOnlyContactingEdgesWorkers(vol *Volume, block [3]int, workers int) error {
	pairs, err := ContactingPairs(vol, block, workers)
	if err != nil {
		return err
	}

	before := len(d.edges)
	kept := d.edges[:0]
	for _, e := range d.edges {
		if pairs.Has(e.A, e.B) {
			kept = append(kept, e)
		}
	}
	clear(d.edges[len(kept):])
	d.edges = kept

	log.Debug("contact filter", "shape", vol.Shape, "block", block, "pairs", len(pairs),
		"before", before, "after", len(kept))
	return nil
}
