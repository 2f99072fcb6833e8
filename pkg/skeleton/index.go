package skeleton

import (
	"math"
	"sort"

	"github.com/tidwall/rtree"

	"reneu/pkg/errors"
	"reneu/pkg/geom"
)

// Index answers nearest-node and nearest-edge queries over a skeleton.
//
// The R-tree is two dimensional, so nodes and edges are indexed by their
// x/y extent and z is resolved in the item distance. Box distances in x/y
// never exceed the true 3-D distance, which keeps the best-first order of
// rtree.Nearby exact.
type Index struct {
	tree  *Tree
	nodes rtree.RTreeG[int]
	edges rtree.RTreeG[Edge]
}

// SnapResult represents a point snapped to a skeleton edge.
type SnapResult struct {
	Child  int     // child node of the edge
	Parent int     // parent node of the edge
	Ratio  float64 // 0.0 = at Child, 1.0 = at Parent
	Dist   float64 // distance from the query point to the snapped point
}

// Neighbor is a node returned by a proximity query.
type Neighbor struct {
	Node int
	Dist float64
}

// NewIndex builds the node and edge R-trees for t.
func NewIndex(t *Tree) *Index {
	ix := &Index{tree: t}
	for i, n := range t.Nodes {
		pt := [2]float64{float64(n.X), float64(n.Y)}
		ix.nodes.Insert(pt, pt, i)
	}
	for _, e := range t.Edges() {
		a, b := t.Nodes[e.Child], t.Nodes[e.Parent]
		lo := [2]float64{math.Min(float64(a.X), float64(b.X)), math.Min(float64(a.Y), float64(b.Y))}
		hi := [2]float64{math.Max(float64(a.X), float64(b.X)), math.Max(float64(a.Y), float64(b.Y))}
		ix.edges.Insert(lo, hi, e)
	}
	return ix
}

// Nearest returns the k nodes closest to p, nearest first.
func (ix *Index) Nearest(p geom.Point, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	target := [2]float64{p.X, p.Y}
	result := make([]Neighbor, 0, k)
	ix.nodes.Nearby(
		rtree.BoxDist[float64, int](target, target, func(_, _ [2]float64, node int) float64 {
			return geom.DistSq(p, ix.tree.Nodes[node].Point())
		}),
		func(_, _ [2]float64, node int, distSq float64) bool {
			result = append(result, Neighbor{Node: node, Dist: math.Sqrt(distSq)})
			return len(result) < k
		},
	)
	return result
}

// Within returns the nodes no farther than radius from p, ordered by index.
func (ix *Index) Within(p geom.Point, radius float64) []int {
	lo := [2]float64{p.X - radius, p.Y - radius}
	hi := [2]float64{p.X + radius, p.Y + radius}
	rSq := radius * radius

	var nodes []int
	ix.nodes.Search(lo, hi, func(_, _ [2]float64, node int) bool {
		if geom.DistSq(p, ix.tree.Nodes[node].Point()) <= rSq {
			nodes = append(nodes, node)
		}
		return true
	})
	sort.Ints(nodes)
	return nodes
}

// Snap finds the skeleton edge closest to p. A positive maxDist rejects
// edges farther than it with a NOT_FOUND error.
func (ix *Index) Snap(p geom.Point, maxDist float64) (SnapResult, error) {
	target := [2]float64{p.X, p.Y}
	best := SnapResult{Dist: math.Inf(1)}
	found := false

	ix.edges.Nearby(
		rtree.BoxDist[float64, Edge](target, target, func(_, _ [2]float64, e Edge) float64 {
			d, _ := ix.segmentDist(p, e)
			return d * d
		}),
		func(_, _ [2]float64, e Edge, _ float64) bool {
			d, ratio := ix.segmentDist(p, e)
			best = SnapResult{Child: e.Child, Parent: e.Parent, Ratio: ratio, Dist: d}
			found = true
			return false
		},
	)

	if !found {
		return SnapResult{}, errors.New(errors.ErrCodeNotFound, "skeleton has no edges")
	}
	if maxDist > 0 && best.Dist > maxDist {
		return SnapResult{}, errors.New(errors.ErrCodeNotFound, "nearest edge is %.3f away, limit %.3f", best.Dist, maxDist)
	}
	return best, nil
}

func (ix *Index) segmentDist(p geom.Point, e Edge) (float64, float64) {
	return geom.PointToSegmentDist(p, ix.tree.Nodes[e.Child].Point(), ix.tree.Nodes[e.Parent].Point())
}
