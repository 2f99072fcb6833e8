package skeleton

import (
	"reneu/pkg/errors"
)

// UnionFind implements a disjoint-set data structure with path halving
// and union by rank over node indices.
type UnionFind struct {
	parent []int32
	rank   []byte // byte is sufficient, rank grows with log2 of the set size
	size   []int32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int32, n)
	size := make([]int32, n)
	for i := range n {
		parent[i] = int32(i)
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x int) int {
	for int(uf.parent[x]) != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = int(uf.parent[x])
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y int) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = int32(rx)
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x int) int {
	return int(uf.size[uf.Find(x)])
}

// unionEdges joins every parent-child pair of t.
func (t *Tree) unionEdges() *UnionFind {
	uf := NewUnionFind(t.NodeCount())
	for _, e := range t.Edges() {
		uf.Union(e.Child, e.Parent)
	}
	return uf
}

// Components labels every node with the id of its connected component.
// Ids are dense, starting at 0, in order of each component's lowest node index.
// It also returns the number of components.
func (t *Tree) Components() ([]int, int) {
	n := t.NodeCount()
	uf := t.unionEdges()

	labels := make([]int, n)
	ids := make(map[int]int)
	for i := range n {
		root := uf.Find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels, len(ids)
}

// LargestComponent returns the node indices, ascending, of the component
// with the most nodes. Ties go to the component with the lower first node.
func (t *Tree) LargestComponent() []int {
	n := t.NodeCount()
	if n == 0 {
		return nil
	}

	uf := t.unionEdges()
	best, bestSize := uf.Find(0), uf.Size(0)
	for i := 1; i < n; i++ {
		if size := uf.Size(i); size > bestSize {
			best, bestSize = uf.Find(i), size
		}
	}

	nodes := make([]int, 0, bestSize)
	for i := range n {
		if uf.Find(i) == best {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// Subset creates a new tree containing only the given nodes, re-indexed in
// the order given. A node whose parent is not in the subset becomes a root.
func (t *Tree) Subset(nodes []int) (*Tree, error) {
	oldToNew := make(map[int]int, len(nodes))
	for newIdx, oldIdx := range nodes {
		if oldIdx < 0 || oldIdx >= t.NodeCount() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d out of range [0, %d)", oldIdx, t.NodeCount())
		}
		if _, dup := oldToNew[oldIdx]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d listed twice", oldIdx)
		}
		oldToNew[oldIdx] = newIdx
	}

	store := NodeStore{
		Nodes: make([]Node, len(nodes)),
		Attrs: make([]Attributes, len(nodes)),
	}
	for newIdx, oldIdx := range nodes {
		store.Nodes[newIdx] = t.Nodes[oldIdx]
		parent := NoRef
		if p, ok := t.Attrs[oldIdx].Parent.Index(); ok {
			if np, in := oldToNew[p]; in {
				parent = RefTo(np)
			}
		}
		store.Attrs[newIdx] = Attributes{
			Class:       t.Attrs[oldIdx].Class,
			Parent:      parent,
			FirstChild:  UnsetRef,
			NextSibling: UnsetRef,
		}
	}
	return New(store)
}
