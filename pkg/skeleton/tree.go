// Package skeleton represents neuron morphology as index-addressed forests
// and converts them to and from the SWC text and precomputed binary formats.
package skeleton

import (
	"iter"
	"math"

	"reneu/pkg/errors"
	"reneu/pkg/geom"
)

// DefaultTolerance is the absolute position tolerance used by Equals callers
// that have no better bound.
const DefaultTolerance float32 = 0.001

// Tree is a NodeStore plus the first-child/next-sibling links derived from
// its parent column.
type Tree struct {
	NodeStore
}

// Edge connects a non-root node to its parent.
type Edge struct {
	Child  int
	Parent int
}

// Build creates a Tree from node geometry, a parent index per node and an
// optional class per node. A nil classes slice means every node is
// ClassUndefined. Parent -1 marks a root.
func Build(nodes []Node, parents []int32, classes []Class) (*Tree, error) {
	n := len(nodes)
	if len(parents) != n {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "%d nodes but %d parents", n, len(parents))
	}
	if classes != nil && len(classes) != n {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "%d nodes but %d classes", n, len(classes))
	}

	attrs := make([]Attributes, n)
	for i, p := range parents {
		if p < int32(UnsetRef) || int(p) >= n {
			return nil, errors.New(errors.ErrCodeInvalidTopology, "node %d has parent %d outside [%d, %d)", i, p, UnsetRef, n)
		}
		attrs[i] = Attributes{
			Parent:      RefFromInt32(p),
			FirstChild:  UnsetRef,
			NextSibling: UnsetRef,
		}
		if classes != nil {
			attrs[i].Class = classes[i]
		}
	}

	return New(NodeStore{Nodes: nodes, Attrs: attrs})
}

// New derives the topology of a prepared NodeStore. The store is owned by the
// returned Tree afterwards.
func New(store NodeStore) (*Tree, error) {
	n := len(store.Nodes)
	if len(store.Attrs) != n {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "%d nodes but %d attribute rows", n, len(store.Attrs))
	}
	for i, a := range store.Attrs {
		if a.Parent < UnsetRef {
			return nil, errors.New(errors.ErrCodeInvalidTopology, "node %d has parent %d", i, a.Parent)
		}
		if p, ok := a.Parent.Index(); ok && p >= n {
			return nil, errors.New(errors.ErrCodeInvalidTopology, "node %d has parent %d but there are %d nodes", i, p, n)
		}
		if a.Class < 0 || a.Class > MaxClass {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d has class %d outside [0, %d]", i, a.Class, MaxClass)
		}
	}
	if i, ok := findCycle(store.Attrs); ok {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "node %d lies on a parent cycle", i)
	}

	t := &Tree{NodeStore: store}
	t.deriveTopology()
	return t, nil
}

// findCycle walks every parent chain once. It returns a node on a cycle, if any.
func findCycle(attrs []Attributes) (int, bool) {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]uint8, len(attrs))
	var path []int

	for start := range attrs {
		if state[start] != unvisited {
			continue
		}
		path = path[:0]
		cur, ok := start, true
		for ok && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur, ok = attrs[cur].Parent.Index()
		}
		if ok && state[cur] == onPath {
			return cur, true
		}
		for _, i := range path {
			state[i] = done
		}
	}
	return 0, false
}

// deriveTopology prepends every node to its parent's child list in index
// order, so FirstChild ends up as the last-inserted child.
func (t *Tree) deriveTopology() {
	for i := range t.Attrs {
		t.Attrs[i].FirstChild = NoRef
		t.Attrs[i].NextSibling = NoRef
	}
	for i := range t.Attrs {
		p, ok := t.Attrs[i].Parent.Index()
		if !ok {
			continue
		}
		t.Attrs[i].NextSibling = t.Attrs[p].FirstChild
		t.Attrs[p].FirstChild = RefTo(i)
	}
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int { return len(t.Nodes) }

// EdgeCount returns the number of non-root nodes.
func (t *Tree) EdgeCount() int {
	count := 0
	for _, a := range t.Attrs {
		if a.Parent.Valid() {
			count++
		}
	}
	return count
}

// SetClass changes the class of node i. Topology is unaffected.
func (t *Tree) SetClass(i int, c Class) {
	t.Attrs[i].Class = c
}

// Parent returns the parent of node i and whether it has one.
func (t *Tree) Parent(i int) (int, bool) {
	return t.Attrs[i].Parent.Index()
}

// Equals reports whether both trees hold the same nodes within tol and the
// same class and parent for every node. Derived child and sibling links are
// not compared. A root parent and an unset parent compare equal.
func (t *Tree) Equals(other *Tree, tol float32) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Nodes) != len(other.Nodes) {
		return false
	}
	for i, a := range t.Nodes {
		b := other.Nodes[i]
		if !close32(a.Radius, b.Radius, tol) || !close32(a.Z, b.Z, tol) ||
			!close32(a.Y, b.Y, tol) || !close32(a.X, b.X, tol) {
			return false
		}
	}
	for i, a := range t.Attrs {
		b := other.Attrs[i]
		if a.Class != b.Class {
			return false
		}
		pa, oka := a.Parent.Index()
		pb, okb := b.Parent.Index()
		if oka != okb || pa != pb {
			return false
		}
	}
	return true
}

func close32(a, b, tol float32) bool {
	return math.Abs(float64(a)-float64(b)) <= float64(tol)
}

// Roots returns the nodes without a parent, in index order.
func (t *Tree) Roots() []int {
	var roots []int
	for i, a := range t.Attrs {
		if !a.Parent.Valid() {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children yields the children of node i in link order.
func (t *Tree) Children(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		c, ok := t.Attrs[i].FirstChild.Index()
		for ok {
			if !yield(c) {
				return
			}
			c, ok = t.Attrs[c].NextSibling.Index()
		}
	}
}

// NumChildren returns the number of children of node i.
func (t *Tree) NumChildren(i int) int {
	n := 0
	for range t.Children(i) {
		n++
	}
	return n
}

// DepthFirst yields the subtree under root in pre-order. Siblings are
// visited in link order.
func (t *Tree) DepthFirst(root int) iter.Seq[int] {
	return func(yield func(int) bool) {
		stack := []int{root}
		var kids []int
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(node) {
				return
			}
			kids = kids[:0]
			for c := range t.Children(node) {
				kids = append(kids, c)
			}
			for j := len(kids) - 1; j >= 0; j-- {
				stack = append(stack, kids[j])
			}
		}
	}
}

// Edges returns one edge per non-root node, in node index order.
func (t *Tree) Edges() []Edge {
	edges := make([]Edge, 0, len(t.Attrs))
	for i, a := range t.Attrs {
		if p, ok := a.Parent.Index(); ok {
			edges = append(edges, Edge{Child: i, Parent: p})
		}
	}
	return edges
}

// Leaves returns the nodes without children.
func (t *Tree) Leaves() []int {
	var leaves []int
	for i, a := range t.Attrs {
		if !a.FirstChild.Valid() {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// BranchPoints returns the nodes with two or more children.
func (t *Tree) BranchPoints() []int {
	var branches []int
	for i := range t.Attrs {
		if t.NumChildren(i) >= 2 {
			branches = append(branches, i)
		}
	}
	return branches
}

// PathLength returns the summed Euclidean length of all edges.
func (t *Tree) PathLength() float64 {
	var total float64
	for _, e := range t.Edges() {
		total += geom.Dist(t.Nodes[e.Child].Point(), t.Nodes[e.Parent].Point())
	}
	return total
}
