package skeleton

import (
	"strconv"

	"reneu/pkg/geom"
)

// Class is the SWC semantic type of a node.
type Class int32

// SWC node classes.
const (
	ClassUndefined      Class = 0
	ClassSoma           Class = 1
	ClassAxon           Class = 2
	ClassBasalDendrite  Class = 3
	ClassApicalDendrite Class = 4
	ClassFork           Class = 5
	ClassEnd            Class = 6
	ClassCustom         Class = 7

	// MaxClass is the largest class a precomputed buffer can hold.
	MaxClass Class = 255
)

var classNames = [...]string{
	"undefined", "soma", "axon", "basal dendrite", "apical dendrite", "fork", "end", "custom",
}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return "class(" + strconv.Itoa(int(c)) + ")"
}

// Ref is an optional index into a NodeStore.
// Negative values carry no index. NoRef marks an explicit absence (the parent
// of a root, the first child of a leaf, the sibling after the last child) and
// UnsetRef marks a link that has not been derived yet. Both are kept as their
// SWC/precomputed wire values so codecs can pass them through unchanged.
type Ref int32

const (
	NoRef    Ref = -1
	UnsetRef Ref = -2
)

// RefTo returns a Ref pointing at node i.
func RefTo(i int) Ref { return Ref(i) }

// RefFromInt32 converts a wire value. Values below -1 all become UnsetRef.
func RefFromInt32(v int32) Ref {
	switch {
	case v >= 0:
		return Ref(v)
	case v == -1:
		return NoRef
	default:
		return UnsetRef
	}
}

// Index returns the referenced node index and whether there is one.
func (r Ref) Index() (int, bool) {
	if r < 0 {
		return 0, false
	}
	return int(r), true
}

// Valid reports whether r references a node.
func (r Ref) Valid() bool { return r >= 0 }

// Int32 returns the wire value of r.
func (r Ref) Int32() int32 { return int32(r) }

func (r Ref) String() string {
	switch {
	case r == NoRef:
		return "none"
	case r < 0:
		return "unset"
	default:
		return strconv.Itoa(int(r))
	}
}

// Node is one sample point of a neurite.
type Node struct {
	Radius float32
	Z      float32
	Y      float32
	X      float32
}

// Point returns the node position.
func (n Node) Point() geom.Point {
	return geom.Point{Z: float64(n.Z), Y: float64(n.Y), X: float64(n.X)}
}

// Attributes hold the per-node class and tree links, aligned with Nodes.
type Attributes struct {
	Class       Class
	Parent      Ref
	FirstChild  Ref
	NextSibling Ref
}

// NodeStore is a dense, insertion-ordered arena of nodes.
// The position of a node in Nodes is its identity; Attrs[i] belongs to Nodes[i].
type NodeStore struct {
	Nodes []Node
	Attrs []Attributes
}

// Len returns the number of nodes.
func (s *NodeStore) Len() int { return len(s.Nodes) }
