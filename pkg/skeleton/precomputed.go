package skeleton

import (
	"encoding/binary"
	"math"

	"reneu/pkg/errors"
)

// Precomputed layout, little-endian:
//
//	u32 vertex count Nv
//	u32 edge count   Ne
//	Nv x 3 x f32     vertex x, y, z
//	Ne x 2 x u32     edges (child, parent)
//	Nv x f32         radii     (optional)
//	Nv x u8          classes   (optional, requires radii)
const (
	precomputedHeaderSize = 8
	vertexSize            = 3 * 4
	edgeSize              = 2 * 4
)

// DecodePrecomputed parses a precomputed skeleton buffer.
//
// The optional sections are detected by buffer length alone: radii are read
// when the buffer holds at least Nv more float32 values after the edges, and
// classes when it holds Nv more bytes after those. Vertices that never appear
// as an edge child keep an unset parent.
func DecodePrecomputed(buf []byte) (*Tree, error) {
	if len(buf) < precomputedHeaderSize {
		return nil, errors.New(errors.ErrCodeTruncatedBuffer,
			"%d bytes is fewer than the %d needed to specify the number of vertices and edges", len(buf), precomputedHeaderSize)
	}

	nv := uint64(binary.LittleEndian.Uint32(buf[0:4]))
	ne := uint64(binary.LittleEndian.Uint32(buf[4:8]))
	size := uint64(len(buf))

	base := precomputedHeaderSize + nv*vertexSize + ne*edgeSize
	if size < base {
		return nil, errors.New(errors.ErrCodeUndersizedBuffer,
			"the input skeleton was %d bytes but the format requires %d bytes", size, base)
	}

	radiiEnd := base + nv*4
	classesEnd := radiiEnd + nv
	hasRadii := size >= radiiEnd
	hasClasses := size >= classesEnd
	switch {
	case !hasRadii && size != base:
		return nil, errors.New(errors.ErrCodeFormat,
			"%d trailing bytes do not form a radii section of %d bytes", size-base, nv*4)
	case hasRadii && !hasClasses && size != radiiEnd:
		return nil, errors.New(errors.ErrCodeFormat,
			"%d trailing bytes do not form a classes section of %d bytes", size-radiiEnd, nv)
	}

	n := int(nv)
	nodes := make([]Node, n)
	off := uint64(precomputedHeaderSize)
	for i := range nodes {
		nodes[i].X = getFloat32(buf[off:])
		nodes[i].Y = getFloat32(buf[off+4:])
		nodes[i].Z = getFloat32(buf[off+8:])
		off += vertexSize
	}

	parents := make([]int32, n)
	for i := range parents {
		parents[i] = int32(UnsetRef)
	}
	for e := uint64(0); e < ne; e++ {
		child := uint64(binary.LittleEndian.Uint32(buf[off:]))
		parent := uint64(binary.LittleEndian.Uint32(buf[off+4:]))
		off += edgeSize
		if child >= nv || parent >= nv {
			return nil, errors.New(errors.ErrCodeFormat,
				"edge %d (%d, %d) references a vertex beyond %d vertices", e, child, parent, nv)
		}
		parents[child] = int32(parent)
	}

	if hasRadii {
		for i := range nodes {
			nodes[i].Radius = getFloat32(buf[off:])
			off += 4
		}
	}

	classes := make([]Class, n)
	if hasClasses {
		for i := range classes {
			classes[i] = Class(buf[off])
			off++
		}
	}

	return Build(nodes, parents, classes)
}

// EncodePrecomputed serializes t in the precomputed layout.
//
// Radii are written when any radius or any class is non-zero, classes only
// when any class is non-zero. Together with the length-based detection in
// DecodePrecomputed this keeps all-default skeletons at the mandatory size.
func EncodePrecomputed(t *Tree) []byte {
	n := t.NodeCount()
	edges := t.Edges()

	var hasClasses, hasRadii bool
	for i := range n {
		if t.Attrs[i].Class != ClassUndefined {
			hasClasses = true
		}
		if t.Nodes[i].Radius != 0 {
			hasRadii = true
		}
	}
	hasRadii = hasRadii || hasClasses

	size := precomputedHeaderSize + n*vertexSize + len(edges)*edgeSize
	if hasRadii {
		size += n * 4
	}
	if hasClasses {
		size += n
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(n))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(edges)))

	off := precomputedHeaderSize
	for _, node := range t.Nodes {
		putFloat32(buf[off:], node.X)
		putFloat32(buf[off+4:], node.Y)
		putFloat32(buf[off+8:], node.Z)
		off += vertexSize
	}
	for _, e := range edges {
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.Child))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(e.Parent))
		off += edgeSize
	}
	if hasRadii {
		for _, node := range t.Nodes {
			putFloat32(buf[off:], node.Radius)
			off += 4
		}
	}
	if hasClasses {
		for _, a := range t.Attrs {
			buf[off] = uint8(a.Class)
			off++
		}
	}
	return buf
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
