// Package dendrogram collects weighted merge candidates between segmentation
// labels and filters them against the spatial contacts of a label volume.
//
// A Dendrogram is an ordered multiset of edges plus an acceptance threshold.
// Edges are appended without validation; an edge is accepted when its weight
// is at least the threshold. Dendrograms built independently, for example one
// per chunk of a large volume, combine with Merge:
//
//	d := dendrogram.New(0.5)
//	d.PushEdge(1, 2, 0.9)
//	d.Merge(other)
//	if err := d.KeepOnlyContactingEdges(vol, [3]int{8, 8, 8}); err != nil {
//	    return err
//	}
package dendrogram

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Edge is a weighted merge candidate between two segment ids.
type Edge struct {
	A      uint64
	B      uint64
	Weight float32
}

// Dendrogram holds edges in insertion order and the threshold that decides
// which of them are accepted.
type Dendrogram struct {
	threshold float32
	edges     []Edge
}

// New returns an empty dendrogram.
func New(threshold float32) *Dendrogram {
	return &Dendrogram{threshold: threshold}
}

// PushEdge appends one edge. Duplicates and self edges are stored as given.
func (d *Dendrogram) PushEdge(a, b uint64, weight float32) {
	d.edges = append(d.edges, Edge{A: a, B: b, Weight: weight})
}

// EdgeNum returns the number of stored edges.
func (d *Dendrogram) EdgeNum() int { return len(d.edges) }

// Threshold returns the acceptance threshold.
func (d *Dendrogram) Threshold() float32 { return d.threshold }

// Edges returns a copy of the edges in insertion order.
func (d *Dendrogram) Edges() []Edge { return slices.Clone(d.edges) }

// Accepts reports whether an edge of the given weight passes the threshold.
func (d *Dendrogram) Accepts(weight float32) bool { return weight >= d.threshold }

// Merge appends the edges of other after the edges of d and lowers the
// threshold to the smaller of the two, so every edge accepted by either
// input stays accepted. other is not modified.
func (d *Dendrogram) Merge(other *Dendrogram) {
	d.edges = append(d.edges, other.edges...)
	d.threshold = min(d.threshold, other.threshold)
}

// Merged returns a new dendrogram holding the edges of a followed by those
// of b. Neither input is modified.
func Merged(a, b *Dendrogram) *Dendrogram {
	out := &Dendrogram{
		threshold: a.threshold,
		edges:     make([]Edge, 0, len(a.edges)+len(b.edges)),
	}
	out.edges = append(out.edges, a.edges...)
	out.Merge(b)
	return out
}

// Sorted returns the edges in priority order: descending weight, ties in
// insertion order.
func (d *Dendrogram) Sorted() []Edge {
	h := edgeHeap{items: make([]heapItem, 0, len(d.edges))}
	for i, e := range d.edges {
		h.Push(e, i)
	}
	sorted := make([]Edge, 0, len(d.edges))
	for h.Len() > 0 {
		sorted = append(sorted, h.Pop().edge)
	}
	return sorted
}

// Fprint writes a human readable listing of d to w.
func (d *Dendrogram) Fprint(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("threshold: ")
	bw.WriteString(formatWeight(d.threshold))
	bw.WriteString("\nedge_num: ")
	bw.WriteString(strconv.Itoa(len(d.edges)))
	bw.WriteByte('\n')
	for _, e := range d.edges {
		bw.WriteString(strconv.FormatUint(e.A, 10))
		bw.WriteString(" -- ")
		bw.WriteString(strconv.FormatUint(e.B, 10))
		bw.WriteString(" : ")
		bw.WriteString(formatWeight(e.Weight))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (d *Dendrogram) String() string {
	var sb strings.Builder
	d.Fprint(&sb)
	return sb.String()
}

func formatWeight(w float32) string {
	return strconv.FormatFloat(float64(w), 'g', -1, 32)
}
