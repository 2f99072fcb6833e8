package dendrogram

import "math"

// edgeHeap is a concrete-typed max-heap over edge weight.
// Avoids interface boxing overhead of container/heap.
type edgeHeap struct {
	items []heapItem
}

// heapItem is a priority queue entry. seq breaks weight ties so that earlier
// edges pop first.
type heapItem struct {
	edge Edge
	seq  int
}

func (h *edgeHeap) Len() int { return len(h.items) }

func (h *edgeHeap) Push(e Edge, seq int) {
	h.items = append(h.items, heapItem{e, seq})
	h.siftUp(len(h.items) - 1)
}

func (h *edgeHeap) Pop() heapItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *edgeHeap) PeekWeight() float32 {
	if len(h.items) == 0 {
		return float32(math.Inf(-1))
	}
	return h.items[0].edge.Weight
}

// before reports whether item i pops ahead of item j.
func (h *edgeHeap) before(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.edge.Weight != b.edge.Weight {
		return a.edge.Weight > b.edge.Weight
	}
	return a.seq < b.seq
}

func (h *edgeHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.before(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *edgeHeap) siftDown(i int) {
	n := len(h.items)
	for {
		top := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.before(left, top) {
			top = left
		}
		if right < n && h.before(right, top) {
			top = right
		}
		if top == i {
			break
		}
		h.items[i], h.items[top] = h.items[top], h.items[i]
		i = top
	}
}
