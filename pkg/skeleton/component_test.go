package skeleton

import (
	"slices"
	"testing"

	"reneu/pkg/errors"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := range 5 {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	if !uf.Union(1, 3) {
		t.Error("Union(1, 3) should merge two sets")
	}
	if uf.Union(0, 2) {
		t.Error("Union(0, 2) should report an existing set")
	}
	if uf.Size(3) != 4 {
		t.Errorf("Size(3) = %d, want 4", uf.Size(3))
	}
}

func TestComponents(t *testing.T) {
	tree := buildTestForest(t)

	labels, count := tree.Components()
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if want := []int{0, 0, 0, 0, 1, 1}; !slices.Equal(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}

	if got := tree.LargestComponent(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("LargestComponent = %v, want [0 1 2 3]", got)
	}
}

func TestSubset(t *testing.T) {
	tree := buildTestForest(t)

	sub, err := tree.Subset([]int{1, 2, 3})
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if sub.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3", sub.NodeCount())
	}
	// Node 1 lost its parent and became the root.
	if got := sub.Roots(); !slices.Equal(got, []int{0}) {
		t.Errorf("Roots = %v, want [0]", got)
	}
	if p, ok := sub.Parent(2); !ok || p != 0 {
		t.Errorf("Parent(2) = (%d, %v), want (0, true)", p, ok)
	}
	if sub.Attrs[2].Class != ClassBasalDendrite {
		t.Errorf("Class[2] = %v, want basal dendrite", sub.Attrs[2].Class)
	}
	if sub.Nodes[1] != tree.Nodes[2] {
		t.Errorf("Nodes[1] = %+v, want %+v", sub.Nodes[1], tree.Nodes[2])
	}
	if got := slices.Collect(sub.Children(0)); !slices.Equal(got, []int{2, 1}) {
		t.Errorf("Children(0) = %v, want [2 1]", got)
	}
}

func TestSubsetErrors(t *testing.T) {
	tree := buildTestForest(t)

	if _, err := tree.Subset([]int{0, 9}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("out of range: err = %v, want INVALID_INPUT", err)
	}
	if _, err := tree.Subset([]int{0, 0}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate: err = %v, want INVALID_INPUT", err)
	}
}

func TestLargestComponentEmpty(t *testing.T) {
	tree, err := Build(nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if nodes := tree.LargestComponent(); nodes != nil {
		t.Errorf("expected nil for empty tree, got %v", nodes)
	}
}

func TestLargestComponentOrder(t *testing.T) {
	tests := []struct {
		name    string
		parents []int32
		want    []int
	}{
		{name: "later component larger", parents: []int32{-1, -1, 1, 2, 1}, want: []int{1, 2, 3, 4}},
		{name: "tie goes to lower node", parents: []int32{-1, -1, 0, 1}, want: []int{0, 2}},
		{name: "interleaved", parents: []int32{-1, -1, 1, 0, 2}, want: []int{1, 2, 4}},
		{name: "all singletons", parents: []int32{-1, -1, -1}, want: []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Build(make([]Node, len(tt.parents)), tt.parents, nil)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := tree.LargestComponent(); !slices.Equal(got, tt.want) {
				t.Errorf("LargestComponent = %v, want %v", got, tt.want)
			}
		})
	}
}
