package dendrogram

import (
	"slices"
	"testing"

	"reneu/pkg/errors"
)

func TestDisjointSets(t *testing.T) {
	s := NewDisjointSets()

	if s.Find(42) != 42 {
		t.Errorf("Find(42) on empty forest = %d, want 42", s.Find(42))
	}

	if !s.Union(9, 4) {
		t.Error("Union(9, 4) should merge")
	}
	if !s.Union(7, 9) {
		t.Error("Union(7, 9) should merge")
	}
	if s.Union(4, 7) {
		t.Error("Union(4, 7) should report an existing set")
	}
	s.MakeSet(2)
	s.MakeSet(9)

	for _, id := range []uint64{4, 7, 9} {
		if root := s.Find(id); root != 4 {
			t.Errorf("Find(%d) = %d, want 4", id, root)
		}
	}
	if s.Find(2) != 2 {
		t.Errorf("Find(2) = %d, want 2", s.Find(2))
	}
	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}

	want := []MergePair{{ID: 7, Root: 4}, {ID: 9, Root: 4}}
	if got := s.MergePairs(); !slices.Equal(got, want) {
		t.Errorf("MergePairs = %v, want %v", got, want)
	}
}

func TestDisjointSetsLongChain(t *testing.T) {
	s := NewDisjointSets()
	for id := uint64(1000); id > 1; id-- {
		s.Union(id, id-1)
	}
	for _, id := range []uint64{1000, 500, 2} {
		if root := s.Find(id); root != 1 {
			t.Errorf("Find(%d) = %d, want 1", id, root)
		}
	}
}

func testMergeDendrogram() *Dendrogram {
	d := New(0.5)
	d.PushEdge(1, 2, 0.9)
	d.PushEdge(2, 3, 0.6)
	d.PushEdge(4, 5, 0.2)
	d.PushEdge(3, 6, 0.6)
	return d
}

func TestDendrogramMergePairs(t *testing.T) {
	tests := []struct {
		threshold float32
		want      []MergePair
	}{
		{threshold: 1.0, want: nil},
		{threshold: 0.7, want: []MergePair{{2, 1}}},
		{threshold: 0.5, want: []MergePair{{2, 1}, {3, 1}, {6, 1}}},
		{threshold: 0.0, want: []MergePair{{2, 1}, {3, 1}, {5, 4}, {6, 1}}},
	}

	d := testMergeDendrogram()
	for _, tt := range tests {
		if got := d.MergePairs(tt.threshold); !slices.Equal(got, tt.want) {
			t.Errorf("MergePairs(%v) = %v, want %v", tt.threshold, got, tt.want)
		}
	}
}

func TestRelabel(t *testing.T) {
	vol, err := VolumeFromData([3]int{1, 2, 3}, []uint64{1, 2, 3, 4, 5, 0})
	if err != nil {
		t.Fatalf("VolumeFromData: %v", err)
	}

	changed := testMergeDendrogram().DisjointSets(0.5).Relabel(vol)
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}
	if want := []uint64{1, 1, 1, 4, 5, 0}; !slices.Equal(vol.Data, want) {
		t.Errorf("Data = %v, want %v", vol.Data, want)
	}
}

func TestAgglomerationPairs(t *testing.T) {
	frag, _ := VolumeFromData([3]int{1, 2, 4}, []uint64{
		1, 2, 3, 4,
		1, 5, 0, 4,
	})
	seg, _ := VolumeFromData([3]int{1, 2, 4}, []uint64{
		7, 7, 8, 8,
		7, 7, 8, 8,
	})

	got, err := AgglomerationPairs(frag, seg)
	if err != nil {
		t.Fatalf("AgglomerationPairs: %v", err)
	}
	want := []Pair{{1, 2}, {1, 5}, {2, 5}, {3, 4}}
	if !slices.Equal(got, want) {
		t.Errorf("pairs = %v, want %v", got, want)
	}

	other := NewVolume([3]int{1, 4, 2})
	if _, err := AgglomerationPairs(frag, other); !errors.Is(err, errors.ErrCodeShapeMismatch) {
		t.Errorf("err = %v, want SHAPE_MISMATCH", err)
	}
}
