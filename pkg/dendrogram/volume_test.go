package dendrogram

import (
	"math"
	"testing"

	"reneu/pkg/errors"
)

func TestVolumeFromData(t *testing.T) {
	tests := []struct {
		name    string
		shape   [3]int
		n       int
		wantErr bool
	}{
		{name: "exact", shape: [3]int{2, 3, 4}, n: 24},
		{name: "empty", shape: [3]int{0, 3, 4}, n: 0},
		{name: "short", shape: [3]int{2, 3, 4}, n: 23, wantErr: true},
		{name: "long", shape: [3]int{2, 3, 4}, n: 25, wantErr: true},
		{name: "negative", shape: [3]int{-2, -3, 4}, n: 24, wantErr: true},
		{name: "overflow to zero", shape: [3]int{1 << 32, 1 << 32, 1}, n: 0, wantErr: true},
		{name: "overflow", shape: [3]int{math.MaxInt, 2, 1}, n: 0, wantErr: true},
		{name: "zero with huge", shape: [3]int{0, math.MaxInt, math.MaxInt}, n: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol, err := VolumeFromData(tt.shape, make([]uint64, tt.n))
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeShapeMismatch) {
					t.Errorf("err = %v, want SHAPE_MISMATCH", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VolumeFromData: %v", err)
			}
			if vol.Len() != tt.n {
				t.Errorf("Len = %d, want %d", vol.Len(), tt.n)
			}
		})
	}
}

func TestVolumeIndexing(t *testing.T) {
	vol := NewVolume([3]int{2, 3, 4})
	vol.Set(1, 2, 3, 42)
	vol.Set(0, 1, 0, 7)

	if vol.Data[23] != 42 {
		t.Errorf("Data[23] = %d, want 42", vol.Data[23])
	}
	if vol.Data[4] != 7 {
		t.Errorf("Data[4] = %d, want 7", vol.Data[4])
	}
	if vol.At(1, 2, 3) != 42 || vol.At(0, 1, 0) != 7 || vol.At(0, 0, 0) != 0 {
		t.Error("At does not read back Set values")
	}
}

func TestNewVolume_OverflowPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, errors.ErrCodeShapeMismatch) {
			t.Errorf("recovered %v, want SHAPE_MISMATCH error", r)
		}
	}()
	NewVolume([3]int{1 << 32, 1 << 32, 1})
}
