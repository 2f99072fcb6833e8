package dendrogram

import (
	"math"

	"reneu/pkg/errors"
)

// Volume is a dense 3-D label array in C order: Data[(z*Y+y)*X+x].
type Volume struct {
	Shape [3]int // z, y, x
	Data  []uint64
}

// volumeLen returns the voxel count of shape, rejecting negative
// dimensions and counts that do not fit in an int.
func volumeLen(shape [3]int) (int, error) {
	n := 1
	for i, s := range shape {
		if s < 0 {
			return 0, errors.New(errors.ErrCodeShapeMismatch, "dimension %d is negative: %d", i, s)
		}
		if s != 0 && n > math.MaxInt/s {
			return 0, errors.New(errors.ErrCodeShapeMismatch, "shape %v overflows the voxel count", shape)
		}
		n *= s
	}
	return n, nil
}

// NewVolume allocates a zeroed volume. It panics on a negative dimension
// or a shape whose voxel count overflows.
func NewVolume(shape [3]int) *Volume {
	n, err := volumeLen(shape)
	if err != nil {
		panic(err)
	}
	return &Volume{Shape: shape, Data: make([]uint64, n)}
}

// VolumeFromData wraps data without copying.
func VolumeFromData(shape [3]int, data []uint64) (*Volume, error) {
	n, err := volumeLen(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "shape %v needs %d labels, got %d", shape, n, len(data))
	}
	return &Volume{Shape: shape, Data: data}, nil
}

// Len returns the number of voxels.
func (v *Volume) Len() int { return len(v.Data) }

func (v *Volume) index(z, y, x int) int {
	return (z*v.Shape[1]+y)*v.Shape[2] + x
}

// At returns the label at (z, y, x).
func (v *Volume) At(z, y, x int) uint64 { return v.Data[v.index(z, y, x)] }

// Set stores label at (z, y, x).
func (v *Volume) Set(z, y, x int, label uint64) { v.Data[v.index(z, y, x)] = label }
