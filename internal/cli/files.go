package cli

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/skeleton"
)

// isSWC reports whether path names an SWC file. Anything else is treated
// as a precomputed buffer.
func isSWC(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".swc")
}

func readSkeleton(path string) (*skeleton.Tree, error) {
	if isSWC(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return skeleton.ParseSWC(f)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return skeleton.DecodePrecomputed(buf)
}

func writeSkeleton(path string, t *skeleton.Tree, precision int) error {
	var data []byte
	if isSWC(path) {
		var err error
		if data, err = skeleton.MarshalSWC(t, precision); err != nil {
			return err
		}
	} else {
		data = skeleton.EncodePrecomputed(t)
	}
	return os.WriteFile(path, data, 0o644)
}

func readDendrogram(path string) (*dendrogram.Dendrogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := new(dendrogram.Dendrogram)
	if _, err := d.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func writeDendrogram(path string, d *dendrogram.Dendrogram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := d.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// readVolume loads a raw little-endian uint64 label volume in z, y, x order.
func readVolume(path string, shape []int) (*dendrogram.Volume, error) {
	if len(shape) != 3 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "volume shape needs 3 values, got %d", len(shape))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw)%8 != 0 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "%s: %d bytes is not a whole number of uint64 labels", path, len(raw))
	}

	data := make([]uint64, len(raw)/8)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return dendrogram.VolumeFromData([3]int{shape[0], shape[1], shape[2]}, data)
}

func blockShape(block []int) ([3]int, error) {
	if len(block) != 3 {
		return [3]int{}, errors.New(errors.ErrCodeInvalidBlockShape, "block shape needs 3 values, got %d", len(block))
	}
	return [3]int{block[0], block[1], block[2]}, nil
}
