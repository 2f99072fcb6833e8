package dendrogram

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"reneu/pkg/errors"
)

const (
	magicBytes = "RENEUDND"
	version    = uint32(1)

	headerSize  = 8 + 4 + 4 + 8
	edgeRecSize = 8 + 8 + 4
	trailerSize = 4
)

// maxEdges caps the edge count on both write and read.
var maxEdges uint64 = 100_000_000

// fileHeader is the binary header.
type fileHeader struct {
	Magic     [8]byte
	Version   uint32
	Threshold float32
	NumEdges  uint64
}

// MarshalBinary implements encoding.BinaryMarshaler. The layout is the
// header, then all A ids, all B ids and all weights as little-endian arrays,
// then a CRC32 (IEEE) of everything before it.
func (d *Dendrogram) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(d.edges)*edgeRecSize + trailerSize)
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error d is left
// unchanged.
func (d *Dendrogram) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return errors.New(errors.ErrCodeTruncatedBuffer,
			"%d bytes is fewer than the %d byte header", len(data), headerSize)
	}
	numEdges := binary.LittleEndian.Uint64(data[16:24])
	if string(data[:8]) == magicBytes && numEdges <= maxEdges {
		if need := uint64(headerSize) + numEdges*edgeRecSize + trailerSize; uint64(len(data)) < need {
			return errors.New(errors.ErrCodeUndersizedBuffer,
				"the input dendrogram was %d bytes but %d edges require %d bytes", len(data), numEdges, need)
		}
	}

	var decoded Dendrogram
	r := bytes.NewReader(data)
	if _, err := decoded.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() > 0 {
		return errors.New(errors.ErrCodeFormat, "%d trailing bytes after checksum", r.Len())
	}
	*d = decoded
	return nil
}

// WriteTo implements io.WriterTo.
func (d *Dendrogram) WriteTo(w io.Writer) (int64, error) {
	if uint64(len(d.edges)) > maxEdges {
		return 0, errors.New(errors.ErrCodeInvalidInput, "edge count %d exceeds limit %d", len(d.edges), maxEdges)
	}
	cw := &crc32Writer{w: w, hash: crc32.NewIEEE()}

	hdr := fileHeader{
		Version:   version,
		Threshold: d.threshold,
		NumEdges:  uint64(len(d.edges)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return cw.n, err
	}

	a := make([]uint64, len(d.edges))
	b := make([]uint64, len(d.edges))
	weights := make([]float32, len(d.edges))
	for i, e := range d.edges {
		a[i], b[i], weights[i] = e.A, e.B, e.Weight
	}
	for _, s := range []any{a, b, weights} {
		if err := binary.Write(cw, binary.LittleEndian, s); err != nil {
			return cw.n, err
		}
	}

	checksum := cw.hash.Sum32()
	if err := binary.Write(w, binary.LittleEndian, checksum); err != nil {
		return cw.n, err
	}
	return cw.n + trailerSize, nil
}

// ReadFrom implements io.ReaderFrom. It consumes exactly one encoded
// dendrogram from r and replaces the contents of d.
func (d *Dendrogram) ReadFrom(r io.Reader) (int64, error) {
	cr := &crc32Reader{r: r, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return cr.n, errors.Wrap(errors.ErrCodeTruncatedBuffer, err, "read header")
	}
	if string(hdr.Magic[:]) != magicBytes {
		return cr.n, errors.New(errors.ErrCodeFormat, "invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return cr.n, errors.New(errors.ErrCodeFormat, "unsupported version: %d", hdr.Version)
	}
	if hdr.NumEdges > maxEdges {
		return cr.n, errors.New(errors.ErrCodeFormat, "edge count %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}

	n := int(hdr.NumEdges)
	a := make([]uint64, n)
	b := make([]uint64, n)
	weights := make([]float32, n)
	for _, s := range []any{a, b, weights} {
		if err := binary.Read(cr, binary.LittleEndian, s); err != nil {
			return cr.n, errors.Wrap(errors.ErrCodeUndersizedBuffer, err, "read %d edges", n)
		}
	}

	expectedCRC := cr.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(r, binary.LittleEndian, &storedCRC); err != nil {
		return cr.n, errors.Wrap(errors.ErrCodeUndersizedBuffer, err, "read CRC32")
	}
	if storedCRC != expectedCRC {
		return cr.n + trailerSize, errors.New(errors.ErrCodeFormat,
			"CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	edges := make([]Edge, n)
	for i := range edges {
		edges[i] = Edge{A: a[i], B: b[i], Weight: weights[i]}
	}
	d.threshold = hdr.Threshold
	d.edges = edges
	return cr.n + trailerSize, nil
}

// CRC32 wrapping writers/readers that also count bytes.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
	n    int64
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
	n    int64
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
		cr.n += int64(n)
	}
	return n, err
}
