package skeleton

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"reneu/pkg/errors"
)

// DefaultPrecision is the number of fractional digits written for SWC float
// columns. Use 0 for coordinates in integer units such as nanometers.
const DefaultPrecision = 3

// swcColumns is the column count of one SWC row:
// radius, z, y, x, class, parent.
const swcColumns = 6

// ParseSWC reads an SWC forest. Blank lines and lines starting with '#' are
// skipped. Every other line must hold six numeric columns.
func ParseSWC(r io.Reader) (*Tree, error) {
	var (
		nodes   []Node
		parents []int32
		classes []Class
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != swcColumns {
			return nil, errors.New(errors.ErrCodeFormat, "line %d: expected %d columns, got %d", lineNum, swcColumns, len(fields))
		}

		var vals [swcColumns]float32
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeFormat, err, "line %d column %d", lineNum, i+1)
			}
			vals[i] = float32(v)
		}

		class, err := intColumn(vals[4], 0, float64(MaxClass))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormat, err, "line %d class", lineNum)
		}
		parent, err := intColumn(vals[5], float64(UnsetRef), math.MaxInt32)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormat, err, "line %d parent", lineNum)
		}

		nodes = append(nodes, Node{Radius: vals[0], Z: vals[1], Y: vals[2], X: vals[3]})
		classes = append(classes, Class(class))
		parents = append(parents, int32(parent))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "read swc")
	}

	return Build(nodes, parents, classes)
}

// intColumn checks that v is a whole number in [lo, hi].
func intColumn(v float32, lo, hi float64) (int64, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.New(errors.ErrCodeFormat, "%v is not an integer", v)
	}
	if f < lo || f > hi {
		return 0, errors.New(errors.ErrCodeFormat, "%v outside [%v, %v]", v, lo, hi)
	}
	return int64(f), nil
}

// WriteSWC writes one row per node with float columns formatted to
// precision fractional digits. Nodes without a parent are written with -1.
func WriteSWC(w io.Writer, t *Tree, precision int) error {
	if precision < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative precision %d", precision)
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 128)
	for i, n := range t.Nodes {
		a := t.Attrs[i]
		parent := -1
		if p, ok := a.Parent.Index(); ok {
			parent = p
		}

		buf = buf[:0]
		buf = strconv.AppendFloat(buf, float64(n.Radius), 'f', precision, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(n.Z), 'f', precision, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(n.Y), 'f', precision, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(n.X), 'f', precision, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(a.Class), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(parent), 10)
		buf = append(buf, '\n')

		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MarshalSWC returns the SWC text of t.
func MarshalSWC(t *Tree, precision int) ([]byte, error) {
	var b bytes.Buffer
	if err := WriteSWC(&b, t, precision); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
