package skeleton

import (
	"strings"
	"testing"

	"reneu/pkg/errors"
)

func TestParseSWC(t *testing.T) {
	input := `# exported by a tracer
# radius z y x class parent

1.0 0 0 0 1 -1
0.5 0 0 1.5 3 0
  0.25 2 4 8 3 1
`
	tree, err := ParseSWC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseSWC: %v", err)
	}
	if tree.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3", tree.NodeCount())
	}

	want := Node{Radius: 0.25, Z: 2, Y: 4, X: 8}
	if tree.Nodes[2] != want {
		t.Errorf("Nodes[2] = %+v, want %+v", tree.Nodes[2], want)
	}
	if tree.Attrs[0].Class != ClassSoma || tree.Attrs[1].Class != ClassBasalDendrite {
		t.Errorf("classes = %v, %v", tree.Attrs[0].Class, tree.Attrs[1].Class)
	}
	if _, ok := tree.Parent(0); ok {
		t.Error("node 0 should be a root")
	}
	if p, ok := tree.Parent(2); !ok || p != 1 {
		t.Errorf("Parent(2) = (%d, %v), want (1, true)", p, ok)
	}
}

func TestParseSWCErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{name: "too few columns", input: "1 0 0 0 1\n", code: errors.ErrCodeFormat},
		{name: "too many columns", input: "1 0 0 0 1 -1 7\n", code: errors.ErrCodeFormat},
		{name: "not a number", input: "1 0 zero 0 1 -1\n", code: errors.ErrCodeFormat},
		{name: "dangling parent", input: "1 0 0 0 1 -1\n1 0 0 1 1 5\n", code: errors.ErrCodeInvalidTopology},
		{name: "nan class", input: "1 0 0 0 nan -1\n", code: errors.ErrCodeFormat},
		{name: "nan parent", input: "1 0 0 0 1 NaN\n", code: errors.ErrCodeFormat},
		{name: "infinite parent", input: "1 0 0 0 1 -Inf\n", code: errors.ErrCodeFormat},
		{name: "fractional class", input: "1 0 0 0 1.5 -1\n", code: errors.ErrCodeFormat},
		{name: "class above byte", input: "1 0 0 0 256 -1\n", code: errors.ErrCodeFormat},
		{name: "negative class", input: "1 0 0 0 -1 -1\n", code: errors.ErrCodeFormat},
		{name: "parent below sentinel", input: "1 0 0 0 1 -3\n", code: errors.ErrCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSWC(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestParseSWCReportsLine(t *testing.T) {
	_, err := ParseSWC(strings.NewReader("# header\n1 0 0 0 1 -1\n1 0 0\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("err = %v, want mention of line 3", err)
	}
}

func TestWriteSWC(t *testing.T) {
	tree, err := Build(
		[]Node{{Radius: 1, Z: 2, Y: 3, X: 4.5}, {Radius: 0.5, Z: 2, Y: 3, X: 6.5}},
		[]int32{-1, 0},
		[]Class{ClassSoma, ClassAxon},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		precision int
		want      string
	}{
		{precision: 3, want: "1.000 2.000 3.000 4.500 1 -1\n0.500 2.000 3.000 6.500 2 0\n"},
		{precision: 1, want: "1.0 2.0 3.0 4.5 1 -1\n0.5 2.0 3.0 6.5 2 0\n"},
	}
	for _, tt := range tests {
		got, err := MarshalSWC(tree, tt.precision)
		if err != nil {
			t.Fatalf("MarshalSWC(%d): %v", tt.precision, err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalSWC(%d) = %q, want %q", tt.precision, got, tt.want)
		}
	}
}

func TestWriteSWCIntegerPrecision(t *testing.T) {
	tree, err := Build([]Node{{Radius: 40, Z: 120, Y: 800, X: 1600}}, []int32{-1}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := MarshalSWC(tree, 0)
	if err != nil {
		t.Fatalf("MarshalSWC: %v", err)
	}
	if want := "40 120 800 1600 0 -1\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteSWCUnsetParent(t *testing.T) {
	tree := buildTestForest(t)
	tree.Attrs[4].Parent = UnsetRef

	got, err := MarshalSWC(tree, 0)
	if err != nil {
		t.Fatalf("MarshalSWC: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	if !strings.HasSuffix(lines[4], " -1") {
		t.Errorf("line 5 = %q, want parent -1", lines[4])
	}
}

func TestWriteSWCNegativePrecision(t *testing.T) {
	_, err := MarshalSWC(buildTestForest(t), -1)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestSWCRoundTrip(t *testing.T) {
	tree := buildTestForest(t)
	tree.Nodes[3].X = 1.2345

	data, err := MarshalSWC(tree, DefaultPrecision)
	if err != nil {
		t.Fatalf("MarshalSWC: %v", err)
	}
	back, err := ParseSWC(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ParseSWC: %v", err)
	}
	if !tree.Equals(back, DefaultTolerance) {
		t.Errorf("round trip differs:\n%s", data)
	}
}
