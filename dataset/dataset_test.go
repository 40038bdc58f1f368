package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

const sampleCSV = `,price,area,Status,Lift
0,5000000,1000,Ready to Move,2
1,,850,,NA
2,7500000,1200,Under Construction,
`

func TestReadCSVInfersKinds(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", f.Len())
	}

	wantNames := []string{"Unnamed: 0", "price", "area", "Status", "Lift"}
	for i, n := range f.Names() {
		if n != wantNames[i] {
			t.Errorf("name[%d]: got %q, want %q", i, n, wantNames[i])
		}
	}

	tests := []struct {
		col  string
		kind Kind
	}{
		{"price", Numeric},
		{"area", Numeric},
		{"Status", Categorical},
		{"Lift", Numeric},
	}
	for _, tt := range tests {
		c, ok := f.Column(tt.col)
		if !ok {
			t.Fatalf("column %q missing", tt.col)
		}
		if c.Kind != tt.kind {
			t.Errorf("%s kind: got %s, want %s", tt.col, c.Kind, tt.kind)
		}
	}

	price, _ := f.Numeric("price")
	if !math.IsNaN(price[1]) {
		t.Errorf("empty price should be NaN, got %v", price[1])
	}
	status, _ := f.Column("Status")
	if !status.IsMissing(1) {
		t.Error("empty status should be missing")
	}
	lift, _ := f.Numeric("Lift")
	if !math.IsNaN(lift[1]) || !math.IsNaN(lift[2]) {
		t.Errorf("NA and trailing empty lift should be NaN, got %v", lift)
	}
}

func TestReadCSVRejectsLongRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	if err == nil {
		t.Fatal("expected error for row wider than header")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestWriteCSVRoundTripCells(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, f); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Unnamed: 0,price,area,Status,Lift" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[2] != "1,,850,," {
		t.Errorf("row with missing cells: got %q", lines[2])
	}
}

func TestFrameOperationsDoNotMutate(t *testing.T) {
	f := New(3)
	_ = f.SetNumeric("x", []float64{1, 2, 3})
	_ = f.SetCategorical("c", []string{"a", "b", ""})

	dropped := f.Drop("c", "absent")
	if dropped.Has("c") || !f.Has("c") {
		t.Error("Drop must return a new frame and keep the receiver intact")
	}

	filtered := f.Filter(func(i int) bool { return i != 1 })
	if filtered.Len() != 2 || f.Len() != 3 {
		t.Errorf("Filter: got %d rows (receiver %d)", filtered.Len(), f.Len())
	}
	x, _ := filtered.Numeric("x")
	if x[0] != 1 || x[1] != 3 {
		t.Errorf("filtered values: got %v", x)
	}

	clone := f.Clone()
	cx, _ := clone.Numeric("x")
	cx[0] = 99
	ox, _ := f.Numeric("x")
	if ox[0] != 1 {
		t.Error("Clone must deep-copy column data")
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	f := New(2)
	_ = f.SetNumeric("a", []float64{1, 2})
	_ = f.SetNumeric("b", []float64{3, 4})
	_ = f.SetNumeric("a", []float64{5, 6})

	if names := f.Names(); names[0] != "a" || names[1] != "b" || len(names) != 2 {
		t.Errorf("names after replace: got %v", names)
	}
	if err := f.SetNumeric("c", []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestQuantileLinearInterpolation(t *testing.T) {
	vals := []float64{4, math.NaN(), 1, 3, 2, 5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 3},
		{0.25, 2},
		{0.01, 1.04},
		{0.99, 4.96},
		{1, 5},
	}
	for _, tt := range tests {
		got := Quantile(vals, tt.p)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Quantile(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
	if !math.IsNaN(Median([]float64{math.NaN()})) {
		t.Error("median of all-missing column should be NaN")
	}
}
