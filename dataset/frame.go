// Package dataset holds the in-memory tabular representation of listing data.
//
// A Frame is an ordered set of equally long columns. Numeric columns store
// missing cells as NaN; categorical columns store them as the empty string.
// Operations that change the shape of a frame return a new frame and leave
// the receiver untouched.
package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the declared type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a single named column. Exactly one of Nums or Strs is used,
// depending on Kind.
type Column struct {
	Name string
	Kind Kind
	Nums []float64
	Strs []string
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Nums)
	}
	return len(c.Strs)
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Nums[i])
	}
	return c.Strs[i] == ""
}

// Cell renders cell i as text. Missing cells render as "".
func (c *Column) Cell(i int) string {
	if c.Kind == Categorical {
		return c.Strs[i]
	}
	v := c.Nums[i]
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Nums != nil {
		out.Nums = append([]float64(nil), c.Nums...)
	}
	if c.Strs != nil {
		out.Strs = append([]string(nil), c.Strs...)
	}
	return out
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Nums = make([]float64, len(idx))
		for j, i := range idx {
			out.Nums[j] = c.Nums[i]
		}
		return out
	}
	out.Strs = make([]string, len(idx))
	for j, i := range idx {
		out.Strs[j] = c.Strs[i]
	}
	return out
}

// Frame is an ordered collection of equally long columns.
type Frame struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// New returns an empty frame with the given number of rows.
func New(rows int) *Frame {
	return &Frame{rows: rows, index: make(map[string]int)}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The returned columns must be treated
// as read-only.
func (f *Frame) Columns() []*Column { return f.cols }

// Has reports whether the frame contains a column with the given name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// HasNumeric reports whether the frame contains a numeric column name.
func (f *Frame) HasNumeric(name string) bool {
	c, ok := f.Column(name)
	return ok && c.Kind == Numeric
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("dataset: column %q not found", name)
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("dataset: column %q is %s, not numeric", name, c.Kind)
	}
	return c.Nums, nil
}

// SetNumeric adds or replaces a numeric column. A replaced column keeps its
// position; a new column is appended.
func (f *Frame) SetNumeric(name string, vals []float64) error {
	if len(vals) != f.rows {
		return fmt.Errorf("dataset: column %q has %d values, frame has %d rows", name, len(vals), f.rows)
	}
	f.set(&Column{Name: name, Kind: Numeric, Nums: vals})
	return nil
}

// SetCategorical adds or replaces a categorical column.
func (f *Frame) SetCategorical(name string, vals []string) error {
	if len(vals) != f.rows {
		return fmt.Errorf("dataset: column %q has %d values, frame has %d rows", name, len(vals), f.rows)
	}
	f.set(&Column{Name: name, Kind: Categorical, Strs: vals})
	return nil
}

func (f *Frame) set(c *Column) {
	if i, ok := f.index[c.Name]; ok {
		f.cols[i] = c
		return
	}
	f.index[c.Name] = len(f.cols)
	f.cols = append(f.cols, c)
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.rows)
	for _, c := range f.cols {
		out.set(c.clone())
	}
	return out
}

// Drop returns a copy of the frame without the named columns. Names that
// are not present are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := New(f.rows)
	for _, c := range f.cols {
		if _, ok := skip[c.Name]; ok {
			continue
		}
		out.set(c.clone())
	}
	return out
}

// Take returns a new frame holding the rows at idx, in that order.
func (f *Frame) Take(idx []int) *Frame {
	out := New(len(idx))
	for _, c := range f.cols {
		out.set(c.take(idx))
	}
	return out
}

// Filter returns a new frame holding the rows for which keep returns true.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	idx := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Row renders row i as text cells in column order.
func (f *Frame) Row(i int) []string {
	cells := make([]string, len(f.cols))
	for j, c := range f.cols {
		cells[j] = c.Cell(i)
	}
	return cells
}
