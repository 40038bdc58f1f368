// Package preprocess builds the column transform applied to listing features
// before they reach an estimator.
//
// Numeric columns are imputed with their training median and standardized
// with the training mean and population standard deviation. Categorical
// columns are imputed with a placeholder category and one-hot encoded over
// the categories seen during fitting; unseen categories encode as all zeros.
// Columns of any other kind are dropped.
//
// A ColumnTransform is fit once, on the training split, and is read-only
// afterwards. Its fields are exported only so that it can be serialized
// inside a model bundle.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"delhi-house-price/dataset"
	"delhi-house-price/models"
)

// ErrNotFitted is returned when a transform without fitted columns is used.
var ErrNotFitted = errors.New("preprocess: transform is not fitted")

// NumericColumn holds the learned statistics of one numeric column.
type NumericColumn struct {
	Name   string
	Median float64
	Mean   float64
	Scale  float64
}

// CategoricalColumn holds the learned vocabulary of one categorical column.
type CategoricalColumn struct {
	Name       string
	Fill       string
	Categories []string
}

// ColumnTransform is the fitted numeric + categorical transform.
type ColumnTransform struct {
	Numeric     []NumericColumn
	Categorical []CategoricalColumn
}

// Fit learns the transform from a training feature table. Columns are
// partitioned by their declared kind.
func Fit(df *dataset.Frame) (*ColumnTransform, error) {
	if df.Len() == 0 {
		return nil, errors.New("preprocess: cannot fit on an empty table")
	}

	t := &ColumnTransform{}
	for _, c := range df.Columns() {
		switch c.Kind {
		case dataset.Numeric:
			t.Numeric = append(t.Numeric, fitNumeric(c))
		case dataset.Categorical:
			t.Categorical = append(t.Categorical, fitCategorical(c))
		}
	}
	if len(t.Numeric) == 0 && len(t.Categorical) == 0 {
		return nil, errors.New("preprocess: no numeric or categorical columns to fit")
	}
	return t, nil
}

func fitNumeric(c *dataset.Column) NumericColumn {
	median := dataset.Median(c.Nums)
	if math.IsNaN(median) {
		median = 0
	}
	imputed := make([]float64, len(c.Nums))
	for i, v := range c.Nums {
		if math.IsNaN(v) {
			v = median
		}
		imputed[i] = v
	}
	mean, std := stat.PopMeanStdDev(imputed, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return NumericColumn{Name: c.Name, Median: median, Mean: mean, Scale: std}
}

func fitCategorical(c *dataset.Column) CategoricalColumn {
	seen := make(map[string]struct{})
	for _, v := range c.Strs {
		if v == "" {
			v = models.UnknownCategory
		}
		seen[v] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return CategoricalColumn{Name: c.Name, Fill: models.UnknownCategory, Categories: cats}
}

// Fitted reports whether the transform holds learned columns.
func (t *ColumnTransform) Fitted() bool {
	return t != nil && (len(t.Numeric) > 0 || len(t.Categorical) > 0)
}

// InputColumns returns the names of the columns the transform expects, in
// the order they were fit: numeric columns first, then categorical ones.
func (t *ColumnTransform) InputColumns() []string {
	names := make([]string, 0, len(t.Numeric)+len(t.Categorical))
	for _, c := range t.Numeric {
		names = append(names, c.Name)
	}
	for _, c := range t.Categorical {
		names = append(names, c.Name)
	}
	return names
}

// FeatureNames returns the names of the output features: numeric column
// names followed by "<column>_<category>" for every one-hot position.
func (t *ColumnTransform) FeatureNames() []string {
	names := make([]string, 0, t.Width())
	for _, c := range t.Numeric {
		names = append(names, c.Name)
	}
	for _, c := range t.Categorical {
		for _, cat := range c.Categories {
			names = append(names, c.Name+"_"+cat)
		}
	}
	return names
}

// Width returns the number of output features.
func (t *ColumnTransform) Width() int {
	w := len(t.Numeric)
	for _, c := range t.Categorical {
		w += len(c.Categories)
	}
	return w
}

// Transform encodes df into a rows × Width() matrix. Every input column must
// be present; extra columns are ignored. A column whose kind differs from
// the fitted kind is converted: numbers become category labels, and text in
// a numeric column must parse as a number.
func (t *ColumnTransform) Transform(df *dataset.Frame) (*mat.Dense, error) {
	if !t.Fitted() {
		return nil, ErrNotFitted
	}
	if df.Len() == 0 {
		return nil, errors.New("preprocess: cannot transform an empty table")
	}

	var missing []string
	for _, name := range t.InputColumns() {
		if !df.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("preprocess: input is missing fitted columns %v", missing)
	}

	rows := df.Len()
	out := mat.NewDense(rows, t.Width(), nil)
	col := 0

	for _, nc := range t.Numeric {
		c, _ := df.Column(nc.Name)
		vals, err := numericValues(c)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				v = nc.Median
			}
			out.Set(i, col, (v-nc.Mean)/nc.Scale)
		}
		col++
	}

	for _, cc := range t.Categorical {
		c, _ := df.Column(cc.Name)
		vals := categoricalValues(c)
		for i, v := range vals {
			if v == "" {
				v = cc.Fill
			}
			if k := sort.SearchStrings(cc.Categories, v); k < len(cc.Categories) && cc.Categories[k] == v {
				out.Set(i, col+k, 1)
			}
		}
		col += len(cc.Categories)
	}

	return out, nil
}

func numericValues(c *dataset.Column) ([]float64, error) {
	if c.Kind == dataset.Numeric {
		return c.Nums, nil
	}
	vals := make([]float64, len(c.Strs))
	for i, s := range c.Strs {
		if s == "" {
			vals[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("preprocess: column %q row %d: %q is not numeric", c.Name, i, s)
		}
		vals[i] = f
	}
	return vals, nil
}

func categoricalValues(c *dataset.Column) []string {
	if c.Kind == dataset.Categorical {
		return c.Strs
	}
	vals := make([]string, len(c.Nums))
	for i := range c.Nums {
		vals[i] = c.Cell(i)
	}
	return vals
}
