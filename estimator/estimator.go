// Package estimator implements the regression models trained on transformed
// listing features, and the registry the trainer draws them from.
package estimator

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrUnavailable is reported by a provider whose implementation cannot be
// used in the running binary.
var ErrUnavailable = errors.New("estimator unavailable")

// ErrNotFitted is returned by Predict on an estimator that was never fit.
var ErrNotFitted = errors.New("estimator is not fitted")

// Regressor is a fitted-or-fittable regression model. Features reports the
// input width the model was fit on, or 0 before Fit.
type Regressor interface {
	Name() string
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
	Features() int
}

// Importancer is implemented by estimators that can report per-feature
// importances. The returned slice sums to 1 unless every value is zero.
type Importancer interface {
	FeatureImportances() []float64
}

// Options carries the hyper-parameters of every estimator in the registry.
type Options struct {
	Seed    int64
	Workers int

	ForestTrees           int
	ForestMaxDepth        int
	ForestMinSamplesSplit int

	BoostRounds       int
	BoostMaxDepth     int
	BoostLearningRate float64
}

// DefaultOptions returns the hyper-parameters used for the production model.
func DefaultOptions() Options {
	return Options{
		Seed:                  42,
		ForestTrees:           100,
		ForestMaxDepth:        20,
		ForestMinSamplesSplit: 5,
		BoostRounds:           100,
		BoostMaxDepth:         6,
		BoostLearningRate:     0.1,
	}
}

func init() {
	gob.Register(&LinearRegression{})
	gob.Register(&RandomForest{})
	gob.Register(&GradientBoosting{})
}

func checkFitInput(x mat.Matrix, y []float64) (int, int, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.New("estimator: empty training matrix")
	}
	if r != len(y) {
		return 0, 0, fmt.Errorf("estimator: %d rows but %d targets", r, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("estimator: target %d is not finite", i)
		}
	}
	return r, c, nil
}

func checkPredictInput(x mat.Matrix, features int) (int, error) {
	r, c := x.Dims()
	if c != features {
		return 0, fmt.Errorf("estimator: got %d features, model was fit on %d", c, features)
	}
	return r, nil
}

// columnMajor copies x into one slice per feature.
func columnMajor(x mat.Matrix) [][]float64 {
	r, c := x.Dims()
	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		for i := 0; i < r; i++ {
			col[i] = x.At(i, j)
		}
		cols[j] = col
	}
	return cols
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}
