package estimator

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RMSE returns the root mean squared error of pred against truth.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var s float64
	for i := range truth {
		d := truth[i] - pred[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(truth)))
}

// MAE returns the mean absolute error of pred against truth.
func MAE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var s float64
	for i := range truth {
		s += math.Abs(truth[i] - pred[i])
	}
	return s / float64(len(truth))
}

// R2 returns the coefficient of determination. A constant truth vector
// yields NaN or -Inf.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	return stat.RSquaredFrom(pred, truth, nil)
}

// Scores bundles the three regression metrics.
type Scores struct {
	RMSE float64
	MAE  float64
	R2   float64
}

// Evaluate predicts x with m and scores the result against y.
func Evaluate(m Regressor, x mat.Matrix, y []float64) (Scores, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return Scores{}, err
	}
	return Scores{RMSE: RMSE(y, pred), MAE: MAE(y, pred), R2: R2(y, pred)}, nil
}
