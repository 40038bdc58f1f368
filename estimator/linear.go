package estimator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ridgeEpsilon scales a vanishing ridge term added to the normal equations.
// One-hot blocks are collinear with the intercept, so the plain system is
// singular; in the limit the regularized solution is the minimum-norm
// least-squares fit.
const ridgeEpsilon = 1e-9

// LinearRegression is ordinary least squares with an intercept.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

// NewLinearRegression returns an unfitted linear model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Name() string { return "Linear Regression" }

// Fit centers the features and target and solves the normal equations.
func (m *LinearRegression) Fit(x mat.Matrix, y []float64) error {
	r, c, err := checkFitInput(x, y)
	if err != nil {
		return err
	}

	xMean := make([]float64, c)
	for j := 0; j < c; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += x.At(i, j)
		}
		xMean[j] = s / float64(r)
	}
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(r)

	xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			xc.Set(i, j, x.At(i, j)-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	var trace float64
	for j := 0; j < c; j++ {
		trace += gram.At(j, j)
	}
	lambda := ridgeEpsilon * (trace/float64(c) + 1)
	for j := 0; j < c; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var coef mat.VecDense
	if err := coef.SolveVec(&gram, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("linear regression: solve normal equations: %w", err)
		}
	}

	m.Coef = make([]float64, c)
	m.Intercept = yMean
	for j := 0; j < c; j++ {
		m.Coef[j] = coef.AtVec(j)
		m.Intercept -= xMean[j] * m.Coef[j]
	}
	return nil
}

func (m *LinearRegression) Features() int { return len(m.Coef) }

func (m *LinearRegression) Predict(x mat.Matrix) ([]float64, error) {
	if len(m.Coef) == 0 {
		return nil, ErrNotFitted
	}
	r, err := checkPredictInput(x, len(m.Coef))
	if err != nil {
		return nil, err
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		v := m.Intercept
		for j, w := range m.Coef {
			v += w * x.At(i, j)
		}
		out[i] = v
	}
	return out, nil
}
