package estimator

import (
	"gonum.org/v1/gonum/mat"
)

// GradientBoosting fits shallow regression trees to squared-error residuals,
// starting from the target mean and shrinking each tree by LearningRate.
type GradientBoosting struct {
	Rounds       int
	MaxDepth     int
	LearningRate float64
	Seed         int64

	NFeatures   int
	Base        float64
	Trees       []Tree
	Importances []float64

	workers int
}

// NewGradientBoosting returns an unfitted booster configured from opts.
func NewGradientBoosting(opts Options) *GradientBoosting {
	rounds := opts.BoostRounds
	if rounds <= 0 {
		rounds = 100
	}
	depth := opts.BoostMaxDepth
	if depth <= 0 {
		depth = 6
	}
	lr := opts.BoostLearningRate
	if lr <= 0 {
		lr = 0.1
	}
	return &GradientBoosting{
		Rounds:       rounds,
		MaxDepth:     depth,
		LearningRate: lr,
		Seed:         opts.Seed,
		workers:      opts.Workers,
	}
}

func (m *GradientBoosting) Name() string { return "Gradient Boosting" }

// Fit runs the boosting rounds sequentially; split search inside each round
// is spread over the configured workers.
func (m *GradientBoosting) Fit(x mat.Matrix, y []float64) error {
	r, c, err := checkFitInput(x, y)
	if err != nil {
		return err
	}
	cols := columnMajor(x)

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(r)

	pred := make([]float64, r)
	for i := range pred {
		pred[i] = base
	}
	resid := make([]float64, r)
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	cfg := treeConfig{
		maxDepth:        m.MaxDepth,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		workers:         m.workers,
	}

	trees := make([]Tree, 0, m.Rounds)
	importances := make([]float64, c)
	row := make([]float64, c)
	for round := 0; round < m.Rounds; round++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}
		tree, imp := buildTree(cols, resid, idx, cfg)
		trees = append(trees, tree)
		for j, v := range imp {
			importances[j] += v
		}
		for i := 0; i < r; i++ {
			for j := range row {
				row[j] = cols[j][i]
			}
			pred[i] += m.LearningRate * tree.predictRow(row)
		}
	}

	m.NFeatures = c
	m.Base = base
	m.Trees = trees
	m.Importances = normalize(importances)
	return nil
}

// Features returns the fitted input width, or 0 before Fit.
func (m *GradientBoosting) Features() int {
	if len(m.Trees) == 0 {
		return 0
	}
	return m.NFeatures
}

func (m *GradientBoosting) Predict(x mat.Matrix) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, ErrNotFitted
	}
	r, err := checkPredictInput(x, m.NFeatures)
	if err != nil {
		return nil, err
	}
	out := make([]float64, r)
	row := make([]float64, m.NFeatures)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		v := m.Base
		for t := range m.Trees {
			v += m.LearningRate * m.Trees[t].predictRow(row)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportances returns the impurity decrease accumulated over all
// rounds, normalized to sum to one.
func (m *GradientBoosting) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}
