package estimator

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"delhi-house-price/utils"
)

// RandomForest averages bootstrap-trained regression trees. Tree i draws its
// bootstrap sample from a generator seeded with Seed+i, so the fitted forest
// is the same for any number of workers.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64

	NFeatures   int
	Trees       []Tree
	Importances []float64

	workers int
}

// NewRandomForest returns an unfitted forest configured from opts.
func NewRandomForest(opts Options) *RandomForest {
	n := opts.ForestTrees
	if n <= 0 {
		n = 100
	}
	return &RandomForest{
		NEstimators:     n,
		MaxDepth:        opts.ForestMaxDepth,
		MinSamplesSplit: opts.ForestMinSamplesSplit,
		Seed:            opts.Seed,
		workers:         opts.Workers,
	}
}

func (m *RandomForest) Name() string { return "Random Forest" }

// Fit grows the trees concurrently, one tree per job.
func (m *RandomForest) Fit(x mat.Matrix, y []float64) error {
	r, c, err := checkFitInput(x, y)
	if err != nil {
		return err
	}
	cols := columnMajor(x)

	trees := make([]Tree, m.NEstimators)
	perTree := make([][]float64, m.NEstimators)
	cfg := treeConfig{
		maxDepth:        m.MaxDepth,
		minSamplesSplit: m.MinSamplesSplit,
		minSamplesLeaf:  1,
		workers:         1,
	}

	utils.ParallelFor(m.workers, m.NEstimators, func(t int) {
		rng := rand.New(rand.NewSource(m.Seed + int64(t)))
		idx := make([]int, r)
		for i := range idx {
			idx[i] = rng.Intn(r)
		}
		tree, imp := buildTree(cols, y, idx, cfg)
		trees[t] = tree
		perTree[t] = normalize(imp)
	})

	importances := make([]float64, c)
	for _, imp := range perTree {
		for j, v := range imp {
			importances[j] += v
		}
	}
	m.NFeatures = c
	m.Trees = trees
	m.Importances = normalize(importances)
	return nil
}

// Features returns the fitted input width, or 0 before Fit.
func (m *RandomForest) Features() int {
	if len(m.Trees) == 0 {
		return 0
	}
	return m.NFeatures
}

func (m *RandomForest) Predict(x mat.Matrix) ([]float64, error) {
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
		var sum float64
		for t := range m.Trees {
			sum += m.Trees[t].predictRow(row)
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out, nil
}

// FeatureImportances returns the mean of the per-tree normalized impurity
// decreases.
func (m *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}
