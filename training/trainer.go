// Package training fits every available estimator on a shared train split,
// scores them on a shared test split and keeps the best one.
package training

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"delhi-house-price/dataset"
	"delhi-house-price/estimator"
	"delhi-house-price/models"
	"delhi-house-price/preprocess"
	"delhi-house-price/utils"
)

// ErrNoEstimators is returned when every registered estimator is unavailable.
var ErrNoEstimators = errors.New("training: no estimators available")

// Split holds the row indices of a train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// SplitRows shuffles n row indices with the given seed and holds out
// ceil(n*testSize) of them for testing.
func SplitRows(n int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("training: test size %v must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if n < 2 || nTest >= n {
		return Split{}, fmt.Errorf("training: %d rows are too few to split with test size %v", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}

// Result is the outcome of one training run.
type Result struct {
	Transform   *preprocess.ColumnTransform
	Best        estimator.Regressor
	BestIndex   int
	Evaluations []models.EvaluationResult
	Importances map[string][]models.FeatureImportance
	Skipped     map[string]error
	TrainRows   int
	TestRows    int
	Elapsed     time.Duration
}

// BestEvaluation returns the evaluation of the selected estimator.
func (r *Result) BestEvaluation() models.EvaluationResult {
	return r.Evaluations[r.BestIndex]
}

// Trainer fits and compares the estimators of a registry.
type Trainer struct {
	logger   *utils.Logger
	registry *estimator.Registry
	opts     estimator.Options
	testSize float64
	topK     int
}

// NewTrainer creates a Trainer that holds out testSize of the rows and
// reports the topK most important features per model.
func NewTrainer(logger *utils.Logger, registry *estimator.Registry, opts estimator.Options, testSize float64, topK int) *Trainer {
	return &Trainer{
		logger:   logger,
		registry: registry,
		opts:     opts,
		testSize: testSize,
		topK:     topK,
	}
}

// Train splits df, fits the column transform on the training rows only and
// fits every available estimator on the transformed features. The estimator
// with the highest test R² wins; on a tie the earlier registered one is kept.
func (t *Trainer) Train(df *dataset.Frame, target string) (*Result, error) {
	start := time.Now()

	y, err := df.Numeric(target)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	providers, skipped := t.available()
	if len(providers) == 0 {
		return nil, ErrNoEstimators
	}

	split, err := SplitRows(df.Len(), t.testSize, t.opts.Seed)
	if err != nil {
		return nil, err
	}
	features := df.Drop(target)
	trainX, testX := features.Take(split.Train), features.Take(split.Test)
	trainY, testY := pick(y, split.Train), pick(y, split.Test)
	t.logger.Info("[trainer] Split %d rows: %d train / %d test (seed %d)",
		df.Len(), len(split.Train), len(split.Test), t.opts.Seed)

	transform, err := preprocess.Fit(trainX)
	if err != nil {
		return nil, fmt.Errorf("training: fit transform: %w", err)
	}
	xTrain, err := transform.Transform(trainX)
	if err != nil {
		return nil, fmt.Errorf("training: transform train split: %w", err)
	}
	xTest, err := transform.Transform(testX)
	if err != nil {
		return nil, fmt.Errorf("training: transform test split: %w", err)
	}
	t.logger.Info("[trainer] Transform: %d input columns → %d features",
		len(transform.InputColumns()), transform.Width())

	res := &Result{
		Transform:   transform,
		Importances: make(map[string][]models.FeatureImportance),
		Skipped:     skipped,
		TrainRows:   len(split.Train),
		TestRows:    len(split.Test),
	}
	fitted := make([]estimator.Regressor, 0, len(providers))
	for _, p := range providers {
		est := p.New(t.opts)
		eval, err := t.fitAndEvaluate(est, xTrain, trainY, xTest, testY)
		if err != nil {
			return nil, fmt.Errorf("training: %s: %w", p.Name, err)
		}
		fitted = append(fitted, est)
		res.Evaluations = append(res.Evaluations, eval)

		if imp, ok := est.(estimator.Importancer); ok {
			res.Importances[est.Name()] = TopImportances(est.Name(), transform.FeatureNames(), imp.FeatureImportances(), t.topK)
		}
	}

	res.BestIndex = SelectBest(res.Evaluations)
	res.Best = fitted[res.BestIndex]
	res.Elapsed = time.Since(start)
	best := res.BestEvaluation()
	t.logger.Info("[trainer] Best model: %s (test R² %.4f, RMSE %.2f)", best.ModelName, best.TestR2, best.TestRMSE)
	return res, nil
}

func (t *Trainer) available() ([]estimator.Provider, map[string]error) {
	var ok []estimator.Provider
	skipped := make(map[string]error)
	for _, p := range t.registry.Providers() {
		if err := p.Available(); err != nil {
			t.logger.Warn("[trainer] Skipping %s: %v", p.Name, err)
			skipped[p.Name] = err
			continue
		}
		ok = append(ok, p)
	}
	return ok, skipped
}

func (t *Trainer) fitAndEvaluate(est estimator.Regressor, xTrain *mat.Dense, yTrain []float64, xTest *mat.Dense, yTest []float64) (models.EvaluationResult, error) {
	t.logger.Info("[trainer] Fitting %s...", est.Name())
	fitStart := time.Now()
	if err := est.Fit(xTrain, yTrain); err != nil {
		return models.EvaluationResult{}, err
	}
	fitTime := time.Since(fitStart)

	train, err := estimator.Evaluate(est, xTrain, yTrain)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	test, err := estimator.Evaluate(est, xTest, yTest)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	t.logger.Info("[trainer] %s: train R² %.4f | test R² %.4f | test RMSE %.2f | %v",
		est.Name(), train.R2, test.R2, test.RMSE, fitTime.Round(time.Millisecond))

	return models.EvaluationResult{
		ModelName: est.Name(),
		TrainRMSE: train.RMSE,
		TrainMAE:  train.MAE,
		TrainR2:   train.R2,
		TestRMSE:  test.RMSE,
		TestMAE:   test.MAE,
		TestR2:    test.R2,
		FitTime:   fitTime,
	}, nil
}

// SelectBest returns the index of the first evaluation with the highest test
// R². NaN scores rank below every number.
func SelectBest(evals []models.EvaluationResult) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, e := range evals {
		score := e.TestR2
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// TopImportances ranks features by importance and keeps the first k.
// A non-positive k keeps all of them.
func TopImportances(model string, names []string, importances []float64, k int) []models.FeatureImportance {
	items := make([]models.FeatureImportance, 0, len(importances))
	for i, v := range importances {
		name := fmt.Sprintf("feature_%d", i)
		if i < len(names) {
			name = names[i]
		}
		items = append(items, models.FeatureImportance{ModelName: model, Feature: name, Importance: v})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Importance > items[j].Importance
	})
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items
}

func pick(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}
