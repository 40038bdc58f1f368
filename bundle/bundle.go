// Package bundle persists the fitted column transform and the winning
// estimator as a single gob artifact.
package bundle

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"delhi-house-price/dataset"
	"delhi-house-price/estimator"
	"delhi-house-price/preprocess"
)

var (
	// ErrArtifactNotFound is returned when no bundle exists at the path.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrArtifactInvalid is returned when the file cannot be decoded or does
	// not hold a usable transform and estimator.
	ErrArtifactInvalid = errors.New("model artifact is invalid")
)

// Metadata describes how a bundle was produced.
type Metadata struct {
	RunID            string
	ModelName        string
	TestRMSE         float64
	TestMAE          float64
	TestR2           float64
	FeatureNames     []string
	InputColumns     []string
	HeuristicVersion string
	Seed             int64
	TrainRows        int
	TestRows         int
	TrainingTime     time.Duration
	CreatedAt        time.Time
}

// Bundle pairs a fitted transform with the estimator trained on its output.
type Bundle struct {
	Transform *preprocess.ColumnTransform
	Estimator estimator.Regressor
	Metadata  Metadata
}

// Validate reports ErrArtifactInvalid when the bundle cannot serve
// predictions.
func (b *Bundle) Validate() error {
	if b == nil || !b.Transform.Fitted() {
		return fmt.Errorf("%w: missing fitted transform", ErrArtifactInvalid)
	}
	if b.Estimator == nil {
		return fmt.Errorf("%w: missing estimator", ErrArtifactInvalid)
	}
	switch n := b.Estimator.Features(); {
	case n == 0:
		return fmt.Errorf("%w: %s estimator is not fitted", ErrArtifactInvalid, b.Estimator.Name())
	case n != b.Transform.Width():
		return fmt.Errorf("%w: estimator fit on %d features, transform produces %d", ErrArtifactInvalid, n, b.Transform.Width())
	}
	if n := len(b.Metadata.FeatureNames); n > 0 && n != b.Transform.Width() {
		return fmt.Errorf("%w: %d feature names for a transform of width %d", ErrArtifactInvalid, n, b.Transform.Width())
	}
	return nil
}

// Save writes the bundle to path. The file is written next to its final
// location and renamed into place, so readers never observe a partial
// artifact.
func Save(path string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bundle: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("bundle: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("bundle: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("bundle: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("bundle: rename into place: %w", err)
	}
	return nil
}

// Load reads and validates the bundle at path.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("bundle: open %s: %w", path, err)
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactInvalid, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Features applies the bundled transform to df.
func (b *Bundle) Features(df *dataset.Frame) (*mat.Dense, error) {
	return b.Transform.Transform(df)
}

// Predict transforms df and runs the bundled estimator on it.
func (b *Bundle) Predict(df *dataset.Frame) ([]float64, error) {
	x, err := b.Features(df)
	if err != nil {
		return nil, err
	}
	return b.Estimator.Predict(x)
}

// WriteSummary prints the bundle metadata in a human-readable form.
func (b *Bundle) WriteSummary(w io.Writer) {
	m := b.Metadata
	fmt.Fprintf(w, "Run:               %s\n", m.RunID)
	fmt.Fprintf(w, "Model:             %s\n", m.ModelName)
	fmt.Fprintf(w, "Created:           %s\n", m.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Test RMSE:         %.2f\n", m.TestRMSE)
	fmt.Fprintf(w, "Test MAE:          %.2f\n", m.TestMAE)
	fmt.Fprintf(w, "Test R2:           %.4f\n", m.TestR2)
	fmt.Fprintf(w, "Train/test rows:   %d/%d\n", m.TrainRows, m.TestRows)
	fmt.Fprintf(w, "Seed:              %d\n", m.Seed)
	fmt.Fprintf(w, "Heuristic version: %s\n", m.HeuristicVersion)
	fmt.Fprintf(w, "Input columns:     %d\n", len(m.InputColumns))
	fmt.Fprintf(w, "Features:          %d\n", len(m.FeatureNames))
	fmt.Fprintf(w, "Training time:     %v\n", m.TrainingTime)
}
