package bundle

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"delhi-house-price/dataset"
	"delhi-house-price/estimator"
	"delhi-house-price/preprocess"
)

func fittedBundle(t *testing.T, est estimator.Regressor) (*Bundle, *dataset.Frame) {
	t.Helper()
	df := dataset.New(6)
	_ = df.SetNumeric("area", []float64{500, 800, 1000, 1200, 1500, 2000})
	_ = df.SetCategorical("Status", []string{"Ready to Move", "", "Under Construction", "Ready to Move", "Ready to Move", ""})
	y := []float64{2.5e6, 4e6, 5e6, 6e6, 7.5e6, 1e7}

	tr, err := preprocess.Fit(df)
	if err != nil {
		t.Fatalf("Fit transform: %v", err)
	}
	x, err := tr.Transform(df)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := est.Fit(x, y); err != nil {
		t.Fatalf("Fit estimator: %v", err)
	}
	return &Bundle{
		Transform: tr,
		Estimator: est,
		Metadata: Metadata{
			ModelName:        est.Name(),
			FeatureNames:     tr.FeatureNames(),
			InputColumns:     tr.InputColumns(),
			HeuristicVersion: "test",
			Seed:             7,
			CreatedAt:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}, df
}

func TestSaveLoadRoundTrip(t *testing.T) {
	opts := estimator.DefaultOptions()
	opts.ForestTrees = 5
	opts.BoostRounds = 5
	for _, est := range []estimator.Regressor{
		estimator.NewLinearRegression(),
		estimator.NewRandomForest(opts),
		estimator.NewGradientBoosting(opts),
	} {
		t.Run(est.Name(), func(t *testing.T) {
			b, df := fittedBundle(t, est)
			want, err := b.Predict(df)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}

			path := filepath.Join(t.TempDir(), "models", "model.gob")
			if err := Save(path, b); err != nil {
				t.Fatalf("Save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded.Estimator.Name() != est.Name() {
				t.Errorf("estimator: got %q, want %q", loaded.Estimator.Name(), est.Name())
			}
			if loaded.Metadata.Seed != 7 || !loaded.Metadata.CreatedAt.Equal(b.Metadata.CreatedAt) {
				t.Errorf("metadata not preserved: %+v", loaded.Metadata)
			}
			got, err := loaded.Predict(df)
			if err != nil {
				t.Fatalf("Predict after load: %v", err)
			}
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("row %d: got %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	b, _ := fittedBundle(t, estimator.NewLinearRegression())
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, "model.gob"), b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "model.gob" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only model.gob", names)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.gob"))
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("got %v, want ErrArtifactNotFound", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("got %v, want ErrArtifactInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	b, _ := fittedBundle(t, estimator.NewLinearRegression())

	noEst := *b
	noEst.Estimator = nil
	if err := noEst.Validate(); !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("missing estimator: got %v", err)
	}

	noTransform := *b
	noTransform.Transform = nil
	if err := Save(filepath.Join(t.TempDir(), "m.gob"), &noTransform); !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("missing transform: got %v", err)
	}

	badNames := *b
	badNames.Metadata.FeatureNames = []string{"only-one"}
	if err := badNames.Validate(); !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("feature name mismatch: got %v", err)
	}
	unfitted := *b
	unfitted.Estimator = estimator.NewRandomForest(estimator.DefaultOptions())
	if err := Save(filepath.Join(t.TempDir(), "m.gob"), &unfitted); !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("unfitted estimator: got %v", err)
	}

	narrow := estimator.NewLinearRegression()
	if err := narrow.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{2, 4, 6}); err != nil {
		t.Fatal(err)
	}
	wrongWidth := *b
	wrongWidth.Estimator = narrow
	if err := wrongWidth.Validate(); !errors.Is(err, ErrArtifactInvalid) {
		t.Errorf("width mismatch: got %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	b, _ := fittedBundle(t, estimator.NewLinearRegression())
	var buf bytes.Buffer
	b.WriteSummary(&buf)
	if !strings.Contains(buf.String(), "Linear Regression") {
		t.Errorf("summary lacks model name:\n%s", buf.String())
	}
}
