package training

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"

	"delhi-house-price/bundle"
	"delhi-house-price/dataset"
	"delhi-house-price/estimator"
	"delhi-house-price/models"
	"delhi-house-price/pricing"
	"delhi-house-price/services"
	"delhi-house-price/utils"
)

// syntheticListings builds n raw listings whose price follows the pricing
// heuristic with a few percent of noise.
func syntheticListings(n int, seed int64) *dataset.Frame {
	rng := rand.New(rand.NewSource(seed))
	h := pricing.Default()
	statuses := []string{"Ready to Move", "Under Construction", ""}
	ages := []string{"New Property", "Resale"}
	furnishing := []string{"Furnished", "Semi-Furnished", "Unfurnished", ""}
	types := []string{"Flat", "Individual House", "Builder Floor"}

	cols := map[string][]float64{}
	cats := map[string][]string{}
	addNum := func(name string, v float64) { cols[name] = append(cols[name], v) }
	addCat := func(name, v string) { cats[name] = append(cats[name], v) }

	for i := 0; i < n; i++ {
		region := h.Regions[rng.Intn(len(h.Regions))]
		row := models.FeatureRow{
			Area:         float64(400 + rng.Intn(2600)),
			Latitude:     region.MinLat + rng.Float64()*(region.MaxLat-region.MinLat),
			Longitude:    region.MinLon + rng.Float64()*(region.MaxLon-region.MinLon),
			Bedrooms:     float64(1 + rng.Intn(5)),
			Bathrooms:    float64(1 + rng.Intn(4)),
			Balcony:      float64(rng.Intn(4)),
			Status:       statuses[rng.Intn(len(statuses))],
			NewOrOld:     ages[rng.Intn(len(ages))],
			Parking:      float64(rng.Intn(4)),
			Furnished:    furnishing[rng.Intn(len(furnishing))],
			Lift:         float64(rng.Intn(3)),
			BuildingType: types[rng.Intn(len(types))],
		}
		price := row.Area * h.Rate(row) * (0.95 + 0.1*rng.Float64()) / services.PriceInflation

		addNum(models.ColIndex, float64(i))
		addNum(models.ColPrice, math.Round(price))
		addNum(models.ColArea, row.Area)
		addNum(models.ColLatitude, row.Latitude)
		addNum(models.ColLongitude, row.Longitude)
		addNum(models.ColBedrooms, row.Bedrooms)
		addNum(models.ColBathrooms, row.Bathrooms)
		addNum(models.ColBalcony, row.Balcony)
		addCat(models.ColStatus, row.Status)
		addCat(models.ColNewOrOld, row.NewOrOld)
		addNum(models.ColParking, row.Parking)
		addCat(models.ColFurnished, row.Furnished)
		addNum(models.ColLift, row.Lift)
		addCat(models.ColBuildingType, row.BuildingType)
		addNum(models.ColPriceSqft, math.Round(price/row.Area))
		addCat(models.ColDescription, "listing description")
		addCat(models.ColAddress, "")
	}

	f := dataset.New(n)
	for _, name := range []string{
		models.ColIndex, models.ColPrice, models.ColArea, models.ColLatitude, models.ColLongitude,
		models.ColBedrooms, models.ColBathrooms, models.ColBalcony, models.ColStatus, models.ColNewOrOld,
		models.ColParking, models.ColFurnished, models.ColLift, models.ColBuildingType, models.ColPriceSqft,
		models.ColDescription, models.ColAddress,
	} {
		if v, ok := cols[name]; ok {
			_ = f.SetNumeric(name, v)
		} else {
			_ = f.SetCategorical(name, cats[name])
		}
	}
	return f
}

func testOptions() estimator.Options {
	opts := estimator.DefaultOptions()
	opts.Seed = 7
	opts.Workers = 2
	opts.ForestTrees = 10
	opts.ForestMaxDepth = 10
	opts.BoostRounds = 20
	opts.BoostMaxDepth = 4
	return opts
}

func engineered(t *testing.T, n int) *dataset.Frame {
	t.Helper()
	logger := utils.Discard()
	cleaned, _, err := services.NewCleaner(logger).Clean(syntheticListings(n, 1))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	return services.NewFeatureEngineer(logger).Engineer(cleaned)
}

func TestSplitRows(t *testing.T) {
	s, err := SplitRows(101, 0.2, 42)
	if err != nil {
		t.Fatalf("SplitRows: %v", err)
	}
	if len(s.Test) != 21 || len(s.Train) != 80 {
		t.Fatalf("got %d train / %d test, want 80 / 21", len(s.Train), len(s.Test))
	}
	all := append(append([]int(nil), s.Train...), s.Test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("split is not a partition of 0..100: %v", all)
		}
	}

	again, _ := SplitRows(101, 0.2, 42)
	for i := range s.Test {
		if s.Test[i] != again.Test[i] {
			t.Fatal("same seed produced a different split")
		}
	}

	for _, bad := range []float64{0, 1, -0.5} {
		if _, err := SplitRows(10, bad, 1); err == nil {
			t.Errorf("test size %v: expected error", bad)
		}
	}
	if _, err := SplitRows(1, 0.2, 1); err == nil {
		t.Error("one row: expected error")
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name string
		r2   []float64
		want int
	}{
		{"max wins", []float64{0.5, 0.9, 0.7}, 1},
		{"tie keeps first", []float64{0.8, 0.8, 0.1}, 0},
		{"nan ranks last", []float64{math.NaN(), 0.1}, 1},
		{"all nan", []float64{math.NaN(), math.NaN()}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evals := make([]models.EvaluationResult, len(tt.r2))
			for i, v := range tt.r2 {
				evals[i].TestR2 = v
			}
			if got := SelectBest(evals); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTopImportances(t *testing.T) {
	items := TopImportances("m", []string{"a", "b", "c"}, []float64{0.2, 0.5, 0.3}, 2)
	if len(items) != 2 || items[0].Feature != "b" || items[1].Feature != "c" {
		t.Errorf("got %+v", items)
	}
	if all := TopImportances("m", []string{"a"}, []float64{1}, 0); len(all) != 1 {
		t.Errorf("k=0 should keep everything, got %d", len(all))
	}
}

func TestTrainComparesAllEstimators(t *testing.T) {
	df := engineered(t, 400)
	tr := NewTrainer(utils.Discard(), estimator.DefaultRegistry(), testOptions(), 0.2, 5)

	res, err := tr.Train(df, models.ColPrice)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	want := []string{"Linear Regression", "Random Forest", "Gradient Boosting"}
	if len(res.Evaluations) != len(want) {
		t.Fatalf("got %d evaluations, want %d", len(res.Evaluations), len(want))
	}
	for i, e := range res.Evaluations {
		if e.ModelName != want[i] {
			t.Errorf("evaluation %d: got %q, want %q", i, e.ModelName, want[i])
		}
	}
	if got := res.Best.Name(); got != res.BestEvaluation().ModelName {
		t.Errorf("best estimator %q does not match evaluation %q", got, res.BestEvaluation().ModelName)
	}
	if res.BestEvaluation().TestR2 < 0.6 {
		t.Errorf("best test R² = %v, want >= 0.6", res.BestEvaluation().TestR2)
	}
	for _, name := range []string{"Random Forest", "Gradient Boosting"} {
		if len(res.Importances[name]) != 5 {
			t.Errorf("%s: got %d importances, want 5", name, len(res.Importances[name]))
		}
	}
	if _, ok := res.Importances["Linear Regression"]; ok {
		t.Error("linear regression should not report importances")
	}
}

func TestTrainFitsTransformOnTrainRowsOnly(t *testing.T) {
	df := engineered(t, 200)
	opts := testOptions()
	tr := NewTrainer(utils.Discard(), estimator.NewRegistry(estimator.DefaultRegistry().Providers()[0]), opts, 0.25, 0)

	res, err := tr.Train(df, models.ColPrice)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	split, _ := SplitRows(df.Len(), 0.25, opts.Seed)
	area, _ := df.Take(split.Train).Numeric(models.ColArea)
	want := dataset.Median(area)

	for _, c := range res.Transform.Numeric {
		if c.Name == models.ColArea && c.Median != want {
			t.Errorf("area median = %v, want train-split median %v", c.Median, want)
		}
		if c.Name == models.ColPrice {
			t.Error("target leaked into the transform")
		}
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	df := engineered(t, 300)
	run := func(workers int) *Result {
		opts := testOptions()
		opts.Workers = workers
		res, err := NewTrainer(utils.Discard(), estimator.DefaultRegistry(), opts, 0.2, 0).Train(df, models.ColPrice)
		if err != nil {
			t.Fatalf("Train: %v", err)
		}
		return res
	}
	a, b := run(1), run(4)
	if a.Best.Name() != b.Best.Name() {
		t.Fatalf("best model changed: %q vs %q", a.Best.Name(), b.Best.Name())
	}
	for i := range a.Evaluations {
		if math.Abs(a.Evaluations[i].TestR2-b.Evaluations[i].TestR2) > 1e-9 {
			t.Errorf("%s: test R² %v vs %v", a.Evaluations[i].ModelName, a.Evaluations[i].TestR2, b.Evaluations[i].TestR2)
		}
	}
}

func TestTrainSkipsUnavailableEstimators(t *testing.T) {
	df := engineered(t, 150)
	reg := estimator.DefaultRegistry()
	if err := reg.Disable("Gradient Boosting", "Random Forest"); err != nil {
		t.Fatal(err)
	}
	res, err := NewTrainer(utils.Discard(), reg, testOptions(), 0.2, 0).Train(df, models.ColPrice)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(res.Evaluations) != 1 || res.Best.Name() != "Linear Regression" {
		t.Errorf("got %d evaluations, best %q", len(res.Evaluations), res.Best.Name())
	}
	if !errors.Is(res.Skipped["Random Forest"], estimator.ErrUnavailable) {
		t.Errorf("skipped = %v", res.Skipped)
	}

	if err := reg.Disable("Linear Regression"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTrainer(utils.Discard(), reg, testOptions(), 0.2, 0).Train(df, models.ColPrice); !errors.Is(err, ErrNoEstimators) {
		t.Errorf("got %v, want ErrNoEstimators", err)
	}
}

type fakeRecorder struct {
	runs []*models.TrainingRun
}

func (f *fakeRecorder) RecordRun(run *models.TrainingRun) (int64, error) {
	f.runs = append(f.runs, run)
	return int64(len(f.runs)), nil
}

func (f *fakeRecorder) Close() error { return nil }

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "Delhi_v2.csv")
	out, err := os.Create(dataPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := dataset.WriteCSV(out, syntheticListings(300, 3)); err != nil {
		t.Fatal(err)
	}
	out.Close()

	rec := &fakeRecorder{}
	logger := utils.Discard()
	p := NewPipeline(logger, NewTrainer(logger, estimator.DefaultRegistry(), testOptions(), 0.2, 10), pricing.Default(), rec)
	p.SetReports(false)

	modelPath := filepath.Join(dir, "model.gob")
	run, err := p.Run(dataPath, modelPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0] != run {
		t.Fatalf("recorder got %d runs", len(rec.runs))
	}
	if run.HeuristicVersion != pricing.Version || run.TrainRows+run.TestRows == 0 {
		t.Errorf("unexpected run %+v", run)
	}

	b, err := bundle.Load(modelPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := uuid.Parse(run.RunID); err != nil || b.Metadata.RunID != run.RunID {
		t.Errorf("run id %q, bundle run id %q", run.RunID, b.Metadata.RunID)
	}
	if b.Metadata.ModelName != run.BestModel || b.Estimator.Name() != run.BestModel {
		t.Errorf("bundle holds %q, run selected %q", b.Estimator.Name(), run.BestModel)
	}
	for _, col := range b.Metadata.InputColumns {
		if col == models.ColPrice || col == models.ColIndex || col == models.ColDescription {
			t.Errorf("unexpected input column %q", col)
		}
	}
}

func TestPipelineMissingTarget(t *testing.T) {
	raw := syntheticListings(20, 1).Drop(models.ColPrice)
	logger := utils.Discard()
	p := NewPipeline(logger, NewTrainer(logger, estimator.DefaultRegistry(), testOptions(), 0.2, 0), pricing.Default(), nil)
	p.SetReports(false)

	_, err := p.RunFrame(raw, "mem", filepath.Join(t.TempDir(), "m.gob"))
	if !errors.Is(err, services.ErrMissingTarget) {
		t.Errorf("got %v, want ErrMissingTarget", err)
	}
}
