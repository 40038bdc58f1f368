package storage

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"delhi-house-price/dataset"
	"delhi-house-price/models"
)

var (
	_ FrameWriter = (*CSVWriter)(nil)
	_ RunRecorder = (*PostgresWriter)(nil)
)

func TestCSVWriterWritesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "predictions.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	f := dataset.New(2)
	_ = f.SetNumeric("area", []float64{1000, math.NaN()})
	_ = f.SetCategorical("Status", []string{"Ready to Move", ""})
	_ = f.SetNumeric("predicted_price", []float64{5e6, 6.25e6})

	if err := w.WriteFrame(f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), raw)
	}
	if lines[0] != "area,Status,predicted_price" {
		t.Errorf("header = %q", lines[0])
	}

	back, err := dataset.LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	got, _ := back.Numeric("predicted_price")
	if got[0] != 5e6 || got[1] != 6.25e6 {
		t.Errorf("predicted_price = %v", got)
	}
}

func TestEvaluationInsert(t *testing.T) {
	evals := []models.EvaluationResult{
		{ModelName: "Linear Regression", TrainR2: 0.7, TestR2: 0.65, FitTime: 1500 * time.Millisecond},
		{ModelName: "Random Forest", TestR2: math.NaN()},
	}
	query, args := evaluationInsert(9, evals)

	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,$11,$12,$13,$14,$15,$16,$17,$18)") {
		t.Errorf("unexpected placeholders in %s", query)
	}
	if len(args) != 18 {
		t.Fatalf("got %d args, want 18", len(args))
	}
	if args[0] != int64(9) || args[1] != "Linear Regression" {
		t.Errorf("leading args = %v", args[:2])
	}
	if args[8] != int64(1500) {
		t.Errorf("fit_ms = %v, want 1500", args[8])
	}
	if v := nullable(math.NaN()); v.Valid {
		t.Error("NaN should be stored as NULL")
	}
	if v := nullable(0.65); !v.Valid || v.Float64 != 0.65 {
		t.Errorf("nullable(0.65) = %+v", v)
	}
}
