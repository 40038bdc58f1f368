package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", "")
	t.Setenv("TEST_SIZE", "")
	t.Setenv("RF_TREES", "")

	cfg := Load()
	if cfg.DataPath != "Delhi_v2.csv" {
		t.Errorf("DataPath: got %q", cfg.DataPath)
	}
	if cfg.TestSize != 0.2 {
		t.Errorf("TestSize: got %v, want 0.2", cfg.TestSize)
	}
	if cfg.ForestTrees != 100 {
		t.Errorf("ForestTrees: got %d, want 100", cfg.ForestTrees)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("GBT_LEARNING_RATE", "0.05")
	t.Setenv("RECORD_RUNS", "true")
	t.Setenv("DISABLED_ESTIMATORS", " Gradient Boosting , ,Random Forest")

	cfg := Load()
	if cfg.RandomSeed != 7 {
		t.Errorf("RandomSeed: got %d, want 7", cfg.RandomSeed)
	}
	if cfg.BoostLearningRate != 0.05 {
		t.Errorf("BoostLearningRate: got %v", cfg.BoostLearningRate)
	}
	if !cfg.RecordRuns {
		t.Error("RecordRuns should be true")
	}
	want := []string{"Gradient Boosting", "Random Forest"}
	if len(cfg.DisabledEstimators) != len(want) {
		t.Fatalf("DisabledEstimators: got %v", cfg.DisabledEstimators)
	}
	for i := range want {
		if cfg.DisabledEstimators[i] != want[i] {
			t.Errorf("DisabledEstimators[%d]: got %q, want %q", i, cfg.DisabledEstimators[i], want[i])
		}
	}
}

func TestInvalidNumberFallsBack(t *testing.T) {
	t.Setenv("MAX_CONCURRENCY", "lots")
	cfg := Load()
	if cfg.MaxConcurrency < 1 {
		t.Errorf("MaxConcurrency: got %d", cfg.MaxConcurrency)
	}
}

func TestDSN(t *testing.T) {
	c := &Config{PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}

func TestServingAndScheduleSettings(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://houses.example.in")
	t.Setenv("HEURISTIC_PATH", "heuristic.yaml")
	t.Setenv("RETRAIN_CRON", "")

	cfg := Load()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://houses.example.in" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.HeuristicPath != "heuristic.yaml" {
		t.Errorf("HeuristicPath: got %q", cfg.HeuristicPath)
	}
	if cfg.RetrainSchedule != "0 3 * * *" {
		t.Errorf("RetrainSchedule: got %q", cfg.RetrainSchedule)
	}
	if cfg.RunHistoryLimit != 10 {
		t.Errorf("RunHistoryLimit: got %d", cfg.RunHistoryLimit)
	}
}
