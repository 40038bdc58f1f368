package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"delhi-house-price/models"
	"delhi-house-price/utils"
)

// PostgresWriter records training runs and their per-model evaluations.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS training_runs (
			id                SERIAL PRIMARY KEY,
			run_uuid          UUID        UNIQUE NOT NULL,
			data_path         TEXT        NOT NULL,
			model_path        TEXT        NOT NULL,
			best_model        VARCHAR(64) NOT NULL,
			heuristic_version VARCHAR(32) NOT NULL DEFAULT '',
			seed              BIGINT      NOT NULL,
			train_rows        INTEGER     NOT NULL,
			test_rows         INTEGER     NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS model_evaluations (
			id         SERIAL PRIMARY KEY,
			run_id     INTEGER NOT NULL REFERENCES training_runs(id) ON DELETE CASCADE,
			model_name VARCHAR(64) NOT NULL,
			train_rmse DOUBLE PRECISION,
			train_mae  DOUBLE PRECISION,
			train_r2   DOUBLE PRECISION,
			test_rmse  DOUBLE PRECISION,
			test_mae   DOUBLE PRECISION,
			test_r2    DOUBLE PRECISION,
			fit_ms     BIGINT NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at);
		CREATE INDEX IF NOT EXISTS idx_model_evaluations_run ON model_evaluations(run_id);
	`)
	return err
}

// RecordRun inserts the run and its evaluations in one transaction and
// returns the new run id.
func (pw *PostgresWriter) RecordRun(run *models.TrainingRun) (int64, error) {
	tx, err := pw.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	runID := run.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var id int64
	err = tx.QueryRow(`
		INSERT INTO training_runs (run_uuid, data_path, model_path, best_model, heuristic_version, seed, train_rows, test_rows, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, runID, run.DataPath, run.ModelPath, run.BestModel, run.HeuristicVersion, run.Seed, run.TrainRows, run.TestRows, created).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert run: %w", err)
	}

	if len(run.Evaluations) > 0 {
		query, args := evaluationInsert(id, run.Evaluations)
		if _, err := tx.Exec(query, args...); err != nil {
			return 0, fmt.Errorf("postgres: insert evaluations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	run.ID = id
	run.RunID = runID
	return id, nil
}

const evaluationColumns = 9

func evaluationInsert(runID int64, evals []models.EvaluationResult) (string, []interface{}) {
	valueStrings := make([]string, 0, len(evals))
	valueArgs := make([]interface{}, 0, len(evals)*evaluationColumns)

	for idx, e := range evals {
		valueStrings = append(valueStrings, placeholders(idx*evaluationColumns, evaluationColumns))
		valueArgs = append(valueArgs,
			runID, e.ModelName,
			nullable(e.TrainRMSE), nullable(e.TrainMAE), nullable(e.TrainR2),
			nullable(e.TestRMSE), nullable(e.TestMAE), nullable(e.TestR2),
			e.FitTime.Milliseconds())
	}

	query := fmt.Sprintf(`
		INSERT INTO model_evaluations (run_id, model_name, train_rmse, train_mae, train_r2, test_rmse, test_mae, test_r2, fit_ms)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// placeholders renders "($base+1,...,$base+n)".
func placeholders(base, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", base+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// nullable stores undefined metrics as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// FetchRecentRuns returns up to limit runs, newest first, with their
// evaluations.
func (pw *PostgresWriter) FetchRecentRuns(limit int) ([]*models.TrainingRun, error) {
	rows, err := pw.db.Query(`
		SELECT id, run_uuid, data_path, model_path, best_model, heuristic_version, seed, train_rows, test_rows, created_at
		FROM training_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.TrainingRun
	byID := make(map[int64]*models.TrainingRun)
	for rows.Next() {
		r := &models.TrainingRun{}
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.DataPath, &r.ModelPath, &r.BestModel, &r.HeuristicVersion,
			&r.Seed, &r.TrainRows, &r.TestRows, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, r)
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return runs, nil
	}

	evalRows, err := pw.db.Query(`
		SELECT run_id, model_name, train_rmse, train_mae, train_r2, test_rmse, test_mae, test_r2, fit_ms
		FROM model_evaluations
		WHERE run_id IN (SELECT id FROM training_runs ORDER BY created_at DESC, id DESC LIMIT $1)
		ORDER BY run_id, id
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch evaluations: %w", err)
	}
	defer evalRows.Close()

	for evalRows.Next() {
		var (
			runID   int64
			e       models.EvaluationResult
			metrics [6]sql.NullFloat64
			fitMs   int64
		)
		if err := evalRows.Scan(&runID, &e.ModelName,
			&metrics[0], &metrics[1], &metrics[2], &metrics[3], &metrics[4], &metrics[5], &fitMs); err != nil {
			return nil, fmt.Errorf("postgres: scan evaluation: %w", err)
		}
		e.TrainRMSE, e.TrainMAE, e.TrainR2 = orNaN(metrics[0]), orNaN(metrics[1]), orNaN(metrics[2])
		e.TestRMSE, e.TestMAE, e.TestR2 = orNaN(metrics[3]), orNaN(metrics[4]), orNaN(metrics[5])
		e.FitTime = time.Duration(fitMs) * time.Millisecond
		if r, ok := byID[runID]; ok {
			r.Evaluations = append(r.Evaluations, e)
		}
	}
	return runs, evalRows.Err()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
