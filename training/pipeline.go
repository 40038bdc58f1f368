package training

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"delhi-house-price/bundle"
	"delhi-house-price/dataset"
	"delhi-house-price/models"
	"delhi-house-price/pricing"
	"delhi-house-price/services"
	"delhi-house-price/storage"
	"delhi-house-price/utils"
)

// Pipeline runs the offline path: load, clean, engineer, train, persist.
type Pipeline struct {
	logger   *utils.Logger
	cleaner  *services.Cleaner
	engineer *services.FeatureEngineer
	insights *services.InsightService
	trainer  *Trainer
	version  string
	recorder storage.RunRecorder
	reports  bool
}

// NewPipeline wires the offline stages. The heuristic names regions in the
// insight report; recorder may be nil.
func NewPipeline(logger *utils.Logger, trainer *Trainer, heuristic *pricing.Heuristic, recorder storage.RunRecorder) *Pipeline {
	return &Pipeline{
		logger:   logger,
		cleaner:  services.NewCleaner(logger),
		engineer: services.NewFeatureEngineer(logger),
		insights: services.NewInsightService(logger, heuristic),
		trainer:  trainer,
		version:  heuristic.Version,
		recorder: recorder,
		reports:  true,
	}
}

// SetReports turns the printed insight, comparison and importance reports
// on or off.
func (p *Pipeline) SetReports(on bool) {
	p.reports = on
}

// Run trains on the CSV at dataPath and writes the winning bundle to
// modelPath.
func (p *Pipeline) Run(dataPath, modelPath string) (*models.TrainingRun, error) {
	p.logger.Info("[pipeline] Loading %s", dataPath)
	raw, err := dataset.LoadCSV(dataPath)
	if err != nil {
		return nil, err
	}
	return p.RunFrame(raw, dataPath, modelPath)
}

// RunFrame trains on an already loaded raw table.
func (p *Pipeline) RunFrame(raw *dataset.Frame, dataPath, modelPath string) (*models.TrainingRun, error) {
	cleaned, stats, err := p.cleaner.Clean(raw)
	if err != nil {
		return nil, err
	}
	if p.reports {
		p.insights.Print(p.insights.Generate(cleaned, stats))
	}

	features := p.engineer.Engineer(cleaned)
	res, err := p.trainer.Train(features, models.ColPrice)
	if err != nil {
		return nil, err
	}

	if p.reports {
		p.insights.PrintComparison(res.Evaluations, res.Best.Name())
		for _, e := range res.Evaluations {
			p.insights.PrintImportances(res.Importances[e.ModelName])
		}
	}

	best := res.BestEvaluation()
	runID := uuid.NewString()
	b := &bundle.Bundle{
		Transform: res.Transform,
		Estimator: res.Best,
		Metadata: bundle.Metadata{
			RunID:            runID,
			ModelName:        best.ModelName,
			TestRMSE:         best.TestRMSE,
			TestMAE:          best.TestMAE,
			TestR2:           best.TestR2,
			FeatureNames:     res.Transform.FeatureNames(),
			InputColumns:     res.Transform.InputColumns(),
			HeuristicVersion: p.version,
			Seed:             p.trainer.opts.Seed,
			TrainRows:        res.TrainRows,
			TestRows:         res.TestRows,
			TrainingTime:     res.Elapsed,
			CreatedAt:        time.Now().UTC(),
		},
	}
	if err := bundle.Save(modelPath, b); err != nil {
		return nil, fmt.Errorf("pipeline: save bundle: %w", err)
	}
	p.logger.Info("[pipeline] Saved %s bundle to %s", best.ModelName, modelPath)

	run := &models.TrainingRun{
		RunID:            runID,
		DataPath:         dataPath,
		ModelPath:        modelPath,
		BestModel:        best.ModelName,
		HeuristicVersion: p.version,
		Seed:             p.trainer.opts.Seed,
		TrainRows:        res.TrainRows,
		TestRows:         res.TestRows,
		Evaluations:      res.Evaluations,
		CreatedAt:        b.Metadata.CreatedAt,
	}
	if p.recorder != nil {
		if id, err := p.recorder.RecordRun(run); err != nil {
			p.logger.Warn("[pipeline] Could not record training run: %v", err)
		} else {
			p.logger.Info("[pipeline] Recorded training run #%d", id)
		}
	}
	return run, nil
}
