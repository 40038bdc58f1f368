package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"delhi-house-price/config"
	"delhi-house-price/estimator"
	"delhi-house-price/pricing"
	"delhi-house-price/storage"
	"delhi-house-price/training"
	"delhi-house-price/utils"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg       *config.Config
	logger    *utils.Logger
	heuristic *pricing.Heuristic
}

func rootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           "houseprice",
		Short:         "Delhi NCR house price training and prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			a.logger = utils.NewLogger()
			a.logger.SetLevel(a.cfg.LogLevel)

			h := pricing.Default()
			if a.cfg.HeuristicPath != "" {
				loaded, err := pricing.Load(a.cfg.HeuristicPath)
				if err != nil {
					return err
				}
				h = loaded
				a.logger.Info("Loaded price-per-sqft heuristic %s from %s", h.Version, a.cfg.HeuristicPath)
			}
			a.heuristic = h
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info); overrides LOG_LEVEL")

	cmd.AddCommand(
		trainCmd(a),
		predictCmd(a),
		batchCmd(a),
		serveCmd(a),
		scheduleCmd(a),
		runsCmd(a),
		versionCmd(a),
	)
	return cmd
}

// options maps the configured hyper-parameters onto estimator options.
func (a *app) options() estimator.Options {
	return estimator.Options{
		Seed:                  a.cfg.RandomSeed,
		Workers:               a.cfg.MaxConcurrency,
		ForestTrees:           a.cfg.ForestTrees,
		ForestMaxDepth:        a.cfg.ForestMaxDepth,
		ForestMinSamplesSplit: a.cfg.ForestMinSamplesSplit,
		BoostRounds:           a.cfg.BoostRounds,
		BoostMaxDepth:         a.cfg.BoostMaxDepth,
		BoostLearningRate:     a.cfg.BoostLearningRate,
	}
}

// pipeline builds the offline pipeline. The returned cleanup closes the run
// recorder, if one was opened.
func (a *app) pipeline() (*training.Pipeline, func(), error) {
	registry := estimator.DefaultRegistry()
	if err := registry.Disable(a.cfg.DisabledEstimators...); err != nil {
		return nil, nil, err
	}
	trainer := training.NewTrainer(a.logger, registry, a.options(), a.cfg.TestSize, a.cfg.ImportanceTopK)

	cleanup := func() {}
	var recorder storage.RunRecorder
	if a.cfg.RecordRuns {
		pg, err := storage.NewPostgresWriter(a.cfg.DSN(), a.logger)
		if err != nil {
			a.logger.Warn("Run history disabled, PostgreSQL unavailable: %v", err)
		} else {
			recorder = pg
			cleanup = func() { pg.Close() }
		}
	}
	return training.NewPipeline(a.logger, trainer, a.heuristic, recorder), cleanup, nil
}
