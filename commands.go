package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"delhi-house-price/api"
	"delhi-house-price/bundle"
	"delhi-house-price/models"
	"delhi-house-price/predict"
	"delhi-house-price/scheduler"
	"delhi-house-price/storage"
)

func trainCmd(a *app) *cobra.Command {
	var (
		dataPath  string
		modelPath string
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Clean the dataset, compare estimators and save the best model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataPath == "" {
				dataPath = a.cfg.DataPath
			}
			if modelPath == "" {
				modelPath = a.cfg.ModelPath
			}
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()
			p.SetReports(!quiet)

			a.logger.Info("=== Delhi house price training starting ===")
			a.logger.Info("Config: seed %d | test size %.2f | workers %d | heuristic %s",
				a.cfg.RandomSeed, a.cfg.TestSize, a.cfg.MaxConcurrency, a.heuristic.Version)
			run, err := p.Run(dataPath, modelPath)
			if err != nil {
				return err
			}
			a.logger.Info("=== Training complete: run %s, best model %s ===", run.RunID, run.BestModel)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Input CSV (default DATA_PATH)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Output bundle (default MODEL_PATH)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip the printed reports")
	return cmd
}

func predictCmd(a *app) *cobra.Command {
	var (
		modelPath string
		nums      = map[string]*float64{}
		cats      = map[string]*string{}
	)
	numFlags := []struct{ name, usage string }{
		{"area", "Area in square feet (required)"},
		{"latitude", "Latitude (required)"},
		{"longitude", "Longitude (required)"},
		{"bedrooms", "Number of bedrooms (required)"},
		{"bathrooms", "Number of bathrooms (required)"},
		{"balcony", "Number of balconies"},
		{"parking", "Number of parking spaces"},
		{"lift", "Number of lifts"},
		{"price-sqft", "Known price per square foot; estimated when omitted"},
	}
	catFlags := []struct{ name, usage string }{
		{"status", "Readiness, e.g. \"Ready to Move\""},
		{"neworold", "\"New Property\" or \"Resale\""},
		{"furnished", "Furnished, Semi-Furnished or Unfurnished"},
		{"type", "Building type, e.g. Flat or \"Individual House\""},
	}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the price of a single listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.ModelPath
			}
			p, err := predict.New(modelPath, a.heuristic, a.logger)
			if err != nil {
				return err
			}

			opt := func(name string) *float64 {
				if cmd.Flags().Changed(name) {
					return nums[name]
				}
				return nil
			}
			optStr := func(name string) *string {
				if cmd.Flags().Changed(name) {
					return cats[name]
				}
				return nil
			}
			req := models.PredictionRequest{
				Area:            opt("area"),
				Latitude:        opt("latitude"),
				Longitude:       opt("longitude"),
				Bedrooms:        opt("bedrooms"),
				Bathrooms:       opt("bathrooms"),
				Balcony:         opt("balcony"),
				Status:          optStr("status"),
				NewOrOld:        optStr("neworold"),
				Parking:         opt("parking"),
				FurnishedStatus: optStr("furnished"),
				Lift:            opt("lift"),
				TypeOfBuilding:  optStr("type"),
				PriceSqft:       opt("price-sqft"),
			}
			res, err := p.PredictSingle(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Predicted price: %s (%.0f)\n", res.FormattedPrice, res.PredictedPrice)
			fmt.Fprintf(out, "Price per sqft:  %.2f (%s)\n", res.PriceSqft, res.PriceSqftSource)
			fmt.Fprintf(out, "Region:          %s\n", res.Region)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model bundle (default MODEL_PATH)")
	for _, f := range numFlags {
		nums[f.name] = cmd.Flags().Float64(f.name, 0, f.usage)
	}
	for _, f := range catFlags {
		cats[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}
	return cmd
}

func batchCmd(a *app) *cobra.Command {
	var modelPath, outPath string
	cmd := &cobra.Command{
		Use:   "batch <input.csv>",
		Short: "Predict every row of a CSV table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.ModelPath
			}
			if outPath == "" {
				outPath = a.cfg.PredictionsPath
			}
			p, err := predict.New(modelPath, a.heuristic, a.logger)
			if err != nil {
				return err
			}
			_, err = p.PredictBatchFile(args[0], outPath)
			return err
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model bundle (default MODEL_PATH)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output CSV (default PREDICTIONS_PATH)")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var (
		addr    string
		retrain bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			p, err := predict.New(a.cfg.ModelPath, a.heuristic, a.logger)
			if err != nil {
				return err
			}
			live := predict.NewLive(p)

			if retrain {
				s, err := a.retrainScheduler(func() {
					next, err := predict.New(a.cfg.ModelPath, a.heuristic, a.logger)
					if err != nil {
						a.logger.Error("Reload after retrain failed, keeping current model: %v", err)
						return
					}
					live.Swap(next)
					a.logger.Info("Now serving %s from run %s", next.Metadata().ModelName, next.Metadata().RunID)
				})
				if err != nil {
					return err
				}
				if err := s.Start(); err != nil {
					return err
				}
				defer s.Stop()
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(live, a.logger, a.cfg.CORSOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Listening on %s", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default HTTP_ADDR)")
	cmd.Flags().BoolVar(&retrain, "retrain", false, "Retrain on RETRAIN_CRON and hot-swap the served model")
	return cmd
}

func scheduleCmd(a *app) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Retrain on the RETRAIN_CRON schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.retrainScheduler(nil)
			if err != nil {
				return err
			}
			if now {
				s.RunOnce()
			}
			if err := s.Start(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Run one retrain before waiting for the schedule")
	return cmd
}

// retrainScheduler builds a scheduler that reruns the training pipeline on
// the configured data and model paths. afterRun, if set, is called after
// every successful run.
func (a *app) retrainScheduler(afterRun func()) (*scheduler.Scheduler, error) {
	job := func() (*models.TrainingRun, error) {
		p, cleanup, err := a.pipeline()
		if err != nil {
			return nil, err
		}
		defer cleanup()
		p.SetReports(false)
		run, err := p.Run(a.cfg.DataPath, a.cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		if afterRun != nil {
			afterRun()
		}
		return run, nil
	}
	return scheduler.New(a.cfg.RetrainSchedule, job, a.logger)
}

func runsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent training runs recorded in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = a.cfg.RunHistoryLimit
			}
			pg, err := storage.NewPostgresWriter(a.cfg.DSN(), a.logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			runs, err := pg.FetchRecentRuns(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tBEST\tTEST R2\tHEURISTIC\tROWS")
			for _, r := range runs {
				r2 := "n/a"
				for _, e := range r.Evaluations {
					if e.ModelName == r.BestModel {
						r2 = fmt.Sprintf("%.4f", e.TestR2)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\n", r.RunID, r.CreatedAt.Format(time.RFC3339),
					r.BestModel, r2, r.HeuristicVersion, r.TrainRows, r.TestRows)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of runs (default RUN_HISTORY_LIMIT)")
	return cmd
}

func versionCmd(a *app) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Describe the saved model bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.ModelPath
			}
			b, err := bundle.Load(modelPath)
			if err != nil {
				return err
			}
			b.WriteSummary(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model bundle (default MODEL_PATH)")
	return cmd
}
