// Package scheduler retrains the model on a cron schedule.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"delhi-house-price/models"
	"delhi-house-price/utils"
)

// Job runs one training pass.
type Job func() (*models.TrainingRun, error)

// Scheduler runs a Job on a standard five-field cron spec. Overlapping runs
// are skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *utils.Logger

	mu        sync.Mutex
	busy      bool
	isRunning bool
}

// New validates spec and returns a stopped scheduler.
func New(spec string, job Job, logger *utils.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

// Start registers the retrain job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()

	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	s.logger.Info("[scheduler] Started (cron: %s)", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()
	if !running {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("[scheduler] Stopped")
}

// RunOnce runs the job now unless a previous run is still in progress.
func (s *Scheduler) RunOnce() {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.logger.Warn("[scheduler] Previous retrain still running, skipping")
		return
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	s.logger.Info("[scheduler] Starting scheduled retrain...")
	run, err := s.job()
	if err != nil {
		s.logger.Error("[scheduler] Retrain failed: %v", err)
		return
	}
	s.logger.Info("[scheduler] Retrain %s finished: best model %s", run.RunID, run.BestModel)
}
