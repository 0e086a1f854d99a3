// Package maintenance runs the background chores: purging generation
// records past their retention window and reloading the model catalog
// from disk so price updates land without a restart.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/poolchaos/personalfit-api/internal/store"
)

const purgeTimeout = time.Minute

type Scheduler struct {
	logger  *zap.Logger
	cron    *cron.Cron
	repo    store.Repository
	catalog *modeldata.Catalog
	maint   config.MaintenanceConfig
	cat     config.CatalogConfig

	mu      sync.Mutex
	running bool
}

func NewScheduler(logger *zap.Logger, repo store.Repository, catalog *modeldata.Catalog,
	maint config.MaintenanceConfig, cat config.CatalogConfig) *Scheduler {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:  logger,
		cron:    cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(logger)))),
		repo:    repo,
		catalog: catalog,
		maint:   maint,
		cat:     cat,
	}
}

// Start registers the configured jobs and launches the cron loop. A
// scheduler with nothing configured is a no-op, not an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := 0

	if s.maint.PurgeCron != "" && s.maint.RetentionDays > 0 {
		if _, err := cron.ParseStandard(s.maint.PurgeCron); err != nil {
			return fmt.Errorf("invalid purge schedule %q: %w", s.maint.PurgeCron, err)
		}
		if _, err := s.cron.AddFunc(s.maint.PurgeCron, s.runPurge); err != nil {
			return fmt.Errorf("schedule purge: %w", err)
		}
		jobs++
		s.logger.Info("Retention purge scheduled",
			zap.String("cron", s.maint.PurgeCron),
			zap.Int("retention_days", s.maint.RetentionDays))
	}

	if s.cat.ReloadCron != "" && s.cat.Path != "" {
		if _, err := cron.ParseStandard(s.cat.ReloadCron); err != nil {
			return fmt.Errorf("invalid catalog reload schedule %q: %w", s.cat.ReloadCron, err)
		}
		if _, err := s.cron.AddFunc(s.cat.ReloadCron, s.runReload); err != nil {
			return fmt.Errorf("schedule catalog reload: %w", err)
		}
		jobs++
		s.logger.Info("Catalog reload scheduled", zap.String("cron", s.cat.ReloadCron))
	}

	if jobs == 0 {
		s.logger.Info("No maintenance jobs configured")
		return nil
	}

	s.cron.Start()
	s.running = true
	return nil
}

// Stop halts scheduling and waits for an in-flight job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Maintenance scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// PurgeNow deletes generation records older than the retention window.
// The cron job calls this; so can an operator.
func (s *Scheduler) PurgeNow(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.maint.RetentionDays)
	return s.repo.Generations().PurgeBefore(ctx, cutoff)
}

// ReloadNow re-reads the model catalog from disk.
func (s *Scheduler) ReloadNow() error {
	return s.catalog.Reload()
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	purged, err := s.PurgeNow(ctx)
	if err != nil {
		s.logger.Error("Retention purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("Retention purge completed", zap.Int64("purged", purged))
	} else {
		s.logger.Debug("Retention purge completed, nothing to delete")
	}
}

func (s *Scheduler) runReload() {
	if err := s.ReloadNow(); err != nil {
		s.logger.Warn("Catalog reload failed, keeping previous table", zap.Error(err))
		return
	}
	s.logger.Info("Catalog reloaded")
}
