package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"zlatko/internal/config"
	"zlatko/internal/model"
	"zlatko/internal/service"
)

// Syncer runs one sync pass for a prospect
type Syncer interface {
	SyncProspect(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error)
}

// ReconcileRunner reconciles one user's prospects
type ReconcileRunner interface {
	Run(ctx context.Context, userID string) (*service.ReconcileResult, error)
}

// Directory enumerates the work of a scheduled cycle
type Directory interface {
	ListEnabledCredentials(ctx context.Context) ([]model.SyncCredential, error)
	ListSyncableProspects(ctx context.Context, userID string) ([]model.Prospect, error)
	ListProspectOwners(ctx context.Context) ([]string, error)
}

// Status is a snapshot of the scheduled jobs
type Status struct {
	Running       bool      `json:"running"`
	NextSync      time.Time `json:"next_sync"`
	LastSync      time.Time `json:"last_sync"`
	NextReconcile time.Time `json:"next_reconcile"`
	LastReconcile time.Time `json:"last_reconcile"`
}

// Scheduler runs mailbox sync and reconciliation on a cron schedule
type Scheduler struct {
	cron           *cron.Cron
	syncEntry      cron.EntryID
	reconcileEntry cron.EntryID
	syncCfg        config.SyncConfig
	reconcileCfg   config.ReconcileConfig
	directory      Directory
	syncer         Syncer
	reconciler     ReconcileRunner
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	isRunning      bool
	mu             sync.RWMutex
}

// New creates a new scheduler
func New(syncCfg config.SyncConfig, reconcileCfg config.ReconcileConfig, directory Directory, syncer Syncer, reconciler ReconcileRunner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		syncCfg:      syncCfg,
		reconcileCfg: reconcileCfg,
		directory:    directory,
		syncer:       syncer,
		reconciler:   reconciler,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start registers the enabled jobs and starts the cron runner. A stopped
// scheduler can be started again.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.cron = cron.New(cron.WithSeconds())
		s.syncEntry, s.reconcileEntry = 0, 0
	}

	if s.syncCfg.AutoSync {
		schedule := fmt.Sprintf("@every %dm", s.syncCfg.IntervalMinutes)
		entryID, err := s.cron.AddFunc(schedule, s.syncCycle)
		if err != nil {
			return fmt.Errorf("failed to add sync job: %w", err)
		}
		s.syncEntry = entryID
		logrus.Infof("Auto-sync scheduled every %d minutes", s.syncCfg.IntervalMinutes)
	}

	if s.reconcileCfg.Enabled {
		entryID, err := s.cron.AddFunc(s.reconcileCfg.Schedule, s.reconcileCycle)
		if err != nil {
			if s.syncEntry != 0 {
				s.cron.Remove(s.syncEntry)
				s.syncEntry = 0
			}
			return fmt.Errorf("failed to add reconcile job: %w", err)
		}
		s.reconcileEntry = entryID
		logrus.Infof("Reconciliation scheduled with %q", s.reconcileCfg.Schedule)
	}

	s.cron.Start()
	s.isRunning = true

	logrus.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the next run of the sync job
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryTime(s.syncEntry, true)
}

// GetLastRun returns the last run of the sync job
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryTime(s.syncEntry, false)
}

// Status reports both jobs
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:       s.isRunning,
		NextSync:      s.entryTime(s.syncEntry, true),
		LastSync:      s.entryTime(s.syncEntry, false),
		NextReconcile: s.entryTime(s.reconcileEntry, true),
		LastReconcile: s.entryTime(s.reconcileEntry, false),
	}
}

// entryTime must be called with mu held
func (s *Scheduler) entryTime(id cron.EntryID, next bool) time.Time {
	if !s.isRunning || id == 0 {
		return time.Time{}
	}

	entry := s.cron.Entry(id)
	if next {
		return entry.Next
	}
	return entry.Prev
}

// Wait waits for in-flight cycles to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
