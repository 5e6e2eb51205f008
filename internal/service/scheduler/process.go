package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"zlatko/internal/service"
)

// CycleResult aggregates one scheduled cycle over every user
type CycleResult struct {
	Users    int `json:"users"`
	Passes   int `json:"passes"`
	Failures int `json:"failures"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Updated  int `json:"updated"`
}

// RunSyncOnce syncs every syncable prospect of every user with an enabled
// credential.
func (s *Scheduler) RunSyncOnce(ctx context.Context) (*CycleResult, error) {
	logrus.Info("Starting sync cycle")
	startTime := time.Now()

	creds, err := s.directory.ListEnabledCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	result := &CycleResult{}
	for _, cred := range creds {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		prospects, err := s.directory.ListSyncableProspects(ctx, cred.UserID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", cred.UserID).Error("Failed to list prospects for sync")
			result.Failures++
			continue
		}
		result.Users++

		for _, p := range prospects {
			res, err := s.syncer.SyncProspect(ctx, service.SyncRequest{
				UserID:        cred.UserID,
				Provider:      cred.Provider,
				ProspectID:    p.ID,
				ProspectEmail: p.Email,
			})
			result.Passes++
			if err != nil {
				result.Failures++
				logrus.WithError(err).WithFields(logrus.Fields{
					"user_id":     cred.UserID,
					"prospect_id": p.ID,
				}).Error("Scheduled sync failed")
				// the credential is unusable for the rest of this cycle
				if errors.Is(err, service.ErrNotConnected) || errors.Is(err, service.ErrTokenRefresh) {
					break
				}
				continue
			}
			result.Imported += res.Imported
			result.Skipped += res.Skipped
		}
	}

	logrus.WithFields(logrus.Fields{
		"users":    result.Users,
		"passes":   result.Passes,
		"failures": result.Failures,
		"imported": result.Imported,
	}).Infof("Sync cycle completed in %v", time.Since(startTime))
	return result, nil
}

// RunReconcileOnce reconciles every user that owns prospects
func (s *Scheduler) RunReconcileOnce(ctx context.Context) (*CycleResult, error) {
	logrus.Info("Starting reconcile cycle")
	startTime := time.Now()

	owners, err := s.directory.ListProspectOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prospect owners: %w", err)
	}

	result := &CycleResult{}
	for _, userID := range owners {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := s.reconciler.Run(ctx, userID)
		result.Passes++
		if err != nil {
			result.Failures++
			logrus.WithError(err).WithField("user_id", userID).Error("Scheduled reconcile failed")
			continue
		}
		result.Users++
		result.Updated += res.Updated
		result.Skipped += res.Skipped
		result.Failures += res.Failed
	}

	logrus.WithFields(logrus.Fields{
		"users":   result.Users,
		"updated": result.Updated,
	}).Infof("Reconcile cycle completed in %v", time.Since(startTime))
	return result, nil
}

func (s *Scheduler) syncCycle() {
	s.runCycle("sync", s.RunSyncOnce)
}

func (s *Scheduler) reconcileCycle() {
	s.runCycle("reconcile", s.RunReconcileOnce)
}

func (s *Scheduler) runCycle(name string, fn func(context.Context) (*CycleResult, error)) {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Infof("Scheduler not running, skipping %s cycle", name)
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	if _, err := fn(ctx); err != nil {
		logrus.WithError(err).Errorf("%s cycle failed", name)
	}
}
