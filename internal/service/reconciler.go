package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"zlatko/internal/events"
	"zlatko/internal/metrics"
	"zlatko/internal/model"
)

// ReconcileResult is the audit output of one reconciliation pass
type ReconcileResult struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Details []string `json:"details"`
}

// Reconciler recomputes each prospect's last contact date from its
// communications log.
type Reconciler struct {
	prospects ProspectStore
	comms     CommunicationStore
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewReconciler(prospects ProspectStore, comms CommunicationStore, publisher events.Publisher, m *metrics.Metrics) *Reconciler {
	return &Reconciler{prospects: prospects, comms: comms, publisher: publisher, metrics: m}
}

// Run sweeps the user's non-archived prospects. Prospects without
// communications are never modified. A failing prospect is logged and
// counted, and the sweep continues.
func (r *Reconciler) Run(ctx context.Context, userID string) (*ReconcileResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", ErrMissingInput)
	}

	prospects, err := r.prospects.ListActiveProspects(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Total: len(prospects), Details: []string{}}
	for _, p := range prospects {
		logger := logrus.WithFields(logrus.Fields{"user_id": userID, "prospect_id": p.ID})

		latest, err := r.comms.LatestCommunication(ctx, userID, p.ID)
		if err != nil {
			logger.Errorf("Failed to load latest communication: %v", err)
			result.Failed++
			continue
		}
		if latest == nil {
			result.Skipped++
			continue
		}

		day := model.Day(latest.CreatedAt)
		if model.SameDay(p.LastContactDate, &day) {
			result.Skipped++
			continue
		}

		if err := r.prospects.SetLastContactDate(ctx, userID, p.ID, &day); err != nil {
			logger.Errorf("Failed to update last contact date: %v", err)
			result.Failed++
			continue
		}

		transition := fmt.Sprintf("%s: %s → %s", p.Label(), model.FormatDay(p.LastContactDate), model.FormatDay(&day))
		logger.Info(transition)
		result.Updated++
		result.Details = append(result.Details, transition)

		if r.publisher != nil {
			r.publisher.Publish(ctx, events.Event{
				UserID: userID,
				Table:  "prospects",
				Action: events.ActionUpdate,
				RowID:  p.ID,
			})
		}
	}

	if r.metrics != nil {
		r.metrics.ReconcileUpdated.Add(float64(result.Updated))
		r.metrics.ReconcileSkipped.Add(float64(result.Skipped))
		r.metrics.ReconcileFailed.Add(float64(result.Failed))
	}

	logrus.WithField("user_id", userID).Infof("Reconciliation completed: updated=%d skipped=%d failed=%d total=%d",
		result.Updated, result.Skipped, result.Failed, result.Total)
	return result, nil
}
