package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	MessagesImported prometheus.Counter
	MessagesSkipped  prometheus.Counter
	SyncPasses       *prometheus.CounterVec
	TokenRefreshes   *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	ReconcileUpdated prometheus.Counter
	ReconcileSkipped prometheus.Counter
	ReconcileFailed  prometheus.Counter
	SummaryFailures  prometheus.Counter
}

// NewMetrics registers the metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_sync_messages_imported_total",
			Help: "Total number of messages imported as communications",
		}),
		MessagesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_sync_messages_skipped_total",
			Help: "Total number of listed messages skipped (already imported or failed)",
		}),
		SyncPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zlatko_sync_passes_total",
			Help: "Total number of sync passes by provider and outcome",
		}, []string{"provider", "outcome"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zlatko_token_refreshes_total",
			Help: "Total number of OAuth token refreshes by provider and outcome",
		}, []string{"provider", "outcome"}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zlatko_sync_pass_duration_seconds",
			Help:    "Time spent in one sync pass",
			Buckets: prometheus.DefBuckets,
		}),
		ReconcileUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_reconcile_updated_total",
			Help: "Total number of prospects whose last contact date was corrected",
		}),
		ReconcileSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_reconcile_skipped_total",
			Help: "Total number of prospects left untouched by reconciliation",
		}),
		ReconcileFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_reconcile_failed_total",
			Help: "Total number of prospects whose correction could not be written",
		}),
		SummaryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "zlatko_summary_failures_total",
			Help: "Total number of failed summary generations",
		}),
	}
}
