package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	DocumentsSaved  prometheus.Counter
	BackupsExported prometheus.Counter
	BackupsRestored prometheus.Counter
	SnapshotsPruned prometheus.Counter
	AuthFailures    *prometheus.CounterVec
}

// SessionCounter is what the active-sessions gauge polls. Nil in the
// single-tenant mode, which has no session table.
type SessionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// InitMetrics registers the Prometheus metrics.
func InitMetrics(sessions SessionCounter) *Metrics {
	metrics := &Metrics{
		DocumentsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mattertrack_documents_saved_total",
			Help: "Total number of full-document replace writes",
		}),
		BackupsExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mattertrack_backups_exported_total",
			Help: "Total number of backup exports",
		}),
		BackupsRestored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mattertrack_backups_restored_total",
			Help: "Total number of backup restores",
		}),
		SnapshotsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mattertrack_snapshots_pruned_total",
			Help: "Total number of snapshot retention sweeps",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mattertrack_auth_failures_total",
			Help: "Total number of failed auth attempts by kind",
		}, []string{"kind"}), // "login", "session", "password_change"
	}

	if sessions != nil {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "mattertrack_sessions_active",
				Help: "Current number of unexpired sessions",
			},
			func() float64 {
				n, err := sessions.Count(context.Background())
				if err != nil {
					return 0
				}
				return float64(n)
			},
		))
	}

	return metrics
}
