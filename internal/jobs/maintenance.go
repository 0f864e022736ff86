package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"mattertrack/internal/services"
	"mattertrack/internal/store"
)

// Maintenance runs the background housekeeping jobs: purging expired
// sessions on the database backend and rotating snapshot files on the
// flat-file backend. Either dependency may be nil when the active
// backend does not need it.
type Maintenance struct {
	scheduler gocron.Scheduler
	sessions  *services.SessionService
	files     *store.FileStore
	metrics   *services.Metrics
}

func NewMaintenance(sessions *services.SessionService, files *store.FileStore, metrics *services.Metrics) (*Maintenance, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Maintenance{
		scheduler: scheduler,
		sessions:  sessions,
		files:     files,
		metrics:   metrics,
	}, nil
}

// Start registers the jobs for the active backend and starts the scheduler.
func (m *Maintenance) Start() error {
	log.Println("⏰ Starting maintenance scheduler...")

	if m.sessions != nil {
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(time.Hour),
			gocron.NewTask(m.purgeSessions),
		)
		if err != nil {
			return fmt.Errorf("failed to register session purge job: %w", err)
		}
		log.Println("✅ Registered job: session purge (hourly)")
	}

	if m.files != nil {
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(m.pruneSnapshots),
		)
		if err != nil {
			return fmt.Errorf("failed to register snapshot prune job: %w", err)
		}
		log.Println("✅ Registered job: snapshot prune (daily)")
	}

	m.scheduler.Start()
	log.Println("✅ Maintenance scheduler started")
	return nil
}

// Stop shuts the scheduler down and waits for running jobs.
func (m *Maintenance) Stop() error {
	log.Println("⏹️ Stopping maintenance scheduler...")
	return m.scheduler.Shutdown()
}

func (m *Maintenance) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := m.sessions.PurgeExpired(ctx)
	if err != nil {
		log.Printf("❌ Session purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d expired sessions", purged)
	}
}

func (m *Maintenance) pruneSnapshots() {
	pruned, err := m.files.PruneSnapshots()
	if err != nil {
		log.Printf("❌ Snapshot prune failed: %v", err)
		return
	}
	if m.metrics != nil {
		m.metrics.SnapshotsPruned.Inc()
	}
	if pruned > 0 {
		log.Printf("🧹 Pruned %d old snapshot files", pruned)
	}
}
