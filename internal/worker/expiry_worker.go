package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/classpulse/classpulse-backend/internal/service"
)

// ExpiryWorker periodically sweeps for questions whose answer window elapsed
// without their in-process timer firing — primarily polls that were live when
// the process last restarted, since timer handles do not survive a restart.
// Ending is delegated to the coordinator, so the sweep is idempotent and
// emits the same question:ended broadcast a timer would have.
type ExpiryWorker struct {
	store       service.PollStore
	coordinator *service.Coordinator
	interval    time.Duration
	log         zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(store service.PollStore, coordinator *service.Coordinator, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ExpiryWorker{
		store:       store,
		coordinator: coordinator,
		interval:    interval,
		log:         log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine; returns on ctx cancel.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	overdue, err := w.store.ListOverdueActive(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Overdue scan failed")
		}
		return
	}

	for i := range overdue {
		pollID := overdue[i].ID
		if err := w.coordinator.EndQuestion(ctx, pollID); err != nil {
			w.log.Error().Err(err).Str("poll_id", pollID.Hex()).Msg("End overdue question failed")
			continue
		}
		w.log.Info().Str("poll_id", pollID.Hex()).Msg("Ended overdue question")
	}
}
