package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/model"
	"github.com/classpulse/classpulse-backend/internal/service"
	"github.com/classpulse/classpulse-backend/internal/testutil"
)

// TestSweepEndsOverdueQuestions simulates a restart: the question's deadline
// passed while no in-process timer exists, so only the sweep can close it.
func TestSweepEndsOverdueQuestions(t *testing.T) {
	store := testutil.NewMemPollStore()
	now := time.Now().UTC()
	clock := testutil.NewFakeClock(now)
	disp := testutil.NewRecordDispatcher()
	coord := service.NewCoordinator(store, disp, clock, zerolog.Nop(), time.Minute)

	poll, err := store.Create(context.Background(), "Restart recovery")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	seeded := store.MustGet(poll.ID)
	seeded.Questions = []model.Question{{
		ID:           primitive.NewObjectID(),
		Text:         "q",
		Options:      []string{"a", "b"},
		TimeLimitSec: 10,
		StartedAt:    now.Add(-time.Minute),
	}}
	store.Put(seeded)

	w := NewExpiryWorker(store, coord, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		q := store.MustGet(poll.ID).ActiveQuestion()
		if q.Ended {
			if q.EndedAt == nil || !q.EndedAt.Equal(q.Deadline()) {
				t.Errorf("endedAt = %v, want nominal deadline %v", q.EndedAt, q.Deadline())
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("sweep did not end the overdue question in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewExpiryWorkerDefaultsInterval(t *testing.T) {
	w := NewExpiryWorker(testutil.NewMemPollStore(), nil, 0, zerolog.Nop())
	if w.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s default", w.interval)
	}
}
