package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/model"
	"github.com/classpulse/classpulse-backend/internal/service"
	"github.com/classpulse/classpulse-backend/internal/testutil"
)

func TestPollServiceGetUnknown(t *testing.T) {
	store := testutil.NewMemPollStore()
	svc := service.NewPollService(store)

	_, err := svc.Get(context.Background(), primitive.NewObjectID())
	var ne *service.NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestHistoryExcludesLiveQuestion(t *testing.T) {
	store := testutil.NewMemPollStore()
	svc := service.NewPollService(store)
	ctx := context.Background()

	poll, err := svc.Create(ctx, "History")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	endedAt := now.Add(10 * time.Second)
	stored := store.MustGet(poll.ID)
	stored.Questions = []model.Question{
		{
			ID:                 primitive.NewObjectID(),
			Text:               "2+2?",
			Options:            []string{"3", "4", "5"},
			CorrectAnswerIndex: 1,
			TimeLimitSec:       10,
			StartedAt:          now,
			Ended:              true,
			EndedAt:            &endedAt,
			Answers: []model.Answer{
				{StudentName: "Alice", AnswerIndex: 1, AnsweredAt: now.Add(time.Second)},
				{StudentName: "Bob", AnswerIndex: 2, AnsweredAt: now.Add(2 * time.Second)},
			},
		},
		{
			ID:                 primitive.NewObjectID(),
			Text:               "still live",
			Options:            []string{"a", "b"},
			CorrectAnswerIndex: 0,
			TimeLimitSec:       60,
			StartedAt:          now.Add(time.Minute),
		},
	}
	store.Put(stored)

	history, err := svc.History(ctx, poll.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1 (live question excluded)", len(history))
	}

	entry := history[0]
	if entry.Text != "2+2?" {
		t.Errorf("text = %q, want 2+2?", entry.Text)
	}
	if entry.CorrectAnswer == nil || *entry.CorrectAnswer != "4" {
		t.Errorf("correctAnswer = %v, want 4", entry.CorrectAnswer)
	}
	if len(entry.Counts) != 3 || entry.Counts[1] != 1 || entry.Counts[2] != 1 {
		t.Errorf("counts = %v, want [0 1 1]", entry.Counts)
	}
	if len(entry.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(entry.Answers))
	}
	if entry.Answers[0].OptionText != "4" || entry.Answers[1].OptionText != "5" {
		t.Errorf("option texts = %q/%q, want 4/5",
			entry.Answers[0].OptionText, entry.Answers[1].OptionText)
	}
	if entry.EndedAt == nil || !entry.EndedAt.Equal(endedAt) {
		t.Errorf("endedAt = %v, want %v", entry.EndedAt, endedAt)
	}
}

func TestHistoryEmptyPoll(t *testing.T) {
	store := testutil.NewMemPollStore()
	svc := service.NewPollService(store)
	ctx := context.Background()

	poll, err := svc.Create(ctx, "Empty")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	history, err := svc.History(ctx, poll.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("history = %v, want empty non-nil slice", history)
	}
}
