package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/model"
)

// PollService handles poll creation and read-side queries. Mutations of the
// question lifecycle and the roster belong to the Coordinator.
type PollService struct {
	store PollStore
}

// NewPollService creates a new PollService.
func NewPollService(store PollStore) *PollService {
	return &PollService{store: store}
}

// Create creates a new poll with the given title.
func (s *PollService) Create(ctx context.Context, title string) (*model.Poll, error) {
	return s.store.Create(ctx, title)
}

// Get retrieves a poll by ID.
func (s *PollService) Get(ctx context.Context, id primitive.ObjectID) (*model.Poll, error) {
	return loadPoll(ctx, s.store, id)
}

// History returns the ended questions of a poll, oldest first, with option
// texts resolved and per-question tallies. Still-live questions are excluded
// so the correct answer never leaks through the history endpoint.
func (s *PollService) History(ctx context.Context, id primitive.ObjectID) ([]model.HistoryEntry, error) {
	poll, err := loadPoll(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	history := make([]model.HistoryEntry, 0, len(poll.Questions))
	for i := range poll.Questions {
		q := &poll.Questions[i]
		if !q.Ended {
			continue
		}

		entry := model.HistoryEntry{
			QuestionID:         q.ID.Hex(),
			Text:               q.Text,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			TimeLimitSec:       q.TimeLimitSec,
			StartedAt:          q.StartedAt,
			Ended:              q.Ended,
			EndedAt:            q.EndedAt,
			Answers:            make([]model.HistoryAnswer, 0, len(q.Answers)),
		}
		if q.CorrectAnswerIndex >= 0 && q.CorrectAnswerIndex < len(q.Options) {
			correct := q.Options[q.CorrectAnswerIndex]
			entry.CorrectAnswer = &correct
		}
		entry.Counts, _, _ = tally(q, false)

		for _, a := range q.Answers {
			ha := model.HistoryAnswer{
				StudentName: a.StudentName,
				OptionIndex: a.AnswerIndex,
				AnsweredAt:  a.AnsweredAt,
			}
			if a.AnswerIndex >= 0 && a.AnswerIndex < len(q.Options) {
				ha.OptionText = q.Options[a.AnswerIndex]
			}
			entry.Answers = append(entry.Answers, ha)
		}
		history = append(history, entry)
	}
	return history, nil
}
