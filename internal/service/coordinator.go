package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/event"
	"github.com/classpulse/classpulse-backend/internal/model"
)

// Coordinator owns the live question lifecycle: at most one question in
// flight per poll, server-side expiration, exactly-once answers per student
// and everyone-answered auto-termination.
//
// All mutations on one poll are serialized through a per-poll mutex, held
// across load, mutate and save. Expiry is re-checked explicitly after every
// load, so a lost timer (process restart) or a racing submission can never
// slip an answer past the deadline. Timer handles are process-local and not
// persisted; the expiry worker and the lazy check cover polls whose timers
// died with the process.
type Coordinator struct {
	store            PollStore
	dispatcher       event.Dispatcher
	clock            Clock
	log              zerolog.Logger
	defaultTimeLimit time.Duration

	mu     sync.Mutex
	locks  map[primitive.ObjectID]*sync.Mutex
	timers map[primitive.ObjectID]Timer
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(store PollStore, dispatcher event.Dispatcher, clock Clock, log zerolog.Logger, defaultTimeLimit time.Duration) *Coordinator {
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = 60 * time.Second
	}
	return &Coordinator{
		store:            store,
		dispatcher:       dispatcher,
		clock:            clock,
		log:              log.With().Str("component", "coordinator").Logger(),
		defaultTimeLimit: defaultTimeLimit,
		locks:            make(map[primitive.ObjectID]*sync.Mutex),
		timers:           make(map[primitive.ObjectID]Timer),
	}
}

// StartQuestion validates the question, enforces the single-live-question
// rule, appends it to the poll history, arms the expiration timer and
// broadcasts question:asked. A predecessor whose window elapsed without its
// timer firing is lazily ended first.
func (c *Coordinator) StartQuestion(ctx context.Context, pollID primitive.ObjectID, text string, options []string, correctIndex, timeLimitSec int) (*model.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Msg: "question text is required"}
	}
	options = filterBlankOptions(options)
	if len(options) < 2 {
		return nil, &ValidationError{Msg: "at least 2 options required"}
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		return nil, &ValidationError{Msg: "correct answer index out of range"}
	}
	if timeLimitSec <= 0 {
		timeLimitSec = int(c.defaultTimeLimit / time.Second)
	}

	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now().UTC()
	if active := poll.ActiveQuestion(); active != nil && !active.Ended {
		if !active.Expired(now) {
			return nil, &ConflictError{Msg: "previous question is still live"}
		}
		// Missed-timer recovery: close the overdue question before starting
		// the next one.
		if err := c.endLocked(ctx, poll, active, now); err != nil {
			return nil, err
		}
	}

	question := model.Question{
		ID:                 primitive.NewObjectID(),
		Text:               text,
		Options:            options,
		CorrectAnswerIndex: correctIndex,
		TimeLimitSec:       timeLimitSec,
		StartedAt:          now,
		Answers:            []model.Answer{},
	}
	poll.Questions = append(poll.Questions, question)

	if err := c.store.Save(ctx, poll); err != nil {
		return nil, fmt.Errorf("save poll: %w", err)
	}

	active := poll.ActiveQuestion()
	c.armTimer(pollID, active.ID, active.Deadline().Sub(now))
	c.dispatch(ctx, event.Event{
		PollID: pollID.Hex(),
		Name:   event.QuestionAsked,
		Data:   active.View(),
	})

	c.log.Info().
		Str("poll_id", pollID.Hex()).
		Str("question_id", active.ID.Hex()).
		Int("time_limit_sec", timeLimitSec).
		Msg("Question started")

	started := *active
	return &started, nil
}

// SubmitAnswer records one student's answer to the active question. The
// server deadline is authoritative: an expired question is ended on the spot
// and the submission rejected. When the last registered participant answers,
// the question ends immediately instead of waiting for the timer.
func (c *Coordinator) SubmitAnswer(ctx context.Context, pollID primitive.ObjectID, studentName string, answerIndex int) ([]model.Answer, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return nil, &ValidationError{Msg: "student name is required"}
	}

	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now().UTC()
	active := poll.ActiveQuestion()
	if active == nil {
		return nil, &PreconditionError{Msg: "wait for the teacher to ask a question"}
	}
	if active.Ended {
		return nil, &PreconditionError{Msg: "poll ended"}
	}
	if active.Expired(now) {
		if err := c.endLocked(ctx, poll, active, now); err != nil {
			return nil, err
		}
		return nil, &PreconditionError{Msg: "poll ended"}
	}

	if answerIndex < 0 || answerIndex >= len(active.Options) {
		return nil, &ValidationError{Msg: "answer index out of range"}
	}
	if active.AnswerBy(studentName) != nil {
		return nil, &ConflictError{Msg: "already answered"}
	}

	active.Answers = append(active.Answers, model.Answer{
		StudentName: studentName,
		AnswerIndex: answerIndex,
		AnsweredAt:  now,
	})

	if err := c.store.Save(ctx, poll); err != nil {
		return nil, fmt.Errorf("save poll: %w", err)
	}

	c.dispatch(ctx, event.Event{
		PollID: pollID.Hex(),
		Name:   event.QuestionProgress,
		Data:   active.Answers,
	})

	// Everyone answered — no need to wait for the timer. Answers are unique
	// per student, so their count is the distinct respondent count.
	if len(poll.Participants) > 0 && len(active.Answers) >= len(poll.Participants) {
		if err := c.endLocked(ctx, poll, active, now); err != nil {
			// The answer itself is committed; the timer or the expiry worker
			// will end the question if this save failed.
			c.log.Error().Err(err).Str("poll_id", pollID.Hex()).Msg("Auto-termination failed")
		}
	}

	answers := make([]model.Answer, len(active.Answers))
	copy(answers, active.Answers)
	return answers, nil
}

// EndQuestion force-ends the active question. Idempotent: a poll with no
// active question, or one already ended, is a no-op. Called by timer expiry,
// by auto-termination, by the expiry worker and by the teacher.
func (c *Coordinator) EndQuestion(ctx context.Context, pollID primitive.ObjectID) error {
	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return err
	}

	active := poll.ActiveQuestion()
	if active == nil || active.Ended {
		c.cancelTimer(pollID)
		return nil
	}
	return c.endLocked(ctx, poll, active, c.clock.Now().UTC())
}

// JoinPoll registers a participant (idempotent per student ID) and broadcasts
// the updated roster. A missing student ID gets a generated one. Runs under
// the poll lock because the roster size feeds auto-termination.
func (c *Coordinator) JoinPoll(ctx context.Context, pollID primitive.ObjectID, studentID, name string) (*model.Poll, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", &ValidationError{Msg: "student name is required"}
	}
	if studentID == "" {
		studentID = uuid.New().String()
	}

	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, "", err
	}

	if !poll.HasParticipant(studentID) {
		poll.Participants = append(poll.Participants, model.Participant{
			StudentID: studentID,
			Name:      name,
		})
		if err := c.store.Save(ctx, poll); err != nil {
			return nil, "", fmt.Errorf("save poll: %w", err)
		}
	}

	c.dispatch(ctx, event.Event{
		PollID: pollID.Hex(),
		Name:   event.ParticipantsUpdated,
		Data:   poll.Participants,
	})

	return poll, studentID, nil
}

// RemoveParticipant drops a student from the roster and broadcasts the
// updated list. Removing an unknown student is a no-op.
func (c *Coordinator) RemoveParticipant(ctx context.Context, pollID primitive.ObjectID, studentID string) ([]model.Participant, error) {
	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, err
	}

	kept := poll.Participants[:0]
	for _, pt := range poll.Participants {
		if pt.StudentID != studentID {
			kept = append(kept, pt)
		}
	}
	if len(kept) != len(poll.Participants) {
		poll.Participants = kept
		if err := c.store.Save(ctx, poll); err != nil {
			return nil, fmt.Errorf("save poll: %w", err)
		}
	}

	c.dispatch(ctx, event.Event{
		PollID: pollID.Hex(),
		Name:   event.ParticipantsUpdated,
		Data:   poll.Participants,
	})

	participants := make([]model.Participant, len(poll.Participants))
	copy(participants, poll.Participants)
	return participants, nil
}

// LiveResult tallies the active question, falling back to the most recent
// historical one. Pure read: answers are deduplicated by student name
// (first seen wins) without mutating anything.
func (c *Coordinator) LiveResult(ctx context.Context, pollID primitive.ObjectID) (*model.LiveResult, error) {
	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, err
	}

	question := poll.ActiveQuestion()
	if question == nil {
		return nil, &NotFoundError{Msg: "no question found"}
	}

	counts, totalAnswers, correctCount := tally(question, true)
	return &model.LiveResult{
		Question:           question.Text,
		Options:            question.Options,
		Counts:             counts,
		TotalAnswers:       totalAnswers,
		TotalParticipants:  len(poll.Participants),
		CorrectCount:       correctCount,
		CorrectAnswerIndex: question.CorrectAnswerIndex,
	}, nil
}

// QuestionResult tallies one historical question by ID. No deduplication
// beyond the one-answer-per-student invariant enforced at submit time.
func (c *Coordinator) QuestionResult(ctx context.Context, pollID, questionID primitive.ObjectID) (*model.QuestionResult, error) {
	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return nil, err
	}

	question := poll.FindQuestion(questionID)
	if question == nil {
		return nil, &NotFoundError{Msg: "question not found"}
	}

	counts, totalAnswers, _ := tally(question, false)
	return &model.QuestionResult{
		QuestionID:         question.ID.Hex(),
		Question:           question.Text,
		Options:            question.Options,
		Counts:             counts,
		TotalAnswers:       totalAnswers,
		TotalParticipants:  len(poll.Participants),
		CorrectAnswerIndex: question.CorrectAnswerIndex,
	}, nil
}

// ─── Internals ──────────────────────────────────────────────────────

// endLocked marks the question ended, persists, cancels the pending timer
// and broadcasts question:ended. Caller holds the poll lock. EndedAt is the
// nominal deadline when the window already elapsed (timer fire, lazy expiry),
// or the current instant when the question ends early.
func (c *Coordinator) endLocked(ctx context.Context, poll *model.Poll, question *model.Question, now time.Time) error {
	endedAt := question.Deadline()
	if now.Before(endedAt) {
		endedAt = now
	}
	question.Ended = true
	question.EndedAt = &endedAt

	if err := c.store.Save(ctx, poll); err != nil {
		return fmt.Errorf("save poll: %w", err)
	}

	c.cancelTimer(poll.ID)
	c.dispatch(ctx, event.Event{
		PollID: poll.ID.Hex(),
		Name:   event.QuestionEnded,
		Data:   question.View(),
	})

	c.log.Info().
		Str("poll_id", poll.ID.Hex()).
		Str("question_id", question.ID.Hex()).
		Int("answers", len(question.Answers)).
		Msg("Question ended")
	return nil
}

// pollLock returns the mutex serializing all mutations of one poll.
func (c *Coordinator) pollLock(pollID primitive.ObjectID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[pollID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[pollID] = lock
	}
	return lock
}

// armTimer replaces any pending expiration timer for the poll. At most one
// timer is outstanding per poll. The callback carries the question ID it was
// armed for: Stop cannot recall a callback that already launched, so a stale
// timer must never be allowed to touch a successor question.
func (c *Coordinator) armTimer(pollID, questionID primitive.ObjectID, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[pollID]; ok {
		t.Stop()
	}
	c.timers[pollID] = c.clock.AfterFunc(d, func() {
		if err := c.expireQuestion(context.Background(), pollID, questionID); err != nil {
			c.log.Error().Err(err).Str("poll_id", pollID.Hex()).Msg("Timer expiry failed")
		}
	})
}

// expireQuestion ends the identified question if it is still the live one.
// By the time a timer callback runs, its question may already be ended
// (auto-termination, lazy expiry) and a successor may be live, so anything
// other than an exact ID match is a no-op.
func (c *Coordinator) expireQuestion(ctx context.Context, pollID, questionID primitive.ObjectID) error {
	lock := c.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := loadPoll(ctx, c.store, pollID)
	if err != nil {
		return err
	}

	active := poll.ActiveQuestion()
	if active == nil || active.ID != questionID || active.Ended {
		return nil
	}
	return c.endLocked(ctx, poll, active, c.clock.Now().UTC())
}

func (c *Coordinator) cancelTimer(pollID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[pollID]; ok {
		t.Stop()
		delete(c.timers, pollID)
	}
}

func (c *Coordinator) dispatch(ctx context.Context, e event.Event) {
	if c.dispatcher == nil {
		return
	}
	c.dispatcher.Dispatch(ctx, e)
}

// tally computes per-option counts for a question. With dedupe, answers are
// collapsed by lowercased student name keeping the first seen; without, every
// recorded answer counts.
func tally(q *model.Question, dedupe bool) (counts []int, totalAnswers, correctCount int) {
	counts = make([]int, len(q.Options))

	record := func(idx int) {
		if idx < 0 || idx >= len(counts) {
			return
		}
		counts[idx]++
		totalAnswers++
		if idx == q.CorrectAnswerIndex {
			correctCount++
		}
	}

	if !dedupe {
		for _, a := range q.Answers {
			record(a.AnswerIndex)
		}
		return counts, totalAnswers, correctCount
	}

	seen := make(map[string]struct{}, len(q.Answers))
	for _, a := range q.Answers {
		key := strings.ToLower(a.StudentName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		record(a.AnswerIndex)
	}
	return counts, totalAnswers, correctCount
}

// filterBlankOptions trims options and drops blank ones, preserving order.
func filterBlankOptions(options []string) []string {
	filtered := make([]string, 0, len(options))
	for _, o := range options {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			filtered = append(filtered, trimmed)
		}
	}
	return filtered
}
