// Package testutil provides in-memory fakes for the coordinator's
// collaborators: the poll store, the clock and the event dispatcher.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/classpulse/classpulse-backend/internal/event"
	"github.com/classpulse/classpulse-backend/internal/model"
	"github.com/classpulse/classpulse-backend/internal/service"
)

// ─── MemPollStore ───────────────────────────────────────────────────

// MemPollStore is an in-memory service.PollStore. It stores deep copies so
// callers cannot mutate persisted state without going through Save, matching
// how a real document store behaves.
type MemPollStore struct {
	mu      sync.Mutex
	polls   map[primitive.ObjectID]*model.Poll
	SaveErr error // when set, Save fails with this error
}

// NewMemPollStore creates an empty store.
func NewMemPollStore() *MemPollStore {
	return &MemPollStore{polls: make(map[primitive.ObjectID]*model.Poll)}
}

// Create inserts a new active poll.
func (s *MemPollStore) Create(ctx context.Context, title string) (*model.Poll, error) {
	now := time.Now().UTC()
	poll := &model.Poll{
		ID:           primitive.NewObjectID(),
		Title:        strings.TrimSpace(title),
		Questions:    []model.Question{},
		Participants: []model.Participant{},
		Status:       model.PollStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[poll.ID] = clonePoll(poll)
	return poll, nil
}

// GetByID returns a copy of the stored poll or mongo.ErrNoDocuments.
func (s *MemPollStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return clonePoll(poll), nil
}

// Save replaces the stored poll document.
func (s *MemPollStore) Save(ctx context.Context, poll *model.Poll) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	poll.UpdatedAt = time.Now().UTC()
	s.polls[poll.ID] = clonePoll(poll)
	return nil
}

// ListOverdueActive mirrors the repository query.
func (s *MemPollStore) ListOverdueActive(ctx context.Context, now time.Time) ([]model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overdue []model.Poll
	for _, poll := range s.polls {
		active := poll.ActiveQuestion()
		if active != nil && !active.Ended && active.Expired(now) {
			overdue = append(overdue, *clonePoll(poll))
		}
	}
	return overdue, nil
}

// MustGet returns a copy of a stored poll, panicking on unknown IDs.
func (s *MemPollStore) MustGet(id primitive.ObjectID) *model.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[id]
	if !ok {
		panic("testutil: poll not in store: " + id.Hex())
	}
	return clonePoll(poll)
}

// Put stores a poll as-is, for seeding edge-case state.
func (s *MemPollStore) Put(poll *model.Poll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[poll.ID] = clonePoll(poll)
}

func clonePoll(p *model.Poll) *model.Poll {
	c := *p
	c.Questions = make([]model.Question, len(p.Questions))
	for i := range p.Questions {
		q := p.Questions[i]
		q.Options = append([]string(nil), q.Options...)
		q.Answers = append([]model.Answer(nil), q.Answers...)
		if q.EndedAt != nil {
			endedAt := *q.EndedAt
			q.EndedAt = &endedAt
		}
		c.Questions[i] = q
	}
	c.Participants = append([]model.Participant(nil), p.Participants...)
	return &c
}

// ─── FakeClock ──────────────────────────────────────────────────────

// FakeClock is a manual service.Clock. Advance moves time; Fire runs the
// callbacks of timers whose deadline has been reached.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*FakeTimer
}

// FakeTimer is a scheduled callback handle.
type FakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

// Stop cancels the timer; returns false if it already fired or was stopped.
func (t *FakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Stopped reports whether Stop was called before the timer fired.
func (t *FakeTimer) Stopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}

// NewFakeClock creates a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f at now+d. Nothing runs until Fire.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) service.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward without firing timers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Fire synchronously runs every due, unstopped timer exactly once. Callbacks
// run outside the clock lock so they may arm or stop timers.
func (c *FakeClock) Fire() {
	c.mu.Lock()
	var due []*FakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !c.now.Before(t.deadline) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// LastTimer returns the most recently armed timer, or nil.
func (c *FakeClock) LastTimer() *FakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

// ─── RecordDispatcher ───────────────────────────────────────────────

// RecordDispatcher captures dispatched events in order.
type RecordDispatcher struct {
	mu     sync.Mutex
	events []event.Event
}

// NewRecordDispatcher creates an empty recorder.
func NewRecordDispatcher() *RecordDispatcher {
	return &RecordDispatcher{}
}

// Dispatch records the event.
func (d *RecordDispatcher) Dispatch(ctx context.Context, e event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

// Events returns a copy of everything dispatched so far.
func (d *RecordDispatcher) Events() []event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event.Event(nil), d.events...)
}

// Names returns the dispatched event names in order.
func (d *RecordDispatcher) Names() []event.Name {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]event.Name, len(d.events))
	for i, e := range d.events {
		names[i] = e.Name
	}
	return names
}

// CountOf returns how many events with the given name were dispatched.
func (d *RecordDispatcher) CountOf(name event.Name) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
