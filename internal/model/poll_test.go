package model

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestQuestionDeadlineAndExpired(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	q := Question{StartedAt: start, TimeLimitSec: 30}

	want := start.Add(30 * time.Second)
	if !q.Deadline().Equal(want) {
		t.Errorf("Deadline() = %v, want %v", q.Deadline(), want)
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before deadline", start.Add(29 * time.Second), false},
		{"exactly at deadline", want, true},
		{"after deadline", want.Add(time.Millisecond), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Expired(tt.now); got != tt.want {
				t.Errorf("Expired(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestQuestionAnswerByCaseInsensitive(t *testing.T) {
	q := Question{
		Answers: []Answer{
			{StudentName: "Alice", AnswerIndex: 1},
			{StudentName: "Bob", AnswerIndex: 0},
		},
	}

	if a := q.AnswerBy("ALICE"); a == nil || a.AnswerIndex != 1 {
		t.Errorf("AnswerBy(ALICE) = %v, want Alice's answer", a)
	}
	if a := q.AnswerBy("bob"); a == nil || a.AnswerIndex != 0 {
		t.Errorf("AnswerBy(bob) = %v, want Bob's answer", a)
	}
	if a := q.AnswerBy("Carol"); a != nil {
		t.Errorf("AnswerBy(Carol) = %v, want nil", a)
	}
}

func TestQuestionViewWithholdsCorrectAnswerUntilEnded(t *testing.T) {
	q := Question{
		ID:                 primitive.NewObjectID(),
		Text:               "q",
		Options:            []string{"a", "b"},
		CorrectAnswerIndex: 1,
		TimeLimitSec:       10,
	}

	live := q.View()
	if live.CorrectAnswerIndex != nil {
		t.Error("live view must not carry the correct answer index")
	}
	if live.Answers == nil {
		t.Error("view answers must be an empty slice, not nil")
	}

	q.Ended = true
	ended := q.View()
	if ended.CorrectAnswerIndex == nil || *ended.CorrectAnswerIndex != 1 {
		t.Errorf("ended view correctAnswerIndex = %v, want 1", ended.CorrectAnswerIndex)
	}
}

func TestPollActiveQuestion(t *testing.T) {
	p := Poll{}
	if p.ActiveQuestion() != nil {
		t.Error("empty poll must have no active question")
	}

	first := Question{ID: primitive.NewObjectID(), Ended: true}
	second := Question{ID: primitive.NewObjectID()}
	p.Questions = []Question{first, second}

	active := p.ActiveQuestion()
	if active == nil || active.ID != second.ID {
		t.Fatal("active question must be the last asked")
	}

	// The pointer aliases the slice element so callers can mutate in place.
	active.Ended = true
	if !p.Questions[1].Ended {
		t.Error("ActiveQuestion must point into the poll's question slice")
	}
}

func TestPollFindQuestion(t *testing.T) {
	target := Question{ID: primitive.NewObjectID(), Text: "target"}
	p := Poll{Questions: []Question{
		{ID: primitive.NewObjectID()},
		target,
	}}

	if q := p.FindQuestion(target.ID); q == nil || q.Text != "target" {
		t.Errorf("FindQuestion = %v, want target", q)
	}
	if q := p.FindQuestion(primitive.NewObjectID()); q != nil {
		t.Errorf("FindQuestion(unknown) = %v, want nil", q)
	}
}

func TestPollHasParticipant(t *testing.T) {
	p := Poll{Participants: []Participant{{StudentID: "s1", Name: "Alice"}}}

	if !p.HasParticipant("s1") {
		t.Error("HasParticipant(s1) = false, want true")
	}
	if p.HasParticipant("s2") {
		t.Error("HasParticipant(s2) = true, want false")
	}
}

func TestPollView(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := Poll{
		ID:        primitive.NewObjectID(),
		Title:     "Quiz",
		Status:    PollStatusActive,
		CreatedAt: now,
		Questions: []Question{
			{ID: primitive.NewObjectID(), Text: "q1", Options: []string{"a", "b"}, Ended: true},
			{ID: primitive.NewObjectID(), Text: "q2", Options: []string{"x", "y"}},
		},
	}

	v := p.View()
	if v.Participants == nil {
		t.Error("participants must be an empty slice, not nil")
	}
	if len(v.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(v.Questions))
	}
	if v.ActiveQuestion == nil || v.ActiveQuestion.Text != "q2" {
		t.Fatal("active question view must be the last asked")
	}
	if v.ActiveQuestion.CorrectAnswerIndex != nil {
		t.Error("live active question must not reveal the correct answer")
	}
	if v.Questions[0].CorrectAnswerIndex == nil {
		t.Error("ended question in the list must carry its correct answer")
	}
}
