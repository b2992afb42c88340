package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PollStatus enumerates the possible states of a poll.
type PollStatus string

const (
	PollStatusActive PollStatus = "active"
	PollStatusClosed PollStatus = "closed"
)

// Poll is the aggregate root stored as a single document: it owns its
// question history and its participant roster. The active question is not a
// separate object — it is always the last element of Questions.
type Poll struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Questions    []Question         `json:"questions" bson:"questions"`
	Participants []Participant      `json:"participants" bson:"participants"`
	Status       PollStatus         `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// ActiveQuestion returns a pointer to the most recently asked question, or
// nil if none has been asked yet. The returned question may already have
// ended; callers decide whether an ended question still matters to them.
func (p *Poll) ActiveQuestion() *Question {
	if len(p.Questions) == 0 {
		return nil
	}
	return &p.Questions[len(p.Questions)-1]
}

// FindQuestion returns the question with the given ID, or nil.
func (p *Poll) FindQuestion(id primitive.ObjectID) *Question {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i]
		}
	}
	return nil
}

// HasParticipant reports whether a student ID is already on the roster.
func (p *Poll) HasParticipant(studentID string) bool {
	for _, pt := range p.Participants {
		if pt.StudentID == studentID {
			return true
		}
	}
	return false
}

// Question is one multiple-choice question in a poll. It is mutable only
// while Ended is false; once ended it is append-only history.
type Question struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id"`
	Text               string             `json:"text" bson:"text"`
	Options            []string           `json:"options" bson:"options"`
	CorrectAnswerIndex int                `json:"correctAnswerIndex" bson:"correct_answer_index"`
	TimeLimitSec       int                `json:"timeLimitSec" bson:"time_limit_sec"`
	StartedAt          time.Time          `json:"startedAt" bson:"started_at"`
	Ended              bool               `json:"ended" bson:"ended"`
	EndedAt            *time.Time         `json:"endedAt,omitempty" bson:"ended_at,omitempty"`
	Answers            []Answer           `json:"answers" bson:"answers"`
}

// Deadline returns the instant at which the answer window closes.
func (q *Question) Deadline() time.Time {
	return q.StartedAt.Add(time.Duration(q.TimeLimitSec) * time.Second)
}

// Expired reports whether the answer window has elapsed at the given instant,
// regardless of whether the question was already marked ended.
func (q *Question) Expired(now time.Time) bool {
	return !now.Before(q.Deadline())
}

// AnswerBy returns the recorded answer for a student name, matched
// case-insensitively, or nil.
func (q *Question) AnswerBy(studentName string) *Answer {
	for i := range q.Answers {
		if strings.EqualFold(q.Answers[i].StudentName, studentName) {
			return &q.Answers[i]
		}
	}
	return nil
}

// Answer records one student's choice. At most one per student name
// (case-insensitive) per question; late resubmission is rejected upstream.
type Answer struct {
	StudentName string    `json:"studentName" bson:"student_name"`
	AnswerIndex int       `json:"answerIndex" bson:"answer_index"`
	AnsweredAt  time.Time `json:"answeredAt" bson:"answered_at"`
}

// Participant is a joined student identity, unique per poll by StudentID.
type Participant struct {
	StudentID string `json:"studentId" bson:"student_id"`
	Name      string `json:"name" bson:"name"`
}

// ─── Request payloads ───────────────────────────────────────────────

// CreatePollRequest is the payload for creating a new poll.
type CreatePollRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// AskQuestionRequest is the payload for starting a new question.
// CorrectAnswerIndex is a pointer so that index 0 passes "required".
type AskQuestionRequest struct {
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options" binding:"required,min=2"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex" binding:"required,min=0"`
	TimeLimitSec       int      `json:"timeLimitSec" binding:"omitempty,min=1,max=3600"`
}

// JoinPollRequest is the payload for a student joining a poll. StudentID is
// optional; the server generates one when absent.
type JoinPollRequest struct {
	PollID    string `json:"pollId" binding:"required"`
	StudentID string `json:"studentId" binding:"omitempty,max=64"`
	Name      string `json:"name" binding:"required,min=1,max=100"`
}

// SubmitAnswerRequest is the payload for answering the active question.
type SubmitAnswerRequest struct {
	PollID      string `json:"pollId" binding:"required"`
	StudentName string `json:"studentName" binding:"required,min=1,max=100"`
	AnswerIndex *int   `json:"answerIndex" binding:"required,min=0"`
}

// RemoveParticipantRequest is the teacher-initiated roster removal payload.
type RemoveParticipantRequest struct {
	PollID    string `json:"pollId" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
}
