package model

import "time"

// QuestionView is the client-facing shape of a question. The correct answer
// index is withheld until the question has ended; it is never revealed while
// students can still answer, on any transport.
type QuestionView struct {
	ID                 string     `json:"id"`
	Text               string     `json:"text"`
	Options            []string   `json:"options"`
	CorrectAnswerIndex *int       `json:"correctAnswerIndex,omitempty"`
	TimeLimitSec       int        `json:"timeLimitSec"`
	StartedAt          time.Time  `json:"startedAt"`
	Ended              bool       `json:"ended"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	Answers            []Answer   `json:"answers"`
}

// View builds the sanitized client shape of a question.
func (q *Question) View() QuestionView {
	v := QuestionView{
		ID:           q.ID.Hex(),
		Text:         q.Text,
		Options:      q.Options,
		TimeLimitSec: q.TimeLimitSec,
		StartedAt:    q.StartedAt,
		Ended:        q.Ended,
		EndedAt:      q.EndedAt,
		Answers:      q.Answers,
	}
	if v.Answers == nil {
		v.Answers = []Answer{}
	}
	if q.Ended {
		idx := q.CorrectAnswerIndex
		v.CorrectAnswerIndex = &idx
	}
	return v
}

// PollView is the sanitized poll snapshot returned to clients.
type PollView struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Status         PollStatus     `json:"status"`
	Participants   []Participant  `json:"participants"`
	ActiveQuestion *QuestionView  `json:"activeQuestion,omitempty"`
	Questions      []QuestionView `json:"questions"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// View builds the sanitized client shape of a poll.
func (p *Poll) View() PollView {
	v := PollView{
		ID:           p.ID.Hex(),
		Title:        p.Title,
		Status:       p.Status,
		Participants: p.Participants,
		Questions:    make([]QuestionView, 0, len(p.Questions)),
		CreatedAt:    p.CreatedAt,
	}
	if v.Participants == nil {
		v.Participants = []Participant{}
	}
	for i := range p.Questions {
		v.Questions = append(v.Questions, p.Questions[i].View())
	}
	if active := p.ActiveQuestion(); active != nil {
		av := active.View()
		v.ActiveQuestion = &av
	}
	return v
}

// LiveResult is the tally of the question currently (or most recently) asked.
type LiveResult struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	Counts             []int    `json:"counts"`
	TotalAnswers       int      `json:"totalAnswers"`
	TotalParticipants  int      `json:"totalParticipants"`
	CorrectCount       int      `json:"correctCount"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// QuestionResult is the tally of one historical question by ID.
type QuestionResult struct {
	QuestionID         string   `json:"questionId"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	Counts             []int    `json:"counts"`
	TotalAnswers       int      `json:"totalAnswers"`
	TotalParticipants  int      `json:"totalParticipants"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// HistoryAnswer is one answer row in the poll history, with the chosen
// option resolved to its text.
type HistoryAnswer struct {
	StudentName string    `json:"studentName"`
	OptionIndex int       `json:"optionIndex"`
	OptionText  string    `json:"optionText"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

// HistoryEntry is one asked question in the poll history. History is only
// assembled for questions, ended or live, that have been asked; the correct
// answer is resolved for the teacher-facing review screen.
type HistoryEntry struct {
	QuestionID         string          `json:"questionId"`
	Text               string          `json:"text"`
	Options            []string        `json:"options"`
	CorrectAnswerIndex int             `json:"correctAnswerIndex"`
	CorrectAnswer      *string         `json:"correctAnswer"`
	Counts             []int           `json:"counts"`
	TimeLimitSec       int             `json:"timeLimitSec"`
	StartedAt          time.Time       `json:"startedAt"`
	Ended              bool            `json:"ended"`
	EndedAt            *time.Time      `json:"endedAt,omitempty"`
	Answers            []HistoryAnswer `json:"answers"`
}
