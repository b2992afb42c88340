package event

import "context"

// Name identifies a poll lifecycle event on the wire.
type Name string

const (
	QuestionAsked       Name = "question:asked"
	QuestionProgress    Name = "question:progress"
	QuestionEnded       Name = "question:ended"
	ParticipantsUpdated Name = "participants:updated"
)

// Event is a domain event value produced by the coordinator after a mutation
// commits. PollID selects the broadcast channel and is not part of the
// serialized payload.
type Event struct {
	PollID string `json:"-"`
	Name   Name   `json:"event"`
	Data   any    `json:"data"`
}

// Dispatcher forwards coordinator events to the realtime broadcaster. The
// coordinator calls Dispatch while holding the poll lock, directly after the
// corresponding save, so per-poll dispatch order equals commit order.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event)
}
