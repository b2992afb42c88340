package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionJoin         Action = "join"
	ActionSubmitAnswer Action = "submit:answer"
)

// RequestPayload is the inbound frame shape; fields apply per action.
type RequestPayload struct {
	Action Action `json:"action"`

	// join
	StudentID string `json:"studentId,omitempty"`
	Name      string `json:"name,omitempty"`

	// submit:answer — pointer so index 0 survives the zero-value check
	StudentName string `json:"studentName,omitempty"`
	AnswerIndex *int   `json:"answerIndex,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

// Poll lifecycle events (question:asked, question:progress, question:ended,
// participants:updated) are forwarded verbatim from the broadcaster and share
// the same {event, data} envelope as the frames below.

type Event string

const (
	EventError  Event = "error"
	EventJoined Event = "joined"
)

// Frame is a server-originated event envelope.
type Frame struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

// ErrorFrame reports a failed action to the client.
type ErrorFrame struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// JoinedData acknowledges a join with the (possibly generated) identity.
type JoinedData struct {
	PollID    string `json:"pollId"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}
