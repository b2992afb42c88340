package service

// Typed failures returned by coordinator and poll service operations.
// Handlers map them onto HTTP statuses and response error codes; no
// operation panics or crashes the process.

// ValidationError reports malformed input (blank text, too few options,
// out-of-range index). No state change has occurred.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError reports a collision with existing state: a live question
// already exists, or the student already answered. No state change.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError reports an unknown poll or question.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// PreconditionError reports an operation attempted in the wrong lifecycle
// state, e.g. answering when no question is live. It may follow a lazy state
// transition (the stale question was just ended) performed before reporting.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }
