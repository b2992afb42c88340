package service

import "time"

// Timer is a cancelable handle to a pending expiration callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and timer arming so the coordinator's expiration
// behavior is testable without sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// NewClock returns the system clock.
func NewClock() Clock { return realClock{} }
