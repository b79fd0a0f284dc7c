package game

import "time"

// Timer is a first-class, cancellable handle for a pending callback.
// Stop reports false when the callback already fired or was stopped.
type Timer interface {
	Stop() bool
}

// Scheduler defers callbacks. Injected so tests can fire deadlines
// deterministically instead of sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// NewScheduler returns the wall-clock scheduler used in production.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
