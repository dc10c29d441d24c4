package timer

import "errors"

var (
	// ErrNoTimerExisting is returned when an operation needs a running or paused timer.
	ErrNoTimerExisting = errors.New("no timer exists right now")
	// ErrTimerAlreadyExisting is returned by Start in strict mode while a timer is active.
	ErrTimerAlreadyExisting = errors.New("there already exists a timer")
)
