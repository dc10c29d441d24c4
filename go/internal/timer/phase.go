package timer

import "time"

// Phase is the current state of the timer. It is one of Idle, Running or Paused.
type Phase interface {
	isPhase()
}

// Idle means no timer is set.
type Idle struct{}

// Running is an active countdown to Expiry.
type Running struct {
	Expiry time.Time
	// Command runs through the shell when the timer expires. Empty means none.
	Command string
}

// Paused is a frozen countdown with Remaining left on the clock.
type Paused struct {
	Remaining time.Duration
	Command   string
}

func (Idle) isPhase()    {}
func (Running) isPhase() {}
func (Paused) isPhase()  {}
