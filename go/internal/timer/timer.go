// Package timer implements the Pomodoro countdown state machine. A Timer is not
// safe for concurrent use; the service owns it behind a single lock.
package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
}

// Notifier shows a desktop notification. Implementations must not block.
type Notifier interface {
	Notify(summary string)
}

// CommandRunner executes a completion command. Implementations must not block
// and must swallow failures.
type CommandRunner interface {
	Run(command string)
}

// NoOpNotifier discards notifications.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(string) {}

// NoOpRunner discards completion commands.
type NoOpRunner struct{}

func (NoOpRunner) Run(string) {}

// expiryBackoff keeps the first rendered minute count exact right after start.
const expiryBackoff = time.Millisecond

// Config holds the runtime settings of a Timer.
type Config struct {
	Schedule Schedule
	// StrictStart makes Start fail with ErrTimerAlreadyExisting while a timer is
	// active instead of toggling pause.
	StrictStart bool
}

// DefaultConfig returns the default timer configuration.
func DefaultConfig() Config {
	return Config{Schedule: DefaultSchedule()}
}

type Timer struct {
	cycles   int
	phase    Phase
	config   Config
	clock    Clock
	notifier Notifier
	runner   CommandRunner
}

// New creates an idle Timer. Nil collaborators are replaced with no-ops and a
// nil clock with the real clock.
func New(config Config, clock Clock, notifier Notifier, runner CommandRunner) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	if runner == nil {
		runner = NoOpRunner{}
	}
	return &Timer{
		phase:    Idle{},
		config:   config,
		clock:    clock,
		notifier: notifier,
		runner:   runner,
	}
}

// Phase returns the current phase.
func (t *Timer) Phase() Phase {
	return t.phase
}

// Cycles returns the number of completed sessions.
func (t *Timer) Cycles() int {
	return t.cycles
}

// Cancel drops any active timer. Cancelling while idle resets the cycle counter.
func (t *Timer) Cancel() error {
	switch t.phase.(type) {
	case Idle:
		t.cycles = 0
	case Running, Paused:
		t.notifier.Notify("Timer canceled")
	}
	t.phase = Idle{}
	return nil
}

// Start begins the next session of the schedule. On an active timer it toggles
// pause, or fails in strict mode.
func (t *Timer) Start(command string) error {
	switch t.phase.(type) {
	case Idle:
		expiry := t.clock.Now().Add(t.config.Schedule.DurationFor(t.cycles)).Add(-expiryBackoff)
		t.notifier.Notify(expiryTooltip(expiry))
		t.phase = Running{Expiry: expiry, Command: command}
		log.Debug().
			Int("cycles", t.cycles).
			Time("expiry", expiry).
			Bool("has_command", command != "").
			Msg("timer started")
		return nil
	case Running, Paused:
		if t.config.StrictStart {
			return ErrTimerAlreadyExisting
		}
		return t.TogglePause()
	}
	return nil
}

// Increase moves the expiry by seconds, which may be negative.
func (t *Timer) Increase(seconds int64) error {
	delta := time.Duration(seconds) * time.Second
	switch p := t.phase.(type) {
	case Running:
		p.Expiry = p.Expiry.Add(delta)
		t.phase = p
		t.notifier.Notify(expiryTooltip(p.Expiry))
		return nil
	case Paused:
		p.Remaining += delta
		t.phase = p
		return nil
	case Idle:
		return ErrNoTimerExisting
	}
	return nil
}

// Skip ends the current session; the next tick expires it.
func (t *Timer) Skip() error {
	switch p := t.phase.(type) {
	case Running:
		p.Expiry = t.clock.Now()
		t.phase = p
		return nil
	case Paused:
		p.Remaining = 0
		t.phase = p
		return t.TogglePause()
	case Idle:
		return ErrNoTimerExisting
	}
	return nil
}

// TogglePause pauses a running timer or resumes a paused one.
func (t *Timer) TogglePause() error {
	switch p := t.phase.(type) {
	case Running:
		t.phase = Paused{Remaining: p.Expiry.Sub(t.clock.Now()), Command: p.Command}
		t.notifier.Notify("Timer paused")
		return nil
	case Paused:
		expiry := t.clock.Now().Add(p.Remaining)
		t.phase = Running{Expiry: expiry, Command: p.Command}
		t.notifier.Notify(expiryTooltip(expiry))
		return nil
	case Idle:
		return ErrNoTimerExisting
	}
	return nil
}

// TickAndRender expires a running timer whose deadline has passed and renders
// the resulting phase.
func (t *Timer) TickAndRender() Status {
	now := t.clock.Now()
	if p, ok := t.phase.(Running); ok && !p.Expiry.After(now) {
		if p.Command != "" {
			t.runner.Run(p.Command)
		}
		t.cycles++
		t.phase = Idle{}
		log.Info().Int("cycles", t.cycles).Msg("timer expired")
	}
	return Render(t.phase, t.cycles, now)
}
