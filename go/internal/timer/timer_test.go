package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type recordingNotifier struct {
	summaries []string
}

func (n *recordingNotifier) Notify(summary string) {
	n.summaries = append(n.summaries, summary)
}

type recordingRunner struct {
	commands []string
}

func (r *recordingRunner) Run(command string) {
	r.commands = append(r.commands, command)
}

var epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newTestTimer(t *testing.T, cfg Config) (*Timer, *clockwork.FakeClock, *recordingNotifier, *recordingRunner) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	notifier := &recordingNotifier{}
	runner := &recordingRunner{}
	return New(cfg, clock, notifier, runner), clock, notifier, runner
}

func TestStart_FromIdleUsesScheduleAndBackoff(t *testing.T) {
	tm, clock, notifier, _ := newTestTimer(t, DefaultConfig())

	if err := tm.Start(""); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	running, ok := tm.Phase().(Running)
	if !ok {
		t.Fatalf("phase = %#v, want Running", tm.Phase())
	}
	want := clock.Now().Add(25*time.Minute - time.Millisecond)
	if !running.Expiry.Equal(want) {
		t.Fatalf("expiry = %v, want %v", running.Expiry, want)
	}
	if len(notifier.summaries) != 1 || notifier.summaries[0] != "Timer expires at 09:24" {
		t.Fatalf("notifications = %q, want [Timer expires at 09:24]", notifier.summaries)
	}

	status := tm.TickAndRender()
	if status.Text != "25" {
		t.Fatalf("Text = %q, want 25", status.Text)
	}
	if status.Alt != "running-focus" || status.Class != "focus" {
		t.Fatalf("Alt/Class = %q/%q, want running-focus/focus", status.Alt, status.Class)
	}
}

func TestStart_WhileActiveTogglesPause(t *testing.T) {
	tm, _, _, _ := newTestTimer(t, DefaultConfig())

	if err := tm.Start("echo hi"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tm.Start(""); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	paused, ok := tm.Phase().(Paused)
	if !ok {
		t.Fatalf("phase = %#v, want Paused", tm.Phase())
	}
	if paused.Command != "echo hi" {
		t.Fatalf("Command = %q, want the original command to be kept", paused.Command)
	}
	if err := tm.Start(""); err != nil {
		t.Fatalf("third Start: %v", err)
	}
	if _, ok := tm.Phase().(Running); !ok {
		t.Fatalf("phase = %#v, want Running", tm.Phase())
	}
}

func TestStart_StrictModeRejectsActiveTimer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictStart = true
	tm, _, _, _ := newTestTimer(t, cfg)

	if err := tm.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := tm.Phase()
	if err := tm.Start(""); !errors.Is(err, ErrTimerAlreadyExisting) {
		t.Fatalf("Start error = %v, want ErrTimerAlreadyExisting", err)
	}
	if tm.Phase() != before {
		t.Fatalf("phase changed on rejected start: %#v -> %#v", before, tm.Phase())
	}
}

func TestIdleOperationsFailWithoutMutation(t *testing.T) {
	ops := map[string]func(*Timer) error{
		"increase":    func(tm *Timer) error { return tm.Increase(60) },
		"decrease":    func(tm *Timer) error { return tm.Increase(-60) },
		"skip":        func(tm *Timer) error { return tm.Skip() },
		"togglepause": func(tm *Timer) error { return tm.TogglePause() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			tm, _, notifier, _ := newTestTimer(t, DefaultConfig())
			tm.cycles = 3

			if err := op(tm); !errors.Is(err, ErrNoTimerExisting) {
				t.Fatalf("error = %v, want ErrNoTimerExisting", err)
			}
			if _, ok := tm.Phase().(Idle); !ok {
				t.Fatalf("phase = %#v, want Idle", tm.Phase())
			}
			if tm.Cycles() != 3 {
				t.Fatalf("Cycles = %d, want 3", tm.Cycles())
			}
			if len(notifier.summaries) != 0 {
				t.Fatalf("notifications = %q, want none", notifier.summaries)
			}
		})
	}
}

func TestTogglePause_TwiceRestoresExpiry(t *testing.T) {
	tm, _, notifier, _ := newTestTimer(t, DefaultConfig())
	if err := tm.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	original := tm.Phase().(Running).Expiry

	if err := tm.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := tm.Phase().(Paused).Remaining; got != 25*time.Minute-time.Millisecond {
		t.Fatalf("Remaining = %v, want 24m59.999s", got)
	}
	if err := tm.TogglePause(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := tm.Phase().(Running).Expiry; !got.Equal(original) {
		t.Fatalf("expiry = %v, want %v", got, original)
	}
	want := []string{"Timer expires at 09:24", "Timer paused", "Timer expires at 09:24"}
	if len(notifier.summaries) != len(want) {
		t.Fatalf("notifications = %q, want %q", notifier.summaries, want)
	}
	for i := range want {
		if notifier.summaries[i] != want[i] {
			t.Fatalf("notification %d = %q, want %q", i, notifier.summaries[i], want[i])
		}
	}
}

func TestIncrease_DecreaseExpiresOnNextTick(t *testing.T) {
	tm, clock, _, _ := newTestTimer(t, DefaultConfig())
	if err := tm.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(15 * time.Minute)

	before := tm.Phase().(Running).Expiry
	if err := tm.Increase(-600); err != nil {
		t.Fatalf("Increase: %v", err)
	}
	after := tm.Phase().(Running).Expiry
	if before.Sub(after) != 10*time.Minute {
		t.Fatalf("expiry moved by %v, want 10m", before.Sub(after))
	}

	status := tm.TickAndRender()
	if _, ok := tm.Phase().(Idle); !ok {
		t.Fatalf("phase = %#v, want Idle", tm.Phase())
	}
	if tm.Cycles() != 1 {
		t.Fatalf("Cycles = %d, want 1", tm.Cycles())
	}
	if status.Text != "0" || status.Alt != "standby-break" || status.Class != "idle" {
		t.Fatalf("status = %+v, want idle break standby", status)
	}
}

func TestIncrease_PausedShiftsRemaining(t *testing.T) {
	tm, _, notifier, _ := newTestTimer(t, DefaultConfig())
	tm.phase = Paused{Remaining: time.Minute, Command: "x"}

	if err := tm.Increase(-120); err != nil {
		t.Fatalf("Increase: %v", err)
	}
	paused := tm.Phase().(Paused)
	if paused.Remaining != -time.Minute {
		t.Fatalf("Remaining = %v, want -1m", paused.Remaining)
	}
	if paused.Command != "x" {
		t.Fatalf("Command = %q, want x", paused.Command)
	}
	if len(notifier.summaries) != 0 {
		t.Fatalf("notifications = %q, want none for paused adjustments", notifier.summaries)
	}
	if status := tm.TickAndRender(); status.Text != "0" || status.Alt != "paused-focus" {
		t.Fatalf("status = %+v, want text 0 and paused-focus", status)
	}
}

func TestSkip_PausedResumesAndExpires(t *testing.T) {
	tm, clock, _, runner := newTestTimer(t, DefaultConfig())
	tm.phase = Paused{Remaining: 5 * time.Minute, Command: "echo done"}

	if err := tm.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	running, ok := tm.Phase().(Running)
	if !ok {
		t.Fatalf("phase = %#v, want Running", tm.Phase())
	}
	if !running.Expiry.Equal(clock.Now()) {
		t.Fatalf("expiry = %v, want now %v", running.Expiry, clock.Now())
	}

	tm.TickAndRender()
	if _, ok := tm.Phase().(Idle); !ok {
		t.Fatalf("phase = %#v, want Idle", tm.Phase())
	}
	if tm.Cycles() != 1 {
		t.Fatalf("Cycles = %d, want 1", tm.Cycles())
	}
	if len(runner.commands) != 1 || runner.commands[0] != "echo done" {
		t.Fatalf("commands = %q, want [echo done]", runner.commands)
	}
}

func TestSkip_RunningExpiresNow(t *testing.T) {
	tm, clock, _, runner := newTestTimer(t, DefaultConfig())
	if err := tm.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tm.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if got := tm.Phase().(Running).Expiry; !got.Equal(clock.Now()) {
		t.Fatalf("expiry = %v, want %v", got, clock.Now())
	}
	tm.TickAndRender()
	if tm.Cycles() != 1 {
		t.Fatalf("Cycles = %d, want 1", tm.Cycles())
	}
	if len(runner.commands) != 0 {
		t.Fatalf("commands = %q, want none without a completion command", runner.commands)
	}
}

func TestCancel(t *testing.T) {
	t.Run("idle resets cycles", func(t *testing.T) {
		tm, _, notifier, _ := newTestTimer(t, DefaultConfig())
		tm.cycles = 5

		if err := tm.Cancel(); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if tm.Cycles() != 0 {
			t.Fatalf("Cycles = %d, want 0", tm.Cycles())
		}
		if _, ok := tm.Phase().(Idle); !ok {
			t.Fatalf("phase = %#v, want Idle", tm.Phase())
		}
		if len(notifier.summaries) != 0 {
			t.Fatalf("notifications = %q, want none", notifier.summaries)
		}
	})

	t.Run("active keeps cycles and notifies", func(t *testing.T) {
		tm, _, notifier, runner := newTestTimer(t, DefaultConfig())
		tm.cycles = 2
		if err := tm.Start("echo never"); err != nil {
			t.Fatalf("Start: %v", err)
		}

		if err := tm.Cancel(); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if tm.Cycles() != 2 {
			t.Fatalf("Cycles = %d, want 2", tm.Cycles())
		}
		if _, ok := tm.Phase().(Idle); !ok {
			t.Fatalf("phase = %#v, want Idle", tm.Phase())
		}
		if last := notifier.summaries[len(notifier.summaries)-1]; last != "Timer canceled" {
			t.Fatalf("last notification = %q, want Timer canceled", last)
		}
		tm.TickAndRender()
		if len(runner.commands) != 0 {
			t.Fatalf("commands = %q, cancelled timers must not run their command", runner.commands)
		}
	})
}

func TestTickAndRender_RunsCompletionCommandOnce(t *testing.T) {
	tm, clock, _, runner := newTestTimer(t, DefaultConfig())
	if err := tm.Start("notify-send done"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(24 * time.Minute)
	if status := tm.TickAndRender(); status.Text != "1" {
		t.Fatalf("Text = %q, want 1 with under a minute left", status.Text)
	}
	if len(runner.commands) != 0 {
		t.Fatalf("command ran early: %q", runner.commands)
	}

	clock.Advance(time.Minute)
	tm.TickAndRender()
	tm.TickAndRender()
	if len(runner.commands) != 1 || runner.commands[0] != "notify-send done" {
		t.Fatalf("commands = %q, want exactly one run", runner.commands)
	}
	if tm.Cycles() != 1 {
		t.Fatalf("Cycles = %d, want 1", tm.Cycles())
	}
}

func TestScheduleAcrossRound(t *testing.T) {
	tm, clock, _, _ := newTestTimer(t, DefaultConfig())
	want := []time.Duration{25, 5, 25, 5, 25, 5, 25, 25, 25}

	for cycle, minutes := range want {
		if tm.Cycles() != cycle {
			t.Fatalf("Cycles = %d, want %d", tm.Cycles(), cycle)
		}
		if err := tm.Start(""); err != nil {
			t.Fatalf("Start: %v", err)
		}
		got := tm.Phase().(Running).Expiry.Sub(clock.Now())
		if got != minutes*time.Minute-time.Millisecond {
			t.Fatalf("cycle %d duration = %v, want %v", cycle, got, minutes*time.Minute-time.Millisecond)
		}
		if err := tm.Skip(); err != nil {
			t.Fatalf("Skip: %v", err)
		}
		tm.TickAndRender()
	}
}

func TestExactlyOnePhaseAfterEveryStep(t *testing.T) {
	tm, clock, _, _ := newTestTimer(t, DefaultConfig())
	steps := []func() error{
		func() error { return tm.Start("") },
		func() error { return tm.Increase(30) },
		func() error { return tm.TogglePause() },
		func() error { return tm.Increase(-3000) },
		func() error { return tm.TogglePause() },
		func() error { return tm.Skip() },
		func() error { return tm.Cancel() },
		func() error { return tm.Start("") },
		func() error { return tm.Skip() },
	}
	for i, step := range steps {
		_ = step()
		clock.Advance(10 * time.Second)
		status := tm.TickAndRender()

		switch tm.Phase().(type) {
		case Idle, Running, Paused:
		default:
			t.Fatalf("step %d: unexpected phase %#v", i, tm.Phase())
		}
		if status.Text == "" || status.Text[0] == '-' {
			t.Fatalf("step %d: Text = %q, want non-negative", i, status.Text)
		}
	}
}
