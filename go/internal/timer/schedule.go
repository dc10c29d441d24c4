package timer

import "time"

// Schedule holds the durations of the three kinds of sessions in a Pomodoro round.
type Schedule struct {
	Focus      time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultSchedule returns the classic 25/5 schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Focus:      25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  25 * time.Minute,
	}
}

// DurationFor returns the session length for the given cycle count.
// A round is eight cycles: focus and breaks alternate, the last break is long.
func (s Schedule) DurationFor(cycles int) time.Duration {
	switch mod(cycles, 8) {
	case 1, 3, 5:
		return s.ShortBreak
	case 7:
		return s.LongBreak
	default:
		return s.Focus
	}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
