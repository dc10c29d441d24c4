package timer

import (
	"strconv"
	"time"
)

// Status is one line of the updates stream. The field set is what waybar's
// custom module expects from a return-type json script.
type Status struct {
	Text    string `json:"text"`
	Alt     string `json:"alt"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

const (
	TagStandby = "standby"
	TagRunning = "running"
	TagPaused  = "paused"

	ClassIdle  = "idle"
	ClassFocus = "focus"
	ClassBreak = "break"
)

// Render maps a phase to its status payload. It never fails.
func Render(phase Phase, cycles int, now time.Time) Status {
	session := ClassFocus
	if cycles%2 != 0 {
		session = ClassBreak
	}

	switch p := phase.(type) {
	case Running:
		return Status{
			Text:    strconv.Itoa(minutesLeft(p.Expiry.Sub(now))),
			Alt:     TagRunning + "-" + session,
			Tooltip: expiryTooltip(p.Expiry),
			Class:   session,
		}
	case Paused:
		return Status{
			Text:    strconv.Itoa(minutesLeft(p.Remaining)),
			Alt:     TagPaused + "-" + session,
			Tooltip: "Timer paused",
			Class:   session,
		}
	default:
		return Status{
			Text:    "0",
			Alt:     TagStandby + "-" + session,
			Tooltip: "No timer set",
			Class:   ClassIdle,
		}
	}
}

// minutesLeft counts the started minute as a whole one, so 24m59s shows 25.
func minutesLeft(left time.Duration) int {
	if left < 0 {
		return 0
	}
	return int(left/time.Minute) + 1
}

func expiryTooltip(expiry time.Time) string {
	return "Timer expires at " + expiry.Format("15:04")
}
