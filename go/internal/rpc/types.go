// Package rpc defines the request/response protocol of the commands channel.
//
// Each connection carries exactly one request line and one response line, both
// JSON objects:
//
//	-> {"verb":"increase","seconds":-600}
//	<- {"ok":false,"error":"NoTimerExisting"}
package rpc

import (
	"errors"
	"fmt"

	"github.com/christianlegge/waybar-timer/go/internal/timer"
)

// Verb names a timer operation.
type Verb string

const (
	VerbCancel      Verb = "cancel"
	VerbStart       Verb = "start"
	VerbIncrease    Verb = "increase"
	VerbTogglePause Verb = "togglepause"
	VerbSkip        Verb = "skip"
)

// Request is a single command for the timer. Command is only meaningful for
// start and Seconds only for increase.
type Request struct {
	Verb    Verb
	Command string
	Seconds int64
}

// ErrorCode is the wire name of a domain error.
type ErrorCode string

const (
	CodeNoTimerExisting      ErrorCode = "NoTimerExisting"
	CodeTimerAlreadyExisting ErrorCode = "TimerAlreadyExisting"
)

// Response is the outcome of a Request.
type Response struct {
	OK    bool      `json:"ok"`
	Error ErrorCode `json:"error,omitempty"`
}

// ErrUnknownErrorCode is returned for a response carrying an error code this
// client does not know.
var ErrUnknownErrorCode = errors.New("unknown error code in response")

// ResponseFor converts the result of a timer operation into a Response.
func ResponseFor(err error) Response {
	switch {
	case err == nil:
		return Response{OK: true}
	case errors.Is(err, timer.ErrNoTimerExisting):
		return Response{Error: CodeNoTimerExisting}
	case errors.Is(err, timer.ErrTimerAlreadyExisting):
		return Response{Error: CodeTimerAlreadyExisting}
	default:
		// Timer operations only fail with the two domain errors.
		return Response{Error: ErrorCode(err.Error())}
	}
}

// Err converts a Response back into the timer error it represents.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	switch r.Error {
	case CodeNoTimerExisting:
		return timer.ErrNoTimerExisting
	case CodeTimerAlreadyExisting:
		return timer.ErrTimerAlreadyExisting
	default:
		return fmt.Errorf("%w: %q", ErrUnknownErrorCode, r.Error)
	}
}
