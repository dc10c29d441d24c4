package rpc

// Handler is the set of timer operations reachable over the commands channel.
// *timer.Timer implements it.
type Handler interface {
	Cancel() error
	Start(command string) error
	Increase(seconds int64) error
	TogglePause() error
	Skip() error
}

type handlerFunc func(h Handler, req Request) error

var dispatchTable = map[Verb]handlerFunc{
	VerbCancel:      func(h Handler, _ Request) error { return h.Cancel() },
	VerbStart:       func(h Handler, req Request) error { return h.Start(req.Command) },
	VerbIncrease:    func(h Handler, req Request) error { return h.Increase(req.Seconds) },
	VerbTogglePause: func(h Handler, _ Request) error { return h.TogglePause() },
	VerbSkip:        func(h Handler, _ Request) error { return h.Skip() },
}

// Dispatch runs req against h. Requests come from ReadRequest, so the verb is
// known; an unknown verb is still answered instead of panicking.
func Dispatch(h Handler, req Request) Response {
	fn, ok := dispatchTable[req.Verb]
	if !ok {
		return Response{Error: ErrorCode("UnknownVerb")}
	}
	return ResponseFor(fn(h, req))
}
