package rpc

import (
	"fmt"
	"io"
)

// ApplyFunc handles one decoded request. It must call respond exactly once
// with the outcome and returns respond's error.
type ApplyFunc func(req Request, respond func(Response) error) error

// DispatchTo returns an ApplyFunc that runs requests against h.
func DispatchTo(h Handler) ApplyFunc {
	return func(req Request, respond func(Response) error) error {
		return respond(Dispatch(h, req))
	}
}

// ServeConn reads one request from rw and hands it to apply, which writes the
// response through respond. A framing error is returned without writing
// anything so the caller can drop the connection.
func ServeConn(rw io.ReadWriter, apply ApplyFunc) (Request, error) {
	req, err := ReadRequest(rw)
	if err != nil {
		return Request{}, err
	}
	err = apply(req, func(resp Response) error {
		return WriteResponse(rw, resp)
	})
	if err != nil {
		return req, fmt.Errorf("write response: %w", err)
	}
	return req, nil
}
