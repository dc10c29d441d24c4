package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxLineSize bounds a single request or response line.
const MaxLineSize = 64 * 1024

// ErrFraming marks a request or response that does not follow the protocol.
// The connection carrying it is closed without a reply.
var ErrFraming = errors.New("malformed message")

type wireRequest struct {
	Verb    Verb    `json:"verb"`
	Command *string `json:"command,omitempty"`
	Seconds *int64  `json:"seconds,omitempty"`
}

// WriteRequest encodes req as one line.
func WriteRequest(w io.Writer, req Request) error {
	wire := wireRequest{Verb: req.Verb}
	switch req.Verb {
	case VerbStart:
		if req.Command != "" {
			wire.Command = &req.Command
		}
	case VerbIncrease:
		wire.Seconds = &req.Seconds
	case VerbCancel, VerbTogglePause, VerbSkip:
	default:
		return fmt.Errorf("%w: unknown verb %q", ErrFraming, req.Verb)
	}
	return writeLine(w, wire)
}

// ReadRequest decodes one request line. Any protocol violation is reported
// as ErrFraming.
func ReadRequest(r io.Reader) (Request, error) {
	line, err := readLine(r)
	if err != nil {
		return Request{}, err
	}

	var wire wireRequest
	if err := decodeStrict(line, &wire); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrFraming, err)
	}

	req := Request{Verb: wire.Verb}
	switch wire.Verb {
	case VerbStart:
		if wire.Seconds != nil {
			return Request{}, fmt.Errorf("%w: start takes no seconds", ErrFraming)
		}
		if wire.Command != nil {
			req.Command = *wire.Command
		}
	case VerbIncrease:
		if wire.Seconds == nil {
			return Request{}, fmt.Errorf("%w: increase requires seconds", ErrFraming)
		}
		if wire.Command != nil {
			return Request{}, fmt.Errorf("%w: increase takes no command", ErrFraming)
		}
		req.Seconds = *wire.Seconds
	case VerbCancel, VerbTogglePause, VerbSkip:
		if wire.Command != nil || wire.Seconds != nil {
			return Request{}, fmt.Errorf("%w: %s takes no arguments", ErrFraming, wire.Verb)
		}
	default:
		return Request{}, fmt.Errorf("%w: unknown verb %q", ErrFraming, wire.Verb)
	}
	return req, nil
}

// WriteResponse encodes resp as one line.
func WriteResponse(w io.Writer, resp Response) error {
	return writeLine(w, resp)
}

// ReadResponse decodes one response line.
func ReadResponse(r io.Reader) (Response, error) {
	line, err := readLine(r)
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := decodeStrict(line, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrFraming, err)
	}
	if resp.OK && resp.Error != "" {
		return Response{}, fmt.Errorf("%w: response is both ok and failed", ErrFraming)
	}
	if !resp.OK && resp.Error == "" {
		return Response{}, fmt.Errorf("%w: failed response without error", ErrFraming)
	}
	return resp, nil
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func readLine(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), MaxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, fmt.Errorf("%w: line exceeds %d bytes", ErrFraming, MaxLineSize)
			}
			return nil, fmt.Errorf("read message: %w", err)
		}
		return nil, fmt.Errorf("read message: %w", io.ErrUnexpectedEOF)
	}
	line := bytes.TrimSpace(scanner.Bytes())
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrFraming)
	}
	return line, nil
}

func decodeStrict(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after message")
	}
	return nil
}
