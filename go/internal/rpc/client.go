package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

const defaultCallTimeout = 5 * time.Second

// Client issues commands against a running service. Each call opens a new
// connection, sends one request, reads one response and disconnects.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient builds a Client for the commands endpoint at addr. Names starting
// with '@' live in the abstract socket namespace.
func NewClient(addr string) *Client {
	return &Client{addr: addr, timeout: defaultCallTimeout}
}

// Call sends req and returns the domain error carried by the response, if any.
func (c *Client) Call(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "unix", c.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := WriteRequest(conn, req); err != nil {
		return err
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	resp, err := ReadResponse(conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return resp.Err()
}

func (c *Client) Cancel(ctx context.Context) error {
	return c.Call(ctx, Request{Verb: VerbCancel})
}

func (c *Client) Start(ctx context.Context, command string) error {
	return c.Call(ctx, Request{Verb: VerbStart, Command: command})
}

func (c *Client) Increase(ctx context.Context, seconds int64) error {
	return c.Call(ctx, Request{Verb: VerbIncrease, Seconds: seconds})
}

func (c *Client) Decrease(ctx context.Context, seconds int64) error {
	return c.Call(ctx, Request{Verb: VerbIncrease, Seconds: -seconds})
}

func (c *Client) TogglePause(ctx context.Context) error {
	return c.Call(ctx, Request{Verb: VerbTogglePause})
}

func (c *Client) Skip(ctx context.Context) error {
	return c.Call(ctx, Request{Verb: VerbSkip})
}

// Follow connects to the updates endpoint at addr and copies status lines to
// w until the service disconnects or ctx ends.
func Follow(ctx context.Context, addr string, w io.Writer) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return fmt.Errorf("shutdown write half: %w", err)
		}
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := io.Copy(w, conn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read updates: %w", err)
	}
	return nil
}

// ReadStatus connects to the updates endpoint at addr and returns the first
// status line the service pushes.
func ReadStatus(ctx context.Context, addr string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", addr)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	line, err := readLine(conn)
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	return string(line), nil
}
