package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/christianlegge/waybar-timer/go/internal/rpc"
	"github.com/rs/zerolog/log"
)

// serveCommands handles one command connection at a time.
func (s *Service) serveCommands(ctx context.Context) error {
	for {
		conn, err := s.commands.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept command: %w", err)
		}
		s.handleCommand(ctx, conn)
	}
}

// handleCommand reads one request, then dispatches, answers, closes the
// connection and broadcasts while holding the state lock.
func (s *Service) handleCommand(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Shutdown must not wait on a client that never sends its request.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if s.config.CommandTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.config.CommandTimeout))
	}

	req, err := rpc.ServeConn(conn, func(req rpc.Request, respond func(rpc.Response) error) error {
		return s.state.Apply(req, func(resp rpc.Response) error {
			if s.config.WriteTimeout > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			}
			err := respond(resp)
			conn.Close()
			return err
		})
	})
	if err == nil {
		return
	}

	if errors.Is(err, rpc.ErrFraming) {
		s.metrics.RecordFramingError()
		log.Warn().Err(err).Msg("dropping malformed command")
		return
	}
	log.Warn().Err(err).Str("verb", string(req.Verb)).Msg("command connection failed")
}
