package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
)

// acceptSubscribers registers every connection on the updates endpoint.
func (s *Service) acceptSubscribers(ctx context.Context) error {
	for {
		conn, err := s.updates.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept subscriber: %w", err)
		}

		// The updates channel is output only.
		if uc, ok := conn.(*net.UnixConn); ok {
			if err := uc.CloseRead(); err != nil {
				log.Debug().Err(err).Msg("failed to shut down subscriber read half")
			}
		}

		sub := newConnSubscriber(conn, s.config.WriteTimeout)
		if err := s.state.Subscribe(sub); err != nil {
			log.Warn().
				Err(err).
				Int("max_subscribers", s.config.MaxSubscribers).
				Msg("rejecting subscriber")
			conn.Close()
		}
	}
}
