// Package service runs the timer daemon: a ticker, an updates listener that
// streams status lines to subscribers, and a commands listener that applies
// one request per connection. All three share one State.
package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/christianlegge/waybar-timer/go/internal/timer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds the runtime settings of the service.
type Config struct {
	UpdatesAddr  string
	CommandsAddr string
	TickInterval time.Duration
	// WriteTimeout bounds one write to one subscriber. A timeout drops it.
	WriteTimeout time.Duration
	// CommandTimeout bounds a whole command connection. Zero disables it.
	CommandTimeout time.Duration
	// MaxSubscribers caps the updates channel. Zero means unlimited.
	MaxSubscribers int
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		UpdatesAddr:    "@waybar_timer_updates",
		CommandsAddr:   "@waybar_timer_commands",
		TickInterval:   time.Second,
		WriteTimeout:   250 * time.Millisecond,
		CommandTimeout: 5 * time.Second,
		MaxSubscribers: 64,
	}
}

type Service struct {
	config   Config
	clock    clockwork.Clock
	state    *State
	metrics  MetricsCollector
	updates  net.Listener
	commands net.Listener
}

// NewService creates a service around t. Nil clock and metrics default to the
// real clock and a no-op collector.
func NewService(config Config, t *timer.Timer, clock clockwork.Clock, metrics MetricsCollector) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	return &Service{
		config:  config,
		clock:   clock,
		state:   NewState(t, config.MaxSubscribers, metrics),
		metrics: metrics,
	}
}

// State returns the shared state.
func (s *Service) State() *State {
	return s.state
}

// Listen binds both endpoints. Serve calls it when it has not been called yet.
func (s *Service) Listen() error {
	if s.updates != nil {
		return nil
	}
	updates, err := Listen(s.config.UpdatesAddr)
	if err != nil {
		return fmt.Errorf("updates socket: %w", err)
	}
	commands, err := Listen(s.config.CommandsAddr)
	if err != nil {
		updates.Close()
		return fmt.Errorf("commands socket: %w", err)
	}
	s.updates = updates
	s.commands = commands
	return nil
}

// Serve runs until ctx is done or a listener fails. A listener failure is
// returned; a clean shutdown returns nil.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	log.Info().
		Str("updates", s.config.UpdatesAddr).
		Str("commands", s.config.CommandsAddr).
		Dur("tick_interval", s.config.TickInterval).
		Msg("timer service started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		RunTicker(gctx, s.clock, s.config.TickInterval, s.state)
		return nil
	})
	g.Go(func() error {
		return s.acceptSubscribers(gctx)
	})
	g.Go(func() error {
		return s.serveCommands(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.updates.Close()
		s.commands.Close()
		return nil
	})

	err := g.Wait()
	s.state.Close()
	if err != nil {
		log.Error().Err(err).Msg("timer service failed")
		return err
	}
	log.Info().Msg("timer service stopped")
	return nil
}
