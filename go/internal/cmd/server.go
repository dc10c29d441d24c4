package main

import (
	"context"
	"fmt"
	"net"

	"github.com/christianlegge/waybar-timer/go/internal/config"
	"github.com/christianlegge/waybar-timer/go/internal/notify"
	"github.com/christianlegge/waybar-timer/go/internal/service"
	"github.com/christianlegge/waybar-timer/go/internal/shell"
	"github.com/christianlegge/waybar-timer/go/internal/status"
	"github.com/christianlegge/waybar-timer/go/internal/timer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// runServe runs the timer service, and the status server when configured,
// until ctx is done.
func runServe(ctx context.Context, cfg config.Config) error {
	clock := clockwork.NewRealClock()

	var notifier timer.Notifier = timer.NoOpNotifier{}
	if cfg.Notifications {
		notifier = notify.NewDBusNotifier()
	}
	runner := shell.NewRunner(cfg.Shell)

	tm := timer.New(cfg.Timer(), clock, notifier, runner)
	counters := &service.Counters{}
	svc := service.NewService(cfg.Service(), tm, clock, counters)
	if err := svc.Listen(); err != nil {
		return err
	}

	log.Info().
		Int("focus_minutes", cfg.FocusMinutes).
		Int("short_break_minutes", cfg.ShortBreakMinutes).
		Int("long_break_minutes", cfg.LongBreakMinutes).
		Bool("strict_start", cfg.StrictStart).
		Bool("notifications", cfg.Notifications).
		Msg("starting waybar-timer")

	var statusLn net.Listener
	if cfg.StatusSocket != "" {
		ln, err := service.Listen(cfg.StatusSocket)
		if err != nil {
			return fmt.Errorf("status socket: %w", err)
		}
		statusLn = ln
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Serve(gctx)
	})
	if statusLn != nil {
		statusServer := status.NewServer(status.DefaultConfig(), svc.State(), counters)
		g.Go(func() error {
			return statusServer.Serve(gctx, statusLn)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("waybar-timer shutdown complete")
	return nil
}
