package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RunTicker calls state.Update every interval until ctx is done.
func RunTicker(ctx context.Context, clock clockwork.Clock, interval time.Duration, state *State) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", interval).Msg("ticker started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("ticker stopped")
			return
		case <-ticker.Chan():
			state.Update()
		}
	}
}
