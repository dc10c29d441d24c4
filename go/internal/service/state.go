package service

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/christianlegge/waybar-timer/go/internal/rpc"
	"github.com/christianlegge/waybar-timer/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// ErrTooManySubscribers is returned by Subscribe once the configured limit is reached.
var ErrTooManySubscribers = errors.New("subscriber limit reached")

// State owns the timer and the subscriber set. Every access to either goes
// through mu.
type State struct {
	mu             sync.Mutex
	timer          *timer.Timer
	subscribers    []Subscriber
	last           timer.Status
	maxSubscribers int
	metrics        MetricsCollector
}

// Snapshot is a copy of the state as of the last broadcast.
type Snapshot struct {
	Status        timer.Status `json:"status"`
	Phase         string       `json:"phase"`
	Cycles        int          `json:"cycles"`
	Subscribers   int          `json:"subscribers"`
	SubscriberIDs []string     `json:"subscriber_ids"`
}

// NewState wraps t. A maxSubscribers of zero means unlimited.
func NewState(t *timer.Timer, maxSubscribers int, metrics MetricsCollector) *State {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &State{
		timer:          t,
		last:           t.TickAndRender(),
		maxSubscribers: maxSubscribers,
		metrics:        metrics,
	}
}

// Update ticks the timer and broadcasts the rendered status to every
// subscriber. Subscribers that fail to take the line are dropped.
func (s *State) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked()
}

func (s *State) updateLocked() {
	s.last = s.timer.TickAndRender()

	line, err := json.Marshal(s.last)
	if err != nil {
		// Status only holds strings.
		log.Error().Err(err).Msg("failed to marshal status")
		return
	}
	line = append(line, '\n')

	kept := s.subscribers[:0]
	for _, sub := range s.subscribers {
		if err := sub.Send(line); err != nil {
			log.Info().
				Err(err).
				Str("subscriber_id", sub.ID()).
				Msg("couldn't write to subscriber, dropping it")
			_ = sub.Close()
			s.metrics.RecordSubscriberDropped()
			continue
		}
		kept = append(kept, sub)
	}
	clear(s.subscribers[len(kept):])
	s.subscribers = kept

	s.metrics.RecordBroadcast(len(kept))
}

// Subscribe registers sub and immediately sends it the current status.
func (s *State) Subscribe(sub Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSubscribers > 0 && len(s.subscribers) >= s.maxSubscribers {
		return ErrTooManySubscribers
	}
	s.subscribers = append(s.subscribers, sub)

	log.Debug().
		Str("subscriber_id", sub.ID()).
		Int("total_subscribers", len(s.subscribers)).
		Msg("subscriber registered")

	s.updateLocked()
	return nil
}

// Dispatch runs a command against the timer without broadcasting.
func (s *State) Dispatch(req rpc.Request) rpc.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(req)
}

// Apply runs req, answers it through respond and broadcasts the result, all
// under one hold of the lock. The broadcast happens even when respond fails.
func (s *State) Apply(req rpc.Request, respond func(rpc.Response) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := respond(s.dispatchLocked(req))
	s.updateLocked()
	return err
}

func (s *State) dispatchLocked(req rpc.Request) rpc.Response {
	resp := rpc.Dispatch(s.timer, req)
	s.metrics.RecordCommand(req.Verb, resp.OK)

	log.Debug().
		Str("verb", string(req.Verb)).
		Bool("ok", resp.OK).
		Str("error", string(resp.Error)).
		Msg("command handled")
	return resp
}

// Snapshot returns the state as of the last broadcast.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.subscribers))
	for i, sub := range s.subscribers {
		ids[i] = sub.ID()
	}
	return Snapshot{
		Status:        s.last,
		Phase:         phaseName(s.timer.Phase()),
		Cycles:        s.timer.Cycles(),
		Subscribers:   len(s.subscribers),
		SubscriberIDs: ids,
	}
}

// Close disconnects every subscriber.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		_ = sub.Close()
	}
	clear(s.subscribers)
	s.subscribers = nil
}

func phaseName(p timer.Phase) string {
	switch p.(type) {
	case timer.Running:
		return timer.TagRunning
	case timer.Paused:
		return timer.TagPaused
	default:
		return timer.TagStandby
	}
}
