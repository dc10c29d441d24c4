package service

import (
	"sync/atomic"

	"github.com/christianlegge/waybar-timer/go/internal/rpc"
)

// MetricsCollector defines the interface for collecting service metrics
type MetricsCollector interface {
	RecordBroadcast(subscribers int)
	RecordSubscriberDropped()
	RecordCommand(verb rpc.Verb, ok bool)
	RecordFramingError()
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordBroadcast(int)          {}
func (NoOpMetricsCollector) RecordSubscriberDropped()     {}
func (NoOpMetricsCollector) RecordCommand(rpc.Verb, bool) {}
func (NoOpMetricsCollector) RecordFramingError()          {}

// Counters is an in-memory MetricsCollector.
type Counters struct {
	broadcasts         atomic.Uint64
	linesSent          atomic.Uint64
	subscribersDropped atomic.Uint64
	commandsOK         atomic.Uint64
	commandsFailed     atomic.Uint64
	framingErrors      atomic.Uint64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Broadcasts         uint64 `json:"broadcasts"`
	LinesSent          uint64 `json:"lines_sent"`
	SubscribersDropped uint64 `json:"subscribers_dropped"`
	CommandsOK         uint64 `json:"commands_ok"`
	CommandsFailed     uint64 `json:"commands_failed"`
	FramingErrors      uint64 `json:"framing_errors"`
}

func (c *Counters) RecordBroadcast(subscribers int) {
	c.broadcasts.Add(1)
	c.linesSent.Add(uint64(subscribers))
}

func (c *Counters) RecordSubscriberDropped() {
	c.subscribersDropped.Add(1)
}

func (c *Counters) RecordCommand(_ rpc.Verb, ok bool) {
	if ok {
		c.commandsOK.Add(1)
		return
	}
	c.commandsFailed.Add(1)
}

func (c *Counters) RecordFramingError() {
	c.framingErrors.Add(1)
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Broadcasts:         c.broadcasts.Load(),
		LinesSent:          c.linesSent.Load(),
		SubscribersDropped: c.subscribersDropped.Load(),
		CommandsOK:         c.commandsOK.Load(),
		CommandsFailed:     c.commandsFailed.Load(),
		FramingErrors:      c.framingErrors.Load(),
	}
}
