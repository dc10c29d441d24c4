// Package notify shows desktop notifications through the freedesktop
// notification service on the session bus.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	AppName = "Waybar Timer"
	// ReplacesID makes every notification replace the previous one.
	ReplacesID uint32 = 12345

	busName       = "org.freedesktop.Notifications"
	objectPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod  = busName + ".Notify"
	urgencyLow    = byte(0)
	expireDefault = int32(-1)
)

// DefaultTimeout bounds a single Notify call on the bus.
const DefaultTimeout = 2 * time.Second

// queueSize is how many notifications may wait for the bus before new ones
// are dropped.
const queueSize = 16

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier sends notifications in order from a single background worker
// without blocking the caller. Failures are logged and otherwise ignored.
type DBusNotifier struct {
	timeout time.Duration
	connect func() (caller, error)

	start sync.Once
	queue chan string
	wg    sync.WaitGroup
}

// NewDBusNotifier returns a notifier that looks up the session bus for every
// notification, so a restarted bus is picked up on the next one.
func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{
		timeout: DefaultTimeout,
		queue:   make(chan string, queueSize),
		connect: func() (caller, error) {
			// SessionBus shares one connection and redials once it is closed.
			conn, err := dbus.SessionBus()
			if err != nil {
				return nil, fmt.Errorf("connect session bus: %w", err)
			}
			return conn.Object(busName, objectPath), nil
		},
	}
}

// Notify queues summary for the worker. A full queue drops it.
func (n *DBusNotifier) Notify(summary string) {
	n.start.Do(func() { go n.run() })

	n.wg.Add(1)
	select {
	case n.queue <- summary:
	default:
		n.wg.Done()
		log.Debug().Str("summary", summary).Msg("notification queue full, dropping")
	}
}

// Wait blocks until every queued notification has been sent or has failed.
func (n *DBusNotifier) Wait() {
	n.wg.Wait()
}

func (n *DBusNotifier) run() {
	for summary := range n.queue {
		if err := n.send(summary); err != nil {
			log.Debug().Err(err).Str("summary", summary).Msg("failed to send notification")
		}
		n.wg.Done()
	}
}

func (n *DBusNotifier) send(summary string) error {
	obj, err := n.connect()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	call := obj.CallWithContext(ctx, notifyMethod, 0, notifyArgs(summary)...)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}

// notifyArgs builds the argument list of org.freedesktop.Notifications.Notify.
func notifyArgs(summary string) []interface{} {
	return []interface{}{
		AppName,
		ReplacesID,
		"", // icon
		summary,
		"", // body
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgencyLow)},
		expireDefault,
	}
}
