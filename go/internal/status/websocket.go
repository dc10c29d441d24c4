package status

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// wsSubscriber streams status lines to a websocket client. Send is only ever
// called by the broadcaster; pings go through WriteControl, which gorilla
// allows concurrently with other writes.
type wsSubscriber struct {
	id     string
	conn   *websocket.Conn
	config Config

	closeOnce sync.Once
	done      chan struct{}
}

func newWSSubscriber(conn *websocket.Conn, config Config) *wsSubscriber {
	return &wsSubscriber{
		id:     uuid.New().String(),
		conn:   conn,
		config: config,
		done:   make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(line []byte) error {
	select {
	case <-s.done:
		return fmt.Errorf("websocket %s closed", s.id)
	default:
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(line, []byte("\n")))
}

func (s *wsSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// readPump consumes client frames so close and pong frames are processed. The
// subscriber is closed when the client goes away; the next broadcast drops it.
func (s *wsSubscriber) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("subscriber_id", s.id).
					Msg("unexpected websocket close")
			}
			return
		}
	}
}

func (s *wsSubscriber) pingPump() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Str("subscriber_id", s.id).Msg("failed to send ping")
				s.Close()
				return
			}
		}
	}
}

// handleUpdates upgrades the request and joins the broadcast set.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Warn().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	sub := newWSSubscriber(conn, s.config)
	if err := s.state.Subscribe(sub); err != nil {
		log.Warn().Err(err).Msg("rejecting websocket subscriber")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(s.config.WriteTimeout))
		sub.Close()
		return
	}

	log.Info().Str("subscriber_id", sub.ID()).Msg("websocket subscriber connected")

	go sub.pingPump()
	go sub.readPump()
}
