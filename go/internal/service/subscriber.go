package service

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// Subscriber receives every status line broadcast by the service.
type Subscriber interface {
	ID() string
	// Send writes one line and returns once it is flushed or has failed.
	Send(line []byte) error
	Close() error
}

// connSubscriber is an updates-channel connection.
type connSubscriber struct {
	id           string
	conn         net.Conn
	writeTimeout time.Duration
}

func newConnSubscriber(conn net.Conn, writeTimeout time.Duration) *connSubscriber {
	return &connSubscriber{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *connSubscriber) ID() string { return s.id }

func (s *connSubscriber) Send(line []byte) error {
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := s.conn.Write(line); err != nil {
		return err
	}
	return nil
}

func (s *connSubscriber) Close() error {
	return s.conn.Close()
}
