// Package rconout sends queued commands straight to the game server
// over RCON, as an optional alternative to the generated script file.
// It is only constructed when an rcon address is configured.
package rconout

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorcon/rcon"
)

// Sender is a shared, mutex-protected RCON connection with
// auto-reconnect. Repeated connection failures disable the sender for
// the session; the script file remains the primary outbound path.
type Sender struct {
	addr     string
	password string

	mu       sync.Mutex
	conn     *rcon.Conn
	disabled bool
}

// NewSender creates a sender. No connection is made until the first
// Execute.
func NewSender(addr, password string) *Sender {
	return &Sender{addr: addr, password: password}
}

// Execute runs a command on the server, reconnecting once on a stale
// connection. After a failed reconnect the sender disables itself.
func (s *Sender) Execute(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return "", fmt.Errorf("rcon disabled for session")
	}

	conn, err := s.getConn()
	if err != nil {
		s.disabled = true
		slog.Warn("rcon unavailable, disabling for session", "addr", s.addr, "error", err)
		return "", fmt.Errorf("rcon connect: %w", err)
	}

	resp, err := conn.Execute(cmd)
	if err != nil {
		// Connection may be stale; close and retry once.
		s.conn.Close()
		s.conn = nil

		conn, err = s.getConn()
		if err != nil {
			s.disabled = true
			slog.Warn("rcon unavailable, disabling for session", "addr", s.addr, "error", err)
			return "", fmt.Errorf("rcon reconnect: %w", err)
		}
		resp, err = conn.Execute(cmd)
		if err != nil {
			s.conn.Close()
			s.conn = nil
			return "", fmt.Errorf("rcon execute after reconnect: %w", err)
		}
	}
	return resp, nil
}

func (s *Sender) getConn() (*rcon.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := rcon.Dial(s.addr, s.password)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

// Disabled reports whether the sender has given up for the session.
// Callers holding undelivered commands should route them elsewhere.
func (s *Sender) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// Close releases the connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
