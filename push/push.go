// Package push keeps a client in sync with server-side changes over a
// streaming connection. A Source opens connections, a Stream owns exactly
// one live connection and reconnects with capped exponential backoff, and
// Normalize turns raw wire payloads into canonical change events.
package push

import (
	"context"

	"github.com/unkn0wn-root/rescache/resource"
)

// Source opens streaming connections. Implementations exist for SSE,
// WebSocket and Redis pub/sub; anything that can deliver discrete payloads
// works.
type Source interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is one live connection. Read blocks until the next payload arrives
// and returns an error when the connection is gone; Close unblocks a
// pending Read.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

// Handlers receive stream callbacks. All of them are optional and are
// invoked from the stream's goroutine, so they must not block for long.
type Handlers struct {
	OnChange func(resource.Change)
	OnError  func(error)
	OnState  func(State)
}

// State describes where the reconnect machine currently is.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateBackoff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseError reports a payload that could not be parsed. The connection
// stays up; the message is dropped.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "push: parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ConnError reports a failed connection attempt or a broken live
// connection. The stream schedules a reconnect.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string { return "push: connection: " + e.Err.Error() }
func (e *ConnError) Unwrap() error { return e.Err }
