package push

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

type Config struct {
	// Source opens connections. Required.
	Source Source

	// Resource scopes the stream to one collection. Payloads naming a
	// different resource are dropped; payloads naming none are attributed
	// to the scope. Empty means unscoped: changes pass through with
	// whatever resource they carry.
	Resource string

	// InitialBackoff is the wait after the first failure. 0 means 1s.
	InitialBackoff time.Duration
	// MaxBackoff caps the doubling. 0 means 30s.
	MaxBackoff time.Duration

	// Clock exists so reconnect timing is testable. Nil means wall clock.
	Clock clockwork.Clock

	Handlers Handlers
}

// Stream owns at most one live connection to a Source and keeps it alive.
// The lifecycle is Connecting -> Open, dropping to Backoff on any failure.
// Consecutive failures double the wait up to the cap; any successful open
// resets it. Close stops the machine for good.
type Stream struct {
	src     Source
	scope   string
	initial time.Duration
	max     time.Duration
	clock   clockwork.Clock
	h       Handlers

	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32
}

// NewStream starts the connection loop immediately.
func NewStream(cfg Config) (*Stream, error) {
	return NewStreamWithContext(context.Background(), cfg)
}

// NewStreamWithContext is NewStream with a lifecycle context; cancelling it
// stops the stream like Close does.
func NewStreamWithContext(ctx context.Context, cfg Config) (*Stream, error) {
	if cfg.Source == nil {
		return nil, errors.New("push: source is required")
	}
	s := &Stream{
		src:     cfg.Source,
		scope:   cfg.Resource,
		initial: cfg.InitialBackoff,
		max:     cfg.MaxBackoff,
		clock:   cfg.Clock,
		h:       cfg.Handlers,
	}
	if s.initial <= 0 {
		s.initial = time.Second
	}
	if s.max <= 0 {
		s.max = 30 * time.Second
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	return s, nil
}

// State reports where the reconnect machine currently is.
func (s *Stream) State() State { return State(s.state.Load()) }

// Close drops the live connection, stops reconnecting and waits for the
// stream goroutine to exit. Safe to call more than once.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateClosed)

	delay := s.initial
	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StateConnecting)

		conn, err := s.src.Connect(ctx)
		if err == nil {
			delay = s.initial
			s.setState(StateOpen)
			err = s.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return
		}

		s.report(&ConnError{Err: err})
		s.setState(StateBackoff)
		select {
		case <-s.clock.After(delay):
		case <-ctx.Done():
			return
		}
		delay = min(2*delay, s.max)
	}
}

func (s *Stream) serve(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		raw, err := conn.Read()
		if err != nil {
			return err
		}

		ch, ok, err := Normalize(raw)
		if err != nil {
			s.report(err)
			continue
		}
		if !ok {
			continue
		}
		if s.scope != "" {
			if ch.Resource == "" {
				ch.Resource = s.scope
			} else if ch.Resource != s.scope {
				continue
			}
		}
		if s.h.OnChange != nil {
			s.h.OnChange(ch)
		}
	}
}

func (s *Stream) setState(st State) {
	s.state.Store(int32(st))
	if s.h.OnState != nil {
		s.h.OnState(st)
	}
}

func (s *Stream) report(err error) {
	if s.h.OnError != nil {
		s.h.OnError(err)
	}
}
