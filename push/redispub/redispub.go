// Package redispub consumes push payloads from a Redis pub/sub channel.
// The client is shared application infrastructure and stays open across
// reconnects; only the subscription is torn down per connection.
package redispub

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/rescache/push"
)

var ErrNilClient = errors.New("redispub: nil client")

type Config struct {
	// Client is any go-redis client (single node, cluster, sentinel).
	// Required.
	Client goredis.UniversalClient
	// Channel carries the change payloads. Required.
	Channel string
}

type Source struct {
	rdb     goredis.UniversalClient
	channel string
}

var _ push.Source = (*Source)(nil)

func New(cfg Config) (*Source, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Channel == "" {
		return nil, errors.New("redispub: channel is required")
	}
	return &Source{rdb: cfg.Client, channel: cfg.Channel}, nil
}

func (s *Source) Connect(ctx context.Context) (push.Conn, error) {
	ps := s.rdb.Subscribe(ctx, s.channel)
	// confirm the subscription before declaring the connection open
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return &conn{ctx: ctx, ps: ps}, nil
}

type conn struct {
	ctx context.Context
	ps  *goredis.PubSub
}

func (c *conn) Read() ([]byte, error) {
	msg, err := c.ps.ReceiveMessage(c.ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

func (c *conn) Close() error { return c.ps.Close() }
