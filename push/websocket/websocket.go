// Package websocket adapts a WebSocket endpoint to the push source
// contract. Each message frame is one raw payload for the normalizer.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/unkn0wn-root/rescache/push"
	"github.com/unkn0wn-root/rescache/transport"
)

type Config struct {
	// URL is the ws:// or wss:// endpoint. Required.
	URL string
	// Headers supplies handshake headers (auth tokens and the like).
	Headers transport.HeaderFunc
	// Dialer overrides the WebSocket dialer. Nil means a default with a
	// handshake timeout.
	Dialer *gws.Dialer
}

type Source struct {
	url     string
	headers transport.HeaderFunc
	dialer  *gws.Dialer
}

var _ push.Source = (*Source)(nil)

func New(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		return nil, errors.New("websocket: url is required")
	}
	s := &Source{url: cfg.URL, headers: cfg.Headers, dialer: cfg.Dialer}
	if s.dialer == nil {
		s.dialer = &gws.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return s, nil
}

func (s *Source) Connect(ctx context.Context) (push.Conn, error) {
	var hdr http.Header
	if s.headers != nil {
		h, err := s.headers(ctx)
		if err != nil {
			return nil, fmt.Errorf("websocket: headers: %w", err)
		}
		hdr = h
	}
	ws, resp, err := s.dialer.DialContext(ctx, s.url, hdr)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return &conn{ws: ws}, nil
}

type conn struct {
	ws *gws.Conn
}

func (c *conn) Read() ([]byte, error) {
	_, msg, err := c.ws.ReadMessage()
	return msg, err
}

func (c *conn) Close() error { return c.ws.Close() }
