// Package sse consumes a server-sent-events endpoint as a push source. The
// source remembers the last seen event id and replays it on reconnect via
// the Last-Event-ID header, so a well-behaved server can resume the stream
// without gaps.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/unkn0wn-root/rescache/push"
	"github.com/unkn0wn-root/rescache/transport"
)

// streamClient has no overall timeout; an event stream is supposed to stay
// open indefinitely.
var streamClient = func() *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}()

type Config struct {
	// URL is the event stream endpoint. Required.
	URL string
	// Client overrides the HTTP client. Nil means a default without an
	// overall timeout.
	Client *http.Client
	// Headers supplies per-connect headers (auth tokens and the like).
	Headers transport.HeaderFunc
}

type Source struct {
	url     string
	hc      *http.Client
	headers transport.HeaderFunc

	mu     sync.Mutex
	lastID string
}

var _ push.Source = (*Source)(nil)

func New(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		return nil, errors.New("sse: url is required")
	}
	s := &Source{url: cfg.URL, hc: cfg.Client, headers: cfg.Headers}
	if s.hc == nil {
		s.hc = streamClient
	}
	return s, nil
}

func (s *Source) Connect(ctx context.Context) (push.Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	if s.headers != nil {
		h, err := s.headers(ctx)
		if err != nil {
			return nil, fmt.Errorf("sse: headers: %w", err)
		}
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if id := s.last(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("sse: connect: status %d", resp.StatusCode)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		return nil, fmt.Errorf("sse: connect: unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &conn{src: s, body: resp.Body, sc: sc}, nil
}

func (s *Source) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *Source) setLast(id string) {
	s.mu.Lock()
	s.lastID = id
	s.mu.Unlock()
}

type conn struct {
	src  *Source
	body io.ReadCloser
	sc   *bufio.Scanner
}

// Read returns the data of the next event. Multi-line data joins with
// newlines; comments and unknown fields are skipped.
func (c *conn) Read() ([]byte, error) {
	var data [][]byte
	for c.sc.Scan() {
		line := c.sc.Bytes()
		switch {
		case len(line) == 0:
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
		case line[0] == ':':
			// keep-alive comment
		default:
			field, value := splitField(line)
			switch field {
			case "data":
				// scanner reuses its buffer between lines
				buf := make([]byte, len(value))
				copy(buf, value)
				data = append(data, buf)
			case "id":
				c.src.setLast(string(value))
			}
		}
	}
	if err := c.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (c *conn) Close() error { return c.body.Close() }

func splitField(line []byte) (string, []byte) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return string(line), nil
	}
	field := string(line[:i])
	value := line[i+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
