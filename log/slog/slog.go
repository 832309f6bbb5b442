//go:build go1.21

// Package slog bridges the standard library's log/slog to the engine's
// Logger facade.
package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/rescache"
)

var _ rescache.Logger = Logger{}

// Logger forwards engine log lines to L with Fields as slog attrs.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f rescache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f rescache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f rescache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f rescache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

func attrs(f rescache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
