// Package zap bridges a zap.Logger to the engine's Logger facade.
package zap

import (
	"github.com/unkn0wn-root/rescache"
	"go.uber.org/zap"
)

var _ rescache.Logger = ZapLogger{}

// ZapLogger forwards engine log lines to L with Fields as zap fields.
type ZapLogger struct{ L *zap.Logger }

func (z ZapLogger) Debug(msg string, f rescache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f rescache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f rescache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f rescache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f rescache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
