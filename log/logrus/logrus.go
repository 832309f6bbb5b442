// Package logrus bridges a logrus.Entry to the engine's Logger facade.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/rescache"
)

var _ rescache.Logger = LogrusLogger{}

// LogrusLogger forwards engine log lines to E as logrus fields.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f rescache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f rescache.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f rescache.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f rescache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
