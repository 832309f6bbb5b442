package rescache

// Fields carries the structured context attached to a log line.
type Fields map[string]any

// Logger is the leveled facade the engine logs through. Bridges for zap,
// slog and logrus live under log/. A nil Logger in Options disables
// logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards all output.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
