package spec

// Logger is the structured logger the builder reports through. Attributes
// are alternating key/value pairs, as with log/slog or zap's sugared logger:
//
//	logger.Debug("type fallback", "pointer", "#/paths/~1pets/get", "placeholder", "unknown type")
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(msg string, attrs ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything.
func NopLogger() Logger { return nopLogger{} }
