// Package logging builds the zap logger used by the CLI and adapts it to the
// key/value Logger the documentation builder reports through.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

// New returns a console logger writing to w. Verbose enables debug output;
// otherwise only warnings and errors are written.
func New(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// Adapter wraps a *zap.SugaredLogger to implement spec.Logger.
type Adapter struct {
	logger *zap.SugaredLogger
}

// NewAdapter wraps l. A nil l yields a no-op logger.
func NewAdapter(l *zap.Logger) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{logger: l.Sugar()}
}

func (a *Adapter) Debug(msg string, attrs ...any) { a.logger.Debugw(msg, attrs...) }
func (a *Adapter) Info(msg string, attrs ...any)  { a.logger.Infow(msg, attrs...) }
func (a *Adapter) Warn(msg string, attrs ...any)  { a.logger.Warnw(msg, attrs...) }
func (a *Adapter) Error(msg string, attrs ...any) { a.logger.Errorw(msg, attrs...) }

// With returns an adapter that adds attrs to every entry.
func (a *Adapter) With(attrs ...any) *Adapter {
	return &Adapter{logger: a.logger.With(attrs...)}
}

// Sync flushes buffered entries.
func (a *Adapter) Sync() error { return a.logger.Sync() }

var _ spec.Logger = (*Adapter)(nil)
