package epicycle

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/epicycle/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for epicycle and its backends.
// By default, epicycle produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by epicycle:
//   - [slog.LevelDebug]: samples, uploads, ignored resizes
//   - [slog.LevelInfo]: lifecycle (device acquired, surface configured, closing)
//   - [slog.LevelWarn]: transient surface errors and presentation timeouts
//   - [slog.LevelError]: fatal device failures
//
// Example:
//
//	epicycle.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	backend.SetLogger(l)
}

// Logger returns the current logger used by epicycle.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
