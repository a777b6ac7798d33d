// Package logging defines the structured-logging interface used across
// aidesk, with slog and zap implementations behind it.
package logging

import (
	"context"
	"fmt"
	"io"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "admin registered", "admin_id", id, "email", email)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Supported values for the log_backend setting.
const (
	BackendZap  = "zap"
	BackendSlog = "slog"
)

// New builds the logger selected by backend. debug lowers the level to Debug
// and, for zap, switches to the human-readable development encoder.
func New(backend string, debug bool, w io.Writer) (Logger, error) {
	switch backend {
	case "", BackendZap:
		l, err := NewZapLogger(debug)
		if err != nil {
			return nil, err
		}
		return l, nil
	case BackendSlog:
		return NewJSONSlogLogger(w, debug), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
