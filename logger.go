package voxgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with voxgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithVoxset adds the voxset name to the logger.
func (l *Logger) WithVoxset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("voxset", name),
	}
}

// LogOpen logs an open operation.
func (l *Logger) LogOpen(name string, mode Mode, nx, ny, nz int, err error) {
	if err != nil {
		l.Error("open failed",
			"voxset", name,
			"error", err,
		)
	} else {
		l.Debug("voxset opened",
			"voxset", name,
			"mode", mode.String(),
			"nx", nx,
			"ny", ny,
			"nz", nz,
		)
	}
}

// LogRowRead logs one storage row fetch into the row cache.
func (l *Logger) LogRowRead(name string, plane, row int, err error) {
	if err != nil {
		l.Error("row read failed",
			"voxset", name,
			"plane", plane,
			"row", row,
			"error", err,
		)
	} else {
		l.Debug("row cached",
			"voxset", name,
			"plane", plane,
			"row", row,
		)
	}
}

// LogMetadataFlush logs the sidecar write at close.
func (l *Logger) LogMetadataFlush(path string, err error) {
	if err != nil {
		l.Error("metadata flush failed",
			"path", path,
			"error", err,
		)
	} else {
		l.Debug("metadata flushed",
			"path", path,
		)
	}
}

// LogClose logs a close operation.
func (l *Logger) LogClose(name string, err error) {
	if err != nil {
		l.Error("close failed",
			"voxset", name,
			"error", err,
		)
	} else {
		l.Debug("voxset closed",
			"voxset", name,
		)
	}
}
