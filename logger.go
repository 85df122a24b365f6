package vecrow

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/vecrow/model"
)

// Logger wraps slog.Logger with vecrow-specific field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler on stderr at info level is used.
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

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key model.RowKey) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", string(key)),
	}
}

// LogInsert logs an insert.
func (l *Logger) LogInsert(ctx context.Context, key model.RowKey, txn model.TxnID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"key", string(key),
			"txn", txn,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "insert completed",
		"key", string(key),
		"txn", txn,
	)
}

// LogSearch logs a similarity search.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", resultsFound,
	)
}

// LogRecovery logs a WAL recovery.
func (l *Logger) LogRecovery(ctx context.Context, entriesReplayed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "WAL recovery failed",
			"entries_replayed", entriesReplayed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "WAL recovery completed",
		"entries_replayed", entriesReplayed,
	)
}

// LogFlush logs a flush. A nil segment ID means nothing was pending.
func (l *Logger) LogFlush(ctx context.Context, segmentID string, rows uint64, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "flush failed",
			"error", err,
		)
	case segmentID == "":
		l.DebugContext(ctx, "flush skipped, nothing pending")
	default:
		l.InfoContext(ctx, "flush completed",
			"segment", segmentID,
			"rows", rows,
		)
	}
}
