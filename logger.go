package cathapult

import (
	"context"
	"log/slog"
	"os"

	"cathapult/colstore"
	"cathapult/summary"
)

// Logger wraps slog.Logger with cathapult-specific helpers so every
// operation logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, a text handler to stderr at Info level is used.
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

// LogBuild logs a store build.
func (l *Logger) LogBuild(ctx context.Context, source, store string, res *colstore.BuildResult, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "store build failed",
			"source", source,
			"store", store,
			"error", err,
		)
	case res.Reused:
		l.InfoContext(ctx, "store reused",
			"store", res.Path,
			"rows", res.Rows,
			"blocks", res.Blocks,
		)
	default:
		l.InfoContext(ctx, "store built",
			"store", res.Path,
			"rows", res.Rows,
			"blocks", res.Blocks,
			"bytes", res.Bytes,
			"derived_key", res.Derived,
		)
	}
}

// LogQuery logs a store query.
func (l *Logger) LogQuery(ctx context.Context, store string, stats colstore.QueryStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"store", store,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"store", store,
		"matched", stats.RowsMatched,
		"rows_decoded", stats.RowsDecoded,
		"blocks_scanned", stats.BlocksScanned,
		"blocks_skipped", stats.BlocksSkippedRange+stats.BlocksSkippedBloom,
	)
}

// LogStream logs a streaming filter pass.
func (l *Logger) LogStream(ctx context.Context, source string, stats summary.StreamStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stream filter failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "stream filter completed",
		"source", source,
		"records", stats.Records,
		"matched", stats.Matched,
	)
}

// LogFetch logs a batch fetch.
func (l *Logger) LogFetch(ctx context.Context, total, failed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "fetch aborted",
			"accessions", total,
			"error", err,
		)
	case failed > 0:
		l.WarnContext(ctx, "fetch completed with failures",
			"accessions", total,
			"failed", failed,
			"succeeded", total-failed,
		)
	default:
		l.InfoContext(ctx, "fetch completed",
			"accessions", total,
		)
	}
}

// LogDownload logs a bulk-file mirror.
func (l *Logger) LogDownload(ctx context.Context, ref, dest string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "download failed",
			"ref", ref,
			"dest", dest,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "download completed",
		"ref", ref,
		"dest", dest,
		"bytes", bytes,
	)
}
