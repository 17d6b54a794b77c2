package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

const slowQueryThreshold = 200 * time.Millisecond

// QueryLogger logs failed and slow bun queries. Expected misses (no rows) are not errors.
type QueryLogger struct {
	slow time.Duration
}

var _ bun.QueryHook = (*QueryLogger)(nil)

func NewQueryLogger(slow time.Duration) *QueryLogger {
	if slow <= 0 {
		slow = slowQueryThreshold
	}
	return &QueryLogger{slow: slow}
}

func (l *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (l *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", event.Operation()),
			slog.String("query", event.Query),
			slog.Duration("took", took),
			slog.Any("error", event.Err),
		)
		return
	}

	if took >= l.slow {
		slog.Warn("Slow query",
			slog.String("type", "db"),
			slog.String("operation", event.Operation()),
			slog.String("query", event.Query),
			slog.Duration("took", took),
		)
	}
}
