package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestQueryLogger(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		age     time.Duration
		wantLog string
	}{
		{"fast success is quiet", nil, time.Millisecond, ""},
		{"no rows is quiet", sql.ErrNoRows, time.Millisecond, ""},
		{"failure", errors.New("boom"), time.Millisecond, "Query failed"},
		{"slow", nil, time.Second, "Slow query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			hook := NewQueryLogger(100 * time.Millisecond)
			hook.AfterQuery(context.Background(), &bun.QueryEvent{
				Query:     "SELECT 1",
				StartTime: time.Now().Add(-tt.age),
				Err:       tt.err,
			})
			if tt.wantLog == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}
