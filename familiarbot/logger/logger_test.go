package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCustomHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandlerWithWriter(&buf, slog.LevelInfo))

	log.Info("Command completed",
		slog.String("type", "cmd"),
		slog.String("name", "draw"),
		slog.String("user_name", "alice"),
		slog.String("status", "success"),
		slog.Duration("took", 12*time.Millisecond),
		slog.String("character_id", "c1"),
	)

	out := buf.String()
	require.Contains(t, out, "[Familiars]")
	require.Contains(t, out, "[CMD]")
	require.Contains(t, out, "Command completed [draw by alice] [Status: success] (took 12ms)")
	require.Contains(t, out, "character_id=c1")
	require.NotContains(t, out, "user_name=")
}

func TestCustomHandler_LevelsAndSkips(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandlerWithWriter(&buf, slog.LevelInfo))

	log.Debug("hidden")
	log.Info("sending heartbeat")
	require.Empty(t, buf.String())

	log.With(slog.String("type", "db")).Error("Query failed", slog.Any("error", errors.New("boom")))
	out := buf.String()
	require.Contains(t, out, "[ERROR]")
	require.Contains(t, out, "[DB]")
	require.Contains(t, out, ": boom")
}
