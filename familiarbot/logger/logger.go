package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
)

// internalAttrs are folded into the message instead of being printed as key=value.
var internalAttrs = map[string]bool{
	"type":      true,
	"name":      true,
	"user_name": true,
	"status":    true,
	"took":      true,
	"error":     true,
}

// skippedMessages are disgo gateway and rest chatter that drowns out the bot's own logs.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

type CustomHandler struct {
	opts  *slog.HandlerOptions
	out   io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
}

func NewHandler(level slog.Leveler) *CustomHandler {
	return NewHandlerWithWriter(os.Stdout, level)
}

func NewHandlerWithWriter(w io.Writer, level slog.Leveler) *CustomHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &CustomHandler{
		opts: &slog.HandlerOptions{Level: level},
		out:  w,
		mu:   &sync.Mutex{},
	}
}

// New builds the process logger: the colored console handler, or JSON lines when format is "json".
func New(level slog.Leveler, format string, addSource bool) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: addSource}))
	}
	return slog.New(NewHandler(level))
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &out
}

// WithGroup is a no-op: the console format is flat.
func (h *CustomHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	message := r.Message
	if r.Level >= slog.LevelError {
		if location := errorLocation(attrs); location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
	}
	if details := attrValue(attrs, "error"); details != "" {
		message = fmt.Sprintf("%s: %s", message, details)
	}
	if cmd, user := attrValue(attrs, "name"), attrValue(attrs, "user_name"); cmd != "" && user != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, cmd, user)
	}
	if status := attrValue(attrs, "status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took := attrValue(attrs, "took"); took != "" {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var sb strings.Builder
	for _, a := range attrs {
		if !internalAttrs[a.Key] && a.Key != "error_location" {
			fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		}
	}

	line := fmt.Sprintf("%s[Familiars] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		r.Time.Format(time.TimeOnly),
		levelColor,
		levelText,
		colorWhite,
		logType(attrs),
		message,
		sb.String(),
		colorReset,
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

func shouldSkipLog(r *slog.Record) bool {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(attrs []slog.Attr) LogType {
	switch attrValue(attrs, "type") {
	case "cmd", "component":
		return TypeCommand
	case "db":
		return TypeDB
	case "error":
		return TypeError
	}
	return TypeSystem
}

// attrValue returns the last value recorded for key, so record attrs override handler attrs.
func attrValue(attrs []slog.Attr, key string) string {
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == key {
			return attrs[i].Value.String()
		}
	}
	return ""
}

func errorLocation(attrs []slog.Attr) string {
	if location := attrValue(attrs, "error_location"); location != "" {
		return location
	}
	// Handle <- slog.Logger.log <- slog.Error <- caller
	if _, file, line, ok := runtime.Caller(4); ok {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return ""
}
