package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
)

const slowThreshold = 2 * time.Second

// WrapWithLogging wraps a command handler with start/finish logging and a timeout.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return run("cmd", "Command", name, e.User(), guildString(e.GuildID()), e.ChannelID().String(), func() error { return h(e) })
	}
}

// WrapComponentWithLogging wraps a component handler with start/finish logging and a timeout.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return run("component", "Component interaction", name, e.User(), guildString(e.GuildID()), e.ChannelID().String(), func() error { return h(e) })
	}
}

func run(kind, label, name string, user discord.User, guildID, channelID string, fn func() error) error {
	start := time.Now()

	slog.Debug(label+" started",
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
		slog.String("guild_id", guildID),
		slog.String("channel_id", channelID),
	)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	attrs := []any{
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
	}

	select {
	case err := <-done:
		attrs = append(attrs, slog.Duration("took", time.Since(start)))
		switch {
		case err != nil:
			slog.Error(label+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case time.Since(start) > slowThreshold:
			slog.Warn(label+" executed slowly", append(attrs, slog.String("status", "slow"))...)
		default:
			slog.Info(label+" completed", append(attrs, slog.String("status", "success"))...)
		}
		return err

	case <-time.After(config.CommandExecutionTimeout):
		slog.Error(label+" timed out", append(attrs,
			slog.String("status", "timeout"),
			slog.Duration("timeout", config.CommandExecutionTimeout),
		)...)
		return fmt.Errorf("%s %s timed out after %s", kind, name, config.CommandExecutionTimeout)
	}
}

func guildString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
