package familiarbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ellavondegurechaff/familiars/familiarbot/database"
	"github.com/ellavondegurechaff/familiars/familiarbot/services"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

// SettingsReloader is implemented by settings sources that cache.
type SettingsReloader interface {
	Invalidate()
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB       *database.DB // nil with memory storage
	Engine   familiars.Service
	Settings familiars.Settings
	Search   *services.CardSearch
	Spaces   *services.SpacesService // nil when spaces is not configured
	Registry *prometheus.Registry
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Familiars bot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity("/draw"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}

// Actor builds the engine identity of an interaction user. Admin rights come from the
// configured admin ids and roles; members outside a guild only match by id.
func (b *Bot) Actor(user discord.User, member *discord.ResolvedMember) familiars.Actor {
	var roles []snowflake.ID
	if member != nil {
		roles = member.RoleIDs
	}
	return familiars.Actor{
		UserID: user.ID.String(),
		Admin:  b.Cfg.Bot.IsAdmin(user.ID, roles),
	}
}

// ImageURL resolves a card image for embeds, falling back to the stored value.
func (b *Bot) ImageURL(image string) string {
	if b.Spaces == nil {
		return image
	}
	return b.Spaces.ImageURL(image)
}
