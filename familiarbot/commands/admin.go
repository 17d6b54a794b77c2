package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/handlers"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

var adminTargetOptions = []discord.ApplicationCommandOption{
	discord.ApplicationCommandOptionUser{
		Name:        "user",
		Description: "Player to act on",
		Required:    true,
	},
}

var adminCardOption = discord.ApplicationCommandOptionString{
	Name:         "card",
	Description:  "Card name or id",
	Required:     true,
	Autocomplete: true,
}

var adminCharacterOption = discord.ApplicationCommandOptionString{
	Name:        "character",
	Description: "Their character name, needed when they have several",
	Required:    false,
}

var Admin = discord.SlashCommandCreate{
	Name:        "admin",
	Description: "🛠️ Game administration",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "grant",
			Description: "Give a card to a character",
			Options:     append(append([]discord.ApplicationCommandOption{}, adminTargetOptions...), adminCardOption, adminCharacterOption),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "revoke",
			Description: "Remove one copy of a card from a character",
			Options:     append(append([]discord.ApplicationCommandOption{}, adminTargetOptions...), adminCardOption, adminCharacterOption),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "bless",
			Description: "Extend a character's blessing",
			Options: append(append([]discord.ApplicationCommandOption{}, adminTargetOptions...),
				discord.ApplicationCommandOptionInt{
					Name:        "hours",
					Description: fmt.Sprintf("Blessing length, defaults to %d", config.DefaultBlessingHours),
					Required:    false,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(config.MaxBlessingHours),
				},
				adminCharacterOption,
			),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "points",
			Description: "Add or remove points",
			Options: append(append([]discord.ApplicationCommandOption{}, adminTargetOptions...),
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Positive to add, negative to remove",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Ledger note",
					Required:    false,
					MaxLength:   intPtr(100),
				},
			),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "verify-images",
			Description: "Check every card image exists in storage",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reload-settings",
			Description: "Drop cached draw chances and hunting locations",
		},
	},
}

type AdminHandler struct {
	bot *familiarbot.Bot
}

func NewAdminHandler(b *familiarbot.Bot) *AdminHandler {
	return &AdminHandler{bot: b}
}

func (h *AdminHandler) Register(r handler.Router) {
	r.Route("/admin", func(r handler.Router) {
		r.Command("/grant", handlers.WrapWithLogging("admin grant", h.HandleGrant))
		r.Command("/revoke", handlers.WrapWithLogging("admin revoke", h.HandleRevoke))
		r.Command("/bless", handlers.WrapWithLogging("admin bless", h.HandleBless))
		r.Command("/points", handlers.WrapWithLogging("admin points", h.HandlePoints))
		// runs past the command timeout, logs its own outcome
		r.Command("/verify-images", h.HandleVerifyImages)
		r.Command("/reload-settings", handlers.WrapWithLogging("admin reload-settings", h.HandleReloadSettings))

		r.Autocomplete("/grant", h.CardAutocomplete)
		r.Autocomplete("/revoke", h.CardAutocomplete)
	})
}

// target resolves the character an admin subcommand acts on.
func (h *AdminHandler) target(ctx context.Context, e *handler.CommandEvent) (*ownership.Character, error) {
	data := e.SlashCommandInteractionData()
	return resolveCharacter(ctx, h.bot, data.User("user").ID.String(), data.String(adminCharacterOption.Name))
}

func (h *AdminHandler) HandleGrant(e *handler.CommandEvent) error {
	return h.changeCard(e, "granted to", h.bot.Engine.GrantCard)
}

func (h *AdminHandler) HandleRevoke(e *handler.CommandEvent) error {
	return h.changeCard(e, "revoked from", h.bot.Engine.RevokeCard)
}

type cardChange func(ctx context.Context, actor familiars.Actor, characterID string, cardID int64) (*ownership.Character, error)

func (h *AdminHandler) changeCard(e *handler.CommandEvent, verb string, change cardChange) error {
	ctx, cancel := commandContext()
	defer cancel()

	actor := commandActor(h.bot, e)
	if !actor.Admin {
		return utils.EH.CreatePermissionError(e, "use admin commands")
	}

	c, err := h.target(ctx, e)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	cardID, err := resolveCard(h.bot, e.SlashCommandInteractionData().String(adminCardOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	next, err := change(ctx, actor, c.ID, cardID)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	def, _ := h.bot.Engine.Catalog().Lookup(cardID)
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("%s %s **%s**. They now hold %d copies.",
		utils.FormatCardLine(def, 1), verb, next.Name, next.Collection.Count(cardID)))
}

func (h *AdminHandler) HandleBless(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	actor := commandActor(h.bot, e)
	if !actor.Admin {
		return utils.EH.CreatePermissionError(e, "use admin commands")
	}

	c, err := h.target(ctx, e)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	hours := config.DefaultBlessingHours
	if v, ok := e.SlashCommandInteractionData().OptInt("hours"); ok {
		hours = v
	}

	next, err := h.bot.Engine.Bless(ctx, actor, c.ID, time.Duration(hours)*time.Hour)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("✨ **%s** is blessed until %s.", next.Name, utils.DiscordTimestamp(next.BlessedUntil)))
}

func (h *AdminHandler) HandlePoints(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	actor := commandActor(h.bot, e)
	if !actor.Admin {
		return utils.EH.CreatePermissionError(e, "use admin commands")
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")
	amount := int64(data.Int("amount"))

	balance, err := h.bot.Engine.AdjustPoints(ctx, actor, target.ID.String(), amount, data.String("reason"))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("💰 %s points for <@%s>. New balance: %s.",
		utils.FormatSigned(amount), target.ID, utils.FormatNumber(balance)))
}

func (h *AdminHandler) HandleVerifyImages(e *handler.CommandEvent) error {
	if !commandActor(h.bot, e).Admin {
		return utils.EH.CreatePermissionError(e, "use admin commands")
	}
	if h.bot.Spaces == nil {
		return utils.EH.CreateUserError(e, "Image storage is not configured.")
	}

	if err := e.DeferCreateMessage(true); err != nil {
		return fmt.Errorf("failed to defer message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := h.bot.Spaces.VerifyImages(ctx, h.bot.Engine.Catalog().All())
	if err != nil {
		slog.Error("Image verification failed", slog.String("type", "error"), slog.Any("error", err))
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{utils.ErrorEmbed(utils.SystemError, "Image verification failed, see logs for details.")},
		})
		return err
	}

	var missing strings.Builder
	for i, m := range report.Missing {
		if i == 20 {
			missing.WriteString(fmt.Sprintf("… and %d more\n", len(report.Missing)-i))
			break
		}
		missing.WriteString(fmt.Sprintf("`#%d` %s → `%s`\n", m.Card.ID, utils.FormatCardName(m.Card.Name), m.Key))
	}

	color := config.SuccessColor
	if len(report.Missing) > 0 {
		color = config.WarningColor
	}
	_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title: "🖼️ Image Verification",
			Description: fmt.Sprintf("Checked %d, skipped %d, missing %d (took %s)\n\n%s",
				report.Checked, report.Skipped, len(report.Missing), report.Took.Round(time.Millisecond), missing.String()),
			Color: color,
		}},
	})
	return err
}

func (h *AdminHandler) HandleReloadSettings(e *handler.CommandEvent) error {
	if !commandActor(h.bot, e).Admin {
		return utils.EH.CreatePermissionError(e, "use admin commands")
	}

	reloader, ok := h.bot.Settings.(familiarbot.SettingsReloader)
	if !ok {
		return utils.EH.CreateInfoEmbed(e, "Settings are not cached, nothing to reload.")
	}
	reloader.Invalidate()

	ctx, cancel := commandContext()
	defer cancel()

	locations, err := h.bot.Engine.Locations(ctx)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	slog.Info("Settings reloaded",
		slog.String("type", "sys"),
		slog.String("admin_id", e.User().ID.String()),
		slog.Int("locations", len(locations)))
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("🔄 Settings reloaded. %d hunting locations active.", len(locations)))
}

func (h *AdminHandler) CardAutocomplete(e *handler.AutocompleteEvent) error {
	focused := e.Data.Focused()
	if focused.Name != adminCardOption.Name {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}
	return e.AutocompleteResult(cardChoices(h.bot, e.Data.String(focused.Name), nil))
}
