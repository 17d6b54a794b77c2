package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/handlers"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

var tradeIDOption = discord.ApplicationCommandOptionString{
	Name:         "trade",
	Description:  "Trade request id",
	Required:     true,
	Autocomplete: true,
}

var Trade = discord.SlashCommandCreate{
	Name:        "trade",
	Description: "🤝 Swap familiars with other players",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "offer",
			Description: "Offer one of your familiars for one of theirs",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "your_card",
					Description:  "The familiar you give",
					Required:     true,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The player you want to trade with",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:         "their_card",
					Description:  "The familiar you want from them",
					Required:     true,
					Autocomplete: true,
				},
				characterOption,
				discord.ApplicationCommandOptionString{
					Name:        "their_character",
					Description: "Their character name, needed when they have several",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "accept",
			Description: "Accept a trade offered to you",
			Options:     []discord.ApplicationCommandOption{tradeIDOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "decline",
			Description: "Decline a trade offered to you",
			Options:     []discord.ApplicationCommandOption{tradeIDOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "cancel",
			Description: "Withdraw a trade you offered",
			Options:     []discord.ApplicationCommandOption{tradeIDOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "inbox",
			Description: "List your pending trades",
		},
	},
}

type TradeHandler struct {
	bot *familiarbot.Bot
}

func NewTradeHandler(b *familiarbot.Bot) *TradeHandler {
	return &TradeHandler{bot: b}
}

func (h *TradeHandler) Register(r handler.Router) {
	r.Route("/trade", func(r handler.Router) {
		r.Command("/offer", handlers.WrapWithLogging("trade offer", h.HandleOffer))
		r.Command("/accept", handlers.WrapWithLogging("trade accept", h.HandleAcceptCommand))
		r.Command("/decline", handlers.WrapWithLogging("trade decline", h.HandleDeclineCommand))
		r.Command("/cancel", handlers.WrapWithLogging("trade cancel", h.HandleCancelCommand))
		r.Command("/inbox", handlers.WrapWithLogging("trade inbox", h.HandleInbox))

		r.Autocomplete("/offer", h.OfferAutocomplete)
		r.Autocomplete("/accept", h.TradeAutocomplete)
		r.Autocomplete("/decline", h.TradeAutocomplete)
		r.Autocomplete("/cancel", h.TradeAutocomplete)

		// Buttons on offer messages, custom ids /trade/<action>/<trade id>
		r.Component("/accept/{id}", handlers.WrapComponentWithLogging("trade accept", h.HandleAcceptButton))
		r.Component("/decline/{id}", handlers.WrapComponentWithLogging("trade decline", h.HandleDeclineButton))
		r.Component("/cancel/{id}", handlers.WrapComponentWithLogging("trade cancel", h.HandleCancelButton))
	})
}

func (h *TradeHandler) HandleOffer(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	data := e.SlashCommandInteractionData()
	actor := commandActor(h.bot, e)
	targetUser := data.User("user")
	if targetUser.ID == e.User().ID {
		return utils.EH.CreateUserError(e, "You cannot trade with yourself!")
	}
	if targetUser.Bot {
		return utils.EH.CreateUserError(e, "Bots don't collect familiars.")
	}

	mine, err := resolveCharacter(ctx, h.bot, actor.UserID, data.String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	theirs, err := resolveCharacter(ctx, h.bot, targetUser.ID.String(), data.String("their_character"))
	if err != nil {
		if gameerr.KindOf(err) == gameerr.KindNotFound {
			return utils.EH.CreateNotFoundError(e, "Character of "+targetUser.Username, data.String("their_character"))
		}
		return utils.EH.HandleEngineError(e, err)
	}

	yourCard, err := resolveCard(h.bot, data.String("your_card"))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	theirCard, err := resolveCard(h.bot, data.String("their_card"))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	req, err := h.bot.Engine.CreateTrade(ctx, actor, familiars.TradeOffer{
		CharacterID:       mine.ID,
		CardID:            yourCard,
		TargetCharacterID: theirs.ID,
		TargetCardID:      theirCard,
	})
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Content: fmt.Sprintf("<@%s>, you have a new trade offer!", targetUser.ID),
		Embeds:  []discord.Embed{h.tradeEmbed(req, "🤝 Trade Offer", config.InfoColor)},
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.NewSuccessButton("Accept", "/trade/accept/"+req.ID),
				discord.NewDangerButton("Decline", "/trade/decline/"+req.ID),
				discord.NewSecondaryButton("Cancel", "/trade/cancel/"+req.ID),
			),
		},
		AllowedMentions: &discord.AllowedMentions{Users: []snowflake.ID{targetUser.ID}},
	})
}

func (h *TradeHandler) HandleAcceptCommand(e *handler.CommandEvent) error {
	return h.resolveCommand(e, "accept")
}

func (h *TradeHandler) HandleDeclineCommand(e *handler.CommandEvent) error {
	return h.resolveCommand(e, "decline")
}

func (h *TradeHandler) HandleCancelCommand(e *handler.CommandEvent) error {
	return h.resolveCommand(e, "cancel")
}

func (h *TradeHandler) HandleAcceptButton(e *handler.ComponentEvent) error {
	return h.resolveButton(e, "accept")
}

func (h *TradeHandler) HandleDeclineButton(e *handler.ComponentEvent) error {
	return h.resolveButton(e, "decline")
}

func (h *TradeHandler) HandleCancelButton(e *handler.ComponentEvent) error {
	return h.resolveButton(e, "cancel")
}

func (h *TradeHandler) resolveCommand(e *handler.CommandEvent, action string) error {
	ctx, cancel := commandContext()
	defer cancel()

	embed, err := h.resolve(ctx, commandActor(h.bot, e), action, e.SlashCommandInteractionData().String(tradeIDOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{embed}})
}

func (h *TradeHandler) resolveButton(e *handler.ComponentEvent, action string) error {
	ctx, cancel := commandContext()
	defer cancel()

	embed, err := h.resolve(ctx, componentActor(h.bot, e), action, e.Vars["id"])
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return e.UpdateMessage(discord.MessageUpdate{
		Content:    stringPtr(""),
		Embeds:     &[]discord.Embed{embed},
		Components: &[]discord.ContainerComponent{},
	})
}

// resolve runs one trade transition and renders its outcome.
func (h *TradeHandler) resolve(ctx context.Context, actor familiars.Actor, action, tradeID string) (discord.Embed, error) {
	tradeID = strings.TrimSpace(tradeID)
	switch action {
	case "accept":
		accepted, err := h.bot.Engine.AcceptTrade(ctx, actor, tradeID)
		if err != nil {
			return discord.Embed{}, err
		}
		return h.tradeEmbed(accepted.Request, "✅ Trade Completed!", config.SuccessColor), nil
	case "decline":
		req, err := h.bot.Engine.DeclineTrade(ctx, actor, tradeID)
		if err != nil {
			return discord.Embed{}, err
		}
		return h.tradeEmbed(req, "❌ Trade Declined", config.WarningColor), nil
	case "cancel":
		req, err := h.bot.Engine.CancelTrade(ctx, actor, tradeID)
		if err != nil {
			return discord.Embed{}, err
		}
		return h.tradeEmbed(req, "🚫 Trade Cancelled", config.WarningColor), nil
	}
	return discord.Embed{}, gameerr.ErrInvalidInput.Withf("unknown trade action %q", action)
}

func (h *TradeHandler) HandleInbox(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	userID := e.User().ID.String()
	trades, err := h.bot.Engine.PendingTrades(ctx, userID)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	if len(trades) == 0 {
		return utils.EH.CreateInfoEmbed(e, "📭 You have no pending trades.")
	}

	return h.bot.Paginator.Create(e.Respond, paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			start, end := pageBounds(page, config.TradesPerPage, len(trades))

			var description strings.Builder
			for _, req := range trades[start:end] {
				direction := "📥 Incoming"
				if req.Initiator.UserID == userID {
					direction = "📤 Outgoing"
				}
				description.WriteString(fmt.Sprintf("%s `%s` %s\n", direction, req.ID, utils.DiscordTimestamp(req.CreatedAt)))
				description.WriteString(fmt.Sprintf("└ %s ⇄ %s\n\n", h.cardLabel(req.Initiator.CardID), h.cardLabel(req.Target.CardID)))
			}

			embed.
				SetTitle("📬 Trade Inbox").
				SetDescription(description.String()).
				SetColor(config.EmbedDefaultColor).
				SetFooter(fmt.Sprintf("Page %d/%d • /trade accept, decline or cancel", page+1, pageCount(len(trades), config.TradesPerPage)), "")
		},
		Pages:      pageCount(len(trades), config.TradesPerPage),
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

// OfferAutocomplete completes your_card from the chosen character and their_card from the catalog.
func (h *TradeHandler) OfferAutocomplete(e *handler.AutocompleteEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	userID := e.User().ID.String()
	focused := e.Data.Focused()
	typed := e.Data.String(focused.Name)

	switch focused.Name {
	case characterOption.Name:
		return e.AutocompleteResult(characterChoices(ctx, h.bot, userID, typed))
	case "your_card":
		c, err := resolveCharacter(ctx, h.bot, userID, e.Data.String(characterOption.Name))
		if err != nil {
			return e.AutocompleteResult(cardChoices(h.bot, typed, nil))
		}
		return e.AutocompleteResult(cardChoices(h.bot, typed, c.Collection))
	case "their_card":
		return e.AutocompleteResult(cardChoices(h.bot, typed, nil))
	}
	return e.AutocompleteResult([]discord.AutocompleteChoice{})
}

// TradeAutocomplete lists the caller's pending trades.
func (h *TradeHandler) TradeAutocomplete(e *handler.AutocompleteEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	trades, err := h.bot.Engine.PendingTrades(ctx, e.User().ID.String())
	if err != nil {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}

	typed := strings.ToLower(e.Data.String(tradeIDOption.Name))
	choices := make([]discord.AutocompleteChoice, 0, min(len(trades), config.MaxAutocomplete))
	for _, req := range trades {
		if typed != "" && !strings.Contains(req.ID, typed) {
			continue
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  fmt.Sprintf("%s ⇄ %s (%s)", h.cardName(req.Initiator.CardID), h.cardName(req.Target.CardID), req.ID),
			Value: req.ID,
		})
		if len(choices) == config.MaxAutocomplete {
			break
		}
	}
	return e.AutocompleteResult(choices)
}

func (h *TradeHandler) tradeEmbed(req trade.Request, title string, color int) discord.Embed {
	return discord.Embed{
		Title: title,
		Color: color,
		Fields: []discord.EmbedField{
			{Name: "Offered", Value: fmt.Sprintf("<@%s> gives %s", req.Initiator.UserID, h.cardLabel(req.Initiator.CardID))},
			{Name: "Requested", Value: fmt.Sprintf("<@%s> gives %s", req.Target.UserID, h.cardLabel(req.Target.CardID))},
			{Name: "Trade ID", Value: fmt.Sprintf("`%s` • %s", req.ID, req.Status)},
		},
	}
}

func (h *TradeHandler) cardLabel(id int64) string {
	def, ok := h.bot.Engine.Catalog().Lookup(id)
	if !ok {
		return fmt.Sprintf("`#%d`", id)
	}
	return utils.FormatCardLine(def, 1)
}

func (h *TradeHandler) cardName(id int64) string {
	def, ok := h.bot.Engine.Catalog().Lookup(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s [%s]", utils.FormatCardName(def.Name), rankLabel(def.Rank))
}

func rankLabel(r catalog.Rank) string {
	if r == "" {
		return "?"
	}
	return strings.ToUpper(r.String()[:1]) + r.String()[1:]
}

func stringPtr(s string) *string {
	return &s
}
