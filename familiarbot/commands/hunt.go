package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/handlers"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

var huntIDOption = discord.ApplicationCommandOptionString{
	Name:         "hunt",
	Description:  "Expedition id",
	Required:     true,
	Autocomplete: true,
}

var Hunt = discord.SlashCommandCreate{
	Name:        "hunt",
	Description: "🗺️ Send familiars on timed expeditions",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "start",
			Description: "Send a free familiar to a hunting location",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "familiar",
					Description:  "The familiar to send",
					Required:     true,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionString{
					Name:         "location",
					Description:  "Where to hunt",
					Required:     true,
					Autocomplete: true,
				},
				characterOption,
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "claim",
			Description: "Collect the loot of a finished expedition",
			Options:     []discord.ApplicationCommandOption{huntIDOption, characterOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "recall",
			Description: "Bring a familiar back early, without loot",
			Options:     []discord.ApplicationCommandOption{huntIDOption, characterOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "claim-all",
			Description: "Collect every finished expedition at once",
			Options:     []discord.ApplicationCommandOption{characterOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "status",
			Description: "Show running expeditions",
			Options:     []discord.ApplicationCommandOption{characterOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "locations",
			Description: "List hunting locations",
		},
	},
}

type HuntHandler struct {
	bot *familiarbot.Bot
}

func NewHuntHandler(b *familiarbot.Bot) *HuntHandler {
	return &HuntHandler{bot: b}
}

func (h *HuntHandler) Register(r handler.Router) {
	r.Route("/hunt", func(r handler.Router) {
		r.Command("/start", handlers.WrapWithLogging("hunt start", h.HandleStart))
		r.Command("/claim", handlers.WrapWithLogging("hunt claim", h.HandleClaim))
		r.Command("/recall", handlers.WrapWithLogging("hunt recall", h.HandleRecall))
		r.Command("/claim-all", handlers.WrapWithLogging("hunt claim-all", h.HandleClaimAll))
		r.Command("/status", handlers.WrapWithLogging("hunt status", h.HandleStatus))
		r.Command("/locations", handlers.WrapWithLogging("hunt locations", h.HandleLocations))

		r.Autocomplete("/start", h.Autocomplete)
		r.Autocomplete("/claim", h.Autocomplete)
		r.Autocomplete("/recall", h.Autocomplete)
		r.Autocomplete("/claim-all", CharacterAutocomplete(h.bot))
		r.Autocomplete("/status", CharacterAutocomplete(h.bot))

		r.Component("/claim-all/{character}", handlers.WrapComponentWithLogging("hunt claim-all", h.HandleClaimAllButton))
	})
}

func (h *HuntHandler) HandleStart(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	data := e.SlashCommandInteractionData()
	actor := commandActor(h.bot, e)
	c, err := resolveCharacter(ctx, h.bot, actor.UserID, data.String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	familiarID, err := resolveCard(h.bot, data.String("familiar"))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	locationID, err := h.resolveLocation(ctx, data.String("location"))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	hunt, err := h.bot.Engine.StartHunt(ctx, actor, c.ID, familiarID, locationID)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "🗺️ Expedition Started",
			Description: fmt.Sprintf("%s set out for **%s**.\nBack %s.",
				h.familiarLabel(hunt.FamiliarID), h.locationName(hunt.LocationID), utils.DiscordTimestamp(hunt.EndsAt)),
			Color:  config.InfoColor,
			Footer: &discord.EmbedFooter{Text: "Hunt ID: " + hunt.ID},
		}},
	})
}

func (h *HuntHandler) HandleClaim(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	data := e.SlashCommandInteractionData()
	actor := commandActor(h.bot, e)
	c, err := resolveCharacter(ctx, h.bot, actor.UserID, data.String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	reward, err := h.bot.Engine.ClaimHunt(ctx, actor, c.ID, strings.TrimSpace(data.String(huntIDOption.Name)))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	embed := discord.Embed{
		Title: "🎁 Expedition Complete",
		Description: fmt.Sprintf("%s returned from **%s**.\n\n%s",
			h.familiarLabel(reward.Hunt.FamiliarID), h.locationName(reward.Hunt.LocationID), utils.FormatItems(reward.Items)),
		Color: config.SuccessColor,
	}
	if reward.Orphaned {
		embed.Description += "\n" + orphanedNote
		embed.Color = config.WarningColor
	}
	return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{embed}})
}

func (h *HuntHandler) HandleRecall(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	data := e.SlashCommandInteractionData()
	actor := commandActor(h.bot, e)
	c, err := resolveCharacter(ctx, h.bot, actor.UserID, data.String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	hunt, err := h.bot.Engine.RecallHunt(ctx, actor, c.ID, strings.TrimSpace(data.String(huntIDOption.Name)))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("↩️ %s was recalled from **%s**. No loot was collected.",
		h.familiarLabel(hunt.FamiliarID), h.locationName(hunt.LocationID)))
}

func (h *HuntHandler) HandleClaimAll(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	actor := commandActor(h.bot, e)
	c, err := resolveCharacter(ctx, h.bot, actor.UserID, e.SlashCommandInteractionData().String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	result, err := h.bot.Engine.ClaimAllHunts(ctx, actor, c.ID)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{h.claimAllEmbed(c, result)}})
}

func (h *HuntHandler) HandleClaimAllButton(e *handler.ComponentEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	actor := componentActor(h.bot, e)
	c, err := h.bot.Engine.Character(ctx, e.Vars["character"])
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}

	result, err := h.bot.Engine.ClaimAllHunts(ctx, actor, c.ID)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	return e.UpdateMessage(discord.MessageUpdate{
		Embeds:     &[]discord.Embed{h.claimAllEmbed(c, result)},
		Components: &[]discord.ContainerComponent{},
	})
}

const orphanedNote = "That hunting ground has closed, so nothing was brought back."

func (h *HuntHandler) claimAllEmbed(c *ownership.Character, result expedition.ClaimAllResult) discord.Embed {
	if len(result.Rewards) == 0 {
		return discord.Embed{
			Title:       "🗺️ Nothing to Claim",
			Description: fmt.Sprintf("None of **%s**'s expeditions have finished yet.", c.Name),
			Color:       config.InfoColor,
		}
	}

	var returned strings.Builder
	orphaned := 0
	for _, r := range result.Rewards {
		returned.WriteString(fmt.Sprintf("%s from **%s**\n", h.familiarLabel(r.Hunt.FamiliarID), h.locationName(r.Hunt.LocationID)))
		if r.Orphaned {
			orphaned++
		}
	}

	embed := discord.Embed{
		Title: fmt.Sprintf("🎁 %d Expeditions Complete", len(result.Rewards)),
		Color: config.SuccessColor,
		Fields: []discord.EmbedField{
			{Name: "Returned", Value: orPlaceholder(returned.String())},
			{Name: "Loot", Value: utils.FormatItems(result.Items)},
		},
	}
	if orphaned > 0 {
		embed.Color = config.WarningColor
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Empty-Handed",
			Value: fmt.Sprintf("%d expeditions: %s", orphaned, orphanedNote),
		})
	}
	return embed
}

func (h *HuntHandler) HandleStatus(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := resolveCharacter(ctx, h.bot, e.User().ID.String(), e.SlashCommandInteractionData().String(characterOption.Name))
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	if len(c.Hunts) == 0 {
		return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("**%s** has no familiars out hunting.", c.Name))
	}

	now := h.bot.Engine.Now()
	due := 0
	var description strings.Builder
	for _, hunt := range c.Hunts {
		state := "⏳ " + utils.FormatRemaining(hunt.EndsAt.Sub(now))
		if hunt.Due(now) {
			state = "✅ ready"
			due++
		}
		description.WriteString(fmt.Sprintf("`%s` %s at **%s** • %s\n",
			hunt.ID, h.familiarLabel(hunt.FamiliarID), h.locationName(hunt.LocationID), state))
	}

	msg := discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("🗺️ %s's Expeditions", c.Name),
			Description: description.String(),
			Color:       config.EmbedDefaultColor,
			Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("%d active • %d ready", len(c.Hunts), due)},
		}},
	}
	if due > 0 {
		msg.Components = []discord.ContainerComponent{
			discord.NewActionRow(discord.NewPrimaryButton("Claim all", "/hunt/claim-all/"+c.ID)),
		}
	}
	return e.CreateMessage(msg)
}

func (h *HuntHandler) HandleLocations(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	locations, err := h.bot.Engine.Locations(ctx)
	if err != nil {
		return utils.EH.HandleEngineError(e, err)
	}
	if len(locations) == 0 {
		return utils.EH.CreateInfoEmbed(e, "No hunting locations are configured.")
	}

	fields := make([]discord.EmbedField, 0, len(locations))
	for _, loc := range locations {
		var loot strings.Builder
		for _, entry := range loc.Loot {
			loot.WriteString(fmt.Sprintf("`%s` %g%% (%d-%d)\n", entry.ItemID, entry.Chance, entry.Min, entry.Max))
		}
		fields = append(fields, discord.EmbedField{
			Name: fmt.Sprintf("%s `%s`", loc.Name, loc.ID),
			Value: fmt.Sprintf("Requires %s or higher • %s\n%s",
				rankLabel(loc.RequiredRank), utils.FormatRemaining(loc.Duration()), orPlaceholder(loot.String())),
		})
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:  "🗺️ Hunting Locations",
			Color:  config.EmbedDefaultColor,
			Fields: fields,
		}},
	})
}

// Autocomplete serves start, claim and recall.
func (h *HuntHandler) Autocomplete(e *handler.AutocompleteEvent) error {
	ctx, cancel := commandContext()
	defer cancel()

	userID := e.User().ID.String()
	focused := e.Data.Focused()
	typed := strings.ToLower(strings.TrimSpace(e.Data.String(focused.Name)))

	if focused.Name == characterOption.Name {
		return e.AutocompleteResult(characterChoices(ctx, h.bot, userID, typed))
	}

	if focused.Name == "location" {
		locations, err := h.bot.Engine.Locations(ctx)
		if err != nil {
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}
		choices := make([]discord.AutocompleteChoice, 0, len(locations))
		for _, loc := range locations {
			if typed != "" && !strings.Contains(strings.ToLower(loc.Name+" "+loc.ID), typed) {
				continue
			}
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  fmt.Sprintf("%s (%s+, %s)", loc.Name, rankLabel(loc.RequiredRank), utils.FormatRemaining(loc.Duration())),
				Value: loc.ID,
			})
			if len(choices) == config.MaxAutocomplete {
				break
			}
		}
		return e.AutocompleteResult(choices)
	}

	c, err := resolveCharacter(ctx, h.bot, userID, e.Data.String(characterOption.Name))
	if err != nil {
		return e.AutocompleteResult([]discord.AutocompleteChoice{})
	}

	switch focused.Name {
	case "familiar":
		free := make(ownership.Collection, 0, len(c.Collection))
		for _, id := range c.Collection {
			if c.FreeCount(id) > 0 {
				free = append(free, id)
			}
		}
		return e.AutocompleteResult(cardChoices(h.bot, typed, free))
	case huntIDOption.Name:
		now := h.bot.Engine.Now()
		choices := make([]discord.AutocompleteChoice, 0, min(len(c.Hunts), config.MaxAutocomplete))
		for _, hunt := range c.Hunts {
			state := utils.FormatRemaining(hunt.EndsAt.Sub(now))
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  fmt.Sprintf("%s at %s (%s)", h.familiarName(hunt.FamiliarID), h.locationName(hunt.LocationID), state),
				Value: hunt.ID,
			})
			if len(choices) == config.MaxAutocomplete {
				break
			}
		}
		return e.AutocompleteResult(choices)
	}
	return e.AutocompleteResult([]discord.AutocompleteChoice{})
}

// resolveLocation accepts a location id or its display name.
func (h *HuntHandler) resolveLocation(ctx context.Context, value string) (string, error) {
	value = strings.TrimSpace(value)
	locations, err := h.bot.Engine.Locations(ctx)
	if err != nil {
		return "", err
	}
	for _, loc := range locations {
		if loc.ID == value || strings.EqualFold(loc.Name, value) {
			return loc.ID, nil
		}
	}
	// the engine reports unknown ids
	return value, nil
}

func (h *HuntHandler) familiarLabel(id int64) string {
	def, ok := h.bot.Engine.Catalog().Lookup(id)
	if !ok {
		return fmt.Sprintf("`#%d`", id)
	}
	return fmt.Sprintf("%s **%s**", utils.GetStarsDisplay(def.Rank), utils.FormatCardName(def.Name))
}

func (h *HuntHandler) familiarName(id int64) string {
	def, ok := h.bot.Engine.Catalog().Lookup(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	return utils.FormatCardName(def.Name)
}

func (h *HuntHandler) locationName(id string) string {
	ctx, cancel := commandContext()
	defer cancel()

	locations, err := h.bot.Engine.Locations(ctx)
	if err != nil {
		return id
	}
	for _, loc := range locations {
		if loc.ID == id {
			return loc.Name
		}
	}
	return id
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
