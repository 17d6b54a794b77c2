package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

var Draw = discord.SlashCommandCreate{
	Name:        "draw",
	Description: "✨ Summon a familiar you don't own yet",
	Options: []discord.ApplicationCommandOption{
		characterOption,
		discord.ApplicationCommandOptionString{
			Name:        "mode",
			Description: "Draw table to use, defaults to blessed while a blessing is active",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Normal", Value: string(gacha.ModeNormal)},
				{Name: "Blessed", Value: string(gacha.ModeBlessed)},
			},
		},
	},
}

func DrawHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		var mode gacha.Mode
		if raw, ok := data.OptString("mode"); ok {
			parsed, err := gacha.ParseMode(raw)
			if err != nil {
				return utils.EH.HandleEngineError(e, gameerr.ErrInvalidInput.Wrap(err))
			}
			mode = parsed
		}

		actor := commandActor(b, e)
		c, err := resolveCharacter(ctx, b, actor.UserID, data.String(characterOption.Name))
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		res, err := b.Engine.Draw(ctx, actor, c.ID, mode)
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{drawEmbed(b, res)},
		})
	}
}

func drawEmbed(b *familiarbot.Bot, res familiars.DrawResult) discord.Embed {
	card := res.Draw.Card
	description := fmt.Sprintf("%s **%s** joined **%s**!\n\nRank: `%s`\nCost: %s points\nBalance: %s points",
		utils.GetStarsDisplay(card.Rank),
		utils.FormatCardName(card.Name),
		res.Character.Name,
		card.Rank,
		utils.FormatNumber(res.Cost),
		utils.FormatNumber(res.Balance),
	)
	if res.Draw.Fallback {
		description += "\n\n*Every pool from the rolled rank down was complete, so this familiar was picked from what remained.*"
	}

	embed := discord.Embed{
		Title:       "✨ Familiar Summoned",
		Description: description,
		Color:       utils.RankColor(card.Rank),
		Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("%s draw • card #%d", res.Mode, card.ID)},
	}
	if card.Image != "" {
		embed.Image = &discord.EmbedResource{URL: b.ImageURL(card.Image)}
	}
	return embed
}
