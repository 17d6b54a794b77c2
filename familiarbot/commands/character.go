package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
)

var Character = discord.SlashCommandCreate{
	Name:        "character",
	Description: "🧙 Manage your characters",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "create",
			Description: "Create a new character",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Character name",
					Required:    true,
					MaxLength:   intPtr(32),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List your characters",
		},
	},
}

func CharacterCreateHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		name := e.SlashCommandInteractionData().String("name")
		c, err := b.Engine.CreateCharacter(ctx, commandActor(b, e), name)
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🧙 Character Created",
				Description: fmt.Sprintf("**%s** is ready for adventure. Use `/draw` to summon a first familiar.", c.Name),
				Color:       config.SuccessColor,
				Footer:      &discord.EmbedFooter{Text: "ID: " + c.ID},
			}},
		})
	}
}

func CharacterListHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		chars, err := b.Engine.Characters(ctx, e.User().ID.String())
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}
		if len(chars) == 0 {
			return utils.EH.CreateInfoEmbed(e, "You have no characters yet. Create one with `/character create`.")
		}

		now := b.Engine.Now()
		var description strings.Builder
		for _, c := range chars {
			description.WriteString(fmt.Sprintf("**%s** `%s`\n", c.Name, c.ID))
			description.WriteString(fmt.Sprintf("└ %d familiars, %d on expeditions", len(c.Collection), len(c.Hunts)))
			if c.Blessed(now) {
				description.WriteString(fmt.Sprintf(", ✨ blessed until %s", utils.DiscordTimestamp(c.BlessedUntil)))
			}
			description.WriteString("\n")
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🧙 Your Characters",
				Description: description.String(),
				Color:       config.EmbedDefaultColor,
				Footer:      footer(e),
			}},
		})
	}
}

// CharacterAutocomplete serves every command whose only autocompleted option is "character".
func CharacterAutocomplete(b *familiarbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		focused := e.Data.Focused()
		if focused.Name != characterOption.Name {
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}
		return e.AutocompleteResult(characterChoices(ctx, b, e.User().ID.String(), e.Data.String(focused.Name)))
	}
}

func intPtr(i int) *int {
	return &i
}
