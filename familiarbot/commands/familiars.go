package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

var Familiars = discord.SlashCommandCreate{
	Name:        "familiars",
	Description: "📖 Browse the familiars one of your characters owns",
	Options: []discord.ApplicationCommandOption{
		characterOption,
		discord.ApplicationCommandOptionString{
			Name:        "rank",
			Description: "Only show this rank",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Mythic", Value: string(catalog.RankMythic)},
				{Name: "Event", Value: string(catalog.RankEvent)},
				{Name: "Legendary", Value: string(catalog.RankLegendary)},
				{Name: "Rare", Value: string(catalog.RankRare)},
				{Name: "Common", Value: string(catalog.RankCommon)},
			},
		},
		discord.ApplicationCommandOptionString{
			Name:        "query",
			Description: "Fuzzy search by name",
			Required:    false,
		},
	},
}

var Inventory = discord.SlashCommandCreate{
	Name:        "inventory",
	Description: "🎒 Show the items a character brought back from expeditions",
	Options: []discord.ApplicationCommandOption{
		characterOption,
	},
}

// familiarEntry is one distinct card of a collection.
type familiarEntry struct {
	Card  catalog.CardDefinition
	Count int
	Busy  int
}

// collectionEntries groups a character's collection by card, rarest first.
func collectionEntries(cat *catalog.Catalog, c *ownership.Character, rank catalog.Rank, matches map[int64]struct{}) []familiarEntry {
	seen := make(map[int64]bool)
	var entries []familiarEntry
	for _, id := range c.Collection {
		if seen[id] {
			continue
		}
		seen[id] = true

		def, ok := cat.Lookup(id)
		if !ok {
			def = catalog.CardDefinition{ID: id, Name: fmt.Sprintf("unknown_%d", id)}
		}
		if rank != "" && def.Rank != rank {
			continue
		}
		if matches != nil {
			if _, ok := matches[id]; !ok {
				continue
			}
		}
		entries = append(entries, familiarEntry{Card: def, Count: c.Collection.Count(id), Busy: c.BusyCount(id)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if ti, tj := entries[i].Card.Rank.Tier(), entries[j].Card.Rank.Tier(); ti != tj {
			return ti > tj
		}
		return entries[i].Card.ID < entries[j].Card.ID
	})
	return entries
}

func FamiliarsHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		c, err := resolveCharacter(ctx, b, e.User().ID.String(), data.String(characterOption.Name))
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		var rank catalog.Rank
		if raw, ok := data.OptString("rank"); ok {
			if rank, err = catalog.ParseRank(raw); err != nil {
				return utils.EH.HandleEngineError(e, gameerr.ErrInvalidInput.Wrap(err))
			}
		}

		var matches map[int64]struct{}
		query := strings.TrimSpace(data.String("query"))
		if query != "" {
			matches = make(map[int64]struct{})
			for _, def := range b.Search.Search(query) {
				matches[def.ID] = struct{}{}
			}
		}

		entries := collectionEntries(b.Engine.Catalog(), c, rank, matches)
		if len(entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("**%s** has no familiars matching that filter.", c.Name))
		}

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := pageBounds(page, config.FamiliarsPerPage, len(entries))

				var description strings.Builder
				if query != "" {
					description.WriteString(fmt.Sprintf("🔍`%s`\n\n", query))
				}
				for _, entry := range entries[start:end] {
					description.WriteString(utils.FormatCardLine(entry.Card, entry.Count))
					if entry.Busy > 0 {
						description.WriteString(fmt.Sprintf(" 🗺️ %d away", entry.Busy))
					}
					description.WriteString("\n")
				}

				embed.
					SetTitle(fmt.Sprintf("📖 %s's Familiars", c.Name)).
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d distinct • %d total", page+1, pageCount(len(entries), config.FamiliarsPerPage), len(entries), len(c.Collection)), "")
			},
			Pages:      pageCount(len(entries), config.FamiliarsPerPage),
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func InventoryHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		c, err := resolveCharacter(ctx, b, e.User().ID.String(), e.SlashCommandInteractionData().String(characterOption.Name))
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		items, err := b.Engine.Inventory(ctx, c.ID)
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		description := utils.FormatItems(items)
		if len(items) == 0 {
			description = "No items yet. Send a familiar out with `/hunt start`."
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       fmt.Sprintf("🎒 %s's Inventory", c.Name),
				Description: description,
				Color:       config.EmbedDefaultColor,
				Footer:      footer(e),
			}},
		})
	}
}
