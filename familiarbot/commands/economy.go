package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
)

const ledgerFetchLimit = 100

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your current points",
}

var Ledger = discord.SlashCommandCreate{
	Name:        "ledger",
	Description: "📒 View your recent point changes",
}

func BalanceHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		balance, err := b.Engine.Balance(ctx, e.User().ID.String())
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}

		draws := int64(0)
		if cost := b.Cfg.Game.DrawCost; cost > 0 {
			draws = balance / cost
		}

		description := fmt.Sprintf("```ansi\n"+
			"\x1b[1;36mPoints:\x1b[0m %s\n"+
			"\x1b[0;37mEnough for %d draws\x1b[0m\n"+
			"```",
			utils.FormatNumber(balance),
			draws,
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 Balance",
				Description: description,
				Color:       config.SuccessColor,
				Footer:      footer(e),
				Timestamp:   &now,
			}},
		})
	}
}

func LedgerHandler(b *familiarbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		entries, err := b.Engine.Ledger(ctx, e.User().ID.String(), ledgerFetchLimit)
		if err != nil {
			return utils.EH.HandleEngineError(e, err)
		}
		if len(entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, "📒 No point changes recorded yet.")
		}

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := pageBounds(page, config.LedgerPageSize, len(entries))

				var description strings.Builder
				description.WriteString("```diff\n")
				for _, entry := range entries[start:end] {
					description.WriteString(fmt.Sprintf("%s %s (%s)\n",
						utils.FormatSigned(entry.Delta), entry.Reason, entry.CreatedAt.UTC().Format("2006-01-02 15:04")))
				}
				description.WriteString("```")

				embed.
					SetTitle("📒 Point Ledger").
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d", page+1, pageCount(len(entries), config.LedgerPageSize)), "")
			},
			Pages:      pageCount(len(entries), config.LedgerPageSize),
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
