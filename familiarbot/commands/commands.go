package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/handlers"
)

var Commands = []discord.ApplicationCommandCreate{
	Character,
	Draw,
	Familiars,
	Inventory,
	Trade,
	Hunt,
	Balance,
	Ledger,
	Admin,
	Version,
}

// Register wires every command, component and autocomplete route onto r.
func Register(r handler.Router, b *familiarbot.Bot) {
	// Character commands
	r.Route("/character", func(r handler.Router) {
		r.Command("/create", handlers.WrapWithLogging("character create", CharacterCreateHandler(b)))
		r.Command("/list", handlers.WrapWithLogging("character list", CharacterListHandler(b)))
	})

	// Collection commands
	r.Command("/draw", handlers.WrapWithLogging("draw", DrawHandler(b)))
	r.Autocomplete("/draw", CharacterAutocomplete(b))
	r.Command("/familiars", handlers.WrapWithLogging("familiars", FamiliarsHandler(b)))
	r.Autocomplete("/familiars", CharacterAutocomplete(b))
	r.Command("/inventory", handlers.WrapWithLogging("inventory", InventoryHandler(b)))
	r.Autocomplete("/inventory", CharacterAutocomplete(b))

	NewTradeHandler(b).Register(r)
	NewHuntHandler(b).Register(r)

	// Economy commands
	r.Command("/balance", handlers.WrapWithLogging("balance", BalanceHandler(b)))
	r.Command("/ledger", handlers.WrapWithLogging("ledger", LedgerHandler(b)))

	NewAdminHandler(b).Register(r)

	r.Command("/version", VersionHandler(b))
}
