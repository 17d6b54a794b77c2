package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/samber/lo"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/utils"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

// characterOption is shared by every command acting on one of the caller's characters.
// It may be left out when the caller owns exactly one.
var characterOption = discord.ApplicationCommandOptionString{
	Name:         "character",
	Description:  "Which of your characters to use",
	Required:     false,
	Autocomplete: true,
}

func commandActor(b *familiarbot.Bot, e *handler.CommandEvent) familiars.Actor {
	return b.Actor(e.User(), e.Member())
}

func componentActor(b *familiarbot.Bot, e *handler.ComponentEvent) familiars.Actor {
	return b.Actor(e.User(), e.Member())
}

// resolveCharacter picks the caller's character from the option value. The value may be
// a character id (from autocomplete) or a name typed by hand.
func resolveCharacter(ctx context.Context, b *familiarbot.Bot, userID, option string) (*ownership.Character, error) {
	chars, err := b.Engine.Characters(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pickCharacter(chars, option)
}

func pickCharacter(chars []*ownership.Character, option string) (*ownership.Character, error) {
	option = strings.TrimSpace(option)
	if len(chars) == 0 {
		return nil, gameerr.ErrCharacterNotFound.Withf("you have no characters yet, create one with /character create")
	}
	if option == "" {
		if len(chars) == 1 {
			return chars[0], nil
		}
		return nil, gameerr.ErrInvalidInput.Withf("you have %d characters, pick one with the character option", len(chars))
	}

	if c, ok := lo.Find(chars, func(c *ownership.Character) bool { return c.ID == option }); ok {
		return c, nil
	}
	if c, ok := lo.Find(chars, func(c *ownership.Character) bool { return strings.EqualFold(c.Name, option) }); ok {
		return c, nil
	}
	return nil, gameerr.ErrCharacterNotFound.Withf("you have no character named %q", option)
}

// characterChoices autocompletes the caller's characters by name prefix.
func characterChoices(ctx context.Context, b *familiarbot.Bot, userID, typed string) []discord.AutocompleteChoice {
	chars, err := b.Engine.Characters(ctx, userID)
	if err != nil {
		return []discord.AutocompleteChoice{}
	}

	typed = strings.ToLower(strings.TrimSpace(typed))
	choices := make([]discord.AutocompleteChoice, 0, min(len(chars), config.MaxAutocomplete))
	for _, c := range chars {
		if typed != "" && !strings.Contains(strings.ToLower(c.Name), typed) {
			continue
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  fmt.Sprintf("%s (%d familiars)", c.Name, len(c.Collection)),
			Value: c.ID,
		})
		if len(choices) == config.MaxAutocomplete {
			break
		}
	}
	return choices
}

// cardChoices autocompletes catalog cards, optionally restricted to a collection.
func cardChoices(b *familiarbot.Bot, typed string, owned ownership.Collection) []discord.AutocompleteChoice {
	var allowed func(def catalog.CardDefinition) bool
	if owned != nil {
		allowed = func(def catalog.CardDefinition) bool { return owned.Has(def.ID) }
	}

	defs := b.Search.Filter(typed, allowed, config.MaxAutocomplete)
	choices := make([]discord.AutocompleteChoice, 0, len(defs))
	for _, def := range defs {
		name := fmt.Sprintf("%s [%s] #%d", utils.FormatCardName(def.Name), def.Rank, def.ID)
		if owned != nil {
			name += fmt.Sprintf(" x%d", owned.Count(def.ID))
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  name,
			Value: fmt.Sprint(def.ID),
		})
	}
	return choices
}

// resolveCard turns an option value into a catalog id. Autocomplete sends the id,
// typed values go through the fuzzy search.
func resolveCard(b *familiarbot.Bot, value string) (int64, error) {
	def, err := b.Search.Resolve(value)
	if err != nil {
		return 0, err
	}
	return def.ID, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
}

func footer(e interface{ User() discord.User }) *discord.EmbedFooter {
	return &discord.EmbedFooter{Text: fmt.Sprintf("Requested by %s", e.User().Username)}
}

// pageBounds returns the slice window for page of a list with perPage entries.
func pageBounds(page, perPage, total int) (int, int) {
	start := page * perPage
	if start > total {
		start = total
	}
	return start, min(start+perPage, total)
}

func pageCount(total, perPage int) int {
	if total == 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
