package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:]
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

// FormatSigned renders ledger deltas with an explicit sign.
func FormatSigned(n int64) string {
	if n > 0 {
		return "+" + FormatNumber(n)
	}
	return FormatNumber(n)
}

// GetStarsDisplay renders the rank weight as stars
func GetStarsDisplay(r catalog.Rank) string {
	if !r.Valid() {
		return "`✧`"
	}
	return fmt.Sprintf("`%s`", strings.Repeat("★", r.Stars()))
}

func RankColor(r catalog.Rank) int {
	switch r {
	case catalog.RankMythic:
		return config.RankMythicColor
	case catalog.RankEvent:
		return config.RankEventColor
	case catalog.RankLegendary:
		return config.RankLegendaryColor
	case catalog.RankRare:
		return config.RankRareColor
	case catalog.RankCommon:
		return config.RankCommonColor
	}
	return config.EmbedDefaultColor
}

// FormatCardName converts names like "void_seraph" to "Void Seraph"
func FormatCardName(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// FormatCardLine is the one-line card entry used in lists.
func FormatCardLine(def catalog.CardDefinition, count int) string {
	line := fmt.Sprintf("%s **%s** `#%d`", GetStarsDisplay(def.Rank), FormatCardName(def.Name), def.ID)
	if count > 1 {
		line += fmt.Sprintf(" x%d", count)
	}
	return line
}

// FormatRemaining renders a countdown, rounding up to the minute past the first hour.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "ready"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	}

	minutes := int((d + time.Minute - 1) / time.Minute)
	hours, minutes := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// FormatItems lists loot stacks, or a placeholder when nothing dropped.
func FormatItems(items []expedition.Item) string {
	if len(items) == 0 {
		return "*nothing this time*"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• `%s` x%d", it.ItemID, it.Quantity))
	}
	return strings.Join(lines, "\n")
}

// DiscordTimestamp renders t with the client-side relative formatter.
func DiscordTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
