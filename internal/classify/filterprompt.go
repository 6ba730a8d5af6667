package classify

import (
	"fmt"
	"strings"
)

// buildFilterPrompt renders a short human question naming what is known and
// what is still needed. Text replies only; no clickable affordances.
func buildFilterPrompt(res Result) string {
	missing := map[string]bool{}
	for _, m := range res.Missing {
		missing[m] = true
	}

	switch res.Type {
	case TypeRestaurant:
		known := ""
		if res.Intent != nil && res.Intent.Query != "" {
			known = fmt.Sprintf("%s, nice. ", capitalize(res.Intent.Query))
		}
		switch {
		case missing["cuisine"] && missing["borough"]:
			return "What are you in the mood for, and where? e.g. \"sushi in Brooklyn\", \"cheap tacos in Queens\", \"pasta anywhere\""
		case missing["cuisine"]:
			return "What kind of food are you craving? e.g. \"ramen\", \"birria tacos\", \"italian\""
		default:
			return known + "📍 Where: Manhattan, Brooklyn, Queens, Bronx, Staten Island, or 'all NYC'?"
		}

	case TypeEvent:
		known := ""
		if res.Event != nil && res.Event.SearchTerm != "" {
			known = fmt.Sprintf("Looking for %s. ", res.Event.SearchTerm)
		}
		switch {
		case missing["date"] && missing["borough"]:
			return known + "Tell me a bit more:\n" +
				"📍 Where: Manhattan, Brooklyn, Queens, or 'all NYC'\n" +
				"🕓 When: today, tomorrow, this weekend, or a date\n" +
				"🎭 Category: music, comedy, art, food, markets...\n" +
				"Or just reply \"search\" and I'll look everywhere."
		case missing["date"]:
			return known + "🕓 When: today, tomorrow, this weekend, or a specific date?"
		default:
			return known + "📍 Where: Manhattan, Brooklyn, Queens, or 'all NYC'?"
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
