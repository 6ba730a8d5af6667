package classify

import (
	"fmt"
	"strings"
	"time"
)

const classifySystemPrompt = `You classify direct messages sent to a NYC restaurant and event recommendation bot.

Allowed types: EVENT, RESTAURANT, FOOD_QUESTION, OTHER.
- RESTAURANT: the user wants a place to eat or drink.
- EVENT: the user wants something to attend or do.
- FOOD_QUESTION: a question about food itself, not a place.
- OTHER: greetings, small talk, anything else.

Respond with a single JSON object and nothing else:
{
  "type": "...",
  "confidence": 0.0-1.0,
  "dish": string or null,          // specific menu item, e.g. "sushi", "birria tacos"
  "cuisine": string or null,       // broad category, e.g. "thai"
  "borough": string or null,       // Manhattan, Brooklyn, Queens, Bronx, Staten Island, or "any"
  "neighborhood": string or null,
  "budget": "cheap"|"mid"|"nice"|null,
  "dietary": [strings],
  "occasion": string or null,
  "date": {"kind": "today"|"tomorrow"|"weekend"|"this_week"|"next_week"|"specific"|"range"|"month", "date": "yyyy-mm-dd", "start": "...", "end": "..."} or null,
  "price": "free"|"budget"|null,
  "category": string or null,      // one of the event categories listed below
  "search_term": string or null,   // free-text event search term
  "missing_filters": [strings]     // critical filters the message does not supply
}

Rules:
- Return date:null unless a date word actually appears in the user text.
- Never invent a borough, budget, or price the user did not state.
- For RESTAURANT, critical filters are a dish or cuisine, and a borough.
- For EVENT, critical filters are a date and a borough.`

// buildClassifyPrompt renders the per-call user prompt embedding today's
// local date and the closed category set.
func buildClassifyPrompt(text string, today time.Time, groups []string) string {
	return fmt.Sprintf(`Today is %s (%s), New York local time.
Event categories: %s.

User message: %q

JSON:`,
		today.Format("2006-01-02"), today.Format("Monday"),
		strings.Join(groups, ", "), text)
}
