package search

import (
	"fmt"
	"strings"

	"concierge/internal/models"
)

// groundedRestaurantSystemPrompt fixes the output contract for the grounded
// web-search model. Dish queries additionally demand per-item evidence.
func groundedRestaurantSystemPrompt(isDish bool) string {
	base := `You are a NYC restaurant scout with web search. Find currently-open restaurants matching the request.

Respond with a single JSON object and nothing else — no markdown, no citations, no prose:
{
  "results": [
    {
      "name": "...",
      "neighborhood": "...",
      "borough": "...",
      "price_range": "$15-30 per person",
      "what_to_order": ["item", "item"],
      "why": "one sentence",
      "vibe": "short tag"`
	if isDish {
		base += `,
      "dish_match": "exact" | "close" | "cuisine_fallback",
      "evidence_text": "8-30 words quoted from a menu or review that names the dish or a close variant",
      "evidence_url": "https://..."`
	}
	base += `
    }
  ],
  "note": "optional short caveat"
}

Rules:
- price_range is a dollar range string, never dollar-sign glyph counts.
- Every result must have a neighborhood or a borough.`
	if isDish {
		base += `
- "exact" and "close" require evidence_text and evidence_url proving the dish is served.
- Use "cuisine_fallback" only when no proof exists, and declare it in the top-level note.`
	}
	return base
}

// buildGroundedRestaurantPrompt renders the per-call request with the fixed
// filters and the exclude-list of names already shown to this sender.
func buildGroundedRestaurantPrompt(intent *models.Intent, excludeNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find up to 10 restaurants.\n")
	if intent.IsDishQuery() {
		fmt.Fprintf(&b, "Dish: %s\n", intent.Query)
	} else if intent.Query != "" {
		fmt.Fprintf(&b, "Cuisine: %s\n", intent.Query)
	}
	area := intent.Borough
	if intent.Neighborhood != "" {
		area = intent.Neighborhood + ", " + intent.Borough
	}
	if area == "" || area == "any" {
		area = "anywhere in New York City"
	}
	fmt.Fprintf(&b, "Area: %s\n", area)
	if len(intent.Dietary) > 0 {
		fmt.Fprintf(&b, "Dietary: %s\n", strings.Join(intent.Dietary, ", "))
	}
	if intent.Budget != "" && intent.Budget != models.BudgetAny {
		fmt.Fprintf(&b, "Budget: %s\n", intent.Budget)
	}
	if intent.Occasion != "" {
		fmt.Fprintf(&b, "Occasion: %s\n", intent.Occasion)
	}
	if len(excludeNames) > 0 {
		fmt.Fprintf(&b, "Exclude these places (already suggested): %s\n", strings.Join(excludeNames, "; "))
	}
	b.WriteString("\nJSON:")
	return b.String()
}
