package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"concierge/internal/models"
)

const extractSystemPrompt = `You extract event search filters from a short chat reply.
Respond with a single JSON object and nothing else:
{
  "date": {"kind": "today"|"tomorrow"|"weekend"|"this_week"|"next_week"|"specific"|"range"|"month", "date": "yyyy-mm-dd", "start": "yyyy-mm-dd", "end": "yyyy-mm-dd"} or null,
  "borough": "Manhattan"|"Brooklyn"|"Queens"|"Bronx"|"Staten Island"|"any"|null,
  "price": "free"|"budget"|null,
  "category": string or null,
  "search_term": string or null
}
Return null for every field the reply does not mention. Do not guess.`

// extractEventFilters asks the extraction model to parse date/borough/price
// from a gate reply.
func (m *Manager) extractEventFilters(ctx context.Context, text string) (*models.EventFilters, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	user := fmt.Sprintf("Today is %s (%s), New York local time.\nReply: %q\n\nJSON:",
		m.now().Format("2006-01-02"), m.now().Format("Monday"), text)

	raw, err := m.model.GenerateWithSystem(callCtx, extractSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("extract event filters: %w", err)
	}

	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var parsed struct {
		Date *struct {
			Kind  string `json:"kind"`
			Date  string `json:"date"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"date"`
		Borough    string `json:"borough"`
		Price      string `json:"price"`
		Category   string `json:"category"`
		SearchTerm string `json:"search_term"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction: %w", err)
	}

	f := &models.EventFilters{
		Borough:    models.NormalizeBorough(parsed.Borough),
		Price:      parsed.Price,
		Category:   strings.ToLower(parsed.Category),
		SearchTerm: parsed.SearchTerm,
	}
	if parsed.Date != nil && parsed.Date.Kind != "" {
		f.Date = models.EventDate{
			Kind:  models.EventDateKind(parsed.Date.Kind),
			Date:  parsed.Date.Date,
			Start: parsed.Date.Start,
			End:   parsed.Date.End,
		}
	}
	return f, nil
}
