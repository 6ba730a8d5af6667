package search

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// spotlightRes are the question shapes that trigger a single-restaurant
// dossier lookup instead of the normal pipeline.
var spotlightRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^why not (.+?)[?!. ]*$`),
	regexp.MustCompile(`(?i)^what about (.+?)[?!. ]*$`),
	regexp.MustCompile(`(?i)^how is (.+?)[?!. ]*$`),
	regexp.MustCompile(`(?i)^is (.+?) good[?!. ]*$`),
	regexp.MustCompile(`(?i)^tell me about (.+?)[?!. ]*$`),
	regexp.MustCompile(`(?i)^how about (.+?)[?!. ]*$`),
	regexp.MustCompile(`(?i)^have you heard of (.+?)[?!. ]*$`),
}

// trivial names that should not trigger a spotlight.
var trivialSpotlight = map[string]bool{
	"it": true, "that": true, "this": true, "them": true, "you": true,
	"food": true, "pizza": true, "sushi": true, "something else": true,
}

// MatchSpotlight extracts the restaurant name from a spotlight-style
// question, or returns ok=false.
func MatchSpotlight(text string) (name string, ok bool) {
	t := strings.TrimSpace(text)
	for _, re := range spotlightRes {
		if m := re.FindStringSubmatch(t); m != nil {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) < 3 || trivialSpotlight[strings.ToLower(candidate)] {
				return "", false
			}
			return candidate, true
		}
	}
	return "", false
}

// Dossier is the short single-restaurant profile returned by a spotlight
// lookup. Spotlight results are never paginated.
type Dossier struct {
	Found        bool     `json:"found"`
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Borough      string   `json:"borough"`
	Cuisine      string   `json:"cuisine"`
	PriceRange   string   `json:"price_range"`
	Vibe         string   `json:"vibe"`
	KnownFor     []string `json:"known_for"`
	Tips         string   `json:"tips"`
	WhyGood      string   `json:"why_good"`
}

const spotlightSystemPrompt = `You are a NYC restaurant scout with web search. The user asks about one specific restaurant.
Respond with a single JSON object and nothing else:
{"found": true|false, "name": "...", "neighborhood": "...", "borough": "...", "cuisine": "...", "price_range": "$...", "vibe": "...", "known_for": ["..."], "tips": "...", "why_good": "one sentence"}
Set found=false if you cannot identify the place in NYC.`

// Spotlight looks up a dossier for one named restaurant.
func (r *Restaurants) Spotlight(ctx context.Context, name string) (*Dossier, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.search.GenerateWithSystem(callCtx, spotlightSystemPrompt,
		fmt.Sprintf("Restaurant: %q (New York City)\n\nJSON:", name))
	if err != nil {
		return nil, fmt.Errorf("spotlight lookup: %w", err)
	}

	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var d Dossier
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &d); err != nil {
		return nil, fmt.Errorf("parse spotlight: %w", err)
	}
	return &d, nil
}
