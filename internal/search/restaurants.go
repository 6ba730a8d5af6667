// Package search implements the restaurant and event search back-ends:
// local document-store tiers with grounded-web fallbacks, result validation,
// and per-sender web-search quotas.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"concierge/internal/llm"
	"concierge/internal/models"
	"concierge/internal/quota"
	"concierge/internal/store"
)

// ErrQuotaExceeded signals that the sender's daily grounded-search budget is
// spent and no local alternative produced results.
var ErrQuotaExceeded = errors.New("web search quota exceeded")

// poolLimit caps the validated list persisted as the paging pool.
const poolLimit = 20

// Restaurants runs the two-tier restaurant pipeline.
type Restaurants struct {
	store   *store.Store
	search  llm.Generator
	quotas  *quota.Tracker
	timeout time.Duration
	logger  *slog.Logger
}

// NewRestaurants creates the restaurant searcher. search is the grounded
// web-search model; quotas may be nil to disable budgeting.
func NewRestaurants(st *store.Store, search llm.Generator, quotas *quota.Tracker, timeout time.Duration, logger *slog.Logger) *Restaurants {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Restaurants{store: st, search: search, quotas: quotas, timeout: timeout, logger: logger}
}

// Search executes the pipeline: local structured query first, grounded-web
// fallback on zero hits. Returns the validated candidate list (pool order)
// and an optional note for the formatter to surface.
func (r *Restaurants) Search(ctx context.Context, senderID string, intent *models.Intent, excludeKeys, excludeNames []string) ([]models.RestaurantCandidate, string, error) {
	exclude := make(map[string]bool, len(excludeKeys))
	for _, k := range excludeKeys {
		exclude[k] = true
	}

	local, err := r.localTier(ctx, intent, exclude)
	if err != nil {
		r.logger.Warn("local restaurant tier failed, falling through to grounded search", "error", err)
	}
	if len(local) > 0 {
		return local, "", nil
	}

	if r.quotas != nil && !r.quotas.Allow(senderID, quota.KindWebSearch) {
		r.logger.Info("web search quota exhausted", "sender", senderID)
		return nil, "", ErrQuotaExceeded
	}

	return r.groundedTier(ctx, intent, exclude, excludeNames)
}

// localTier maps document-store rows into candidates, excluding shown keys.
func (r *Restaurants) localTier(ctx context.Context, intent *models.Intent, exclude map[string]bool) ([]models.RestaurantCandidate, error) {
	rows, err := r.store.QueryRestaurants(ctx, intent.Query, intent.Borough)
	if err != nil {
		return nil, err
	}

	out := make([]models.RestaurantCandidate, 0, len(rows))
	for _, row := range rows {
		c := models.RestaurantCandidate{
			Name:         row.Name,
			Neighborhood: row.Neighborhood,
			Borough:      row.Borough,
			PriceRange:   row.PriceRange,
			WhatToOrder:  row.KnownFor,
			Vibe:         row.Vibe,
			Why:          localWhy(row),
		}
		c.DedupeKey = models.DedupeKey(c.Name, c.Neighborhood, c.Borough)
		if exclude[c.DedupeKey] {
			continue
		}
		out = append(out, c)
		if len(out) == poolLimit {
			break
		}
	}
	return out, nil
}

func localWhy(row models.Restaurant) string {
	if row.Rating > 0 && row.RatingCount > 0 {
		return fmt.Sprintf("Rated %.1f by %d locals.", row.Rating, row.RatingCount)
	}
	return "A neighborhood standby."
}

// groundedItem mirrors the per-item JSON shape the grounded model returns.
type groundedItem struct {
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Borough      string   `json:"borough"`
	PriceRange   string   `json:"price_range"`
	WhatToOrder  []string `json:"what_to_order"`
	Why          string   `json:"why"`
	Vibe         string   `json:"vibe"`
	DishMatch    string   `json:"dish_match"`
	EvidenceText string   `json:"evidence_text"`
	EvidenceURL  string   `json:"evidence_url"`
}

func (g groundedItem) candidate() models.RestaurantCandidate {
	return models.RestaurantCandidate{
		Name:         g.Name,
		Neighborhood: g.Neighborhood,
		Borough:      g.Borough,
		PriceRange:   g.PriceRange,
		WhatToOrder:  g.WhatToOrder,
		Why:          g.Why,
		Vibe:         g.Vibe,
		DishMatch:    g.DishMatch,
		EvidenceText: g.EvidenceText,
		EvidenceURL:  g.EvidenceURL,
	}
}

// groundedTier issues one grounded web-search call and validates the result.
func (r *Restaurants) groundedTier(ctx context.Context, intent *models.Intent, exclude map[string]bool, excludeNames []string) ([]models.RestaurantCandidate, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.search.GenerateWithSystem(callCtx,
		groundedRestaurantSystemPrompt(intent.IsDishQuery()),
		buildGroundedRestaurantPrompt(intent, excludeNames),
	)
	if err != nil {
		return nil, "", fmt.Errorf("grounded restaurant search: %w", err)
	}

	items, note, err := parseGroundedResponse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("grounded restaurant search: %w", err)
	}

	valid := validateCandidates(items, intent.Query, intent.IsDishQuery(), exclude)
	if len(valid) > poolLimit {
		valid = valid[:poolLimit]
	}
	// A surviving cuisine-fallback item must always carry a disclaimer, even
	// when the model forgot the top-level note.
	if intent.IsDishQuery() && note == "" && hasCuisineFallback(valid) {
		note = cuisineFallbackNote
	}
	// All grounded candidates failing dish evidence is a SearchEmpty, not an
	// error: the caller routes it through the low-results branch.
	return valid, note, nil
}

// cuisineFallbackNote leads the reply when fallback items surface without a
// model-written disclaimer.
const cuisineFallbackNote = "Heads up: I couldn't confirm the exact dish everywhere, so some of these are just solid picks for the cuisine."

func hasCuisineFallback(items []models.RestaurantCandidate) bool {
	for _, item := range items {
		if item.DishMatch == models.DishMatchCuisineFallback {
			return true
		}
	}
	return false
}

// parseGroundedResponse decodes the model's JSON object, falling back to the
// truncation-repair scanner when top-level parsing fails.
func parseGroundedResponse(raw string) ([]models.RestaurantCandidate, string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var envelope struct {
		Results []groundedItem `json:"results"`
		Note    string         `json:"note"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err == nil {
		return itemsToCandidates(envelope.Results), envelope.Note, nil
	}

	rawObjects, truncated := repairResults(s)
	if len(rawObjects) == 0 {
		return nil, "", fmt.Errorf("unparseable response")
	}
	var items []groundedItem
	for _, ro := range rawObjects {
		var item groundedItem
		if err := json.Unmarshal(ro, &item); err == nil {
			items = append(items, item)
		}
	}
	note := ""
	if truncated {
		note = "Some results may have been cut off."
	}
	return itemsToCandidates(items), note, nil
}

func itemsToCandidates(items []groundedItem) []models.RestaurantCandidate {
	out := make([]models.RestaurantCandidate, 0, len(items))
	for _, item := range items {
		out = append(out, item.candidate())
	}
	return out
}
