package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/models"
	"concierge/internal/search"
)

func sampleCandidates(n int) []models.RestaurantCandidate {
	out := make([]models.RestaurantCandidate, n)
	for i := range out {
		out[i] = models.RestaurantCandidate{
			Name:         "Place " + string(rune('A'+i)),
			Neighborhood: "Greenpoint",
			Borough:      "Brooklyn",
			PriceRange:   "$15-30 per person",
			WhatToOrder:  []string{"the special"},
			Why:          "Locals swear by it.",
			Vibe:         "casual",
		}
	}
	return out
}

func TestRestaurantPage(t *testing.T) {
	pool := sampleCandidates(12)
	assert.Len(t, RestaurantPage(pool, 0), 5)
	assert.Len(t, RestaurantPage(pool, 1), 5)
	assert.Len(t, RestaurantPage(pool, 2), 2)
	assert.Nil(t, RestaurantPage(pool, 3))
	assert.Equal(t, "Place F", RestaurantPage(pool, 1)[0].Name)
}

func TestRenderRestaurantsCardShape(t *testing.T) {
	got := RenderRestaurants(sampleCandidates(2), true, "")
	assert.Contains(t, got, "1. PLACE A")
	assert.Contains(t, got, "📍 Greenpoint, Brooklyn")
	assert.Contains(t, got, "💰 $15-30 per person · casual")
	assert.Contains(t, got, "🍽️ the special")
	assert.Contains(t, got, "💡 Locals swear by it.")
	assert.True(t, strings.HasSuffix(got, MoreTrailer))
	assert.LessOrEqual(t, len(got), MaxReplyLen)
}

func TestRenderRestaurantsExhaustedTrailer(t *testing.T) {
	got := RenderRestaurants(sampleCandidates(1), false, "")
	assert.True(t, strings.HasSuffix(got, ExhaustedTrailer))
}

func TestRenderRestaurantsNoteLeads(t *testing.T) {
	got := RenderRestaurants(sampleCandidates(1), false, "Some results may have been cut off.")
	assert.True(t, strings.HasPrefix(got, "Some results may have been cut off."))
}

func TestRenderRestaurantsNeverLeaksEvidence(t *testing.T) {
	batch := sampleCandidates(1)
	batch[0].DishMatch = models.DishMatchExact
	batch[0].EvidenceText = "secret menu quote"
	batch[0].EvidenceURL = "https://example.com/menu"
	got := RenderRestaurants(batch, false, "")
	assert.NotContains(t, got, "secret menu quote")
	assert.NotContains(t, got, "https://")
}

func TestRenderRestaurantsStaysUnderLimit(t *testing.T) {
	batch := sampleCandidates(5)
	for i := range batch {
		batch[i].Why = strings.Repeat("A very long reason indeed. ", 10)
	}
	got := RenderRestaurants(batch, true, "")
	assert.LessOrEqual(t, len(got), MaxReplyLen)
	assert.True(t, strings.HasSuffix(got, MoreTrailer))
}

func TestRenderEvents(t *testing.T) {
	items := []models.EventCandidate{
		{EventName: "Jazz at Smalls", StartDateTime: "2024-06-15T19:30",
			EventLocation: "Smalls Jazz Club", EventBorough: "Manhattan", Price: "$25"},
		{EventName: "Brooklyn Flea", StartDateTime: "2024-06-15T10:00",
			EventBorough: "Brooklyn", Price: "free"},
	}
	got := RenderEvents(items, false)
	assert.Contains(t, got, "1. JAZZ AT SMALLS — 2024-06-15 19:30 — Smalls Jazz Club, Manhattan — $25")
	assert.Contains(t, got, "2. BROOKLYN FLEA")
	assert.True(t, strings.HasSuffix(got, ExhaustedTrailer))
	assert.LessOrEqual(t, len(got), MaxReplyLen)
}

func TestRenderSpotlight(t *testing.T) {
	got := RenderSpotlight(&search.Dossier{
		Found: true, Name: "Lucali", Neighborhood: "Carroll Gardens",
		Borough: "Brooklyn", Cuisine: "pizza", PriceRange: "$20-40 per person",
		Vibe: "candlelit byob", KnownFor: []string{"calzone"},
		Tips: "cash only", WhyGood: "Legendary thin crust.",
	})
	assert.True(t, strings.HasPrefix(got, "LUCALI"))
	assert.Contains(t, got, "📍 Carroll Gardens, Brooklyn")
	assert.Contains(t, got, "ℹ️ cash only")
	assert.LessOrEqual(t, len(got), MaxReplyLen)
}

func TestRenderSpotlightNotFound(t *testing.T) {
	assert.Contains(t, RenderSpotlight(&search.Dossier{Found: false}), "couldn't find")
	assert.Contains(t, RenderSpotlight(nil), "couldn't find")
}

func TestTruncate(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, Truncate(short))

	long := strings.Repeat("line of some length here\n", 100)
	got := Truncate(long)
	require.LessOrEqual(t, len(got), MaxReplyLen)
	assert.True(t, strings.HasSuffix(got, "…"))
}
