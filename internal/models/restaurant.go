package models

import "strings"

// Dish match levels reported by the grounded-web tier. Internal only.
const (
	DishMatchExact           = "exact"
	DishMatchClose           = "close"
	DishMatchCuisineFallback = "cuisine_fallback"
)

// RestaurantCandidate is a single restaurant result. The underscore-prefixed
// JSON fields mirror the grounded-web response shape; they are internal and
// must never appear in user output (the formatter only reads the public ones).
type RestaurantCandidate struct {
	Name         string   `bson:"name" json:"name"`
	Neighborhood string   `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	Borough      string   `bson:"borough,omitempty" json:"borough,omitempty"`
	PriceRange   string   `bson:"price_range,omitempty" json:"price_range,omitempty"`
	WhatToOrder  []string `bson:"what_to_order,omitempty" json:"what_to_order,omitempty"`
	Why          string   `bson:"why,omitempty" json:"why,omitempty"`
	Vibe         string   `bson:"vibe,omitempty" json:"vibe,omitempty"`
	DedupeKey    string   `bson:"dedupeKey,omitempty" json:"dedupeKey,omitempty"`

	DishMatch    string `bson:"_dish_match,omitempty" json:"_dish_match,omitempty"`
	EvidenceText string `bson:"_evidence_text,omitempty" json:"_evidence_text,omitempty"`
	EvidenceURL  string `bson:"_evidence_url,omitempty" json:"_evidence_url,omitempty"`
}

// Restaurant is a stored document in the pre-indexed restaurants collection.
type Restaurant struct {
	Name         string  `bson:"name" json:"name"`
	Cuisine      string  `bson:"cuisine,omitempty" json:"cuisine,omitempty"`
	Address      string  `bson:"address,omitempty" json:"address,omitempty"`
	Neighborhood string  `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	Borough      string  `bson:"borough,omitempty" json:"borough,omitempty"`
	PriceRange   string  `bson:"price_range,omitempty" json:"price_range,omitempty"`
	Rating       float64 `bson:"rating,omitempty" json:"rating,omitempty"`
	RatingCount  int     `bson:"rating_count,omitempty" json:"rating_count,omitempty"`
	KnownFor     []string `bson:"known_for,omitempty" json:"known_for,omitempty"`
	Vibe         string  `bson:"vibe,omitempty" json:"vibe,omitempty"`
}

// DedupeKey builds the normalized fingerprint used to detect already-shown
// restaurants: normalize(name) + "|" + normalize(neighborhood or borough).
func DedupeKey(name, neighborhood, borough string) string {
	area := neighborhood
	if area == "" {
		area = borough
	}
	return normalizeKey(name) + "|" + normalizeKey(area)
}

// normalizeKey lowercases and strips everything non-alphanumeric.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
