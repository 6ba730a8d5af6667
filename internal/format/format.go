// Package format renders search results into messenger-sized replies. Every
// render obeys the hard reply limit and never includes URLs; evidence links
// stay internal.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"concierge/internal/models"
	"concierge/internal/search"
)

// MaxReplyLen is the hard cap on an outbound message body.
const MaxReplyLen = 1000

// PageSize is how many restaurants one page shows.
const PageSize = 5

// Trailers appended under result lists.
const (
	MoreTrailer      = `Reply "more" for different options.`
	ExhaustedTrailer = "That's all I have for this search."
)

// RestaurantPage slices the pool for a given page. Page 0 is the first batch.
func RestaurantPage(pool []models.RestaurantCandidate, page int) []models.RestaurantCandidate {
	start := page * PageSize
	if start >= len(pool) {
		return nil
	}
	end := start + PageSize
	if end > len(pool) {
		end = len(pool)
	}
	return pool[start:end]
}

// RenderRestaurants formats a batch into the numbered card list. hasMore
// picks the trailer; note, when present, leads the reply. Entries that would
// push the reply past the limit are dropped rather than cut mid-card.
func RenderRestaurants(batch []models.RestaurantCandidate, hasMore bool, note string) string {
	trailer := ExhaustedTrailer
	if hasMore {
		trailer = MoreTrailer
	}

	var b strings.Builder
	if note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	budget := MaxReplyLen - len(trailer) - 2
	for i, item := range batch {
		card := renderCard(i+1, search.Sanitize(item))
		if b.Len()+len(card)+1 > budget {
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(card)
	}

	b.WriteString("\n\n")
	b.WriteString(trailer)
	return Truncate(b.String())
}

func renderCard(n int, item models.RestaurantCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s\n", n, strings.ToUpper(item.Name))

	switch {
	case item.Neighborhood != "" && item.Borough != "":
		fmt.Fprintf(&b, "📍 %s, %s\n", item.Neighborhood, item.Borough)
	case item.Neighborhood != "":
		fmt.Fprintf(&b, "📍 %s\n", item.Neighborhood)
	case item.Borough != "":
		fmt.Fprintf(&b, "📍 %s\n", item.Borough)
	}

	switch {
	case item.PriceRange != "" && item.Vibe != "":
		fmt.Fprintf(&b, "💰 %s · %s\n", item.PriceRange, item.Vibe)
	case item.PriceRange != "":
		fmt.Fprintf(&b, "💰 %s\n", item.PriceRange)
	case item.Vibe != "":
		fmt.Fprintf(&b, "💰 %s\n", item.Vibe)
	}

	if len(item.WhatToOrder) > 0 {
		fmt.Fprintf(&b, "🍽️ %s\n", strings.Join(item.WhatToOrder, ", "))
	}
	if item.Why != "" {
		fmt.Fprintf(&b, "💡 %s\n", item.Why)
	}
	return b.String()
}

// RenderEvents formats local event candidates as a compact numbered list.
func RenderEvents(items []models.EventCandidate, hasMore bool) string {
	trailer := ExhaustedTrailer
	if hasMore {
		trailer = MoreTrailer
	}

	var b strings.Builder
	budget := MaxReplyLen - len(trailer) - 2
	n := 0
	for _, item := range items {
		line := renderEventLine(n+1, item)
		if b.Len()+len(line)+1 > budget {
			break
		}
		if n > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
		n++
	}

	b.WriteString("\n\n")
	b.WriteString(trailer)
	return Truncate(b.String())
}

func renderEventLine(n int, item models.EventCandidate) string {
	var parts []string
	parts = append(parts, strings.ToUpper(item.EventName))
	if item.StartDateTime != "" {
		parts = append(parts, humanDateTime(item.StartDateTime))
	}
	loc := item.EventLocation
	if loc == "" {
		loc = item.EventBorough
	} else if item.EventBorough != "" && !strings.Contains(strings.ToLower(loc), strings.ToLower(item.EventBorough)) {
		loc += ", " + item.EventBorough
	}
	if loc != "" {
		parts = append(parts, loc)
	}
	if item.Price != "" {
		parts = append(parts, item.Price)
	}
	return fmt.Sprintf("%d. %s", n, strings.Join(parts, " — "))
}

// humanDateTime shortens an ISO-local timestamp for display. Unparseable
// values pass through untouched.
func humanDateTime(iso string) string {
	if len(iso) >= 16 && iso[10] == 'T' {
		return iso[:10] + " " + iso[11:16]
	}
	return iso
}

// RenderSpotlight formats a single-restaurant dossier.
func RenderSpotlight(d *search.Dossier) string {
	if d == nil || !d.Found {
		return "I couldn't find that spot. Got the name right?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", strings.ToUpper(d.Name))
	switch {
	case d.Neighborhood != "" && d.Borough != "":
		fmt.Fprintf(&b, "📍 %s, %s\n", d.Neighborhood, d.Borough)
	case d.Borough != "":
		fmt.Fprintf(&b, "📍 %s\n", d.Borough)
	}
	if d.Cuisine != "" {
		fmt.Fprintf(&b, "🍴 %s\n", d.Cuisine)
	}
	switch {
	case d.PriceRange != "" && d.Vibe != "":
		fmt.Fprintf(&b, "💰 %s · %s\n", d.PriceRange, d.Vibe)
	case d.PriceRange != "":
		fmt.Fprintf(&b, "💰 %s\n", d.PriceRange)
	}
	if len(d.KnownFor) > 0 {
		fmt.Fprintf(&b, "🍽️ %s\n", strings.Join(d.KnownFor, ", "))
	}
	if d.WhyGood != "" {
		fmt.Fprintf(&b, "💡 %s\n", d.WhyGood)
	}
	if d.Tips != "" {
		fmt.Fprintf(&b, "ℹ️ %s\n", d.Tips)
	}
	return Truncate(strings.TrimRight(b.String(), "\n"))
}

// RenderEventFallback wraps pre-formatted web-fallback text, which arrives
// already cleaned and numbered.
func RenderEventFallback(text string) string {
	return Truncate(strings.TrimSpace(text))
}

// Truncate enforces the hard reply limit, cutting at the last line break
// before the cap when possible and appending an ellipsis.
func Truncate(s string) string {
	if len(s) <= MaxReplyLen {
		return s
	}
	// Reserve room for the ellipsis and avoid splitting a rune.
	limit := MaxReplyLen - len("…")
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	cut := s[:limit]
	if idx := strings.LastIndexByte(cut, '\n'); idx > MaxReplyLen/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, "\n ") + "…"
}
