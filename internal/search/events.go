package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"concierge/internal/categories"
	"concierge/internal/llm"
	"concierge/internal/models"
	"concierge/internal/quota"
	"concierge/internal/store"
)

// minLocalHits is the tier escalation threshold: while a tier yields fewer
// distinct events than this, the next tier runs and the results are unioned.
const minLocalHits = 5

// EventResult carries either structured local candidates or pre-formatted
// web-fallback text, never both.
type EventResult struct {
	Items        []models.EventCandidate
	FallbackText string
	Note         string
}

// EventStore is the slice of the document store the event tiers query.
type EventStore interface {
	TextSearchEvents(ctx context.Context, term string, q store.EventQuery) ([]models.Event, error)
	RegexSearchEvents(ctx context.Context, terms []string, q store.EventQuery) ([]models.Event, error)
}

var _ EventStore = (*store.Store)(nil)

// Events runs the tiered event search over the local events collection with
// a grounded-web fallback.
type Events struct {
	store      EventStore
	search     llm.Generator
	categories categories.Map
	quotas     *quota.Tracker
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewEvents creates the event searcher. now should return NYC local time.
func NewEvents(st EventStore, search llm.Generator, cats categories.Map, quotas *quota.Tracker, timeout time.Duration, logger *slog.Logger, now func() time.Time) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Events{store: st, search: search, categories: cats, quotas: quotas, timeout: timeout, logger: logger, now: now}
}

// genericEventWords are stripped from search terms before any text query.
// Left in, they match everything and drown real signal.
var genericEventWords = map[string]bool{
	"event": true, "events": true, "thing": true, "things": true,
	"stuff": true, "something": true, "anything": true, "activities": true,
	"activity": true, "happening": true, "going": true, "fun": true,
	"cool": true, "nyc": true, "city": true, "free": true, "cheap": true,
	"this": true, "weekend": true, "week": true, "today": true,
	"tomorrow": true, "tonight": true, "find": true, "show": true,
	"what": true, "whats": true, "are": true, "there": true, "any": true,
	"the": true, "for": true, "and": true, "near": true, "around": true,
	"some": true, "good": true, "best": true, "ideas": true, "to": true,
	"do": true, "in": true, "me": true, "on": true,
}

// cleanSearchTerm drops generic filler tokens, keeping only words that can
// discriminate events.
func cleanSearchTerm(term string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.ToLower(term)) {
		tok = strings.Trim(tok, ".,!?'\"")
		if len(tok) < 3 || genericEventWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Search runs the local tiers, then falls back to grounded web search when
// nothing local matches. excludeIDs holds the event ids already shown to this
// sender; it is only passed on follow-up turns.
func (e *Events) Search(ctx context.Context, senderID string, filters *models.EventFilters, excludeIDs []string) (*EventResult, error) {
	q := TranslateDate(filters.Date, e.now())
	q.Borough = models.NormalizeBorough(filters.Borough)
	q.FreeOnly = filters.Price == models.PriceFree

	items, err := e.localTiers(ctx, filters, q, excludeIDs)
	if err != nil {
		e.logger.Warn("local event tiers failed, falling through to web", "error", err)
	}
	if len(items) > 0 {
		return &EventResult{Items: items}, nil
	}

	if e.quotas != nil && !e.quotas.Allow(senderID, quota.KindWebSearch) {
		e.logger.Info("web search quota exhausted", "sender", senderID)
		return nil, ErrQuotaExceeded
	}

	text, err := e.webFallback(ctx, filters)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return &EventResult{}, nil
	}
	return &EventResult{FallbackText: text}, nil
}

// localTiers unions progressively looser queries until minLocalHits distinct
// events accumulate or the tiers run out.
func (e *Events) localTiers(ctx context.Context, filters *models.EventFilters, q store.EventQuery, excludeIDs []string) ([]models.EventCandidate, error) {
	exclude := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = true
	}
	seen := make(map[string]bool)
	var out []models.EventCandidate

	add := func(rows []models.Event) {
		for _, row := range rows {
			if row.EventID == "" || seen[row.EventID] || exclude[row.EventID] {
				continue
			}
			seen[row.EventID] = true
			out = append(out, row.EventCandidate)
		}
	}

	term := cleanSearchTerm(filters.SearchTerm)
	var firstErr error

	if term != "" {
		rows, err := e.store.TextSearchEvents(ctx, term, q)
		if err != nil {
			firstErr = err
		}
		add(rows)
	}

	if len(out) < minLocalHits && term != "" {
		rows, err := e.store.RegexSearchEvents(ctx, strings.Fields(term), q)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		add(rows)
	}

	if len(out) < minLocalHits && filters.Category != "" && e.categories != nil {
		if terms := e.categories.KeywordsFor(filters.Category); len(terms) > 0 {
			rows, err := e.store.RegexSearchEvents(ctx, terms, q)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			add(rows)
		}
	}
	// With neither term nor category no tier runs: an unconstrained
	// date/borough query would pad the reply with arbitrary events.

	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

const eventWebSystemPrompt = `You are a NYC events scout with web search. Find real, currently-listed events matching the request.
Reply with a numbered list only, each entry exactly in this shape:
1. [Event Name]
🕓 [Date and Time]
📍 [Venue/Location]
💰 [Price]
🔗 [Source Name]: [Direct URL]
At most 5 events. No preamble, no closing remarks, no markdown. The 🔗 URL must be the event page itself, never a search or redirect link. Only list events you actually found; if none, reply exactly: NONE`

// webFallback asks the grounded model for a short numbered list and cleans
// the response into sendable text.
func (e *Events) webFallback(ctx context.Context, filters *models.EventFilters) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.search.GenerateWithSystem(callCtx, eventWebSystemPrompt, buildEventWebPrompt(filters, e.now()))
	if err != nil {
		return "", fmt.Errorf("grounded event search: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(raw), "NONE") {
		return "", nil
	}
	return cleanEventFallback(raw), nil
}

func buildEventWebPrompt(filters *models.EventFilters, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\nFind events in New York City.\n", now.Format("Monday, January 2, 2006"))
	if filters.Date.Kind != "" && filters.Date.Kind != models.DateAny {
		q := TranslateDate(filters.Date, now)
		switch {
		case q.DatePrefix != "":
			fmt.Fprintf(&b, "Date: %s\n", q.DatePrefix)
		case q.DateStart != "" && q.DateEnd != "":
			fmt.Fprintf(&b, "Dates: %s through %s\n", q.DateStart, q.DateEnd)
		}
	}
	if filters.Borough != "" && filters.Borough != "any" {
		fmt.Fprintf(&b, "Borough: %s\n", filters.Borough)
	}
	if filters.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", filters.Category)
	}
	if filters.Price == models.PriceFree {
		b.WriteString("Free events only.\n")
	}
	if filters.SearchTerm != "" {
		fmt.Fprintf(&b, "Looking for: %s\n", filters.SearchTerm)
	}
	return b.String()
}
