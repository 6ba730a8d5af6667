// Package gate implements the constraint-gate dialog state machine: it parks
// a partial query, asks one focused question per turn, merges the user's
// next reply, and resumes search when filters are sufficient.
package gate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"concierge/internal/classify"
	"concierge/internal/llm"
	"concierge/internal/models"
)

// Action tells the engine what to do after a gate step.
type Action int

const (
	// ActionAsk sends Prompt and persists Patch; the gate stays pending.
	ActionAsk Action = iota
	// ActionSearchRestaurant dispatches a restaurant search with Intent.
	ActionSearchRestaurant
	// ActionSearchEvent dispatches an event search with Event.
	ActionSearchEvent
	// ActionReroute drops the gate and re-handles the text as a fresh turn.
	ActionReroute
)

// Outcome is the result of raising a gate or merging a reply.
type Outcome struct {
	Action Action
	Prompt string
	Intent *models.Intent
	Event  *models.EventFilters
	// Patch is the context patch to persist for ActionAsk.
	Patch bson.M
}

// Manager runs gate transitions. The only external call it makes is the
// event-filter extraction model.
type Manager struct {
	model   llm.Generator
	timeout time.Duration
	logger  *slog.Logger

	now func() time.Time
}

// New creates a gate manager. now should return NYC local time; the filter
// extraction prompt states dates in it.
func New(model llm.Generator, timeout time.Duration, logger *slog.Logger, now func() time.Time) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{model: model, timeout: timeout, logger: logger, now: now}
}

// Raise opens a gate for a classified turn whose critical filters are
// incomplete. A RESTAURANT turn with no cuisine/dish opens restaurant_gate;
// with a cuisine but no borough it skips straight to restaurant_preferences.
// An EVENT turn missing date or borough opens event_gate.
func (m *Manager) Raise(res classify.Result, text string) Outcome {
	switch res.Type {
	case classify.TypeRestaurant:
		pending := models.PendingRestaurantGate
		if res.Intent != nil && res.Intent.Query != "" {
			pending = models.PendingRestaurantPreferences
		}
		return Outcome{
			Action: ActionAsk,
			Prompt: res.FilterPrompt,
			Patch: bson.M{
				"pendingType":   pending,
				"pendingQuery":  text,
				"pendingIntent": res.Intent,
				"pendingEvent":  nil,
			},
		}
	case classify.TypeEvent:
		return Outcome{
			Action: ActionAsk,
			Prompt: res.FilterPrompt,
			Patch: bson.M{
				"pendingType":   models.PendingEventGate,
				"pendingQuery":  text,
				"pendingIntent": nil,
				"pendingEvent":  res.Event,
			},
		}
	}
	return Outcome{Action: ActionReroute}
}

// HandleReply merges the user's reply into the pending gate and either asks
// the next question, dispatches a search, or reroutes the turn.
func (m *Manager) HandleReply(ctx context.Context, c *models.Context, text string) Outcome {
	switch c.PendingType {
	case models.PendingRestaurantGate:
		return m.restaurantGateReply(c, text)
	case models.PendingRestaurantPreferences:
		return m.preferencesReply(c, text)
	case models.PendingEventGate:
		return m.eventGateReply(ctx, c, text)
	}
	return Outcome{Action: ActionReroute}
}

// restaurantGateReply expects a cuisine or dish. An unambiguous event intent
// escapes the gate so a topic change is never trapped inside a food question.
func (m *Manager) restaurantGateReply(c *models.Context, text string) Outcome {
	if isEventEscape(text) {
		return Outcome{Action: ActionReroute}
	}

	cuisine := ParseCuisine(text)
	if cuisine == "" {
		return Outcome{
			Action: ActionAsk,
			Prompt: "I need something a bit more specific — a dish or cuisine. e.g. \"ramen\", \"tacos\", \"italian\"",
			Patch:  bson.M{},
		}
	}

	intent := c.PendingIntent
	if intent == nil {
		intent = &models.Intent{Kind: models.IntentCuisine}
	}
	intent.Query = cuisine
	if isLikelyDish(cuisine) {
		intent.Kind = models.IntentDish
	} else if intent.Kind == models.IntentVague || intent.Kind == "" {
		intent.Kind = models.IntentCuisine
	}

	// The reply may carry the borough too ("sushi in brooklyn").
	mergeReplyDetails(intent, text)
	if intent.Borough != "" {
		return dispatchRestaurant(intent)
	}

	return Outcome{
		Action: ActionAsk,
		Prompt: "📍 Where: Manhattan, Brooklyn, Queens, Bronx, Staten Island, or 'all NYC'?",
		Patch: bson.M{
			"pendingType":   models.PendingRestaurantPreferences,
			"pendingIntent": intent,
		},
	}
}

// preferencesReply expects a borough (or an "anywhere"/"search" skip) plus
// optional budget and vibe, parsed from plain text.
func (m *Manager) preferencesReply(c *models.Context, text string) Outcome {
	if isEventEscape(text) {
		return Outcome{Action: ActionReroute}
	}

	intent := c.PendingIntent
	if intent == nil {
		intent = &models.Intent{Kind: models.IntentVague}
	}
	mergeReplyDetails(intent, text)

	if intent.Borough == "" && isSkipWord(text) {
		intent.Borough = "any"
	}
	if intent.Borough == "" {
		return Outcome{
			Action: ActionAsk,
			Prompt: "📍 Which borough? Manhattan, Brooklyn, Queens, Bronx, Staten Island — or say 'anywhere'.",
			Patch:  bson.M{},
		}
	}
	return dispatchRestaurant(intent)
}

func dispatchRestaurant(intent *models.Intent) Outcome {
	if intent.Budget == "" {
		intent.Budget = models.BudgetAny
	}
	return Outcome{Action: ActionSearchRestaurant, Intent: intent}
}

// eventGateReply parses the reply with the event-filter extraction model.
// Any newly parsed filter (or the "search" skip token) dispatches; nothing
// parsed clears the gate and reroutes the message as a new turn.
func (m *Manager) eventGateReply(ctx context.Context, c *models.Context, text string) Outcome {
	filters := c.PendingEvent
	if filters == nil {
		filters = &models.EventFilters{}
	}

	if isSkipWord(text) {
		return Outcome{Action: ActionSearchEvent, Event: filters}
	}

	parsed, err := m.extractEventFilters(ctx, text)
	if err != nil {
		m.logger.Warn("event filter extraction failed", "error", err)
		parsed = nil
	}
	if parsed == nil || !mergeEventFilters(filters, parsed) {
		return Outcome{Action: ActionReroute}
	}
	return Outcome{Action: ActionSearchEvent, Event: filters}
}

// mergeEventFilters copies newly present fields of src onto dst, reporting
// whether anything new was merged.
func mergeEventFilters(dst, src *models.EventFilters) bool {
	merged := false
	if src.Date.Kind != "" && src.Date.Kind != models.DateAny {
		dst.Date = src.Date
		merged = true
	}
	if src.Borough != "" {
		dst.Borough = src.Borough
		merged = true
	}
	if src.Price != "" {
		dst.Price = src.Price
		merged = true
	}
	if src.Category != "" {
		dst.Category = src.Category
		merged = true
	}
	if src.SearchTerm != "" {
		dst.SearchTerm = src.SearchTerm
		merged = true
	}
	return merged
}

// isSkipWord matches the explicit "just search" tokens.
func isSkipWord(text string) bool {
	t := strings.ToLower(strings.TrimSpace(strings.Trim(text, ".!?")))
	switch t {
	case "search", "anywhere", "surprise me", "whatever", "anything", "all nyc":
		return true
	}
	return false
}
