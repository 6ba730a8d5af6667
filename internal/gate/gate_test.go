package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/classify"
	"concierge/internal/models"
)

type stubModel struct {
	response string
	err      error
}

func (s *stubModel) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	return s.response, s.err
}

func newManager(m *stubModel) *Manager {
	return New(m, time.Second, nil,
		func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local) })
}

func TestRaiseRestaurantGateVariants(t *testing.T) {
	mgr := newManager(&stubModel{})

	// No cuisine at all: restaurant_gate.
	out := mgr.Raise(classify.Result{
		Type:         classify.TypeRestaurant,
		Intent:       &models.Intent{Kind: models.IntentVague},
		FilterPrompt: "what food?",
	}, "somewhere good")
	assert.Equal(t, ActionAsk, out.Action)
	assert.Equal(t, models.PendingRestaurantGate, out.Patch["pendingType"])
	assert.Equal(t, "somewhere good", out.Patch["pendingQuery"])

	// Cuisine known, borough missing: skip straight to preferences.
	out = mgr.Raise(classify.Result{
		Type:         classify.TypeRestaurant,
		Intent:       &models.Intent{Kind: models.IntentDish, Query: "sushi"},
		FilterPrompt: "where?",
	}, "best sushi")
	assert.Equal(t, ActionAsk, out.Action)
	assert.Equal(t, models.PendingRestaurantPreferences, out.Patch["pendingType"])
}

func TestRaiseEventGate(t *testing.T) {
	mgr := newManager(&stubModel{})
	out := mgr.Raise(classify.Result{
		Type:         classify.TypeEvent,
		Event:        &models.EventFilters{},
		FilterPrompt: "when and where?",
	}, "things to do")
	assert.Equal(t, ActionAsk, out.Action)
	assert.Equal(t, models.PendingEventGate, out.Patch["pendingType"])
	assert.Equal(t, "when and where?", out.Prompt)
}

func TestRestaurantGateAcceptsCuisine(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{
		PendingType:   models.PendingRestaurantGate,
		PendingIntent: &models.Intent{Kind: models.IntentVague},
	}

	out := mgr.HandleReply(context.Background(), c, "ramen")
	assert.Equal(t, ActionAsk, out.Action, "cuisine alone still needs a borough")
	assert.Equal(t, models.PendingRestaurantPreferences, out.Patch["pendingType"])
	assert.Contains(t, out.Prompt, "Manhattan")

	// Cuisine and borough in one reply dispatch immediately.
	c.PendingIntent = &models.Intent{Kind: models.IntentVague}
	out = mgr.HandleReply(context.Background(), c, "sushi in brooklyn")
	require.Equal(t, ActionSearchRestaurant, out.Action)
	assert.Equal(t, "sushi", out.Intent.Query)
	assert.Equal(t, "Brooklyn", out.Intent.Borough)
	assert.Equal(t, models.IntentDish, out.Intent.Kind)
}

func TestRestaurantGateRejectsGenericWords(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{PendingType: models.PendingRestaurantGate}

	for _, reply := range []string{"best food", "a good restaurant", "i'm hungry", "dinner please"} {
		out := mgr.HandleReply(context.Background(), c, reply)
		assert.Equal(t, ActionAsk, out.Action, "reply %q should re-ask", reply)
		assert.Contains(t, out.Prompt, "dish or cuisine")
	}
}

func TestRestaurantGateEventEscapeHatch(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{PendingType: models.PendingRestaurantGate}

	out := mgr.HandleReply(context.Background(), c, "actually any concerts this weekend?")
	assert.Equal(t, ActionReroute, out.Action, "pure event intent escapes the food gate")

	// Mixed food+event wording stays in the gate.
	out = mgr.HandleReply(context.Background(), c, "dinner before a show")
	assert.NotEqual(t, ActionReroute, out.Action)
}

func TestPreferencesReplyParsesBoroughAndBudget(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{
		PendingType:   models.PendingRestaurantPreferences,
		PendingIntent: &models.Intent{Kind: models.IntentDish, Query: "sushi"},
	}

	out := mgr.HandleReply(context.Background(), c, "brooklyn, cheap")
	require.Equal(t, ActionSearchRestaurant, out.Action)
	assert.Equal(t, "Brooklyn", out.Intent.Borough)
	assert.Equal(t, models.BudgetCheap, out.Intent.Budget)
	assert.Equal(t, "sushi", out.Intent.Query)
}

func TestPreferencesReplySkipWords(t *testing.T) {
	mgr := newManager(&stubModel{})

	for _, reply := range []string{"anywhere", "surprise me", "search"} {
		c := &models.Context{
			PendingType:   models.PendingRestaurantPreferences,
			PendingIntent: &models.Intent{Kind: models.IntentCuisine, Query: "thai"},
		}
		out := mgr.HandleReply(context.Background(), c, reply)
		require.Equal(t, ActionSearchRestaurant, out.Action, "reply %q", reply)
		assert.Equal(t, "any", out.Intent.Borough)
		assert.Equal(t, models.BudgetAny, out.Intent.Budget, "missing budget defaults to any")
	}
}

func TestPreferencesReplyReasksWithoutBorough(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{
		PendingType:   models.PendingRestaurantPreferences,
		PendingIntent: &models.Intent{Kind: models.IntentCuisine, Query: "thai"},
	}
	out := mgr.HandleReply(context.Background(), c, "hmm not sure")
	assert.Equal(t, ActionAsk, out.Action)
	assert.Contains(t, out.Prompt, "borough")
}

func TestEventGateMergesParsedFilters(t *testing.T) {
	mgr := newManager(&stubModel{response: `{"date": {"kind": "weekend"}, "borough": "Queens"}`})
	c := &models.Context{
		PendingType:  models.PendingEventGate,
		PendingEvent: &models.EventFilters{SearchTerm: "jazz"},
	}

	out := mgr.HandleReply(context.Background(), c, "this weekend in queens")
	require.Equal(t, ActionSearchEvent, out.Action)
	assert.Equal(t, models.DateWeekend, out.Event.Date.Kind)
	assert.Equal(t, "Queens", out.Event.Borough)
	assert.Equal(t, "jazz", out.Event.SearchTerm, "earlier filters survive the merge")
}

func TestEventGateSkipTokenDispatches(t *testing.T) {
	mgr := newManager(&stubModel{})
	c := &models.Context{
		PendingType:  models.PendingEventGate,
		PendingEvent: &models.EventFilters{SearchTerm: "comedy"},
	}
	out := mgr.HandleReply(context.Background(), c, "search")
	require.Equal(t, ActionSearchEvent, out.Action)
	assert.Equal(t, "comedy", out.Event.SearchTerm)
}

func TestEventGateNothingParsedReroutes(t *testing.T) {
	mgr := newManager(&stubModel{response: `{"date": null, "borough": null}`})
	c := &models.Context{PendingType: models.PendingEventGate, PendingEvent: &models.EventFilters{}}

	out := mgr.HandleReply(context.Background(), c, "what's a knish")
	assert.Equal(t, ActionReroute, out.Action, "unparseable reply clears the gate for re-classification")
}

func TestParseCuisine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sushi", "sushi"},
		{"best sushi", "sushi"},
		{"some good thai food", "thai"},
		{"birria tacos please", "birria tacos"},
		{"sushi in brooklyn, cheap", "sushi"},
		{"best food", ""},
		{"restaurant", ""},
		{"hungry", ""},
		{"ok", ""},
	}
	for _, tt := range tests {
		if got := ParseCuisine(tt.in); got != tt.want {
			t.Errorf("ParseCuisine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
