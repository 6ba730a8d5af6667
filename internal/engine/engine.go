// Package engine orchestrates one inbound message end to end: dedup, command
// handling, gate dialog, classification, search dispatch, and reply
// formatting. It owns all conversational state transitions.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"concierge/internal/classify"
	"concierge/internal/gate"
	"concierge/internal/llm"
	"concierge/internal/metrics"
	"concierge/internal/models"
	"concierge/internal/search"
)

// Fixed replies.
const (
	welcomeMsg       = "Hey! I can find you restaurants or events in NYC. What are you in the mood for?"
	moreOfWhatMsg    = "More of what? Tell me what you're craving or what kind of event you're after."
	restaurantFail   = "Sorry, I'm having trouble finding restaurant info right now. Try again in a bit?"
	eventFail        = "Sorry, I'm having trouble finding events right now. Try again in a bit?"
	eventEmptyMsg    = "Couldn't find events matching your search. Try a different date or category?"
	quotaMsg         = "You've hit today's search limit. Try again tomorrow!"
	deleteDoneMsg    = "Done — I deleted your data."
	deleteNoneMsg    = "No data found."
	resetDoneMsg     = "Reset complete!"
	optOutMsg        = "Got it, I'll stay quiet. Message me anytime to start again."
	reportAckMsg     = "Thanks for flagging that. A human will take a look."
	spotlightFailMsg = "I couldn't dig up details on that spot right now. Try again in a bit?"
)

// lowResultsMin is the threshold under which a borough-constrained search
// offers to widen.
const lowResultsMin = 3

// broadenOffer is appended to thin borough-constrained result lists.
const broadenOffer = "Slim pickings there — want me to check other boroughs?"

// ProfileStore is the slice of the document store the engine needs.
type ProfileStore interface {
	GetOrCreateProfile(ctx context.Context, senderID string) (*models.Profile, error)
	GetContext(ctx context.Context, senderID string) (*models.Context, error)
	UpdateContext(ctx context.Context, senderID string, patch bson.M) error
	AddShownRestaurants(ctx context.Context, senderID string, keys, names []string) error
	AddShownEvents(ctx context.Context, senderID string, ids []string) error
	ClearContext(ctx context.Context, senderID string) error
	DeleteProfile(ctx context.Context, senderID string) (bool, error)
	IsDuplicateMessage(ctx context.Context, messageID string) bool
}

// Classifier classifies one inbound message.
type Classifier interface {
	Classify(ctx context.Context, senderID, text string) (classify.Result, error)
}

// Gate runs the constraint-gate state machine.
type Gate interface {
	Raise(res classify.Result, text string) gate.Outcome
	HandleReply(ctx context.Context, c *models.Context, text string) gate.Outcome
}

// RestaurantSearcher runs the two-tier restaurant pipeline.
type RestaurantSearcher interface {
	Search(ctx context.Context, senderID string, intent *models.Intent, excludeKeys, excludeNames []string) ([]models.RestaurantCandidate, string, error)
	Spotlight(ctx context.Context, name string) (*search.Dossier, error)
}

// EventSearcher runs the tiered event pipeline.
type EventSearcher interface {
	Search(ctx context.Context, senderID string, filters *models.EventFilters, excludeIDs []string) (*search.EventResult, error)
}

// Engine handles inbound messages. Safe for concurrent use; identical
// concurrent messages from one sender collapse to a single execution.
type Engine struct {
	store       ProfileStore
	classifier  Classifier
	gates       Gate
	restaurants RestaurantSearcher
	events      EventSearcher
	answerer    llm.Generator
	collector   *metrics.Collector
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates the engine. answerer handles FOOD_QUESTION turns; collector may
// be nil.
func New(store ProfileStore, classifier Classifier, gates Gate, restaurants RestaurantSearcher, events EventSearcher, answerer llm.Generator, collector *metrics.Collector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       store,
		classifier:  classifier,
		gates:       gates,
		restaurants: restaurants,
		events:      events,
		answerer:    answerer,
		collector:   collector,
		logger:      logger,
		inflight:    make(map[string]bool),
	}
}

// Handle processes one message and returns the reply body, or "" when the
// message should be silently dropped (duplicate, concurrent double-send).
// A returned error wrapping llm.ErrRateLimited tells the transport to back
// off; other errors have already been translated into a reply.
func (e *Engine) Handle(ctx context.Context, senderID, messageID, text string) (string, error) {
	if e.store.IsDuplicateMessage(ctx, messageID) {
		e.logger.Debug("dropping duplicate message", "message_id", messageID)
		return "", nil
	}

	key := senderID + "|" + strings.ToLower(strings.TrimSpace(text))
	if !e.acquire(key) {
		e.logger.Debug("dropping concurrent duplicate", "sender", senderID)
		return "", nil
	}
	defer e.release(key)

	if _, err := e.store.GetOrCreateProfile(ctx, senderID); err != nil {
		e.logger.Error("profile lookup failed", "sender", senderID, "error", err)
		return restaurantFail, nil
	}

	if reply, handled := e.handleCommand(ctx, senderID, text); handled {
		return reply, nil
	}

	conv, err := e.store.GetContext(ctx, senderID)
	if err != nil {
		e.logger.Warn("context read failed, treating as fresh", "sender", senderID, "error", err)
		conv = nil
	}

	// A pending gate owns the turn; spotlight questions only short-circuit
	// fresh turns.
	if conv != nil && conv.PendingType != "" {
		return e.handleGateReply(ctx, senderID, conv, text)
	}

	if name, ok := search.MatchSpotlight(text); ok {
		return e.handleSpotlight(ctx, senderID, name), nil
	}

	return e.handleFresh(ctx, senderID, conv, text)
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[key] {
		return false
	}
	e.inflight[key] = true
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}

// handleCommand intercepts the fixed data-control commands.
func (e *Engine) handleCommand(ctx context.Context, senderID, text string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(text, ".!?"))) {
	case "delete my data":
		deleted, err := e.store.DeleteProfile(ctx, senderID)
		if err != nil {
			e.logger.Error("profile delete failed", "sender", senderID, "error", err)
			return restaurantFail, true
		}
		if deleted {
			return deleteDoneMsg, true
		}
		return deleteNoneMsg, true
	case "reset":
		if err := e.store.ClearContext(ctx, senderID); err != nil {
			e.logger.Error("context reset failed", "sender", senderID, "error", err)
			return restaurantFail, true
		}
		return resetDoneMsg, true
	case "help":
		return welcomeMsg, true
	case "stop", "stop matching", "opt out", "unsubscribe":
		if err := e.store.ClearContext(ctx, senderID); err != nil {
			e.logger.Warn("context clear on opt-out failed", "sender", senderID, "error", err)
		}
		return optOutMsg, true
	case "report":
		e.logger.Info("report received", "sender", senderID)
		return reportAckMsg, true
	}
	return "", false
}

// handleGateReply routes a message into the pending gate.
func (e *Engine) handleGateReply(ctx context.Context, senderID string, conv *models.Context, text string) (string, error) {
	out := e.gates.HandleReply(ctx, conv, text)
	switch out.Action {
	case gate.ActionAsk:
		if err := e.store.UpdateContext(ctx, senderID, out.Patch); err != nil {
			e.logger.Warn("gate patch write failed", "sender", senderID, "error", err)
		}
		return out.Prompt, nil
	case gate.ActionSearchRestaurant:
		return e.runRestaurantSearch(ctx, senderID, conv, out.Intent)
	case gate.ActionSearchEvent:
		return e.runEventSearch(ctx, senderID, conv, out.Event)
	default:
		// Reroute: the reply was a topic change, not a gate answer.
		if err := e.store.UpdateContext(ctx, senderID, clearPendingPatch()); err != nil {
			e.logger.Warn("pending clear failed", "sender", senderID, "error", err)
		}
		conv.PendingType = ""
		return e.handleFresh(ctx, senderID, conv, text)
	}
}

// handleFresh classifies a message with no pending gate and dispatches.
func (e *Engine) handleFresh(ctx context.Context, senderID string, conv *models.Context, text string) (string, error) {
	started := time.Now()
	res, err := e.classifier.Classify(ctx, senderID, text)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpClassify, time.Since(started), err)
	}
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			return "", err
		}
		e.logger.Error("classification failed", "sender", senderID, "error", err)
		return restaurantFail, nil
	}

	switch res.Type {
	case classify.TypeFollowup:
		return e.handleMore(ctx, senderID, conv)
	case classify.TypeRestaurant, classify.TypeEvent:
		if len(res.Missing) > 0 {
			out := e.gates.Raise(res, text)
			if out.Action == gate.ActionAsk {
				if err := e.store.UpdateContext(ctx, senderID, out.Patch); err != nil {
					e.logger.Warn("gate open write failed", "sender", senderID, "error", err)
				}
				return out.Prompt, nil
			}
		}
		if res.Type == classify.TypeRestaurant {
			return e.runRestaurantSearch(ctx, senderID, conv, res.Intent)
		}
		return e.runEventSearch(ctx, senderID, conv, res.Event)
	case classify.TypeFoodQuestion:
		return e.handleFoodQuestion(ctx, senderID, text), nil
	default:
		return welcomeMsg, nil
	}
}

func clearPendingPatch() bson.M {
	return bson.M{
		"pendingType":   "",
		"pendingQuery":  "",
		"pendingIntent": nil,
		"pendingEvent":  nil,
	}
}
