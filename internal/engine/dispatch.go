package engine

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"concierge/internal/format"
	"concierge/internal/metrics"
	"concierge/internal/models"
	"concierge/internal/search"
)

// runRestaurantSearch executes the restaurant pipeline, persists the new
// paging pool, and renders the first page.
func (e *Engine) runRestaurantSearch(ctx context.Context, senderID string, conv *models.Context, intent *models.Intent) (string, error) {
	var excludeKeys, excludeNames []string
	if conv != nil {
		excludeKeys = conv.ShownKeys
		excludeNames = conv.ShownNames
	}

	started := time.Now()
	pool, note, err := e.restaurants.Search(ctx, senderID, intent, excludeKeys, excludeNames)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpLocalSearch, time.Since(started), err)
	}
	if errors.Is(err, search.ErrQuotaExceeded) {
		return quotaMsg, nil
	}
	if err != nil {
		e.logger.Error("restaurant search failed", "sender", senderID, "error", err)
		return restaurantFail, nil
	}
	if len(pool) == 0 {
		if specificBorough(intent) {
			return "I struck out in " + intent.Borough + ". Want me to check other boroughs? (say \"anywhere\")", nil
		}
		return "I couldn't find anything for that. Try a different dish or cuisine?", nil
	}

	batch := format.RestaurantPage(pool, 0)
	reply := format.RenderRestaurants(batch, len(pool) > format.PageSize, note)
	if specificBorough(intent) && len(pool) < lowResultsMin {
		reply = format.Truncate(reply + "\n\n" + broadenOffer)
	}

	patch := clearPendingPatch()
	patch["lastCategory"] = models.CategoryRestaurant
	patch["lastIntent"] = intent
	patch["pool"] = pool
	patch["page"] = 0
	if err := e.store.UpdateContext(ctx, senderID, patch); err != nil {
		e.logger.Warn("pool write failed", "sender", senderID, "error", err)
	}
	e.recordShownRestaurants(ctx, senderID, batch)

	return reply, nil
}

func specificBorough(intent *models.Intent) bool {
	return intent != nil && intent.Borough != "" && intent.Borough != "any"
}

func (e *Engine) recordShownRestaurants(ctx context.Context, senderID string, batch []models.RestaurantCandidate) {
	keys := make([]string, 0, len(batch))
	names := make([]string, 0, len(batch))
	for _, item := range batch {
		keys = append(keys, item.DedupeKey)
		names = append(names, item.Name)
	}
	if err := e.store.AddShownRestaurants(ctx, senderID, keys, names); err != nil {
		e.logger.Warn("shown history write failed", "sender", senderID, "error", err)
	}
}

// maxEventsShown caps one event reply.
const maxEventsShown = 5

// runEventSearch executes the event pipeline and renders the reply.
func (e *Engine) runEventSearch(ctx context.Context, senderID string, conv *models.Context, filters *models.EventFilters) (string, error) {
	return e.eventSearch(ctx, senderID, filters, nil, eventEmptyMsg)
}

// eventSearch is the shared path. excludeIDs is non-nil only on follow-up
// turns; emptyMsg lets the follow-up branch report exhaustion instead of a
// failed first search.
func (e *Engine) eventSearch(ctx context.Context, senderID string, filters *models.EventFilters, excludeIDs []string, emptyMsg string) (string, error) {
	started := time.Now()
	result, err := e.events.Search(ctx, senderID, filters, excludeIDs)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpLocalSearch, time.Since(started), err)
	}
	if errors.Is(err, search.ErrQuotaExceeded) {
		return quotaMsg, nil
	}
	if err != nil {
		e.logger.Error("event search failed", "sender", senderID, "error", err)
		return eventFail, nil
	}

	patch := clearPendingPatch()
	patch["lastCategory"] = models.CategoryEvent
	patch["lastEventFilters"] = filters

	if result.FallbackText != "" {
		if err := e.store.UpdateContext(ctx, senderID, patch); err != nil {
			e.logger.Warn("context write failed", "sender", senderID, "error", err)
		}
		return format.RenderEventFallback(result.FallbackText), nil
	}
	if len(result.Items) == 0 {
		return emptyMsg, nil
	}

	visible := result.Items
	if len(visible) > maxEventsShown {
		visible = visible[:maxEventsShown]
	}
	reply := format.RenderEvents(visible, len(result.Items) > maxEventsShown)

	patch["lastEventTitle"] = visible[0].EventName
	if err := e.store.UpdateContext(ctx, senderID, patch); err != nil {
		e.logger.Warn("context write failed", "sender", senderID, "error", err)
	}
	ids := make([]string, 0, len(visible))
	for _, item := range visible {
		ids = append(ids, item.EventID)
	}
	if err := e.store.AddShownEvents(ctx, senderID, ids); err != nil {
		e.logger.Warn("shown events write failed", "sender", senderID, "error", err)
	}
	return reply, nil
}

// handleMore serves the next page from the stored pool. An exhausted
// restaurant pool reopens the gate; exhausted events re-search with the shown
// ids excluded.
func (e *Engine) handleMore(ctx context.Context, senderID string, conv *models.Context) (string, error) {
	if conv == nil || conv.LastCategory == "" {
		return moreOfWhatMsg, nil
	}

	switch conv.LastCategory {
	case models.CategoryRestaurant:
		if conv.LastIntent == nil {
			return moreOfWhatMsg, nil
		}
		nextPage := conv.Page + 1
		batch := format.RestaurantPage(conv.Pool, nextPage)
		if len(batch) > 0 {
			if err := e.store.UpdateContext(ctx, senderID, bson.M{"page": nextPage}); err != nil {
				e.logger.Warn("page write failed", "sender", senderID, "error", err)
			}
			e.recordShownRestaurants(ctx, senderID, batch)
			hasMore := len(conv.Pool) > (nextPage+1)*format.PageSize
			return format.RenderRestaurants(batch, hasMore, ""), nil
		}
		// Pool exhausted: reopen the gate with the cuisine pre-set so the
		// next message is read as a refinement, not a brand-new query.
		refined := *conv.LastIntent
		patch := bson.M{
			"pendingType":   models.PendingRestaurantGate,
			"pendingQuery":  conv.LastIntent.Query,
			"pendingIntent": &refined,
			"pendingEvent":  nil,
		}
		if err := e.store.UpdateContext(ctx, senderID, patch); err != nil {
			e.logger.Warn("gate reopen write failed", "sender", senderID, "error", err)
		}
		return format.ExhaustedTrailer + " Want to try a different borough or a slightly different dish?", nil

	case models.CategoryEvent:
		if conv.LastEventFilters == nil {
			return moreOfWhatMsg, nil
		}
		return e.eventSearch(ctx, senderID, conv.LastEventFilters, conv.ShownEventIDs, format.ExhaustedTrailer)
	}
	return moreOfWhatMsg, nil
}

// handleSpotlight answers a question about one named restaurant.
func (e *Engine) handleSpotlight(ctx context.Context, senderID, name string) string {
	started := time.Now()
	d, err := e.restaurants.Spotlight(ctx, name)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpGroundedSearch, time.Since(started), err)
	}
	if err != nil {
		e.logger.Warn("spotlight failed", "sender", senderID, "name", name, "error", err)
		return spotlightFailMsg
	}
	if err := e.store.UpdateContext(ctx, senderID, bson.M{"lastCategory": models.CategoryRestaurant}); err != nil {
		e.logger.Warn("context write failed", "sender", senderID, "error", err)
	}
	return format.RenderSpotlight(d)
}

const foodAnswerSystemPrompt = `You are a friendly NYC food expert chatting over DM. Answer the question in under 100 words, plain text, no URLs, no markdown.`

// handleFoodQuestion answers a general food question with a single model call.
func (e *Engine) handleFoodQuestion(ctx context.Context, senderID, text string) string {
	if e.answerer == nil {
		return welcomeMsg
	}
	answer, err := e.answerer.GenerateWithSystem(ctx, foodAnswerSystemPrompt, text)
	if err != nil {
		e.logger.Warn("food answer failed", "sender", senderID, "error", err)
		return "Hmm, I couldn't come up with an answer just now. Try again?"
	}
	if err := e.store.UpdateContext(ctx, senderID, bson.M{"lastCategory": models.CategoryFoodQuestion}); err != nil {
		e.logger.Warn("context write failed", "sender", senderID, "error", err)
	}
	return format.Truncate(answer)
}
