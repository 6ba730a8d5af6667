// Package classify turns free-text chat into a typed intent with detected
// and missing filters.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"concierge/internal/categories"
	"concierge/internal/llm"
	"concierge/internal/models"
	"concierge/internal/quota"
)

// Message types.
const (
	TypeEvent        = "EVENT"
	TypeRestaurant   = "RESTAURANT"
	TypeFollowup     = "FOLLOWUP"
	TypeFoodQuestion = "FOOD_QUESTION"
	TypeOther        = "OTHER"
)

// Result is the classification of one inbound message.
type Result struct {
	Type         string
	Intent       *models.Intent
	Event        *models.EventFilters
	Missing      []string
	FilterPrompt string
	Confidence   float64
}

// Classifier classifies messages with an LLM call, falling back to keyword
// matching when the model is unreachable or returns garbage.
type Classifier struct {
	model      llm.Generator
	categories categories.Map
	quotas     *quota.Tracker
	timeout    time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// New creates a classifier. quotas may be nil to disable budgeting (tests);
// now should return NYC local time, since the prompt states dates in it.
func New(model llm.Generator, cats categories.Map, quotas *quota.Tracker, timeout time.Duration, logger *slog.Logger, now func() time.Time) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{
		model:      model,
		categories: cats,
		quotas:     quotas,
		timeout:    timeout,
		logger:     logger,
		now:        now,
	}
}

// llmClassification mirrors the JSON object the model is asked to return.
type llmClassification struct {
	Type         string   `json:"type"`
	Confidence   float64  `json:"confidence"`
	Dish         string   `json:"dish"`
	Cuisine      string   `json:"cuisine"`
	Borough      string   `json:"borough"`
	Neighborhood string   `json:"neighborhood"`
	Budget       string   `json:"budget"`
	Dietary      []string `json:"dietary"`
	Occasion     string   `json:"occasion"`
	Date         *struct {
		Kind  string `json:"kind"`
		Date  string `json:"date"`
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date"`
	Price      string   `json:"price"`
	Category   string   `json:"category"`
	SearchTerm string   `json:"search_term"`
	Missing    []string `json:"missing_filters"`
}

// Classify classifies one message from senderID. Rate-limit errors from the
// model are surfaced so the transport can tell the platform to back off; all
// other model failures degrade to the keyword classifier.
func (c *Classifier) Classify(ctx context.Context, senderID, text string) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Type: TypeOther}, nil
	}
	if IsFollowup(trimmed) {
		return Result{Type: TypeFollowup, Confidence: 1}, nil
	}

	if c.quotas != nil && !c.quotas.Allow(senderID, quota.KindClassify) {
		c.logger.Info("classification quota exhausted, using keyword fallback", "sender", senderID)
		return c.finish(c.keywordClassify(trimmed), trimmed), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.model.GenerateWithSystem(callCtx,
		classifySystemPrompt,
		buildClassifyPrompt(trimmed, c.now(), c.categories.Groups()),
	)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			return Result{}, fmt.Errorf("classify: %w", err)
		}
		c.logger.Warn("classification call failed, using keyword fallback", "error", err)
		return c.finish(c.keywordClassify(trimmed), trimmed), nil
	}

	parsed, err := parseClassification(raw)
	if err != nil {
		c.logger.Warn("classification response unparseable, using keyword fallback", "error", err)
		return c.finish(c.keywordClassify(trimmed), trimmed), nil
	}

	return c.finish(c.fromLLM(parsed), trimmed), nil
}

// parseClassification decodes the model's JSON, tolerating code fences.
func parseClassification(raw string) (llmClassification, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var parsed llmClassification
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return llmClassification{}, fmt.Errorf("parse classification: %w", err)
	}
	switch parsed.Type {
	case TypeEvent, TypeRestaurant, TypeFoodQuestion, TypeOther:
	default:
		return llmClassification{}, fmt.Errorf("unknown type %q", parsed.Type)
	}
	return parsed, nil
}

// fromLLM converts the decoded model output into a Result.
func (c *Classifier) fromLLM(p llmClassification) Result {
	res := Result{Type: p.Type, Confidence: p.Confidence}

	switch p.Type {
	case TypeRestaurant:
		intent := &models.Intent{
			Borough:      models.NormalizeBorough(p.Borough),
			Neighborhood: p.Neighborhood,
			Budget:       p.Budget,
			Dietary:      p.Dietary,
			Occasion:     p.Occasion,
		}
		switch {
		case p.Dish != "":
			intent.Kind = models.IntentDish
			intent.Query = strings.ToLower(p.Dish)
		case p.Cuisine != "":
			intent.Kind = models.IntentCuisine
			intent.Query = strings.ToLower(p.Cuisine)
		case p.Occasion != "":
			intent.Kind = models.IntentOccasion
		default:
			intent.Kind = models.IntentVague
		}
		res.Intent = intent

	case TypeEvent:
		f := &models.EventFilters{
			Borough:    models.NormalizeBorough(p.Borough),
			Price:      p.Price,
			Category:   strings.ToLower(p.Category),
			SearchTerm: p.SearchTerm,
		}
		if p.Date != nil && p.Date.Kind != "" {
			f.Date = models.EventDate{
				Kind:  models.EventDateKind(p.Date.Kind),
				Date:  p.Date.Date,
				Start: p.Date.Start,
				End:   p.Date.End,
			}
		}
		res.Event = f
	}
	return res
}

// finish applies the anti-hallucination post-filter, recomputes missing
// critical filters from what survived, and renders the filter prompt.
func (c *Classifier) finish(res Result, rawText string) Result {
	res = postFilter(res, rawText)
	res.Missing = missingFilters(res)
	if len(res.Missing) > 0 {
		res.FilterPrompt = buildFilterPrompt(res)
	}
	return res
}

// keywordClassify is the degraded-mode classifier over two fixed word lists.
func (c *Classifier) keywordClassify(text string) Result {
	lower := strings.ToLower(text)
	hasEvent := containsAny(lower, eventWords)
	hasFood := containsAny(lower, foodWords)

	switch {
	case hasEvent && hasFood:
		return Result{Type: TypeOther}
	case hasEvent:
		return Result{
			Type:       TypeEvent,
			Event:      &models.EventFilters{Borough: models.NormalizeBorough(lower)},
			Confidence: 0.3,
		}
	case hasFood:
		return Result{
			Type:       TypeRestaurant,
			Intent:     &models.Intent{Kind: models.IntentVague, Borough: models.NormalizeBorough(lower)},
			Confidence: 0.3,
		}
	default:
		return Result{Type: TypeOther}
	}
}

// missingFilters enumerates critical filters absent from the result.
//   - RESTAURANT: cuisine-or-dish and borough are mandatory.
//   - EVENT: date and borough are mandatory before dispatch.
func missingFilters(res Result) []string {
	var missing []string
	switch res.Type {
	case TypeRestaurant:
		if res.Intent == nil || res.Intent.Query == "" {
			missing = append(missing, "cuisine")
		}
		if res.Intent == nil || res.Intent.Borough == "" {
			missing = append(missing, "borough")
		}
	case TypeEvent:
		if res.Event == nil || res.Event.Date.Kind == "" || res.Event.Date.Kind == models.DateAny {
			missing = append(missing, "date")
		}
		if res.Event == nil || res.Event.Borough == "" {
			missing = append(missing, "borough")
		}
	}
	return missing
}
