package store

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"concierge/internal/models"
)

// eventQueryLimit bounds each event query tier.
const eventQueryLimit = 20

// EventQuery describes a structured query over the events collection.
// DateStart/DateEnd are inclusive bounds over the ISO start_date_time string;
// DatePrefix matches a single local date by prefix.
type EventQuery struct {
	DatePrefix string
	DateStart  string
	DateEnd    string
	Borough    string
	FreeOnly   bool
}

// dateFilter builds the start_date_time clause for q.
func (q EventQuery) dateFilter() bson.M {
	switch {
	case q.DatePrefix != "":
		return bson.M{"start_date_time": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q.DatePrefix)}}
	case q.DateStart != "" && q.DateEnd != "":
		// End date is inclusive: pad so "2024-06-16T20:00" sorts under the bound.
		return bson.M{"start_date_time": bson.M{"$gte": q.DateStart, "$lte": q.DateEnd + "\uffff"}}
	case q.DateStart != "":
		return bson.M{"start_date_time": bson.M{"$gte": q.DateStart}}
	default:
		return bson.M{}
	}
}

func (q EventQuery) baseFilter() bson.M {
	filter := q.dateFilter()
	if q.Borough != "" && q.Borough != "any" {
		filter["$or"] = []bson.M{
			{"event_borough": primitive.Regex{Pattern: regexp.QuoteMeta(q.Borough), Options: "i"}},
			{"event_location": primitive.Regex{Pattern: regexp.QuoteMeta(q.Borough), Options: "i"}},
		}
	}
	if q.FreeOnly {
		filter["price"] = primitive.Regex{Pattern: "free", Options: "i"}
	}
	return filter
}

// TextSearchEvents runs a $text search with the cleaned term plus the
// structured filters of q.
func (s *Store) TextSearchEvents(ctx context.Context, term string, q EventQuery) ([]models.Event, error) {
	filter := q.baseFilter()
	filter["$text"] = bson.M{"$search": term}

	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(eventQueryLimit)

	cur, err := s.db.Collection(CollEvents).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("text search events: %w", err)
	}
	defer cur.Close(ctx)

	var results []models.Event
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return results, nil
}

// RegexSearchEvents matches any of the given terms against event name and
// description, with the structured filters of q. Terms are OR-ed.
func (s *Store) RegexSearchEvents(ctx context.Context, terms []string, q EventQuery) ([]models.Event, error) {
	filter := q.baseFilter()
	if len(terms) > 0 {
		var or []bson.M
		for _, t := range terms {
			re := primitive.Regex{Pattern: regexp.QuoteMeta(t), Options: "i"}
			or = append(or, bson.M{"event_name": re}, bson.M{"description": re})
		}
		if existing, ok := filter["$or"]; ok {
			// Both borough and term clauses present; require each via $and.
			filter["$and"] = []bson.M{{"$or": existing}, {"$or": or}}
			delete(filter, "$or")
		} else {
			filter["$or"] = or
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date_time", Value: 1}}).
		SetLimit(eventQueryLimit)

	cur, err := s.db.Collection(CollEvents).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("regex search events: %w", err)
	}
	defer cur.Close(ctx)

	var results []models.Event
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return results, nil
}

// UpsertEvents loads event documents keyed by event_id. Used by the seed
// command; the engine only reads this collection.
func (s *Store) UpsertEvents(ctx context.Context, docs []models.Event) (int, error) {
	coll := s.db.Collection(CollEvents)
	n := 0
	for _, doc := range docs {
		_, err := coll.UpdateOne(ctx,
			bson.M{"event_id": doc.EventID},
			bson.M{"$set": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return n, fmt.Errorf("upsert event %q: %w", doc.EventID, err)
		}
		n++
	}
	return n, nil
}
