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

// restaurantQueryLimit bounds the local tier result set.
const restaurantQueryLimit = 25

// QueryRestaurants runs the local structured query: cuisine regex on the
// cuisine-description field, borough regex on the full-address field, sorted
// by rating descending with a rating-count tie-break. If zero hits and a
// cuisine was supplied, the cuisine clause is dropped and the query retried
// once (broadening).
func (s *Store) QueryRestaurants(ctx context.Context, cuisine, borough string) ([]models.Restaurant, error) {
	results, err := s.queryRestaurantsOnce(ctx, cuisine, borough)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && cuisine != "" {
		return s.queryRestaurantsOnce(ctx, "", borough)
	}
	return results, nil
}

func (s *Store) queryRestaurantsOnce(ctx context.Context, cuisine, borough string) ([]models.Restaurant, error) {
	filter := bson.M{}
	if cuisine != "" {
		filter["cuisine"] = primitive.Regex{Pattern: regexp.QuoteMeta(cuisine), Options: "i"}
	}
	if borough != "" && borough != "any" {
		filter["address"] = primitive.Regex{Pattern: regexp.QuoteMeta(borough), Options: "i"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "rating_count", Value: -1}}).
		SetLimit(restaurantQueryLimit)

	cur, err := s.db.Collection(CollRestaurants).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer cur.Close(ctx)

	var results []models.Restaurant
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode restaurants: %w", err)
	}
	return results, nil
}

// UpsertRestaurants loads restaurant documents, keyed by name+address.
// Used by the seed command; the engine only reads this collection.
func (s *Store) UpsertRestaurants(ctx context.Context, docs []models.Restaurant) (int, error) {
	coll := s.db.Collection(CollRestaurants)
	n := 0
	for _, doc := range docs {
		_, err := coll.UpdateOne(ctx,
			bson.M{"name": doc.Name, "address": doc.Address},
			bson.M{"$set": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return n, fmt.Errorf("upsert restaurant %q: %w", doc.Name, err)
		}
		n++
	}
	return n, nil
}
