package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"concierge/internal/models"
)

// GetOrCreateProfile returns the sender's profile, inserting a fresh one with
// default context and firstSeen set on first contact.
func (s *Store) GetOrCreateProfile(ctx context.Context, senderID string) (*models.Profile, error) {
	coll := s.db.Collection(CollProfiles)

	after := options.After
	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": senderID},
		bson.M{"$setOnInsert": bson.M{
			"firstSeen": s.now().UTC(),
			"context":   bson.M{"page": 0},
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after),
	)

	var profile models.Profile
	if err := res.Decode(&profile); err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}
	return &profile, nil
}

// GetContext returns the sender's conversational context, or nil when none
// exists or the last write is older than the context TTL. Stale context is
// cleared before returning nil so a lapsed gate cannot resurface later.
func (s *Store) GetContext(ctx context.Context, senderID string) (*models.Context, error) {
	coll := s.db.Collection(CollProfiles)

	var profile models.Profile
	err := coll.FindOne(ctx, bson.M{"_id": senderID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get context: %w", err)
	}

	c := profile.Context
	if c.LastUpdatedAt.IsZero() {
		return nil, nil
	}
	if s.now().Sub(c.LastUpdatedAt) > s.cfg.ContextTTL {
		if err := s.ClearContext(ctx, senderID); err != nil {
			s.logger.Warn("failed to clear stale context", "sender", senderID, "error", err)
		}
		return nil, nil
	}
	return &c, nil
}

// UpdateContext shallow-merges patch into the context sub-object and
// refreshes lastUpdatedAt in the same atomic update. Patch keys are relative
// to the context object ("pool", "page", "pendingType", ...).
func (s *Store) UpdateContext(ctx context.Context, senderID string, patch bson.M) error {
	set := bson.M{"context.lastUpdatedAt": s.now().UTC()}
	for k, v := range patch {
		set["context."+k] = v
	}
	_, err := s.db.Collection(CollProfiles).UpdateOne(ctx,
		bson.M{"_id": senderID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("update context: %w", err)
	}
	return nil
}

// AddShownRestaurants appends dedupe keys and names to the shown history,
// evicting oldest entries beyond the cap.
func (s *Store) AddShownRestaurants(ctx context.Context, senderID string, keys, names []string) error {
	if len(keys) == 0 && len(names) == 0 {
		return nil
	}
	_, err := s.db.Collection(CollProfiles).UpdateOne(ctx,
		bson.M{"_id": senderID},
		bson.M{
			"$push": bson.M{
				"context.shownKeys":  bson.M{"$each": keys, "$slice": -s.cfg.ShownKeysCap},
				"context.shownNames": bson.M{"$each": names, "$slice": -s.cfg.ShownKeysCap},
			},
			"$set": bson.M{"context.lastUpdatedAt": s.now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("add shown restaurants: %w", err)
	}
	return nil
}

// AddShownEvents appends event ids to the shown history, capped FIFO.
func (s *Store) AddShownEvents(ctx context.Context, senderID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Collection(CollProfiles).UpdateOne(ctx,
		bson.M{"_id": senderID},
		bson.M{
			"$push": bson.M{
				"context.shownEventIds": bson.M{"$each": ids, "$slice": -s.cfg.ShownEventsCap},
			},
			"$set": bson.M{"context.lastUpdatedAt": s.now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("add shown events: %w", err)
	}
	return nil
}

// ClearContext resets context while retaining the profile.
func (s *Store) ClearContext(ctx context.Context, senderID string) error {
	_, err := s.db.Collection(CollProfiles).UpdateOne(ctx,
		bson.M{"_id": senderID},
		bson.M{"$set": bson.M{"context": bson.M{"page": 0}}},
	)
	if err != nil {
		return fmt.Errorf("clear context: %w", err)
	}
	return nil
}

// DeleteProfile removes the sender's profile and all associated context.
// Returns true when a profile existed.
func (s *Store) DeleteProfile(ctx context.Context, senderID string) (bool, error) {
	res, err := s.db.Collection(CollProfiles).DeleteOne(ctx, bson.M{"_id": senderID})
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// IsDuplicateMessage atomically records a platform message id and reports
// whether it was already present. The insert races safely across processes:
// a duplicate-key error from a lost race counts as "already present". Store
// failures fail open (not a duplicate) so infrastructure errors never drop
// messages.
func (s *Store) IsDuplicateMessage(ctx context.Context, messageID string) bool {
	if messageID == "" {
		return false
	}
	_, err := s.db.Collection(CollProcessedMessages).InsertOne(ctx, models.DedupRecord{
		MessageID: messageID,
		CreatedAt: s.now().UTC(),
	})
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s.logger.Warn("dedup insert failed, treating as not duplicate", "message_id", messageID, "error", err)
	return false
}

// SetPreferences updates the sender's persistent food preferences.
func (s *Store) SetPreferences(ctx context.Context, senderID string, prefs models.Preferences) error {
	_, err := s.db.Collection(CollProfiles).UpdateOne(ctx,
		bson.M{"_id": senderID},
		bson.M{"$set": bson.M{"preferences": prefs}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}
