// Package store provides MongoDB persistence for profiles, conversational
// context, message deduplication, and the read-only search collections.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollProfiles          = "profiles"
	CollProcessedMessages = "processed_messages"
	CollRestaurants       = "restaurants"
	CollEvents            = "events"
)

// Config holds store connection and policy configuration.
type Config struct {
	URI            string
	Database       string
	ContextTTL     time.Duration
	DedupTTL       time.Duration
	ShownKeysCap   int
	ShownEventsCap int
}

// Store wraps a MongoDB database with the persistence contract the engine
// consumes. All other components receive read-only snapshots or issue
// explicit updates through this type.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
	logger *slog.Logger

	now func() time.Time // overridable in tests
}

// New connects to MongoDB and ensures indexes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ContextTTL == 0 {
		cfg.ContextTTL = 30 * time.Minute
	}
	if cfg.DedupTTL == 0 {
		cfg.DedupTTL = 120 * time.Second
	}
	if cfg.ShownKeysCap == 0 {
		cfg.ShownKeysCap = 100
	}
	if cfg.ShownEventsCap == 0 {
		cfg.ShownEventsCap = 50
	}

	logger.Info("connecting to MongoDB", "database", cfg.Database)
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(10*time.Second).
		SetMaxPoolSize(50))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("MongoDB connection established")
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	s.logger.Info("closing MongoDB connection")
	return s.client.Disconnect(ctx)
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// ensureIndexes creates the TTL index on processed_messages, the text index
// on events, and the rating sort index on restaurants. Creation is
// idempotent; existing compatible indexes are left alone.
func (s *Store) ensureIndexes(ctx context.Context) error {
	dedupSecs := int32(s.cfg.DedupTTL / time.Second)
	_, err := s.db.Collection(CollProcessedMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(dedupSecs).SetName("dedup_ttl"),
	})
	if err != nil {
		return fmt.Errorf("processed_messages ttl index: %w", err)
	}

	_, err = s.db.Collection(CollEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "event_name", Value: "text"},
			{Key: "description", Value: "text"},
		},
		Options: options.Index().SetName("events_text"),
	})
	if err != nil {
		return fmt.Errorf("events text index: %w", err)
	}

	_, err = s.db.Collection(CollEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "start_date_time", Value: 1}},
		Options: options.Index().SetName("events_start"),
	})
	if err != nil {
		return fmt.Errorf("events start index: %w", err)
	}

	_, err = s.db.Collection(CollRestaurants).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "rating", Value: -1},
			{Key: "rating_count", Value: -1},
		},
		Options: options.Index().SetName("restaurants_rating"),
	})
	if err != nil {
		return fmt.Errorf("restaurants rating index: %w", err)
	}
	return nil
}
