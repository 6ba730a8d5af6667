// Package models defines data structures for the concierge bot.
package models

import "time"

// Category values stored in Context.LastCategory.
const (
	CategoryRestaurant   = "RESTAURANT"
	CategoryEvent        = "EVENT"
	CategoryFoodQuestion = "FOOD_QUESTION"
	CategoryOther        = "OTHER"
)

// Pending gate states stored in Context.PendingType.
// Empty string means no gate is pending.
const (
	PendingRestaurantGate        = "restaurant_gate"
	PendingRestaurantPreferences = "restaurant_preferences"
	PendingEventGate             = "event_gate"
)

// Preferences holds a sender's persistent food preferences.
type Preferences struct {
	Dietary        []string `bson:"dietary,omitempty" json:"dietary,omitempty"`
	Budget         string   `bson:"budget,omitempty" json:"budget,omitempty"`
	DefaultBorough string   `bson:"default_borough,omitempty" json:"default_borough,omitempty"`
	Favorites      []string `bson:"favorites,omitempty" json:"favorites,omitempty"`
}

// Context is the per-sender conversational state nested inside a Profile.
// It is considered expired once LastUpdatedAt is older than the context TTL
// and is transparently cleared on read.
type Context struct {
	LastCategory string `bson:"lastCategory,omitempty" json:"lastCategory,omitempty"`

	LastIntent       *Intent       `bson:"lastIntent,omitempty" json:"lastIntent,omitempty"`
	LastEventFilters *EventFilters `bson:"lastEventFilters,omitempty" json:"lastEventFilters,omitempty"`
	LastEventTitle   string        `bson:"lastEventTitle,omitempty" json:"lastEventTitle,omitempty"`

	// Pool holds the full validated result list of the most recent restaurant
	// search; "more" pages are served from it without re-searching.
	Pool []RestaurantCandidate `bson:"pool,omitempty" json:"pool,omitempty"`
	Page int                   `bson:"page" json:"page"`

	ShownKeys     []string `bson:"shownKeys,omitempty" json:"shownKeys,omitempty"`
	ShownNames    []string `bson:"shownNames,omitempty" json:"shownNames,omitempty"`
	ShownEventIDs []string `bson:"shownEventIds,omitempty" json:"shownEventIds,omitempty"`

	PendingType   string        `bson:"pendingType,omitempty" json:"pendingType,omitempty"`
	PendingQuery  string        `bson:"pendingQuery,omitempty" json:"pendingQuery,omitempty"`
	PendingIntent *Intent       `bson:"pendingIntent,omitempty" json:"pendingIntent,omitempty"`
	PendingEvent  *EventFilters `bson:"pendingEvent,omitempty" json:"pendingEvent,omitempty"`

	LastUpdatedAt time.Time `bson:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitempty"`
}

// Profile is the per-sender persistent document, keyed by the opaque
// platform sender id.
type Profile struct {
	SenderID    string      `bson:"_id" json:"senderId"`
	FirstSeen   time.Time   `bson:"firstSeen" json:"firstSeen"`
	Preferences Preferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
	Context     Context     `bson:"context,omitempty" json:"context,omitempty"`
}

// DedupRecord marks a platform message id as processed. A TTL index on
// CreatedAt expires records after the dedup TTL.
type DedupRecord struct {
	MessageID string    `bson:"_id" json:"messageId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
