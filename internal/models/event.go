package models

// EventDateKind discriminates the tagged event date filter.
type EventDateKind string

const (
	DateAny      EventDateKind = "any"
	DateToday    EventDateKind = "today"
	DateTomorrow EventDateKind = "tomorrow"
	DateWeekend  EventDateKind = "weekend"
	DateThisWeek EventDateKind = "this_week"
	DateNextWeek EventDateKind = "next_week"
	DateSpecific EventDateKind = "specific"
	DateRange    EventDateKind = "range"
	DateMonth    EventDateKind = "month"
)

// EventDate is a tagged date filter. Date carries the value for "specific"
// and "month"; Start/End carry the bounds for "range". All values are
// ISO-local date strings (yyyy-mm-dd, yyyy-mm for month).
type EventDate struct {
	Kind  EventDateKind `bson:"kind" json:"kind"`
	Date  string        `bson:"date,omitempty" json:"date,omitempty"`
	Start string        `bson:"start,omitempty" json:"start,omitempty"`
	End   string        `bson:"end,omitempty" json:"end,omitempty"`
}

// Event price bands.
const (
	PriceFree   = "free"
	PriceBudget = "budget"
	PriceAny    = "any"
)

// EventFilters is the structured event query extracted from a turn.
// Date and borough are the critical filters; an event search does not
// dispatch unless at least one is present.
type EventFilters struct {
	Date       EventDate `bson:"date" json:"date"`
	Borough    string    `bson:"borough,omitempty" json:"borough,omitempty"`
	Price      string    `bson:"price,omitempty" json:"price,omitempty"`
	Category   string    `bson:"category,omitempty" json:"category,omitempty"`
	SearchTerm string    `bson:"searchTerm,omitempty" json:"searchTerm,omitempty"`
}

// HasCritical reports whether at least one of date/borough is set.
func (f *EventFilters) HasCritical() bool {
	if f == nil {
		return false
	}
	return (f.Date.Kind != "" && f.Date.Kind != DateAny) || f.Borough != ""
}

// EventCandidate is a single event returned from search.
type EventCandidate struct {
	EventID       string `bson:"event_id" json:"event_id"`
	EventName     string `bson:"event_name" json:"event_name"`
	StartDateTime string `bson:"start_date_time" json:"start_date_time"`
	EventType     string `bson:"event_type,omitempty" json:"event_type,omitempty"`
	EventBorough  string `bson:"event_borough,omitempty" json:"event_borough,omitempty"`
	EventLocation string `bson:"event_location,omitempty" json:"event_location,omitempty"`
	Price         string `bson:"price,omitempty" json:"price,omitempty"`
	Source        string `bson:"source,omitempty" json:"source,omitempty"`
	Link          string `bson:"link,omitempty" json:"link,omitempty"`
}

// Event is a stored document in the events collection.
type Event struct {
	EventCandidate `bson:",inline"`
	Description    string `bson:"description,omitempty" json:"description,omitempty"`
}
