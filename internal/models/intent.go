package models

import "strings"

// IntentKind discriminates the restaurant search intent union.
type IntentKind string

const (
	// IntentDish is a specific menu item; results must carry dish evidence.
	IntentDish IntentKind = "dish"
	// IntentCuisine is a broad food category.
	IntentCuisine IntentKind = "cuisine"
	// IntentOccasion is an occasion-driven query ("date night spot").
	IntentOccasion IntentKind = "occasion"
	// IntentVague is a weak signal ("somewhere good").
	IntentVague IntentKind = "vague"
)

// Boroughs recognized in queries and replies.
var Boroughs = []string{"Manhattan", "Brooklyn", "Queens", "Bronx", "Staten Island"}

// Budget bands.
const (
	BudgetCheap = "cheap"
	BudgetMid   = "mid"
	BudgetNice  = "nice"
	BudgetAny   = "any"
)

// Intent is the structured restaurant query extracted from a turn.
type Intent struct {
	Kind IntentKind `bson:"kind" json:"kind"`

	// Query is the dish or cuisine term ("sushi", "thai").
	Query        string   `bson:"query,omitempty" json:"query,omitempty"`
	Borough      string   `bson:"borough,omitempty" json:"borough,omitempty"`
	Neighborhood string   `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	Budget       string   `bson:"budget,omitempty" json:"budget,omitempty"`
	Dietary      []string `bson:"dietary,omitempty" json:"dietary,omitempty"`
	Occasion     string   `bson:"occasion,omitempty" json:"occasion,omitempty"`
	Vibe         string   `bson:"vibe,omitempty" json:"vibe,omitempty"`

	NeedsConstraint   bool   `bson:"needsConstraint,omitempty" json:"needsConstraint,omitempty"`
	MissingConstraint string `bson:"missingConstraint,omitempty" json:"missingConstraint,omitempty"`
}

// IsDishQuery reports whether results require dish-level evidence.
func (i *Intent) IsDishQuery() bool {
	return i != nil && i.Kind == IntentDish
}

// NormalizeBorough maps free text to a canonical borough name, or "" when the
// text names no borough. "anywhere" and "all nyc" map to "any".
func NormalizeBorough(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "manhattan"), strings.Contains(t, "nyc downtown"):
		return "Manhattan"
	case strings.Contains(t, "brooklyn"), strings.Contains(t, "bk"):
		return "Brooklyn"
	case strings.Contains(t, "queens"):
		return "Queens"
	case strings.Contains(t, "staten"):
		return "Staten Island"
	case strings.Contains(t, "bronx"):
		return "Bronx"
	case strings.Contains(t, "anywhere"), strings.Contains(t, "all nyc"),
		strings.Contains(t, "any borough"), t == "any", strings.Contains(t, "surprise"):
		return "any"
	}
	return ""
}
