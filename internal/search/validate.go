package search

import (
	"strings"

	"concierge/internal/models"
)

// badNameWords disqualify grounded-web candidates that are not restaurants.
var badNameWords = []string{
	"museum", "tour", "market", "food hall", "food court", "supermarket",
	"grocery", "food crawl", "walking", "festival",
}

func hasBadName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range badNameWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// validateCandidates runs the mandatory validation pass over grounded-web
// results: bad-name filter, location requirement, dish-evidence enforcement
// for dish queries, dedupe-key computation, and exclusion of already-shown
// keys.
func validateCandidates(items []models.RestaurantCandidate, dish string, isDish bool, excludeKeys map[string]bool) []models.RestaurantCandidate {
	out := make([]models.RestaurantCandidate, 0, len(items))
	for _, item := range items {
		if item.Name == "" || hasBadName(item.Name) {
			continue
		}
		if item.Neighborhood == "" && item.Borough == "" {
			continue
		}
		if isDish {
			switch item.DishMatch {
			case models.DishMatchExact, models.DishMatchClose:
				if item.EvidenceText == "" || item.EvidenceURL == "" {
					continue
				}
				if !evidenceLengthOK(item.EvidenceText) || !evidenceMatches(dish, item.EvidenceText) {
					continue
				}
			case models.DishMatchCuisineFallback:
				// Allowed, declared via the top-level note.
			default:
				continue
			}
		}
		item.DedupeKey = models.DedupeKey(item.Name, item.Neighborhood, item.Borough)
		if excludeKeys[item.DedupeKey] {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Sanitize strips the internal underscore-prefixed fields from a candidate
// copy that could reach user output.
func Sanitize(item models.RestaurantCandidate) models.RestaurantCandidate {
	item.DishMatch = ""
	item.EvidenceText = ""
	item.EvidenceURL = ""
	return item
}
