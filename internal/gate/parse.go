package gate

import (
	"regexp"
	"strings"

	"concierge/internal/models"
)

// genericWords is the deny-list of words that do not count as a cuisine.
var genericWords = map[string]bool{
	"best": true, "good": true, "great": true, "food": true, "restaurant": true,
	"restaurants": true, "hungry": true, "dinner": true, "lunch": true,
	"brunch": true, "breakfast": true, "place": true, "places": true,
	"eat": true, "eats": true, "something": true, "anything": true,
	"nice": true, "yes": true, "yeah": true, "ok": true, "okay": true,
	"sure": true, "please": true, "the": true, "a": true, "an": true,
	"some": true, "want": true, "i": true, "me": true, "like": true,
	"for": true, "in": true, "to": true, "get": true, "find": true,
	"cheap": true, "spot": true, "spots": true,
}

// dishWords are terms treated as a specific dish rather than a cuisine.
var dishWords = map[string]bool{
	"sushi": true, "ramen": true, "pizza": true, "tacos": true, "taco": true,
	"burger": true, "burgers": true, "dumplings": true, "pho": true,
	"wings": true, "pasta": true, "curry": true, "bagel": true, "bagels": true,
	"sandwich": true, "oysters": true, "hotpot": true, "dosa": true,
	"shawarma": true, "falafel": true, "poke": true, "paella": true,
	"birria": true, "omakase": true, "khachapuri": true,
}

var tokenRe = regexp.MustCompile(`[a-z]+`)

// ParseCuisine extracts a cuisine/dish term from a gate reply, validating it
// against the generic-word deny-list. Returns "" when nothing specific
// survives.
func ParseCuisine(text string) string {
	lower := strings.ToLower(text)
	// Strip borough and budget mentions so "sushi in brooklyn, cheap"
	// yields just "sushi".
	for _, stop := range []string{"manhattan", "brooklyn", "queens", "bronx", "staten island", "anywhere", "nyc"} {
		lower = strings.ReplaceAll(lower, stop, " ")
	}

	var kept []string
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		if genericWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return ""
	}
	term := strings.Join(kept, " ")
	if len(term) < 3 {
		return ""
	}
	return term
}

// isLikelyDish reports whether term names a specific dish.
func isLikelyDish(term string) bool {
	for _, tok := range strings.Fields(term) {
		if dishWords[tok] {
			return true
		}
	}
	return false
}

// budget phrasings → bands.
func parseBudget(lower string) string {
	switch {
	case strings.Contains(lower, "$$$"), strings.Contains(lower, "fancy"),
		strings.Contains(lower, "upscale"), strings.Contains(lower, "splurge"),
		strings.Contains(lower, "nice place"):
		return models.BudgetNice
	case strings.Contains(lower, "$$"), strings.Contains(lower, "moderate"),
		strings.Contains(lower, "mid"):
		return models.BudgetMid
	case strings.Contains(lower, "cheap"), strings.Contains(lower, "$"),
		strings.Contains(lower, "budget"), strings.Contains(lower, "affordable"),
		strings.Contains(lower, "inexpensive"):
		return models.BudgetCheap
	}
	return ""
}

var vibeWords = []string{
	"date night", "romantic", "casual", "cozy", "trendy", "quiet", "lively",
	"family", "late night", "outdoor",
}

func parseVibe(lower string) string {
	for _, v := range vibeWords {
		if strings.Contains(lower, v) {
			return v
		}
	}
	return ""
}

// mergeReplyDetails parses borough, budget band, and vibe out of a free-text
// reply and merges them onto the intent. Existing values win only when the
// reply stays silent.
func mergeReplyDetails(intent *models.Intent, text string) {
	lower := strings.ToLower(text)
	if b := models.NormalizeBorough(lower); b != "" {
		intent.Borough = b
	}
	if budget := parseBudget(lower); budget != "" {
		intent.Budget = budget
	}
	if vibe := parseVibe(lower); vibe != "" {
		intent.Vibe = vibe
	}
}

// Event-escape keyword lists. A reply that clearly asks about events (and
// not food) must not be trapped inside a food gate.
var escapeEventWords = []string{
	"event", "concert", "show", "festival", "things to do", "exhibit",
	"museum", "party", "comedy", "happening",
}

var escapeFoodWords = []string{
	"food", "eat", "restaurant", "dinner", "lunch", "sushi", "pizza",
	"ramen", "tacos", "burger", "cuisine", "hungry",
}

func isEventEscape(text string) bool {
	lower := strings.ToLower(text)
	hasEvent := false
	for _, w := range escapeEventWords {
		if strings.Contains(lower, w) {
			hasEvent = true
			break
		}
	}
	if !hasEvent {
		return false
	}
	for _, w := range escapeFoodWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}
