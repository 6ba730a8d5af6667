package classify

import (
	"regexp"
	"strings"
)

// followupRe matches the fixed set of "show me more" phrasings handled
// locally without an LLM call.
var followupRe = regexp.MustCompile(`(?i)^\s*(more|more please|next|show me more|more options|different options|what else|other options|something else|others?)\s*[.!?]*\s*$`)

// IsFollowup reports whether text is a paging/follow-up request.
func IsFollowup(text string) bool {
	return followupRe.MatchString(text)
}

var eventWords = []string{
	"event", "events", "concert", "show", "shows", "festival", "things to do",
	"happening", "activities", "exhibit", "museum", "party", "comedy",
	"performance", "gig", "market", "fair", "screening",
}

var foodWords = []string{
	"restaurant", "food", "eat", "dinner", "lunch", "brunch", "breakfast",
	"hungry", "cuisine", "sushi", "pizza", "ramen", "tacos", "burger",
	"dumplings", "bbq", "noodles", "thai", "italian", "mexican", "chinese",
	"indian", "korean", "takeout", "bite", "meal",
}

// containsAny reports whether any word from list appears in the lowercased text.
func containsAny(lower string, list []string) bool {
	for _, w := range list {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// dateWords are the literal date mentions the anti-hallucination filter
// accepts as proof the user named a date.
var dateWords = []string{
	"today", "tonight", "tomorrow", "tmrw", "weekend", "this week", "next week",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
}

var datePatternRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}(st|nd|rd|th)\b`)

var priceWords = []string{
	"free", "cheap", "budget", "affordable", "$", "expensive", "fancy",
	"splurge", "nice place", "upscale", "inexpensive", "pricey",
}

var boroughWords = []string{
	"manhattan", "brooklyn", "queens", "bronx", "staten island", "bk",
	"anywhere", "all nyc",
}

// mentionsDate reports whether the raw user text literally names a date.
func mentionsDate(lower string) bool {
	return containsAny(lower, dateWords) || datePatternRe.MatchString(lower)
}

// mentionsPrice reports whether the raw user text literally names a price band.
func mentionsPrice(lower string) bool {
	return containsAny(lower, priceWords)
}

// mentionsBorough reports whether the raw user text literally names a borough.
func mentionsBorough(lower string) bool {
	return containsAny(lower, boroughWords)
}
