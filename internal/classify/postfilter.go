package classify

import (
	"strings"

	"concierge/internal/models"
)

// postFilter nulls out any date, price, budget, or borough the model emitted
// that the raw user text never mentioned. The filter is intentionally
// conservative: a correct guess the user did not state is still dropped.
func postFilter(res Result, rawText string) Result {
	lower := strings.ToLower(rawText)

	if res.Intent != nil {
		if res.Intent.Borough != "" && !mentionsBorough(lower) {
			res.Intent.Borough = ""
		}
		if res.Intent.Budget != "" && !mentionsPrice(lower) {
			res.Intent.Budget = ""
		}
	}

	if res.Event != nil {
		if res.Event.Date.Kind != "" && res.Event.Date.Kind != models.DateAny && !mentionsDate(lower) {
			res.Event.Date = models.EventDate{}
		}
		if res.Event.Price != "" && !mentionsPrice(lower) {
			res.Event.Price = ""
		}
		if res.Event.Borough != "" && !mentionsBorough(lower) {
			res.Event.Borough = ""
		}
	}
	return res
}
