package search

import (
	"time"

	"concierge/internal/models"
	"concierge/internal/store"
)

const localDate = "2006-01-02"

// TranslateDate resolves a tagged date filter into concrete query bounds,
// evaluated against now in NYC local time. An unset or "any" kind still
// lower-bounds at today so past events never surface.
func TranslateDate(d models.EventDate, now time.Time) store.EventQuery {
	today := now.Format(localDate)

	switch d.Kind {
	case models.DateToday:
		return store.EventQuery{DatePrefix: today}
	case models.DateTomorrow:
		return store.EventQuery{DatePrefix: now.AddDate(0, 0, 1).Format(localDate)}
	case models.DateWeekend:
		start, end := weekendBounds(now)
		return store.EventQuery{DateStart: start, DateEnd: end}
	case models.DateThisWeek:
		// Rolling seven-day window from today, not the calendar week.
		return store.EventQuery{DateStart: today, DateEnd: now.AddDate(0, 0, 7).Format(localDate)}
	case models.DateNextWeek:
		return store.EventQuery{
			DateStart: now.AddDate(0, 0, 7).Format(localDate),
			DateEnd:   now.AddDate(0, 0, 14).Format(localDate),
		}
	case models.DateSpecific:
		if d.Date != "" {
			return store.EventQuery{DatePrefix: d.Date}
		}
	case models.DateRange:
		if d.Start != "" && d.End != "" {
			return store.EventQuery{DateStart: d.Start, DateEnd: d.End}
		}
	case models.DateMonth:
		if d.Date != "" {
			return store.EventQuery{DatePrefix: d.Date}
		}
	}
	return store.EventQuery{DateStart: today}
}

// weekendBounds returns Friday through Sunday of the current week. When now
// already falls inside the weekend the range starts today instead, so a
// Saturday "this weekend" still includes tonight.
func weekendBounds(now time.Time) (string, string) {
	sunday := upcoming(now, time.Sunday)
	friday := sunday.AddDate(0, 0, -2)
	if now.After(friday) || now.Format(localDate) == friday.Format(localDate) {
		friday = now
	}
	return friday.Format(localDate), sunday.Format(localDate)
}

// upcoming returns the next occurrence of weekday, counting today.
func upcoming(now time.Time, weekday time.Weekday) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, days)
}
