// Package quota enforces per-sender daily call budgets for LLM-backed steps.
// State is keyed by (sender, local date, kind); reset is implicit when the
// date rolls over.
package quota

import (
	"sync"
	"time"
)

// Call kinds with independent budgets.
const (
	KindClassify  = "classify"
	KindWebSearch = "web_search"
)

// Tracker counts calls per sender per local day.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int
	limits map[string]int

	now func() time.Time
}

// New creates a tracker with the given daily limits.
func New(classifyLimit, webSearchLimit int) *Tracker {
	return &Tracker{
		counts: make(map[string]int),
		limits: map[string]int{
			KindClassify:  classifyLimit,
			KindWebSearch: webSearchLimit,
		},
		now: time.Now,
	}
}

func (t *Tracker) key(senderID, kind string) string {
	return senderID + "|" + t.now().Local().Format("2006-01-02") + "|" + kind
}

// Allow consumes one unit of the sender's budget for kind. Returns false
// when the budget is exhausted; the call must then be skipped.
func (t *Tracker) Allow(senderID, kind string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit, ok := t.limits[kind]
	if !ok {
		return true
	}
	k := t.key(senderID, kind)
	if t.counts[k] >= limit {
		return false
	}
	t.counts[k]++

	// Opportunistic cleanup of stale keys once the map grows.
	if len(t.counts) > 10000 {
		today := t.now().Local().Format("2006-01-02")
		for key := range t.counts {
			if !containsDate(key, today) {
				delete(t.counts, key)
			}
		}
	}
	return true
}

// Remaining reports the sender's unused budget for kind.
func (t *Tracker) Remaining(senderID, kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	limit := t.limits[kind]
	used := t.counts[t.key(senderID, kind)]
	if used > limit {
		return 0
	}
	return limit - used
}

func containsDate(key, date string) bool {
	// key layout: sender|date|kind
	start := -1
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			start = i + 1
			break
		}
	}
	if start < 0 || start+len(date) > len(key) {
		return false
	}
	return key[start:start+len(date)] == date
}
