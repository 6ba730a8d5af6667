package search

import (
	"fmt"
	"regexp"
	"strings"
)

var numberedLineRe = regexp.MustCompile(`^\d+\.\s+`)

// redirectHosts are tracking/redirect URL hosts that grounded models leak
// into source links. Any entry carrying one is dropped entirely.
var redirectHosts = []string{
	"vertexaisearch.cloud.google.com",
	"google.com/url",
	"gstatic.com",
	"bing.com/ck",
	"utm_source=",
}

// detailMarkers are the line prefixes of an entry's detail rows.
var detailMarkers = []string{"🕓", "📍", "💰", "🔗"}

// cleanEventFallback normalizes a grounded event-list response: trims any
// preamble before the first numbered line, splits on numbered entries, drops
// every entry polluted with a redirect URL, and renumbers the survivors.
// Returns "" when no usable entries remain.
func cleanEventFallback(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var entries [][]string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if numberedLineRe.MatchString(line) {
			entries = append(entries, []string{numberedLineRe.ReplaceAllString(line, "")})
			continue
		}
		// Detail rows attach to the current entry; prose outside any entry
		// or off-grammar lines inside one are dropped.
		if len(entries) > 0 && isDetailLine(line) {
			last := len(entries) - 1
			entries[last] = append(entries[last], line)
		}
	}

	var kept [][]string
	for _, entry := range entries {
		if entryHasRedirectURL(entry) {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		return ""
	}

	var b strings.Builder
	for i, entry := range kept {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, entry[0])
		for _, line := range entry[1:] {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

func isDetailLine(line string) bool {
	for _, m := range detailMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func entryHasRedirectURL(entry []string) bool {
	for _, line := range entry {
		lower := strings.ToLower(line)
		for _, h := range redirectHosts {
			if strings.Contains(lower, h) {
				return true
			}
		}
	}
	return false
}
