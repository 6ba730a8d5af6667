package search

import (
	"encoding/json"
	"strings"
)

// repairResults recovers complete objects from a truncated model response.
// It locates the "results" array and scans character-by-character, honoring
// string and escape state, extracting each balanced object. Returns the
// recovered raw objects and whether the payload was truncated.
func repairResults(raw string) ([]json.RawMessage, bool) {
	idx := strings.Index(raw, `"results"`)
	if idx < 0 {
		return nil, false
	}
	arrStart := strings.Index(raw[idx:], "[")
	if arrStart < 0 {
		return nil, false
	}
	s := raw[idx+arrStart+1:]

	var objects []json.RawMessage
	depth := 0
	inString := false
	escaped := false
	objStart := -1

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && objStart >= 0 {
				candidate := s[objStart : i+1]
				if json.Valid([]byte(candidate)) {
					objects = append(objects, json.RawMessage(candidate))
				}
				objStart = -1
			}
		case ']':
			if depth == 0 {
				// Array closed cleanly: nothing was truncated.
				return objects, false
			}
		}
	}
	// Ran off the end mid-array: truncated response.
	return objects, true
}
