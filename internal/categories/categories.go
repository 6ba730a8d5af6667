// Package categories holds the closed set of event category groups and their
// search keywords. The map is embedded and loaded eagerly at construction.
package categories

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Map is the category group → keyword list mapping.
type Map map[string][]string

// Load parses the embedded category map.
func Load() (Map, error) {
	var m Map
	if err := yaml.Unmarshal(categoriesYAML, &m); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("empty category map")
	}
	return m, nil
}

// Groups returns the category names, sorted for stable prompt embedding.
func (m Map) Groups() []string {
	groups := make([]string, 0, len(m))
	for g := range m {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// KeywordsFor returns the keywords of a category group, case-insensitively.
// Returns nil for unknown categories.
func (m Map) KeywordsFor(category string) []string {
	return m[strings.ToLower(strings.TrimSpace(category))]
}

// GroupFor finds the category group whose name or keyword appears in text,
// or "" when none does.
func (m Map) GroupFor(text string) string {
	t := strings.ToLower(text)
	for _, g := range m.Groups() {
		if strings.Contains(t, g) {
			return g
		}
		for _, kw := range m[g] {
			if strings.Contains(t, kw) {
				return g
			}
		}
	}
	return ""
}
