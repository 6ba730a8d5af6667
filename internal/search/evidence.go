package search

import (
	"regexp"
	"strings"
)

// dishFamilies maps a canonical dish family to the evidence words that prove
// a restaurant actually serves it. Queries for families not listed here fall
// back to a case-insensitive substring match of the dish name.
var dishFamilies = map[string][]string{
	"sushi":    {"sushi", "nigiri", "sashimi", "maki", "hand roll", "temaki", "chirashi", "omakase"},
	"pizza":    {"pizza", "slice", "margherita", "sicilian", "neapolitan", "grandma pie", "pepperoni"},
	"ramen":    {"ramen", "tonkotsu", "shoyu", "miso ramen", "tsukemen", "paitan"},
	"taco":     {"taco", "tacos", "birria", "al pastor", "carnitas", "barbacoa", "suadero"},
	"burger":   {"burger", "cheeseburger", "smash", "patty"},
	"dumpling": {"dumpling", "soup dumpling", "xiao long bao", "gyoza", "momo", "pierogi", "mandu"},
	"bbq":      {"bbq", "barbecue", "brisket", "ribs", "pulled pork", "burnt ends"},
	"pasta":    {"pasta", "cacio e pepe", "carbonara", "rigatoni", "tagliatelle", "lasagna", "ragu"},
	"curry":    {"curry", "masala", "vindaloo", "korma", "katsu curry"},
	"wings":    {"wings", "buffalo", "drumette"},
	"bagel":    {"bagel", "lox", "schmear", "bialy"},
	"pho":      {"pho", "bun bo hue", "broth"},
	"oysters":  {"oyster", "oysters", "raw bar", "half shell"},
}

// familyFor resolves the dish family for a query term, or "" when the term
// belongs to no known family.
func familyFor(dish string) string {
	d := strings.ToLower(dish)
	for family, words := range dishFamilies {
		if strings.Contains(d, family) {
			return family
		}
		for _, w := range words {
			if d == w {
				return family
			}
		}
	}
	return ""
}

// evidenceMatches reports whether evidence text proves the dish. For known
// families any family word is accepted; otherwise the dish name itself must
// appear as a substring.
func evidenceMatches(dish, evidence string) bool {
	ev := strings.ToLower(evidence)
	if family := familyFor(dish); family != "" {
		for _, w := range dishFamilies[family] {
			if strings.Contains(ev, w) {
				return true
			}
		}
		return false
	}
	return strings.Contains(ev, strings.ToLower(dish))
}

// evidenceWordCount bounds: the snippet must read like a quote, not a page.
var wordSplitRe = regexp.MustCompile(`\s+`)

func evidenceLengthOK(evidence string) bool {
	n := len(wordSplitRe.Split(strings.TrimSpace(evidence), -1))
	return n >= 4 && n <= 40
}
