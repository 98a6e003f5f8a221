package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"zonebourse-go/internal/model"
)

// Fold lowercases s and strips diacritics so "Université" matches "universite".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Filter keeps the bourses whose title, university/country or description
// contains query. An empty query keeps everything.
func Filter(bourses []model.Bourse, query string) []model.Bourse {
	needle := Fold(query)
	if needle == "" {
		return bourses
	}

	out := make([]model.Bourse, 0, len(bourses))
	for _, b := range bourses {
		if matches(b, needle) {
			out = append(out, b)
		}
	}
	return out
}

func matches(b model.Bourse, needle string) bool {
	fields := []string{b.Titre, b.Universite + ", " + b.Pays, b.Description}
	for _, f := range fields {
		if strings.Contains(Fold(f), needle) {
			return true
		}
	}
	return false
}
