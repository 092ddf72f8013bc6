package normalize

import (
	"strings"
	"unicode"
)

// stopWords never carry matching signal.
var stopWords = map[string]bool{
	"will": true, "the": true, "a": true, "an": true, "be": true, "is": true,
	"are": true, "was": true, "were": true, "to": true, "of": true, "in": true,
	"for": true, "on": true, "by": true, "with": true, "from": true,
	"or": true, "and": true, "this": true, "that": true, "it": true, "as": true,
	"if": true, "than": true, "yes": true, "no": true, "before": true,
	"after": true, "during": true, "what": true, "who": true, "when": true,
	"where": true, "how": true, "which": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "can": true, "does": true,
	"do": true, "did": true, "has": true, "have": true, "world": true,
	"winner": true,
}

// boilerplate phrases are removed before tokenising.
var boilerplate = []string{"to win", "who will win", "winner"}

// Fold lowercases s, turns every run of non-alphanumeric runes into a single
// space and trims the result.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// CollapseTitle lowercases s and collapses whitespace. It is the last-resort
// normalized name.
func CollapseTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CleanTitle strips boilerplate, punctuation and stop words from s. Hyphens
// inside words survive.
func CleanTitle(s string) string {
	lower := strings.ToLower(s)
	for _, p := range boilerplate {
		lower = strings.ReplaceAll(lower, p, " ")
	}
	lower = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return ' '
	}, lower)

	words := strings.Fields(lower)
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, "-.")
		if w == "" || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Tokens splits a normalized name into words.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// containsPhrase reports whether the folded text contains phrase as whole
// words. text must already be folded and padded with spaces.
func containsPhrase(paddedText, phrase string) bool {
	return strings.Contains(paddedText, " "+phrase+" ")
}
