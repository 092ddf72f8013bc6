package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// ratio is the normalized edit similarity of a and b in [0,1].
func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// tokenSortRatio compares the sorted word sequences, so reordering costs
// nothing.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortedJoin(strings.Fields(a)), sortedJoin(strings.Fields(b)))
}

// tokenSetRatio compares the shared words against each side's extras and
// keeps the best of the three comparisons. A title that is a word-subset of
// the other scores 1.
func tokenSetRatio(a, b string) float64 {
	sa, sb := wordSet(a), wordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	var inter, onlyA, onlyB []string
	for w := range sa {
		if sb[w] {
			inter = append(inter, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range sb {
		if !sa[w] {
			onlyB = append(onlyB, w)
		}
	}
	if len(inter) == 0 {
		return ratio(sortedJoin(onlyA), sortedJoin(onlyB))
	}
	t0 := sortedJoin(inter)
	t1 := strings.TrimSpace(t0 + " " + sortedJoin(onlyA))
	t2 := strings.TrimSpace(t0 + " " + sortedJoin(onlyB))
	return max(ratio(t0, t1), ratio(t0, t2), ratio(t1, t2))
}

// fuzzyScore blends plain, token-sort and token-set similarity.
func fuzzyScore(a, b string) float64 {
	return 0.5*ratio(a, b) + 0.3*tokenSortRatio(a, b) + 0.2*tokenSetRatio(a, b)
}

func sortedJoin(words []string) string {
	out := append([]string(nil), words...)
	sort.Strings(out)
	return strings.Join(out, " ")
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}
