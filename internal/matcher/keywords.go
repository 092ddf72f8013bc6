package matcher

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/normalize"
)

// highValueKeywords are phrases specific enough that sharing one is real
// evidence two titles describe the same event.
var highValueKeywords = []string{
	"donald trump", "trump administration", "joe biden", "presidential election",
	"2026 election", "2028 election", "midterm", "supreme court", "federal reserve",
	"interest rate", "rate cut", "government shutdown", "election", "crypto",
	"super bowl", "world series", "stanley cup", "nba finals", "fifa world cup",
	"champions league", "wimbledon", "march madness", "mvp", "nba", "nfl", "nhl", "mlb",
	"openai", "artificial intelligence", "chatgpt", "tesla", "spacex", "elon musk",
	"bitcoin", "ethereum", "btc", "eth", "solana",
	"ukraine russia", "russia ukraine", "israel hamas", "gaza", "china taiwan", "north korea",
}

// entities are named things; two titles that each name some but share none
// are about different subjects.
var entities = []string{
	"trump", "biden", "obama", "harris", "desantis", "newsom", "vance", "musk",
	"bezos", "zuckerberg", "altman", "putin", "zelensky", "xi jinping", "netanyahu",
	"modi", "pope", "pelosi", "schumer", "mcconnell", "powell",
	"china", "russia", "ukraine", "israel", "iran", "north korea", "taiwan", "india",
	"germany", "france", "britain", "japan", "brazil", "mexico", "canada",
	"tesla", "spacex", "openai", "google", "apple", "microsoft", "meta", "amazon", "nvidia",
	"bitcoin", "ethereum", "solana",
}

func phrasesIn(text string, list []string) map[string]bool {
	padded := " " + normalize.Fold(text) + " "
	out := make(map[string]bool)
	for _, p := range list {
		if containsWords(padded, p) {
			out[p] = true
		}
	}
	return out
}

func containsWords(padded, phrase string) bool {
	return phrase != "" && strings.Contains(padded, " "+phrase+" ")
}

// keywordOverlap returns the share of high-value phrases present in either
// title that both titles contain, and the shared phrases in sorted order.
func keywordOverlap(a, b string) (float64, []string) {
	ka, kb := phrasesIn(a, highValueKeywords), phrasesIn(b, highValueKeywords)
	union := len(ka)
	var shared []string
	for k := range kb {
		if ka[k] {
			shared = append(shared, k)
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, nil
	}
	sort.Strings(shared)
	return float64(len(shared)) / float64(union), shared
}

// entityConflict reports whether both titles name entities but none in common.
func entityConflict(a, b string) bool {
	ea, eb := phrasesIn(a, entities), phrasesIn(b, entities)
	if len(ea) == 0 || len(eb) == 0 {
		return false
	}
	for e := range ea {
		if eb[e] {
			return false
		}
	}
	return true
}
