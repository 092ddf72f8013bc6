package normalize

import "strings"

// Sport tags. Markets without a sport may still carry one of the topic tags.
const (
	SportNBA     = "nba"
	SportNFL     = "nfl"
	SportNHL     = "nhl"
	SportMLB     = "mlb"
	SportWNBA    = "wnba"
	SportNCAAB   = "ncaab"
	SportNCAAF   = "ncaaf"
	SportUFC     = "ufc"
	SportTennis  = "tennis"
	SportGolf    = "golf"
	SportF1      = "f1"
	SportNASCAR  = "nascar"
	SportSoccer  = "soccer"
	SportEsports = "esports"
)

type marker struct {
	phrases []string
	tag     string
}

// sportMarkers are checked in order; WNBA precedes NBA so "wnba" is not read
// as "nba" by a looser marker.
var sportMarkers = []marker{
	{[]string{"kxwnbagame", "wnba"}, SportWNBA},
	{[]string{"kxncaabgame", "kxncaambgame", "cbb", "college basketball", "march madness"}, SportNCAAB},
	{[]string{"kxncaafgame", "kxncaafbgame", "cfb", "college football"}, SportNCAAF},
	{[]string{"kxnbagame", "nba", "basketball", "nba finals"}, SportNBA},
	{[]string{"kxnflgame", "nfl", "super bowl", "touchdown", "quarterback"}, SportNFL},
	{[]string{"kxnhlgame", "nhl", "hockey", "stanley cup"}, SportNHL},
	{[]string{"kxmlbgame", "mlb", "baseball", "world series"}, SportMLB},
	{[]string{"kxufcfight", "ufc", "mma"}, SportUFC},
	{[]string{"kxtennismatch", "kxatptour", "kxwtatour", "tennis", "wimbledon", "us open", "atp", "wta"}, SportTennis},
	{[]string{"kxpgatour", "kxlpgatour", "golf", "pga", "masters"}, SportGolf},
	{[]string{"kxf1race", "formula 1", "f1", "grand prix"}, SportF1},
	{[]string{"kxnascarrace", "nascar"}, SportNASCAR},
	{[]string{"fifa", "world cup", "premier league", "champions league", "soccer", "la liga", "serie a", "bundesliga"}, SportSoccer},
	{[]string{"kxdota2game", "esports", "dota", "league of legends", "counter strike", "valorant"}, SportEsports},
}

// topicMarkers tag non-sports markets.
var topicMarkers = []marker{
	{[]string{"president", "presidential", "election", "congress", "senate", "house", "republican", "democrat", "trump", "biden", "white house", "governor", "supreme court"}, "politics_us"},
	{[]string{"prime minister", "parliament", "brexit", "eu", "nato", "united nations", "putin", "zelensky", "netanyahu"}, "politics_intl"},
	{[]string{"bitcoin", "ethereum", "btc", "eth", "crypto", "cryptocurrency", "solana", "dogecoin"}, "crypto"},
	{[]string{"ai", "openai", "gpt", "chatgpt", "tesla", "spacex", "apple", "google", "microsoft", "meta", "nvidia"}, "tech"},
	{[]string{"temperature", "celsius", "fahrenheit", "warming", "climate", "carbon", "hurricane"}, "climate"},
	{[]string{"inflation", "gdp", "interest rate", "federal reserve", "fed", "recession", "unemployment", "cpi", "jobs report"}, "economy"},
}

func firstMarker(text string, markers []marker) string {
	padded := " " + Fold(text) + " "
	for _, m := range markers {
		for _, p := range m.phrases {
			if containsPhrase(padded, p) {
				return m.tag
			}
		}
	}
	return ""
}

// DetectSport returns the sport tag implied by text, or "".
func DetectSport(text string) string {
	return firstMarker(text, sportMarkers)
}

// DetectTopic returns a non-sports topic tag for text, or "".
func DetectTopic(text string) string {
	return firstMarker(text, topicMarkers)
}

// sportFromVenueCategory reads venue category tags such as
// "single_game_nba" or "props_nfl".
func sportFromVenueCategory(cat string) string {
	cat = strings.ToLower(cat)
	for _, prefix := range []string{"single_game_", "props_"} {
		if s, ok := strings.CutPrefix(cat, prefix); ok && s != "" {
			if IsSport(s) {
				return s
			}
			if d := DetectSport(s); d != "" {
				return d
			}
			return s
		}
	}
	return ""
}

// IsSport reports whether tag is a sport rather than a topic.
func IsSport(tag string) bool {
	for _, m := range sportMarkers {
		if m.tag == tag {
			return true
		}
	}
	return false
}
