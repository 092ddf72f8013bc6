package domain

// MatchMethod names the signal that dominated a match decision.
type MatchMethod string

const (
	MatchTeamDate MatchMethod = "team_date"
	MatchFuzzy    MatchMethod = "fuzzy"
	MatchKeyword  MatchMethod = "keyword"
	MatchCombined MatchMethod = "combined"
)

// MatchedPair associates one venue-A market with one venue-B market. Pairs are
// values; nothing mutates them after the matcher emits them.
type MatchedPair struct {
	A      Market      `json:"market_a"`
	B      Market      `json:"market_b"`
	Score  float64     `json:"match_score"`
	Reason string      `json:"match_reason"`
	Method MatchMethod `json:"match_method"`
}
