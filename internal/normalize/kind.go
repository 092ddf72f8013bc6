package normalize

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

var (
	signedLineRe = regexp.MustCompile(`(?:^|\s|\()[+-]\d+(?:\.\d+)?(?:\s|\)|$)`)
	overUnderRe  = regexp.MustCompile(`(?i)\b(?:over|under)\s+\d+(?:\.\d+)?\b`)
)

var (
	spreadMarkers    = []string{"spread", "wins by", "win by", "by more than", "handicap"}
	overUnderMarkers = []string{"over under", "o u", "total points", "total goals", "total runs", "combined score"}
	propMarkers      = []string{"points", "rebounds", "assists", "yards", "touchdowns", "touchdown", "receptions", "strikeouts", "home runs", "home run", "hits", "goals", "saves", "3 pointers", "threes"}
	futuresMarkers   = []string{"champion", "championship", "super bowl", "nba finals", "stanley cup", "world series", "mvp", "award", "rookie of the year", "playoffs", "division", "conference", "season", "pennant", "nominee", "nomination", "election"}
)

// ClassifyKind infers what a market settles on from its title, the venue's
// own category tag, and whether a head-to-head matchup was extracted.
func ClassifyKind(title, venueCategory string, headToHead bool) domain.MarketKind {
	padded := " " + Fold(title) + " "
	cat := strings.ToLower(venueCategory)

	if anyPhrase(padded, spreadMarkers) || signedLineRe.MatchString(title) {
		return domain.KindSpread
	}
	isProp := strings.HasPrefix(cat, "props_") || (hasPlayerColon(title) && anyPhrase(padded, propMarkers))
	if !isProp && (strings.Contains(strings.ToLower(title), "o/u") || overUnderRe.MatchString(title) || anyPhrase(padded, overUnderMarkers)) {
		return domain.KindOverUnder
	}
	if isProp {
		return domain.KindPlayerProp
	}
	if headToHead || strings.HasPrefix(cat, "single_game_") {
		return domain.KindMoneyline
	}
	if cat == "futures" || anyPhrase(padded, futuresMarkers) {
		return domain.KindFutures
	}
	return domain.KindOther
}

// hasPlayerColon matches the "Player Name: 25+ points" phrasing venues use for
// props.
func hasPlayerColon(title string) bool {
	i := strings.Index(title, ":")
	return i > 0 && i < len(title)-1
}

func anyPhrase(padded string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(padded, p) {
			return true
		}
	}
	return false
}
