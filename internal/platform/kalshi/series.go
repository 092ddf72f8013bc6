package kalshi

import (
	"slices"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/normalize"
)

// SeriesKind groups series by how their markets are filtered and tagged.
type SeriesKind int

const (
	SeriesSingleGame SeriesKind = iota
	SeriesPlayerProps
	SeriesFutures
)

// SingleGameSeries are the per-game series. Each game yields one market per
// side.
var SingleGameSeries = []string{
	"KXNBAGAME", "KXNFLGAME", "KXNHLGAME", "KXMLBGAME", "KXWNBAGAME",
	"KXNCAABGAME", "KXNCAAMBGAME", "KXNCAAWBGAME", "KXNCAAFGAME", "KXNCAAFBGAME", "KXNCAAFCSGAME",
	"KXEUROLEAGUEGAME", "KXNBLGAME",
	"KXUFCFIGHT",
	"KXTENNISMATCH", "KXATPTOUR", "KXWTATOUR",
	"KXPGATOUR", "KXLPGATOUR", "KXGOLFTOURNAMENT",
	"KXF1RACE", "KXNASCARRACE", "KXINDYCARRACE",
	"KXCRICKETTESTMATCH", "KXCRICKETT20IMATCH",
	"KXCHESSMATCH",
	"KXDOTA2GAME",
}

// PlayerPropsSeries are player performance series.
var PlayerPropsSeries = []string{
	"KXNBAPTS", "KXNBAREBS", "KXNBAASTS", "KXNBA3S",
	"KXNFLTD", "KXNFLPASS", "KXNFLRUSH", "KXNFLREC",
	"KXNHLPTS", "KXNHLGOALS",
	"KXMLBHITS", "KXMLBHR", "KXMLBRBI",
}

// FuturesSeries are championship and award series.
var FuturesSeries = []string{
	"KXSB", "KXAFC", "KXNFC", "KXNFLSBMVP", "KXNFLDPOY", "KXNFLOROTY", "KXNFLCPOY", "KXNFLCOACH", "KXNFLMVP",
	"KXNBA", "KXNBAROY", "KXNBAMVP",
	"KXNHL", "KXNHLEAST", "KXNHLWEST", "KXNHLMVP",
	"KXMLB", "KXMLBALEAST", "KXMLBNLEAST", "KXMLBALROTY", "KXMLBNLROTY",
}

// DefaultSeries returns the series walked on each refresh.
func DefaultSeries(includeProps, includeFutures bool) []string {
	out := slices.Clone(SingleGameSeries)
	if includeProps {
		out = append(out, PlayerPropsSeries...)
	}
	if includeFutures {
		out = append(out, FuturesSeries...)
	}
	return out
}

// ClassifySeries tells how a series ticker is treated. Tickers outside the
// built-in lists are read from their suffix.
func ClassifySeries(ticker string) SeriesKind {
	t := strings.ToUpper(ticker)
	switch {
	case slices.Contains(SingleGameSeries, t):
		return SeriesSingleGame
	case slices.Contains(PlayerPropsSeries, t):
		return SeriesPlayerProps
	case slices.Contains(FuturesSeries, t):
		return SeriesFutures
	}
	for _, suffix := range []string{"GAME", "FIGHT", "MATCH", "RACE"} {
		if strings.HasSuffix(t, suffix) {
			return SeriesSingleGame
		}
	}
	return SeriesFutures
}

// seriesSports maps series ticker stems to sport tags, longest stems first.
var seriesSports = []struct{ stem, sport string }{
	{"ncaamb", normalize.SportNCAAB}, {"ncaawb", normalize.SportNCAAB}, {"ncaab", normalize.SportNCAAB},
	{"ncaaf", normalize.SportNCAAF},
	{"wnba", normalize.SportWNBA}, {"nba", normalize.SportNBA}, {"nfl", normalize.SportNFL},
	{"nhl", normalize.SportNHL}, {"mlb", normalize.SportMLB}, {"ufc", normalize.SportUFC},
	{"tennis", normalize.SportTennis}, {"atp", normalize.SportTennis}, {"wta", normalize.SportTennis},
	{"lpga", normalize.SportGolf}, {"pga", normalize.SportGolf}, {"golf", normalize.SportGolf},
	{"f1", normalize.SportF1}, {"nascar", normalize.SportNASCAR}, {"dota2", normalize.SportEsports},
}

// seriesSport extracts the sport from a series ticker, e.g. "KXNBAPTS" gives
// "nba". Unknown stems are returned lowercased without the KX prefix and
// GAME suffix.
func seriesSport(ticker string) string {
	stem := strings.TrimPrefix(strings.ToLower(ticker), "kx")
	for _, s := range seriesSports {
		if strings.HasPrefix(stem, s.stem) {
			return s.sport
		}
	}
	return strings.TrimSuffix(stem, "game")
}

// venueCategory tags markets the way the normalizer reads them.
func venueCategory(ticker string, kind SeriesKind) string {
	switch kind {
	case SeriesSingleGame:
		return "single_game_" + seriesSport(ticker)
	case SeriesPlayerProps:
		return "props_" + seriesSport(ticker)
	default:
		return "futures"
	}
}
