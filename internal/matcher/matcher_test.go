package matcher

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/normalize"
)

var fetched = time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC)

func newMatcher() *Matcher {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return New(Config{Threshold: DefaultThreshold, DateToleranceDays: 1}, logger)
}

func market(venue domain.Venue, id, title string, yes, no float64) domain.Market {
	return normalize.Normalize(domain.Market{
		Venue:     venue,
		VenueID:   id,
		RawTitle:  title,
		YesPrice:  domain.Float(yes),
		NoPrice:   domain.Float(no),
		FetchedAt: fetched,
	})
}

func TestMatch_TeamAndDateSignals(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "pm-1", "Lakers vs Celtics — Dec 5", 0.42, 0.58)
	b := market(domain.VenueKalshi, "k-1", "Celtics at Lakers, 12/05", 0.55, 0.45)

	res := m.Match([]domain.Market{a}, []domain.Market{b}, 0)
	require.Len(t, res.Pairs, 1)
	p := res.Pairs[0]
	assert.GreaterOrEqual(t, p.Score, 0.75)
	assert.Equal(t, domain.MatchTeamDate, p.Method)
	assert.Contains(t, p.Reason, "team+date exact match")
	assert.Equal(t, "pm-1", p.A.VenueID)
	assert.Equal(t, "k-1", p.B.VenueID)
}

func TestMatch_OneToOne(t *testing.T) {
	m := newMatcher()
	as := []domain.Market{
		market(domain.VenuePolymarket, "a1", "Will Bitcoin reach $150,000 in 2026?", 0.3, 0.7),
		market(domain.VenuePolymarket, "a2", "Will Bitcoin reach $150,000 in 2026", 0.31, 0.69),
	}
	bs := []domain.Market{
		market(domain.VenueKalshi, "b1", "Bitcoin reach $150,000 in 2026?", 0.35, 0.65),
	}
	res := m.Match(as, bs, 0)
	require.Len(t, res.Pairs, 1)

	seenA := map[string]int{}
	seenB := map[string]int{}
	for _, p := range res.Pairs {
		seenA[p.A.VenueID]++
		seenB[p.B.VenueID]++
	}
	for id, n := range seenA {
		assert.Equal(t, 1, n, id)
	}
	for id, n := range seenB {
		assert.Equal(t, 1, n, id)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	m := newMatcher()
	as := []domain.Market{
		market(domain.VenuePolymarket, "a1", "Lakers vs Celtics — Dec 5", 0.42, 0.58),
		market(domain.VenuePolymarket, "a2", "Who will win Super Bowl LX?", 0.2, 0.8),
		market(domain.VenuePolymarket, "a3", "Will the Fed cut interest rates in March 2026?", 0.4, 0.6),
	}
	bs := []domain.Market{
		market(domain.VenueKalshi, "b1", "Fed cut interest rates in March 2026", 0.45, 0.55),
		market(domain.VenueKalshi, "b2", "Celtics at Lakers, 12/05", 0.55, 0.45),
		market(domain.VenueKalshi, "b3", "Super Bowl LX winner", 0.22, 0.78),
	}
	first := m.Match(as, bs, 0)
	for i := 0; i < 5; i++ {
		again := m.Match(as, bs, 0)
		assert.Equal(t, first.Pairs, again.Pairs)
	}
}

func TestMatch_NeverBelowThreshold(t *testing.T) {
	m := newMatcher()
	titles := []string{
		"Lakers vs Celtics", "Celtics at Lakers", "Heat vs Knicks", "Will Bitcoin hit 100k?",
		"Bitcoin above 100k", "Trump wins 2028", "Vance wins 2028", "Super Bowl LX winner",
	}
	var as, bs []domain.Market
	for i, title := range titles {
		as = append(as, market(domain.VenuePolymarket, "a"+title, title, 0.4, 0.6))
		bs = append(bs, market(domain.VenueKalshi, "b"+title, titles[len(titles)-1-i], 0.5, 0.5))
	}
	for _, th := range []float64{0.5, 0.75, 0.9} {
		res := m.Match(as, bs, th)
		for _, p := range res.Pairs {
			assert.GreaterOrEqual(t, p.Score, th)
			assert.LessOrEqual(t, p.Score, 1.0)
		}
	}
}

func TestMatch_DeduplicatesInvertedVenueBMarkets(t *testing.T) {
	m := newMatcher()
	first := normalize.Normalize(domain.Market{
		Venue: domain.VenueKalshi, VenueID: "KXNBAGAME-26JAN12UTACLE-UTA",
		RawTitle: "Utah at Cleveland Winner?", VenueCategory: "single_game_nba",
		YesPrice: domain.Float(0.60), NoPrice: domain.Float(0.40), FetchedAt: fetched,
	})
	second := normalize.Normalize(domain.Market{
		Venue: domain.VenueKalshi, VenueID: "KXNBAGAME-26JAN12UTACLE-CLE",
		RawTitle: "Utah at Cleveland Winner?", VenueCategory: "single_game_nba",
		YesPrice: domain.Float(0.40), NoPrice: domain.Float(0.60), FetchedAt: fetched,
	})
	poly := normalize.Normalize(domain.Market{
		Venue: domain.VenuePolymarket, VenueID: "pm", Slug: "nba-uta-cle-2026-01-12",
		RawTitle: "Jazz vs. Cavaliers", YesPrice: domain.Float(0.55), NoPrice: domain.Float(0.45),
		FetchedAt: fetched,
	})

	res := m.Match([]domain.Market{poly}, []domain.Market{first, second}, 0)
	assert.Equal(t, 1, res.Stats.DuplicatesB)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "KXNBAGAME-26JAN12UTACLE-UTA", res.Pairs[0].B.VenueID)
}

func TestMatch_ExcludesUnpricedMarkets(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "Lakers vs Celtics — Dec 5", 0.42, 0.58)
	b := market(domain.VenueKalshi, "b", "Celtics at Lakers, 12/05", 0.55, 0.45)
	b.NoPrice = nil
	c := market(domain.VenueKalshi, "c", "Celtics at Lakers, 12/05", 1.4, 0.45)

	res := m.Match([]domain.Market{a}, []domain.Market{b, c}, 0)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 2, res.Stats.UnpricedB)
}

func TestMatch_CategoryPrefilter(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "Championship game 7", 0.5, 0.5)
	b := market(domain.VenueKalshi, "b", "Championship game 7", 0.5, 0.5)
	a.Category, b.Category = "nba", "nhl"
	assert.Empty(t, m.Match([]domain.Market{a}, []domain.Market{b}, 0).Pairs)

	b.Category = ""
	assert.Len(t, m.Match([]domain.Market{a}, []domain.Market{b}, 0).Pairs, 1, "unknown category compares against everything")
}

func TestMatch_EmptyNameNeverMatches(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "", 0.5, 0.5)
	b := market(domain.VenueKalshi, "b", "", 0.5, 0.5)
	assert.Empty(t, m.Match([]domain.Market{a}, []domain.Market{b}, 0.01).Pairs)
	assert.Equal(t, "empty name", m.Score(a, b).Vetoed)
}

func TestMatch_PrefersStructuredSignalsOnTies(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "Lakers vs Celtics — Dec 5", 0.42, 0.58)
	plain := a
	plain.Venue, plain.VenueID = domain.VenueKalshi, "plain"
	plain.AwayTeam, plain.HomeTeam, plain.GameDate = "", "", nil
	structured := market(domain.VenueKalshi, "structured", "Celtics at Lakers, 12/05", 0.55, 0.45)

	sPlain, sStruct := m.Score(a, plain), m.Score(a, structured)
	require.Equal(t, sPlain.Total, sStruct.Total)

	res := m.Match([]domain.Market{a}, []domain.Market{plain, structured}, 0)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "structured", res.Pairs[0].B.VenueID)
}

func TestScore_DateConflictPenalised(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "Lakers vs Celtics — Dec 5", 0.42, 0.58)
	far := market(domain.VenueKalshi, "b", "Celtics at Lakers, 12/09", 0.55, 0.45)
	near := market(domain.VenueKalshi, "c", "Celtics at Lakers, 12/06", 0.55, 0.45)

	sf := m.Score(a, far)
	assert.Less(t, sf.Total, DefaultThreshold)
	assert.Contains(t, sf.Reason, "dates differ")

	sn := m.Score(a, near)
	assert.GreaterOrEqual(t, sn.Total, DefaultThreshold, "venues may report local vs UTC dates")
}

func TestScore_Vetoes(t *testing.T) {
	m := newMatcher()
	a := market(domain.VenuePolymarket, "a", "Lakers vs Celtics — Dec 5", 0.42, 0.58)
	b := market(domain.VenueKalshi, "b", "Heat at Knicks, 12/05", 0.55, 0.45)
	assert.Equal(t, "different teams", m.Score(a, b).Vetoed)

	c := market(domain.VenuePolymarket, "c", "Will Trump win the 2028 election?", 0.3, 0.7)
	d := market(domain.VenueKalshi, "d", "Will Vance win the 2028 election?", 0.3, 0.7)
	assert.Equal(t, "different entities", m.Score(c, d).Vetoed)
}

func gameProp(venue domain.Venue, id, slug, category, title string) domain.Market {
	return normalize.Normalize(domain.Market{
		Venue:         venue,
		VenueID:       id,
		Slug:          slug,
		VenueCategory: category,
		RawTitle:      title,
		YesPrice:      domain.Float(0.4),
		NoPrice:       domain.Float(0.6),
		FetchedAt:     fetched,
	})
}

func TestMatch_SameGamePropsPairByPlayer(t *testing.T) {
	m := newMatcher()
	as := []domain.Market{
		gameProp(domain.VenuePolymarket, "pm-markkanen", "nba-uta-cle-2026-01-12-points-markkanen-25", "", "Lauri Markkanen: 25+ points"),
	}
	bs := []domain.Market{
		gameProp(domain.VenueKalshi, "KXNBAPTS-26JAN12UTACLE-DMITCHELL30", "", "props_nba", "Donovan Mitchell: 30+ points"),
		gameProp(domain.VenueKalshi, "KXNBAPTS-26JAN12UTACLE-LMARKKANEN25", "", "props_nba", "Lauri Markkanen: 25+ points"),
	}
	for _, mk := range append(append([]domain.Market(nil), as...), bs...) {
		require.True(t, mk.HasTeams(), mk.VenueID)
		require.Equal(t, domain.KindPlayerProp, mk.Kind, mk.VenueID)
	}

	res := m.Match(as, bs, 0)
	assert.Equal(t, 0, res.Stats.DuplicatesB)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "pm-markkanen", res.Pairs[0].A.VenueID)
	assert.Equal(t, "KXNBAPTS-26JAN12UTACLE-LMARKKANEN25", res.Pairs[0].B.VenueID)

	assert.Equal(t, "different subject", m.Score(as[0], bs[0]).Vetoed)
}

func TestScore_SameGameDetailVetoes(t *testing.T) {
	m := newMatcher()
	pm := gameProp(domain.VenuePolymarket, "pm", "nba-uta-cle-2026-01-12-points-markkanen-25", "", "Lauri Markkanen: 25+ points")
	otherLine := gameProp(domain.VenueKalshi, "KXNBAPTS-26JAN12UTACLE-LMARKKANEN30", "", "props_nba", "Lauri Markkanen: 30+ points")
	assert.Equal(t, "different line", m.Score(pm, otherLine).Vetoed)

	jazz := gameProp(domain.VenuePolymarket, "pm-spread", "nba-uta-cle-2026-01-12-spread", "", "Jazz -5.5")
	cavs := gameProp(domain.VenueKalshi, "KXNBASPREAD-26JAN12UTACLE-CLE5", "", "", "Cavaliers -5.5")
	require.Equal(t, domain.KindSpread, jazz.Kind)
	require.Equal(t, domain.KindSpread, cavs.Kind)
	assert.Equal(t, "different side", m.Score(jazz, cavs).Vetoed)

	same := gameProp(domain.VenueKalshi, "KXNBASPREAD-26JAN12UTACLE-UTA5", "", "", "Utah Jazz -5.5")
	sc := m.Score(jazz, same)
	assert.Empty(t, sc.Vetoed)
}

func TestFuzzy(t *testing.T) {
	assert.InDelta(t, 1.0, ratio("abc", "abc"), 1e-9)
	assert.InDelta(t, 1.0, tokenSortRatio("lakers celtics", "celtics lakers"), 1e-9)
	assert.InDelta(t, 1.0, tokenSetRatio("lakers celtics", "lakers celtics game"), 1e-9)
	assert.Equal(t, 0.0, tokenSetRatio("", "x"))
	assert.Less(t, fuzzyScore("bitcoin 100k", "ethereum 5k"), 0.5)
}
