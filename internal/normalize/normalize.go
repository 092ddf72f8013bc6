// Package normalize canonicalizes venue market titles into comparable
// attributes: a normalized name, sport or topic tag, market kind, head-to-head
// teams and game date. Every function degrades to "unknown" on input it cannot
// parse; none of them fail.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// matchupRe splits "A vs B", "A vs. B", "A v B", "A @ B" and "A at B".
var matchupRe = regexp.MustCompile(`(?i)\s+(?:vs\.?|v\.?|@|at)\s+`)

// Parsed is the structured information recovered from one market.
type Parsed struct {
	Sport    string
	Away     string
	Home     string
	GameDate *time.Time
	YesTeam  string
}

// ParseSlug reads Polymarket game slugs of the form
// "<sport>-<away>-<home>-YYYY-MM-DD", e.g. "nba-uta-cle-2026-01-12".
func ParseSlug(slug string) Parsed {
	parts := strings.Split(strings.ToLower(slug), "-")
	if len(parts) < 3 {
		return Parsed{}
	}
	var p Parsed
	switch parts[0] {
	case "nba", "nfl", "nhl", "mlb", "wnba":
		p.Sport = parts[0]
	case "cbb", "cwbb":
		p.Sport = SportNCAAB
	case "cfb":
		p.Sport = SportNCAAF
	default:
		return Parsed{}
	}
	if l := leagueFor(p.Sport); l != nil {
		away, ok1 := l.exact[parts[1]]
		home, ok2 := l.exact[parts[2]]
		if ok1 && ok2 && away.name != home.name {
			p.Away, p.Home = away.name, home.name
		}
	}
	if len(parts) >= 6 {
		p.GameDate = ExtractDate(strings.Join(parts[3:6], "-"), time.Time{})
	}
	return p
}

// ParseTicker reads Kalshi game tickers of the form
// "KX<SPORT>GAME-<YY><MON><DD><AWAY><HOME>-<TEAM>", e.g.
// "KXNBAGAME-26JAN12UTACLE-UTA". The trailing segment names the team the YES
// side pays out on.
func ParseTicker(ticker string) Parsed {
	upper := strings.ToUpper(ticker)
	parts := strings.Split(upper, "-")
	var p Parsed
	series := parts[0]
	switch {
	case strings.Contains(series, "WNBA"):
		p.Sport = SportWNBA
	case strings.Contains(series, "NBA"):
		p.Sport = SportNBA
	case strings.Contains(series, "NFL"):
		p.Sport = SportNFL
	case strings.Contains(series, "NHL"):
		p.Sport = SportNHL
	case strings.Contains(series, "MLB"):
		p.Sport = SportMLB
	case strings.Contains(series, "NCAAB"), strings.Contains(series, "NCAAMB"):
		p.Sport = SportNCAAB
	case strings.Contains(series, "NCAAF"):
		p.Sport = SportNCAAF
	default:
		p.Sport = DetectSport(series)
	}
	if len(parts) < 2 {
		return p
	}

	date, rest := parseTickerDate(parts[1])
	p.GameDate = date
	if date != nil && len(rest) >= 4 {
		if away, home, ok := splitAbbrs(rest, p.Sport); ok {
			p.Away, p.Home = away, home
		}
	}
	if len(parts) >= 3 {
		if l := leagueFor(p.Sport); l != nil {
			if a, ok := l.exact[strings.ToLower(parts[2])]; ok {
				p.YesTeam = a.name
			}
		}
	}
	return p
}

// ExtractMatchup finds a "Team A vs Team B" style matchup in title and returns
// the left side as away. The title should already have dates stripped.
func ExtractMatchup(title, sport string) (away, home, resolvedSport string, ok bool) {
	loc := matchupRe.FindStringIndex(title)
	if loc == nil {
		return "", "", sport, false
	}
	left := title[:loc[0]]
	right := title[loc[1]:]
	a, b, s, ok := resolvePair(left, right, sport)
	if !ok {
		return "", "", sport, false
	}
	return a, b, s, true
}

// GameName builds the canonical head-to-head name. Teams are sorted so that
// "A at B" and "B vs A" produce the same string.
func GameName(a, b string) string {
	teams := []string{strings.ToLower(a), strings.ToLower(b)}
	sort.Strings(teams)
	return teams[0] + " vs " + teams[1]
}

// Normalize fills the derived fields of m: NormalizedName, Category, Kind,
// AwayTeam, HomeTeam, GameDate and YesTeam. Fields the venue client already
// set (a structured GameDate, say) take precedence over text extraction.
func Normalize(m domain.Market) domain.Market {
	ref := m.FetchedAt
	if ref.IsZero() {
		ref = time.Now()
	}

	var p Parsed
	switch m.Venue {
	case domain.VenuePolymarket:
		p = ParseSlug(m.Slug)
	case domain.VenueKalshi:
		p = ParseTicker(m.VenueID)
	}

	sport := p.Sport
	if sport == "" {
		sport = sportFromVenueCategory(m.VenueCategory)
	}
	if sport == "" {
		sport = DetectSport(m.RawTitle + " " + m.Slug)
	}

	stripped := StripDates(m.RawTitle)
	away, home := p.Away, p.Home
	if away == "" || home == "" {
		if a, h, s, ok := ExtractMatchup(stripped, sport); ok {
			away, home = a, h
			if sport == "" {
				sport = s
			}
		}
	}

	if m.GameDate == nil {
		switch {
		case p.GameDate != nil:
			m.GameDate = p.GameDate
		default:
			m.GameDate = ExtractDate(m.RawTitle, ref)
		}
	} else {
		d := DayOf(*m.GameDate)
		m.GameDate = &d
	}

	yesTeam := p.YesTeam
	if yesTeam == "" && m.YesTeam != "" {
		if name, _, ok := ResolveTeam(m.YesTeam, sport); ok {
			yesTeam = name
		}
	}

	m.AwayTeam, m.HomeTeam = away, home
	m.YesTeam = yesTeam
	m.Kind = ClassifyKind(m.RawTitle, m.VenueCategory, away != "" && home != "")

	m.Category = sport
	if m.Category == "" {
		m.Category = DetectTopic(m.RawTitle)
	}

	switch {
	case away != "" && home != "":
		m.NormalizedName = GameName(away, home)
		if m.Kind != domain.KindMoneyline {
			if d := gameDetail(stripped, sport, away, home); d != "" {
				m.NormalizedName += detailSep + d
			}
		}
	default:
		m.NormalizedName = CleanTitle(stripped)
		if m.NormalizedName == "" {
			m.NormalizedName = CollapseTitle(m.RawTitle)
		}
	}
	return m
}

// DedupKey identifies markets that describe the same outcome on one venue.
func DedupKey(m domain.Market) string {
	date := ""
	if m.GameDate != nil {
		date = m.GameDate.Format("2006-01-02")
	}
	return m.NormalizedName + "|" + date + "|" + string(m.Kind)
}
