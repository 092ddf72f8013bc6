package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// detailSep joins the game name and the detail of a non-moneyline game market.
const detailSep = " | "

// maxTeamWords bounds the alias span tried when replacing team mentions.
const maxTeamWords = 4

var numberRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

var matchupWords = map[string]bool{"vs": true, "v": true, "at": true}

// genericWords describe a line without naming what it is about.
var genericWords = func() map[string]bool {
	m := map[string]bool{
		"over": true, "under": true, "more": true, "less": true, "fewer": true,
		"at": true, "least": true, "total": true, "line": true, "alt": true,
		"win": true, "wins": true, "o": true, "u": true, "pts": true,
		"plus": true, "game": true, "match": true, "score": true, "scores": true,
		"record": true, "records": true, "get": true, "gets": true,
		"player": true, "props": true, "prop": true,
	}
	for _, list := range [][]string{spreadMarkers, overUnderMarkers, propMarkers} {
		for _, phrase := range list {
			for _, w := range strings.Fields(phrase) {
				m[w] = true
			}
		}
	}
	return m
}()

// Detail is what a game market settles on beyond the matchup itself: the
// teams it singles out, the remaining subject words (usually a player) and
// the numeric lines. Every list is sorted and free of duplicates.
type Detail struct {
	Teams   []string
	Names   []string
	Numbers []string
}

// Empty reports whether d carries no detail at all.
func (d Detail) Empty() bool {
	return len(d.Teams) == 0 && len(d.Names) == 0 && len(d.Numbers) == 0
}

// gameDetail cleans title into the detail suffix of a game market's name.
// Mentions of the two teams become one canonical token each so that
// "Cavs" and "Cleveland Cavaliers" read the same.
func gameDetail(title, sport, away, home string) string {
	words := strings.Fields(CleanTitle(title))
	l := leagueFor(sport)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if matchupWords[words[i]] {
			i++
			continue
		}
		if name, n := teamAt(l, words, i); n > 0 && (name == away || name == home) {
			tok := teamToken(name)
			if len(out) == 0 || out[len(out)-1] != tok {
				out = append(out, tok)
			}
			i += n
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

// teamAt finds the longest alias starting at words[i] and returns the team
// name with the number of words it spans.
func teamAt(l *league, words []string, i int) (string, int) {
	if l == nil {
		return "", 0
	}
	for n := min(maxTeamWords, len(words)-i); n > 0; n-- {
		if a, ok := l.exact[strings.Join(words[i:i+n], " ")]; ok {
			return a.name, n
		}
	}
	return "", 0
}

func teamToken(name string) string {
	return strings.ReplaceAll(Fold(name), " ", "_")
}

// SplitName splits a normalized name into its game part and detail part. The
// detail is empty for moneylines and for markets without a matchup.
func SplitName(name string) (game, detail string) {
	game, detail, _ = strings.Cut(name, detailSep)
	return game, detail
}

// ParseDetail reads back the detail a normalized game market carries.
func ParseDetail(m domain.Market) Detail {
	_, detail := SplitName(m.NormalizedName)
	if detail == "" {
		return Detail{}
	}
	teams := map[string]bool{}
	if m.AwayTeam != "" {
		teams[teamToken(m.AwayTeam)] = true
	}
	if m.HomeTeam != "" {
		teams[teamToken(m.HomeTeam)] = true
	}

	var d Detail
	for _, w := range strings.Fields(detail) {
		switch {
		case teams[w]:
			d.Teams = append(d.Teams, w)
		case isNumber(w):
			f, _ := strconv.ParseFloat(w, 64)
			d.Numbers = append(d.Numbers, strconv.FormatFloat(f, 'f', -1, 64))
		case genericWords[w] || stopWords[w]:
		default:
			d.Names = append(d.Names, w)
		}
	}
	d.Teams = sortedSet(d.Teams)
	d.Names = sortedSet(d.Names)
	d.Numbers = sortedSet(d.Numbers)
	return d
}

func isNumber(w string) bool {
	return numberRe.MatchString(w)
}

func sortedSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
