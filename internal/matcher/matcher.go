// Package matcher pairs markets across the two venues. Every candidate pair is
// scored from title similarity, extracted teams, game dates and shared
// high-value keywords; pairs are then accepted greedily, best score first, so
// each market ends up in at most one pair.
package matcher

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/normalize"
)

// DefaultThreshold is the minimum score a pair needs to be emitted.
const DefaultThreshold = 0.75

const (
	weightFuzzy = 0.5
	weightTeams = 0.3
	weightDate  = 0.2

	keywordBonus = 0.1
	datePenalty  = 0.3
)

// Config tunes the matcher.
type Config struct {
	Threshold         float64
	DateToleranceDays int
}

// Matcher scores and pairs markets. It holds no per-call state and is safe for
// concurrent use.
type Matcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Matcher. A zero threshold falls back to DefaultThreshold and a
// negative date tolerance to one day.
func New(cfg Config, logger *slog.Logger) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.DateToleranceDays < 0 {
		cfg.DateToleranceDays = 1
	}
	return &Matcher{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "matcher")),
	}
}

// Threshold returns the configured default threshold.
func (m *Matcher) Threshold() float64 { return m.cfg.Threshold }

// Score is the breakdown of one candidate comparison.
type Score struct {
	Total    float64
	Fuzzy    float64
	Teams    float64
	Date     float64
	Keywords []string
	Signals  int
	Vetoed   string
	Method   domain.MatchMethod
	Reason   string
}

// Score compares a and b. It never fails: unusable signals simply drop out of
// the weighting.
func (m *Matcher) Score(a, b domain.Market) Score {
	var s Score
	if a.NormalizedName == "" || b.NormalizedName == "" {
		s.Vetoed = "empty name"
		return s
	}
	if a.Kind != b.Kind && a.Kind != domain.KindOther && b.Kind != domain.KindOther {
		s.Vetoed = "kind mismatch"
		return s
	}

	s.Fuzzy = fuzzyScore(a.NormalizedName, b.NormalizedName)
	num, den := weightFuzzy*s.Fuzzy, weightFuzzy

	teamsKnown := a.HasTeams() && b.HasTeams()
	if teamsKnown {
		shared := sharedTeams(a, b)
		if shared == 0 {
			s.Vetoed = "different teams"
			return s
		}
		if why := detailConflict(a, b); why != "" {
			s.Vetoed = why
			return s
		}
		s.Teams = float64(shared) / 2
		num += weightTeams * s.Teams
		den += weightTeams
		if shared == 2 {
			s.Signals++
		}
	} else if entityConflict(a.RawTitle, b.RawTitle) {
		s.Vetoed = "different entities"
		return s
	}

	penalty := 0.0
	if a.GameDate != nil && b.GameDate != nil {
		apart := normalize.DaysApart(*a.GameDate, *b.GameDate)
		switch {
		case apart == 0:
			s.Date = 1
			s.Signals++
		case apart <= m.cfg.DateToleranceDays:
			s.Date = 0.5
			s.Signals++
		default:
			penalty = datePenalty
		}
		num += weightDate * s.Date
		den += weightDate
	}

	kw, shared := keywordOverlap(a.RawTitle, b.RawTitle)
	s.Keywords = shared

	s.Total = clamp(num/den + keywordBonus*kw - penalty)
	s.Method, s.Reason = explain(s, teamsKnown, penalty > 0)
	return s
}

func sharedTeams(a, b domain.Market) int {
	n := 0
	for _, t := range []string{a.AwayTeam, a.HomeTeam} {
		if t == b.AwayTeam || t == b.HomeTeam {
			n++
		}
	}
	return n
}

// detailConflict vetoes same-game markets whose details settle on something
// different.
func detailConflict(a, b domain.Market) string {
	da, db := normalize.ParseDetail(a), normalize.ParseDetail(b)
	switch {
	case disjoint(da.Names, db.Names):
		return "different subject"
	case len(da.Numbers) > 0 && len(db.Numbers) > 0 && !slices.Equal(da.Numbers, db.Numbers):
		return "different line"
	case disjoint(da.Teams, db.Teams):
		return "different side"
	}
	return ""
}

// disjoint reports whether both sorted lists are non-empty and share nothing.
func disjoint(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, x := range a {
		if _, found := slices.BinarySearch(b, x); found {
			return false
		}
	}
	return true
}

func explain(s Score, teamsKnown, dateConflict bool) (domain.MatchMethod, string) {
	var parts []string
	method := domain.MatchFuzzy
	switch {
	case s.Teams == 1 && s.Date == 1:
		parts = append(parts, "team+date exact match")
		method = domain.MatchTeamDate
	case s.Teams == 1 && s.Date > 0:
		parts = append(parts, "teams exact, date within tolerance")
		method = domain.MatchTeamDate
	case s.Teams == 1:
		parts = append(parts, "teams exact match")
		method = domain.MatchCombined
	case teamsKnown:
		parts = append(parts, "one team shared")
		method = domain.MatchCombined
	}
	if dateConflict {
		parts = append(parts, "dates differ")
	}
	parts = append(parts, fmt.Sprintf("fuzzy title %.2f", s.Fuzzy))
	if len(s.Keywords) > 0 {
		parts = append(parts, "keywords: "+strings.Join(s.Keywords, ", "))
		if method == domain.MatchFuzzy {
			method = domain.MatchKeyword
		}
	}
	return method, strings.Join(parts, "; ")
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Stats describes what a Match call filtered out.
type Stats struct {
	UnpricedA   int
	UnpricedB   int
	DuplicatesA int
	DuplicatesB int
	Candidates  int
	Pairs       int
}

// Result is the output of Match.
type Result struct {
	Pairs []domain.MatchedPair
	Stats Stats
}

type candidate struct {
	i, j  int
	score Score
}

// Match pairs marketsA with marketsB one-to-one. Markets without usable prices
// are skipped, repeated markets on the same side (same DedupKey) keep only the
// first occurrence, and no pair below threshold is produced. A non-positive
// threshold uses the configured default.
func (m *Matcher) Match(marketsA, marketsB []domain.Market, threshold float64) Result {
	if threshold <= 0 {
		threshold = m.cfg.Threshold
	}
	var res Result
	as, unA, dupA := prepare(marketsA)
	bs, unB, dupB := prepare(marketsB)
	res.Stats.UnpricedA, res.Stats.DuplicatesA = unA, dupA
	res.Stats.UnpricedB, res.Stats.DuplicatesB = unB, dupB

	byCategory := make(map[string][]int)
	for j, b := range bs {
		byCategory[b.Category] = append(byCategory[b.Category], j)
	}
	all := make([]int, len(bs))
	for j := range bs {
		all[j] = j
	}

	var cands []candidate
	for i, a := range as {
		pool := all
		if a.Category != "" {
			pool = append(append([]int(nil), byCategory[a.Category]...), byCategory[""]...)
			sort.Ints(pool)
		}
		for _, j := range pool {
			sc := m.Score(a, bs[j])
			if sc.Vetoed != "" || sc.Total < threshold {
				continue
			}
			cands = append(cands, candidate{i: i, j: j, score: sc})
		}
	}
	res.Stats.Candidates = len(cands)

	sort.SliceStable(cands, func(x, y int) bool {
		cx, cy := cands[x], cands[y]
		if cx.score.Total != cy.score.Total {
			return cx.score.Total > cy.score.Total
		}
		if cx.score.Signals != cy.score.Signals {
			return cx.score.Signals > cy.score.Signals
		}
		if cx.i != cy.i {
			return cx.i < cy.i
		}
		return cx.j < cy.j
	})

	usedA := make([]bool, len(as))
	usedB := make([]bool, len(bs))
	for _, c := range cands {
		if usedA[c.i] || usedB[c.j] {
			continue
		}
		usedA[c.i], usedB[c.j] = true, true
		res.Pairs = append(res.Pairs, domain.MatchedPair{
			A:      as[c.i],
			B:      bs[c.j],
			Score:  c.score.Total,
			Reason: c.score.Reason,
			Method: c.score.Method,
		})
	}
	res.Stats.Pairs = len(res.Pairs)

	m.logger.Debug("match complete",
		slog.Int("markets_a", len(as)),
		slog.Int("markets_b", len(bs)),
		slog.Int("candidates", res.Stats.Candidates),
		slog.Int("pairs", res.Stats.Pairs),
		slog.Int("duplicates_b", res.Stats.DuplicatesB),
	)
	return res
}

// prepare drops unpriced markets and same-side duplicates, first seen wins.
func prepare(in []domain.Market) (out []domain.Market, unpriced, dups int) {
	seen := make(map[string]bool, len(in))
	out = make([]domain.Market, 0, len(in))
	for _, mk := range in {
		if _, _, ok := mk.Prices(); !ok {
			unpriced++
			continue
		}
		key := normalize.DedupKey(mk)
		if mk.NormalizedName != "" {
			if seen[key] {
				dups++
				continue
			}
			seen[key] = true
		}
		out = append(out, mk)
	}
	return out, unpriced, dups
}
