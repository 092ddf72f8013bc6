package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// SnapshotState tells readers how much to trust the current snapshot.
type SnapshotState string

const (
	StateNoData SnapshotState = "no_data"
	StateStale  SnapshotState = "stale"
	StateFresh  SnapshotState = "fresh"
)

// Summary aggregates a list of opportunities.
type Summary struct {
	Total                int            `json:"total"`
	ProfitableCount      int            `json:"profitable_count"`
	SuspiciousCount      int            `json:"suspicious_count"`
	AvgDifferencePercent float64        `json:"avg_difference_percent"`
	MaxDifferencePercent float64        `json:"max_difference_percent"`
	AvgProfitBps         float64        `json:"avg_profit_bps"`
	MaxProfitBps         float64        `json:"max_profit_bps"`
	ByLeague             map[string]int `json:"by_league"`
	ByType               map[string]int `json:"by_type"`
}

// Snapshot is the complete result of one refresh cycle. Opportunities are
// ordered by descending ProfitBps. A published snapshot is never mutated; use
// Clone before handing it to code that might.
type Snapshot struct {
	ID            string                 `json:"id"`
	Opportunities []ArbitrageOpportunity `json:"opportunities"`
	Summary       Summary                `json:"summary"`
	MarketCounts  map[Venue]int          `json:"market_counts"`
	MatchedPairs  int                    `json:"matched_pairs"`
	LastUpdated   time.Time              `json:"last_updated"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Opportunities = append([]ArbitrageOpportunity(nil), s.Opportunities...)
	for i := range out.Opportunities {
		pair := &out.Opportunities[i].Pair
		pair.A, pair.B = pair.A.Clone(), pair.B.Clone()
	}
	out.Summary.ByLeague = cloneCounts(s.Summary.ByLeague)
	out.Summary.ByType = cloneCounts(s.Summary.ByType)
	if s.MarketCounts != nil {
		out.MarketCounts = make(map[Venue]int, len(s.MarketCounts))
		for k, v := range s.MarketCounts {
			out.MarketCounts[k] = v
		}
	}
	return out
}

func cloneCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SnapshotFilter narrows a snapshot for readers. Nil pointers mean "no filter".
type SnapshotFilter struct {
	MinDifferencePercent *float64
	ExpiringWithinHours  *int
	Search               string
	League               string
	ProfitableOnly       bool
	Limit                int
}

// Apply returns a filtered copy of s with the summary recomputed over the
// surviving opportunities. now anchors ExpiringWithinHours.
func (f SnapshotFilter) Apply(s Snapshot, now time.Time) Snapshot {
	out := s.Clone()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	league := strings.ToLower(strings.TrimSpace(f.League))

	kept := out.Opportunities[:0]
	for _, o := range out.Opportunities {
		if f.MinDifferencePercent != nil && o.PriceDifferencePercent < *f.MinDifferencePercent {
			continue
		}
		if f.ExpiringWithinHours != nil {
			exp := o.NearestExpiry()
			if exp == nil {
				continue
			}
			deadline := now.Add(time.Duration(*f.ExpiringWithinHours) * time.Hour)
			if exp.Before(now) || exp.After(deadline) {
				continue
			}
		}
		if league != "" && strings.ToLower(o.League) != league {
			continue
		}
		if f.ProfitableOnly && !o.Profitable {
			continue
		}
		if search != "" && !o.matchesSearch(search) {
			continue
		}
		kept = append(kept, o)
	}
	if f.Limit > 0 && len(kept) > f.Limit {
		kept = kept[:f.Limit]
	}
	out.Opportunities = kept
	out.Summary = Summarize(kept)
	return out
}

func (o ArbitrageOpportunity) matchesSearch(q string) bool {
	fields := []string{
		o.Pair.A.RawTitle, o.Pair.B.RawTitle,
		o.Pair.A.NormalizedName, o.League, o.Team,
		o.Pair.A.AwayTeam, o.Pair.A.HomeTeam,
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Summarize computes aggregate statistics over opps.
func Summarize(opps []ArbitrageOpportunity) Summary {
	sum := Summary{
		Total:    len(opps),
		ByLeague: map[string]int{},
		ByType:   map[string]int{},
	}
	if len(opps) == 0 {
		return sum
	}
	var diffTotal, bpsTotal float64
	sum.MaxProfitBps = math.Inf(-1)
	for _, o := range opps {
		if o.Profitable {
			sum.ProfitableCount++
		}
		if o.Suspicious {
			sum.SuspiciousCount++
		}
		diffTotal += o.PriceDifferencePercent
		bpsTotal += o.ProfitBps
		sum.MaxDifferencePercent = math.Max(sum.MaxDifferencePercent, o.PriceDifferencePercent)
		sum.MaxProfitBps = math.Max(sum.MaxProfitBps, o.ProfitBps)
		league := o.League
		if league == "" {
			league = "other"
		}
		sum.ByLeague[league]++
		sum.ByType[string(o.Type)]++
	}
	n := float64(len(opps))
	sum.AvgDifferencePercent = round(diffTotal/n, 2)
	sum.AvgProfitBps = round(bpsTotal/n, 2)
	return sum
}

// SortOpportunities orders opps by descending ProfitBps, breaking ties on the
// venue ids so the order is deterministic.
func SortOpportunities(opps []ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ProfitBps != opps[j].ProfitBps {
			return opps[i].ProfitBps > opps[j].ProfitBps
		}
		if opps[i].Pair.A.VenueID != opps[j].Pair.A.VenueID {
			return opps[i].Pair.A.VenueID < opps[j].Pair.A.VenueID
		}
		return opps[i].Pair.B.VenueID < opps[j].Pair.B.VenueID
	})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// SnapshotView is what get-snapshot callers receive.
type SnapshotView struct {
	State     SnapshotState `json:"state"`
	Snapshot  *Snapshot     `json:"snapshot,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}
