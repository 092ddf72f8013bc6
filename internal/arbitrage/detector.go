package arbitrage

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/normalize"
)

// DefaultSuspiciousProfitPercent flags returns too large to be a genuine edge.
const DefaultSuspiciousProfitPercent = 15.0

var errMissingPrice = errors.New("arbitrage: pair has a missing or invalid price")

// DetectorConfig configures the detector.
type DetectorConfig struct {
	MinDifferencePercent    float64
	SuspiciousProfitPercent float64
	Fees                    *FeeSchedule
	Strategies              []Strategy
	Logger                  *slog.Logger
}

// Detector turns matched pairs into ranked opportunities.
type Detector struct {
	minDiff    float64
	suspicious float64
	fees       *FeeSchedule
	strategies []Strategy
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// NewDetector creates a detector. Missing strategies default to
// DefaultStrategies and a zero suspicious bound to
// DefaultSuspiciousProfitPercent.
func NewDetector(cfg DetectorConfig) *Detector {
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if cfg.SuspiciousProfitPercent <= 0 {
		cfg.SuspiciousProfitPercent = DefaultSuspiciousProfitPercent
	}
	if cfg.Fees == nil {
		cfg.Fees = NewFeeSchedule()
	}
	return &Detector{
		minDiff:    cfg.MinDifferencePercent,
		suspicious: cfg.SuspiciousProfitPercent,
		fees:       cfg.Fees,
		strategies: cfg.Strategies,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     cfg.Logger.With(slog.String("component", "arb_detector")),
	}
}

// MinDifferencePercent returns the retention threshold.
func (d *Detector) MinDifferencePercent() float64 { return d.minDiff }

// Detect evaluates every pair and keeps those whose price difference meets
// the minimum, sorted by profit_bps descending. Pairs that cannot be priced
// are logged and skipped.
func (d *Detector) Detect(pairs []domain.MatchedPair) []domain.ArbitrageOpportunity {
	out := make([]domain.ArbitrageOpportunity, 0, len(pairs))
	skipped := 0
	for _, p := range pairs {
		opp, err := d.Evaluate(p)
		if err != nil {
			skipped++
			d.logger.Warn("skipping pair",
				slog.String("market_a", p.A.VenueID),
				slog.String("market_b", p.B.VenueID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if opp.PriceDifferencePercent < d.minDiff {
			continue
		}
		out = append(out, opp)
	}
	domain.SortOpportunities(out)

	profitable := 0
	for _, o := range out {
		if o.Profitable {
			profitable++
		}
	}
	d.logger.Info("detection complete",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(out)),
		slog.Int("profitable", profitable),
		slog.Int("skipped", skipped),
		slog.Float64("min_difference_percent", d.minDiff),
	)
	return out
}

// Evaluate prices one pair under every strategy and returns the one with the
// highest net profit. The minimum-difference filter is not applied.
func (d *Detector) Evaluate(p domain.MatchedPair) (domain.ArbitrageOpportunity, error) {
	yesA, noA, okA := p.A.Prices()
	yesB, noB, okB := p.B.Prices()
	if !okA || !okB {
		return domain.ArbitrageOpportunity{}, errMissingPrice
	}
	aligned := needsSwap(p.A, p.B)
	if aligned {
		yesB, noB = noB, yesB
	}
	q := Quote{VenueA: p.A.Venue, VenueB: p.B.Venue, YesA: yesA, NoA: noA, YesB: yesB, NoB: noB}

	var (
		best     domain.ArbitrageOpportunity
		haveBest bool
	)
	for _, s := range d.strategies {
		legs := s.Legs(q)
		cost := legs.Cost()
		gross := 1 - cost
		fees, err := d.fees.Charge(legs, gross)
		if err != nil {
			return domain.ArbitrageOpportunity{}, err
		}
		net := gross - fees
		if haveBest && net <= best.NetProfit {
			continue
		}
		haveBest = true
		best = domain.ArbitrageOpportunity{
			Strategy:    s.Name(),
			BuyOn:       legs.YesVenue,
			SellOn:      legs.NoVenue,
			YesPrice:    legs.YesPrice,
			NoPrice:     legs.NoPrice,
			TotalCost:   cost,
			GrossProfit: gross,
			Fees:        fees,
			NetProfit:   net,
			ProfitBps:   net * 10000,
		}
		if cost > 0 {
			best.ProfitPercent = net / cost * 100
		}
	}

	best.ID = d.newID()
	best.Pair = p
	best.Aligned = aligned
	best.PriceDifference, best.PriceDifferencePercent = priceDifference(yesA, yesB)
	best.Profitable = best.NetProfit > 0
	best.Suspicious = best.ProfitPercent > d.suspicious
	best.Type = classify(best.GrossProfit, best.NetProfit)
	best.League = league(p)
	best.MarketType = marketType(p)
	best.Team = team(p)
	best.DetectedAt = d.now().UTC()
	return best, nil
}

// priceDifference is the absolute YES gap and that gap relative to the YES
// midpoint, in percent.
func priceDifference(yesA, yesB float64) (float64, float64) {
	diff := yesA - yesB
	if diff < 0 {
		diff = -diff
	}
	mid := (yesA + yesB) / 2
	if mid <= 0 {
		return diff, 0
	}
	return diff, diff / mid * 100
}

func classify(gross, net float64) domain.ArbType {
	switch {
	case net > 0:
		return domain.ArbSimple
	case gross > 0:
		return domain.ArbSpread
	default:
		return domain.ArbNone
	}
}

// needsSwap reports whether the two markets' YES outcomes name different
// teams of the same game, in which case B's YES is A's NO.
func needsSwap(a, b domain.Market) bool {
	if a.YesTeam == "" || b.YesTeam == "" || a.YesTeam == b.YesTeam {
		return false
	}
	inGame := func(m domain.Market, t string) bool { return t == m.AwayTeam || t == m.HomeTeam }
	return inGame(a, b.YesTeam) && inGame(b, a.YesTeam)
}

func league(p domain.MatchedPair) string {
	for _, c := range []string{p.A.Category, p.B.Category} {
		if normalize.IsSport(c) {
			return c
		}
	}
	if p.A.Category != "" {
		return p.A.Category
	}
	return p.B.Category
}

func marketType(p domain.MatchedPair) domain.MarketKind {
	if p.A.Kind != "" && p.A.Kind != domain.KindOther {
		return p.A.Kind
	}
	if p.B.Kind != "" {
		return p.B.Kind
	}
	return domain.KindOther
}

// team is the team whose win the YES side pays on.
func team(p domain.MatchedPair) string {
	if p.A.YesTeam != "" {
		return p.A.YesTeam
	}
	return p.B.YesTeam
}
