package arbitrage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// FeeSchedule holds the fee rate charged by each venue on the gross edge.
type FeeSchedule struct {
	rates map[domain.Venue]float64
	mu    sync.RWMutex
}

// NewFeeSchedule returns an empty schedule. Call Register to add venues.
func NewFeeSchedule() *FeeSchedule {
	return &FeeSchedule{rates: make(map[domain.Venue]float64)}
}

// Register sets the fee rate for a venue. Rates must lie in [0,1).
func (f *FeeSchedule) Register(v domain.Venue, rate float64) error {
	if rate < 0 || rate >= 1 {
		return fmt.Errorf("arbitrage: fee rate %v for %s out of range", rate, v)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[v] = rate
	return nil
}

// Rate returns the venue's fee rate, or an error if it was never registered.
func (f *FeeSchedule) Rate(v domain.Venue) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.rates[v]
	if !ok {
		return 0, fmt.Errorf("arbitrage: fee for %q: %w", v, domain.ErrUnknownVenue)
	}
	return r, nil
}

// Venues returns all registered venues, sorted.
func (f *FeeSchedule) Venues() []domain.Venue {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Venue, 0, len(f.rates))
	for v := range f.rates {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Charge applies each leg venue's rate to gross, in the order YES venue then
// NO venue, and returns the total fee. A non-positive gross edge is not
// charged.
func (f *FeeSchedule) Charge(l Legs, gross float64) (float64, error) {
	yesRate, err := f.Rate(l.YesVenue)
	if err != nil {
		return 0, err
	}
	noRate, err := f.Rate(l.NoVenue)
	if err != nil {
		return 0, err
	}
	if gross <= 0 {
		return 0, nil
	}
	return yesRate*gross + noRate*gross, nil
}
