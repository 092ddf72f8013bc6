package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// Status is a point-in-time view of one venue's limiter.
type Status struct {
	Venue     domain.Venue `json:"venue"`
	Limit     int          `json:"limit"`
	Available int          `json:"available_requests"`
	Window    string       `json:"window"`
}

// reporter is implemented by limiters that can describe their headroom.
type reporter interface {
	Available() int
	Limit() int
	Window() time.Duration
}

// Manager holds one Acquirer per venue.
type Manager struct {
	mu       sync.RWMutex
	limiters map[domain.Venue]Acquirer
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{limiters: make(map[domain.Venue]Acquirer)}
}

// Register installs the limiter for venue, replacing any previous one.
func (m *Manager) Register(venue domain.Venue, a Acquirer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[venue] = a
}

// For returns the limiter registered for venue.
func (m *Manager) For(venue domain.Venue) (Acquirer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.limiters[venue]
	if !ok {
		return nil, fmt.Errorf("ratelimit: %s: %w", venue, domain.ErrUnknownVenue)
	}
	return a, nil
}

// Acquire reserves a slot on venue's limiter.
func (m *Manager) Acquire(ctx context.Context, venue domain.Venue) error {
	a, err := m.For(venue)
	if err != nil {
		return err
	}
	return a.Acquire(ctx)
}

// Status reports every registered limiter that can describe itself, ordered by
// venue name.
func (m *Manager) Status() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.limiters))
	for venue, a := range m.limiters {
		r, ok := a.(reporter)
		if !ok {
			out = append(out, Status{Venue: venue, Limit: -1, Available: -1})
			continue
		}
		out = append(out, Status{
			Venue:     venue,
			Limit:     r.Limit(),
			Available: r.Available(),
			Window:    r.Window().String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}
