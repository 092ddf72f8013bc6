// Package ratelimit gates outbound venue requests with a sliding-window log.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultWindow is the trailing interval every limit is expressed against.
const DefaultWindow = time.Minute

// Acquirer reserves one request slot, suspending until one is free. It only
// returns an error when ctx is done.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// SlidingWindow admits at most limit requests in any trailing window. It keeps
// the timestamps of admitted requests, oldest first.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customises a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces the time source and the sleep function. Tests use it to
// drive the window without real waiting.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *SlidingWindow) {
		w.now = now
		w.sleep = sleep
	}
}

// NewSlidingWindow creates a limiter admitting limit requests per window. A
// non-positive limit is treated as 1.
func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = DefaultWindow
	}
	w := &SlidingWindow{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Acquire blocks until a slot is available, then records it.
func (w *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()
		w.evict(now)
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return nil
		}
		wait := w.stamps[0].Add(w.window).Sub(now)
		w.mu.Unlock()

		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Available returns how many requests could be admitted right now.
func (w *SlidingWindow) Available() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.now())
	return w.limit - len(w.stamps)
}

// Limit returns the configured requests per window.
func (w *SlidingWindow) Limit() int { return w.limit }

// Window returns the trailing interval.
func (w *SlidingWindow) Window() time.Duration { return w.window }

// evict drops timestamps that have aged out. Caller holds mu.
func (w *SlidingWindow) evict(now time.Time) {
	i := 0
	for i < len(w.stamps) && now.Sub(w.stamps[i]) >= w.window {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
