package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

const maxAlertLines = 5

// Alerter turns snapshots into alerts. Only profitable, non-suspicious
// opportunities at or above the bps floor qualify, and an opportunity is
// announced once for as long as it stays in consecutive snapshots.
type Alerter struct {
	notifier       *Notifier
	minProfitBps   float64
	mu             sync.Mutex
	lastQualifying map[string]struct{}
}

// NewAlerter creates an Alerter sending through n.
func NewAlerter(n *Notifier, minProfitBps float64) *Alerter {
	return &Alerter{notifier: n, minProfitBps: minProfitBps}
}

func (a *Alerter) Name() string { return "notify" }

// Publish sends one message listing the newly qualifying opportunities in
// snap. Nothing is sent when there are none.
func (a *Alerter) Publish(ctx context.Context, snap domain.Snapshot) error {
	fresh := a.newlyQualifying(snap.Opportunities)
	if len(fresh) == 0 || !a.notifier.Enabled() {
		return nil
	}
	title := fmt.Sprintf("%d new cross-venue arbitrage opportunit%s", len(fresh), plural(len(fresh)))
	return a.notifier.Notify(ctx, title, Format(fresh))
}

// newlyQualifying returns the qualifying opportunities that were not qualifying in
// the previous snapshot, and remembers the current qualifying set.
func (a *Alerter) newlyQualifying(opps []domain.ArbitrageOpportunity) []domain.ArbitrageOpportunity {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := make(map[string]struct{})
	var fresh []domain.ArbitrageOpportunity
	for _, o := range opps {
		if !o.Profitable || o.Suspicious || o.ProfitBps < a.minProfitBps {
			continue
		}
		key := alertKey(o)
		current[key] = struct{}{}
		if _, seen := a.lastQualifying[key]; !seen {
			fresh = append(fresh, o)
		}
	}
	a.lastQualifying = current
	return fresh
}

func alertKey(o domain.ArbitrageOpportunity) string {
	return o.Pair.A.VenueID + "|" + o.Pair.B.VenueID + "|" + string(o.Strategy)
}

// Format renders up to five opportunities, one per line, in the order given.
func Format(opps []domain.ArbitrageOpportunity) string {
	var b strings.Builder
	for i, o := range opps {
		if i == maxAlertLines {
			fmt.Fprintf(&b, "...and %d more\n", len(opps)-maxAlertLines)
			break
		}
		fmt.Fprintf(&b, "%s: YES on %s @ %.2f, NO on %s @ %.2f, net %.0f bps\n",
			o.Pair.A.RawTitle, o.BuyOn, o.YesPrice, o.SellOn, o.NoPrice, o.ProfitBps)
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
