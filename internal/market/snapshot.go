package market

import (
	"context"

	"github.com/ajitpratap0/riskwise/internal/fallback"
)

// SnapshotMacro lists the macro series included in a snapshot
var SnapshotMacro = []MacroKind{MacroInterestRates, MacroGDP, MacroInflation}

// DefaultWatchList is the issuer list used when none is configured
var DefaultWatchList = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}

// Snapshot is the aggregate market context used for enrichment.
// Entries that could not be fetched are absent.
type Snapshot struct {
	Macro    map[MacroKind]*RecordSet `json:"macro"`
	Profiles map[string]*RecordSet    `json:"company_profiles"`
	Earnings map[string]*RecordSet    `json:"earnings"`
}

// Empty reports whether nothing at all could be fetched
func (s *Snapshot) Empty() bool {
	return len(s.Macro) == 0 && len(s.Profiles) == 0 && len(s.Earnings) == 0
}

// BuildSnapshot fetches macro series plus profile and earnings for each
// watch-list ticker, in that order. Each failure drops only its own entry.
func BuildSnapshot(ctx context.Context, g Gateway, watchList []string) *Snapshot {
	if len(watchList) == 0 {
		watchList = DefaultWatchList
	}

	snap := &Snapshot{
		Macro:    map[MacroKind]*RecordSet{},
		Profiles: map[string]*RecordSet{},
		Earnings: map[string]*RecordSet{},
	}

	for _, kind := range SnapshotMacro {
		v := fallback.Attempt(ctx, fallback.KindGateway, "market.snapshot.macro", func(ctx context.Context) (*RecordSet, error) {
			return g.Macro(ctx, kind, DefaultMacroLimit)
		})
		if v.OK {
			snap.Macro[kind] = v.Val
		}
	}

	for _, ticker := range watchList {
		v := fallback.Attempt(ctx, fallback.KindGateway, "market.snapshot.profile", func(ctx context.Context) (*RecordSet, error) {
			return g.CompanyProfile(ctx, ticker)
		})
		if v.OK {
			snap.Profiles[ticker] = v.Val
		}
	}

	for _, ticker := range watchList {
		v := fallback.Attempt(ctx, fallback.KindGateway, "market.snapshot.earnings", func(ctx context.Context) (*RecordSet, error) {
			return g.Earnings(ctx, ticker, DefaultEarningsLimit)
		})
		if v.OK {
			snap.Earnings[ticker] = v.Val
		}
	}

	return snap
}
