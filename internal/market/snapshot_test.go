package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubGateway serves record sets and fails for tickers/kinds listed in fail
type stubGateway struct {
	fail  map[string]bool
	calls []string
}

func (g *stubGateway) record(kind, key string) (*RecordSet, error) {
	g.calls = append(g.calls, kind+":"+key)
	if g.fail[key] || g.fail[kind] {
		return nil, errors.New("unavailable")
	}
	return &RecordSet{Kind: kind, Ticker: key, Rows: []map[string]any{{"k": key}}}, nil
}

func (g *stubGateway) Prices(ctx context.Context, q PriceQuery) (*PriceSeries, error) {
	return &PriceSeries{Ticker: q.Ticker}, nil
}
func (g *stubGateway) Quote(ctx context.Context, ticker string) (*RecordSet, error) {
	return g.record("quote", ticker)
}
func (g *stubGateway) Statements(ctx context.Context, ticker string, st StatementType, period string, limit int) (*RecordSet, error) {
	return g.record(string(st), ticker)
}
func (g *stubGateway) Metrics(ctx context.Context, ticker, period string, limit int) (*RecordSet, error) {
	return g.record("metrics", ticker)
}
func (g *stubGateway) News(ctx context.Context, ticker string, limit int) (*RecordSet, error) {
	return g.record("news", ticker)
}
func (g *stubGateway) Macro(ctx context.Context, kind MacroKind, limit int) (*RecordSet, error) {
	return g.record("macro", string(kind))
}
func (g *stubGateway) CompanyProfile(ctx context.Context, ticker string) (*RecordSet, error) {
	return g.record("profile", ticker)
}
func (g *stubGateway) Earnings(ctx context.Context, ticker string, limit int) (*RecordSet, error) {
	return g.record("earnings", ticker)
}

func TestBuildSnapshot_DefaultWatchList(t *testing.T) {
	g := &stubGateway{}
	snap := BuildSnapshot(context.Background(), g, nil)

	assert.Len(t, snap.Macro, 3)
	assert.Len(t, snap.Profiles, len(DefaultWatchList))
	assert.Len(t, snap.Earnings, len(DefaultWatchList))
	assert.False(t, snap.Empty())
	assert.Equal(t, "macro:interest_rates", g.calls[0])
	assert.Equal(t, "profile:AAPL", g.calls[3])
}

func TestBuildSnapshot_FailuresDropOnlyTheirEntry(t *testing.T) {
	g := &stubGateway{fail: map[string]bool{"gdp": true, "TSLA": true, "earnings": true}}
	snap := BuildSnapshot(context.Background(), g, []string{"AAPL", "TSLA"})

	assert.Contains(t, snap.Macro, MacroInterestRates)
	assert.NotContains(t, snap.Macro, MacroGDP)
	assert.Contains(t, snap.Macro, MacroInflation)
	assert.Contains(t, snap.Profiles, "AAPL")
	assert.NotContains(t, snap.Profiles, "TSLA")
	assert.Empty(t, snap.Earnings)
}

func TestBuildSnapshot_AllFail(t *testing.T) {
	g := &stubGateway{fail: map[string]bool{"macro": true, "profile": true, "earnings": true}}
	assert.True(t, BuildSnapshot(context.Background(), g, []string{"AAPL"}).Empty())
}
