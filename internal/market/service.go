package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Defaults for the market-data request families
const (
	DefaultStatementPeriod = "annual"
	DefaultStatementLimit  = 5
	DefaultMetricsPeriod   = "ttm"
	DefaultMetricsLimit    = 5
	DefaultNewsLimit       = 5
	DefaultMacroLimit      = 10
	DefaultEarningsLimit   = 5
)

// ErrUnsupported is returned for statement types or macro keys the API has no endpoint for
var ErrUnsupported = errors.New("unsupported market-data request")

// ErrNoTicker is returned when a ticker-scoped request is made without one
var ErrNoTicker = errors.New("ticker is required")

// Gateway is the market-data service as seen by the engines
type Gateway interface {
	Prices(ctx context.Context, q PriceQuery) (*PriceSeries, error)
	Quote(ctx context.Context, ticker string) (*RecordSet, error)
	Statements(ctx context.Context, ticker string, st StatementType, period string, limit int) (*RecordSet, error)
	Metrics(ctx context.Context, ticker, period string, limit int) (*RecordSet, error)
	News(ctx context.Context, ticker string, limit int) (*RecordSet, error)
	Macro(ctx context.Context, kind MacroKind, limit int) (*RecordSet, error)
	CompanyProfile(ctx context.Context, ticker string) (*RecordSet, error)
	Earnings(ctx context.Context, ticker string, limit int) (*RecordSet, error)
}

// Ensure Service implements Gateway interface
var _ Gateway = (*Service)(nil)

// Service shapes typed market-data requests over a Fetcher
type Service struct {
	fetcher Fetcher
}

// NewService creates a market-data service
func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Prices fetches an OHLCV series and attaches an indicator summary
func (s *Service) Prices(ctx context.Context, q PriceQuery) (*PriceSeries, error) {
	if q.Ticker == "" {
		return nil, ErrNoTicker
	}
	if q.Interval == "" {
		q.Interval = "day"
	}
	if q.IntervalMultiplier < 1 {
		q.IntervalMultiplier = 1
	}

	params := url.Values{}
	params.Set("ticker", q.Ticker)
	params.Set("interval", q.Interval)
	params.Set("interval_multiplier", strconv.Itoa(q.IntervalMultiplier))
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}

	body, err := s.fetcher.Fetch(ctx, Request{Path: "/prices/", Params: params})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Prices []PriceBar `json:"prices"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price series: %w", err)
	}

	series := &PriceSeries{Ticker: q.Ticker, Bars: decoded.Prices}
	series.Summary = Summarize(series.Bars)
	return series, nil
}

// Quote fetches the current price snapshot for a ticker
func (s *Service) Quote(ctx context.Context, ticker string) (*RecordSet, error) {
	return s.tickerRecords(ctx, "quote", "/prices/snapshot", ticker, nil)
}

// Statements fetches one statement family
func (s *Service) Statements(ctx context.Context, ticker string, st StatementType, period string, limit int) (*RecordSet, error) {
	endpoint, ok := statementEndpoints[st]
	if !ok {
		return nil, fmt.Errorf("%w: statement type %q", ErrUnsupported, st)
	}
	if period == "" {
		period = DefaultStatementPeriod
	}
	if limit < 1 {
		limit = DefaultStatementLimit
	}

	params := url.Values{}
	params.Set("period", period)
	params.Set("limit", strconv.Itoa(limit))
	return s.tickerRecords(ctx, string(st), "/financials/"+endpoint+"/", ticker, params)
}

// StatementBundle fetches all three statement families
func (s *Service) StatementBundle(ctx context.Context, ticker string) (*StatementBundle, error) {
	return FetchStatementBundle(ctx, s, ticker)
}

// FetchStatementBundle fetches all three statement families through g. A
// family that fails is left nil; the error reports the last failure only
// when all three fail.
func FetchStatementBundle(ctx context.Context, g Gateway, ticker string) (*StatementBundle, error) {
	bundle := &StatementBundle{Ticker: ticker}
	var lastErr error
	fetched := 0

	for _, st := range StatementTypes {
		rs, err := g.Statements(ctx, ticker, st, "", 0)
		if err != nil {
			lastErr = err
			continue
		}
		fetched++
		switch st {
		case StatementIncome:
			bundle.Income = rs
		case StatementBalance:
			bundle.Balance = rs
		case StatementCashFlow:
			bundle.CashFlow = rs
		}
	}

	if fetched == 0 {
		return nil, lastErr
	}
	return bundle, nil
}

// Metrics fetches financial metrics
func (s *Service) Metrics(ctx context.Context, ticker, period string, limit int) (*RecordSet, error) {
	if period == "" {
		period = DefaultMetricsPeriod
	}
	if limit < 1 {
		limit = DefaultMetricsLimit
	}

	params := url.Values{}
	params.Set("period", period)
	params.Set("limit", strconv.Itoa(limit))
	return s.tickerRecords(ctx, "metrics", "/financial-metrics/", ticker, params)
}

// News fetches recent news items
func (s *Service) News(ctx context.Context, ticker string, limit int) (*RecordSet, error) {
	if limit < 1 {
		limit = DefaultNewsLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return s.tickerRecords(ctx, "news", "/news/", ticker, params)
}

// Macro fetches a macro-economic series
func (s *Service) Macro(ctx context.Context, kind MacroKind, limit int) (*RecordSet, error) {
	endpoint, ok := macroEndpoints[kind]
	if !ok {
		return nil, fmt.Errorf("%w: macro series %q", ErrUnsupported, kind)
	}
	if limit < 1 {
		limit = DefaultMacroLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	body, err := s.fetcher.Fetch(ctx, Request{Path: "/" + endpoint + "/", Params: params})
	if err != nil {
		return nil, err
	}
	return decodeRecords(string(kind), "", body)
}

// CompanyProfile fetches company facts
func (s *Service) CompanyProfile(ctx context.Context, ticker string) (*RecordSet, error) {
	return s.tickerRecords(ctx, "profile", "/company/profile/", ticker, nil)
}

// Earnings fetches reported earnings
func (s *Service) Earnings(ctx context.Context, ticker string, limit int) (*RecordSet, error) {
	if limit < 1 {
		limit = DefaultEarningsLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return s.tickerRecords(ctx, "earnings", "/company/earnings/", ticker, params)
}

func (s *Service) tickerRecords(ctx context.Context, kind, path, ticker string, params url.Values) (*RecordSet, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, ErrNoTicker
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("ticker", ticker)

	body, err := s.fetcher.Fetch(ctx, Request{Path: path, Params: params})
	if err != nil {
		return nil, err
	}
	return decodeRecords(kind, ticker, body)
}

// decodeRecords turns an API envelope into rows. The API wraps results in
// one named field; the first array field (by name) becomes the rows, else the
// first object field becomes a single row, else the envelope itself does.
func decodeRecords(kind, ticker string, body []byte) (*RecordSet, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", kind, err)
	}

	names := make([]string, 0, len(envelope))
	for name := range envelope {
		names = append(names, name)
	}
	sort.Strings(names)

	rs := &RecordSet{Kind: kind, Ticker: ticker, Rows: []map[string]any{}}

	for _, name := range names {
		raw := bytes.TrimSpace(envelope[name])
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		for _, item := range items {
			rs.Rows = append(rs.Rows, decodeRow(item))
		}
		return rs, nil
	}

	for _, name := range names {
		raw := bytes.TrimSpace(envelope[name])
		if len(raw) > 0 && raw[0] == '{' {
			rs.Rows = append(rs.Rows, decodeRow(raw))
			return rs, nil
		}
	}

	if len(envelope) > 0 {
		rs.Rows = append(rs.Rows, decodeRow(body))
	}
	return rs, nil
}

func decodeRow(raw json.RawMessage) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var row map[string]any
	if err := dec.Decode(&row); err == nil && row != nil {
		return row
	}

	var scalar any
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	_ = dec.Decode(&scalar)
	return map[string]any{"value": scalar}
}
