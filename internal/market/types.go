package market

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// StatementType selects one of the three financial statement families
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cashflow"
)

var statementEndpoints = map[StatementType]string{
	StatementIncome:   "income-statements",
	StatementBalance:  "balance-sheets",
	StatementCashFlow: "cash-flow-statements",
}

// StatementTypes lists every statement family in bundle order
var StatementTypes = []StatementType{StatementIncome, StatementBalance, StatementCashFlow}

// MacroKind selects a macro-economic series
type MacroKind string

const (
	MacroInterestRates MacroKind = "interest_rates"
	MacroGDP           MacroKind = "gdp"
	MacroInflation     MacroKind = "inflation"
	MacroUnemployment  MacroKind = "unemployment"
)

var macroEndpoints = map[MacroKind]string{
	MacroInterestRates: "macro/interest-rates",
	MacroGDP:           "macro/gdp",
	MacroInflation:     "macro/inflation",
	MacroUnemployment:  "macro/unemployment",
}

// Request is one GET against the market-data API
type Request struct {
	Path   string // relative to the base URL, with leading and trailing slash as the API expects
	Params url.Values
}

// Key is a stable identity for the request, used for caching and deduplication
func (r Request) Key() string {
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(r.Path)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("|%s=%s", k, strings.Join(r.Params[k], ",")))
	}
	return sb.String()
}

// PriceQuery selects a price series
type PriceQuery struct {
	Ticker             string
	StartDate          string // YYYY-MM-DD, optional
	EndDate            string // YYYY-MM-DD, optional
	Interval           string // second, minute, day, week, month, year
	IntervalMultiplier int
}

// PriceBar is one OHLCV bar
type PriceBar struct {
	Time   string          `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// PriceSeries is the price payload for one ticker
type PriceSeries struct {
	Ticker  string     `json:"ticker"`
	Bars    []PriceBar `json:"prices"`
	Summary *Summary   `json:"summary,omitempty"`
}

// RecordSet is a tabular payload: statements, metrics, news, macro, profile or earnings rows.
// Row fields are passed through as returned by the API.
type RecordSet struct {
	Kind   string           `json:"kind"`
	Ticker string           `json:"ticker,omitempty"`
	Rows   []map[string]any `json:"rows"`
}

// StatementBundle carries all three statement families for one ticker.
// A nil entry means that family could not be fetched.
type StatementBundle struct {
	Ticker   string     `json:"ticker"`
	Income   *RecordSet `json:"income_statement"`
	Balance  *RecordSet `json:"balance_sheet"`
	CashFlow *RecordSet `json:"cash_flow_statement"`
}
