package assistant

import (
	"encoding/json"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/market"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Category is the capability a sub-task was routed to
type Category string

const (
	CategoryPrice          Category = "price"
	CategoryStatements     Category = "statements"
	CategoryMetrics        Category = "metrics"
	CategoryMarket         Category = "market"
	CategoryRecommendation Category = "recommendation"
	CategoryRisk           Category = "risk"
	CategoryGeneric        Category = "generic"
)

// Payload is the category-specific outcome of one sub-task. The set of
// implementations is closed.
type Payload interface {
	Kind() string
	payload()
}

// PricePayload is a price series lookup. Quote and News are attached when
// the task asked for them and they could be fetched.
type PricePayload struct {
	Series *market.PriceSeries `json:"series"`
	Quote  *market.RecordSet   `json:"quote,omitempty"`
	News   *market.RecordSet   `json:"news,omitempty"`
}

// StatementsPayload bundles the three statement families
type StatementsPayload struct {
	Bundle *market.StatementBundle `json:"bundle"`
}

// MetricsPayload is a financial-metrics lookup
type MetricsPayload struct {
	Metrics *market.RecordSet `json:"metrics"`
}

// MarketPayload is the aggregate market snapshot
type MarketPayload struct {
	Snapshot *market.Snapshot `json:"snapshot"`
}

// RecommendationPayload is an enriched recommendation
type RecommendationPayload struct {
	Recommendation advisor.EnrichedRecommendation `json:"recommendation"`
}

// RiskPayload is a risk assessment of the extracted member profile
type RiskPayload struct {
	Member     risk.Member             `json:"member"`
	Defaulted  bool                    `json:"defaulted,omitempty"`
	Assessment risk.EnhancedAssessment `json:"assessment"`
}

// TextPayload is a free-text answer
type TextPayload struct {
	Text string `json:"text"`
}

// ErrorPayload is a per-task failure that did not stop the query
type ErrorPayload struct {
	Message string `json:"error"`
}

func (PricePayload) Kind() string          { return "price_series" }
func (StatementsPayload) Kind() string     { return "statement_bundle" }
func (MetricsPayload) Kind() string        { return "metric_rows" }
func (MarketPayload) Kind() string         { return "market_snapshot" }
func (RecommendationPayload) Kind() string { return "recommendation" }
func (RiskPayload) Kind() string           { return "risk_assessment" }
func (TextPayload) Kind() string           { return "text" }
func (ErrorPayload) Kind() string          { return "error" }

func (PricePayload) payload()          {}
func (StatementsPayload) payload()     {}
func (MetricsPayload) payload()        {}
func (MarketPayload) payload()         {}
func (RecommendationPayload) payload() {}
func (RiskPayload) payload()           {}
func (TextPayload) payload()           {}
func (ErrorPayload) payload()          {}

// TaskResult is one routed sub-task and its outcome
type TaskResult struct {
	Task     string
	Category Category
	Payload  Payload
}

// Failed reports whether the task produced an error payload
func (r TaskResult) Failed() bool {
	_, ok := r.Payload.(ErrorPayload)
	return ok
}

// MarshalJSON tags the payload with its kind
func (r TaskResult) MarshalJSON() ([]byte, error) {
	var kind string
	if r.Payload != nil {
		kind = r.Payload.Kind()
	}
	return json.Marshal(struct {
		Task     string   `json:"task"`
		Category Category `json:"category"`
		Kind     string   `json:"kind"`
		Payload  Payload  `json:"payload"`
	}{r.Task, r.Category, kind, r.Payload})
}
