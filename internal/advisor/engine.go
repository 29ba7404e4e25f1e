package advisor

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/riskwise/internal/fallback"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/market"
	"github.com/ajitpratap0/riskwise/internal/metrics"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Advisory sentences appended to the warning by Personalize
const (
	AdviceDeRisk        = "Given your age, consider reducing high-risk holdings and increasing the share of stable assets."
	AdviceGrowthTilt    = "Given your young age, you could add some growth assets to raise long-term return potential."
	AdviceEmergencyFund = "Given your low account balance, build an emergency fund first before investing."
	AdviceDiversify     = "Given your large account balance, diversify and avoid putting all funds into a single market or product."
	AdviceDebt          = "You currently have loans: pay down high-interest debt first, then plan your investments."
)

var (
	emergencyFundBelow = decimal.NewFromInt(5000)
	diversifyAbove     = decimal.NewFromInt(100000)
)

// Profile is what personalization knows about the member. Nil fields are unknown.
type Profile struct {
	Age      *int             `json:"age,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	HasLoans bool             `json:"has_loans"`
	Extra    map[string]any   `json:"extra,omitempty"`
}

// ProfileFromMember builds a complete profile from member attributes
func ProfileFromMember(m risk.Member) Profile {
	age, balance := m.Age, m.Balance
	return Profile{Age: &age, Balance: &balance, HasLoans: m.HasAnyLoan()}
}

// EnrichedRecommendation is a personalized recommendation with optional
// market context and narrative advice. Absent fields could not be fetched.
type EnrichedRecommendation struct {
	Recommendation
	AIAdvice   string           `json:"ai_advice,omitempty"`
	MarketData *market.Snapshot `json:"market_data,omitempty"`
}

// Engine personalizes catalogue entries and optionally enriches them
type Engine struct {
	catalogue *Catalogue
	market    market.Gateway
	llm       llm.Completer
	watchList []string
	log       zerolog.Logger
}

// NewEngine creates an engine. gateway and completer may be nil, in which
// case enrichment leaves the corresponding field absent.
func NewEngine(catalogue *Catalogue, gateway market.Gateway, completer llm.Completer, watchList []string, log zerolog.Logger) *Engine {
	return &Engine{
		catalogue: catalogue,
		market:    gateway,
		llm:       completer,
		watchList: watchList,
		log:       log.With().Str("component", "advisor").Logger(),
	}
}

// Catalogue returns the engine's reference data
func (e *Engine) Catalogue() *Catalogue {
	return e.catalogue
}

// Lookup returns the base entry for a tier label
func (e *Engine) Lookup(label string) Recommendation {
	return e.catalogue.Lookup(label)
}

// Personalize returns the entry for label with advisory sentences appended to
// its warning. Allocations are never changed.
func (e *Engine) Personalize(label string, p Profile) Recommendation {
	rec := e.catalogue.Lookup(label)
	if !rec.Available() {
		metrics.RecordRecommendation("unavailable")
		return rec
	}

	var clauses []string
	if p.Age != nil {
		switch {
		case rec.Tier == risk.TierHigh && *p.Age > 60:
			clauses = append(clauses, AdviceDeRisk)
		case rec.Tier == risk.TierLow && *p.Age < 30:
			clauses = append(clauses, AdviceGrowthTilt)
		}
	}
	if p.Balance != nil {
		if p.Balance.LessThan(emergencyFundBelow) {
			clauses = append(clauses, AdviceEmergencyFund)
		}
		if p.Balance.GreaterThan(diversifyAbove) && rec.Tier != risk.TierLow {
			clauses = append(clauses, AdviceDiversify)
		}
	}
	if p.HasLoans {
		clauses = append(clauses, AdviceDebt)
	}

	if len(clauses) > 0 {
		rec.Warning = rec.Warning + "\n" + strings.Join(clauses, "\n")
	}

	metrics.RecordRecommendation(string(rec.Tier))
	return rec
}

// Enrich personalizes the entry, then attaches a market snapshot and a
// narrative from the language model. Each failure drops only its own field.
func (e *Engine) Enrich(ctx context.Context, label string, p Profile) EnrichedRecommendation {
	out := EnrichedRecommendation{Recommendation: e.Personalize(label, p)}

	var snapshot *market.Snapshot
	if e.market != nil {
		snapshot = market.BuildSnapshot(ctx, e.market, e.watchList)
		if !snapshot.Empty() {
			out.MarketData = snapshot
		}
	}

	if e.llm != nil {
		tier := label
		if out.Available() {
			tier = string(out.Tier)
		}
		marketJSON := ""
		if out.MarketData != nil {
			marketJSON = llm.FormatContextAsJSON(out.MarketData)
		}

		advice := fallback.Attempt(ctx, fallback.KindGateway, "advisor.enrich.advice", func(ctx context.Context) (string, error) {
			return llm.CompleteWithSystem(ctx, e.llm,
				llm.AdviceSystemPrompt,
				llm.BuildAdvicePrompt(tier, llm.FormatContextAsJSON(p), marketJSON),
				llm.AdviceParams)
		})
		out.AIAdvice = advice.Val
	}

	e.log.Debug().
		Str("tier", string(out.Tier)).
		Bool("market_data", out.MarketData != nil).
		Bool("ai_advice", out.AIAdvice != "").
		Msg("Recommendation enriched")

	return out
}
