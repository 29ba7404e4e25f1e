package risk

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajitpratap0/riskwise/internal/fallback"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/market"
)

// Holding is one position of a portfolio submitted for analysis
type Holding struct {
	Ticker    string  `json:"ticker"`
	Weight    float64 `json:"weight"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
}

// PortfolioAnalysis is the price data and narrative for a submitted portfolio
type PortfolioAnalysis struct {
	Holdings []Holding                      `json:"holdings"`
	Prices   map[string]*market.PriceSeries `json:"prices,omitempty"`
	Analysis string                         `json:"analysis,omitempty"`
}

// EnhancedAssessment is an Assessment with the language-model opinion attached
type EnhancedAssessment struct {
	Assessment
	AITier    Tier               `json:"ai_tier,omitempty"`
	Narrative string             `json:"narrative,omitempty"`
	Portfolio *PortfolioAnalysis `json:"portfolio,omitempty"`
}

// Analyzer runs the classifier and asks the language model for its own read
type Analyzer struct {
	classifier *Classifier
	llm        llm.Completer
	market     market.Gateway
	log        zerolog.Logger
}

// NewAnalyzer creates an analyzer. gateway may be nil when portfolios are not analysed.
func NewAnalyzer(classifier *Classifier, completer llm.Completer, gateway market.Gateway, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		llm:        completer,
		market:     gateway,
		log:        log.With().Str("component", "risk_analyzer").Logger(),
	}
}

// Analyze classifies m and attaches the narrative, the AI tier and, for a
// non-empty portfolio, a portfolio analysis. Gateway failures leave the
// corresponding fields empty.
func (a *Analyzer) Analyze(ctx context.Context, m Member, portfolio []Holding) EnhancedAssessment {
	out := EnhancedAssessment{Assessment: a.classifier.Classify(ctx, m)}
	out.AITier = out.RandomForest

	if a.llm != nil {
		narrative := fallback.Attempt(ctx, fallback.KindGateway, "risk.analyze.narrative", func(ctx context.Context) (string, error) {
			return llm.CompleteWithSystem(ctx, a.llm,
				llm.RiskAnalysisSystemPrompt,
				llm.BuildRiskAnalysisPrompt(llm.FormatContextAsJSON(m)),
				llm.Params{})
		})
		out.Narrative = narrative.Val
		out.AITier = a.tierFromNarrative(ctx, narrative.Val, out.RandomForest)
	}

	if len(portfolio) > 0 {
		out.Portfolio = a.analyzePortfolio(ctx, portfolio)
	}
	return out
}

func (a *Analyzer) tierFromNarrative(ctx context.Context, narrative string, def Tier) Tier {
	if narrative == "" {
		return def
	}
	if t, ok := ParseNarrativeTier(narrative); ok {
		return t
	}
	fallback.Note(ctx, fallback.KindExtraction, "risk.analyze.ai_tier", errors.New("no risk level in narrative"))
	return def
}

var riskLevelPattern = regexp.MustCompile(`(?i)risk\s+level\s*[:：]?\s*\**\s*(low|medium|high)`)

// narrativeKeywords are checked in order; the first hit wins
var narrativeKeywords = []struct {
	tier  Tier
	words []string
}{
	{TierLow, []string{"low risk", "低风险"}},
	{TierMedium, []string{"medium risk", "moderate risk", "中风险"}},
	{TierHigh, []string{"high risk", "高风险"}},
}

// ParseNarrativeTier finds a tier in free text. An explicit "risk level: X"
// wins; otherwise keywords are checked in Low, Medium, High order.
func ParseNarrativeTier(text string) (Tier, bool) {
	if m := riskLevelPattern.FindStringSubmatch(text); m != nil {
		return ParseTier(m[1])
	}
	lower := strings.ToLower(text)
	for _, kw := range narrativeKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.tier, true
			}
		}
	}
	return "", false
}

func (a *Analyzer) analyzePortfolio(ctx context.Context, holdings []Holding) *PortfolioAnalysis {
	pa := &PortfolioAnalysis{Holdings: holdings, Prices: map[string]*market.PriceSeries{}}

	if a.market != nil {
		for _, h := range holdings {
			series := fallback.Attempt(ctx, fallback.KindGateway, "risk.analyze.portfolio_prices", func(ctx context.Context) (*market.PriceSeries, error) {
				return a.market.Prices(ctx, market.PriceQuery{
					Ticker:    strings.ToUpper(h.Ticker),
					StartDate: h.StartDate,
					EndDate:   h.EndDate,
				})
			})
			if series.OK {
				pa.Prices[strings.ToUpper(h.Ticker)] = series.Val
			}
		}
	}

	payload := map[string]any{"holdings": holdings}
	if len(pa.Prices) > 0 {
		payload["prices"] = pa.Prices
	}
	if a.llm == nil {
		return pa
	}
	analysis := fallback.Attempt(ctx, fallback.KindGateway, "risk.analyze.portfolio", func(ctx context.Context) (string, error) {
		return llm.CompleteWithSystem(ctx, a.llm,
			llm.PortfolioSystemPrompt,
			llm.BuildPortfolioPrompt(llm.FormatContextAsJSON(payload)),
			llm.PortfolioParams)
	})
	pa.Analysis = analysis.Val

	a.log.Debug().
		Int("holdings", len(holdings)).
		Int("priced", len(pa.Prices)).
		Bool("analysis", analysis.OK).
		Msg("Portfolio analysed")
	return pa
}
