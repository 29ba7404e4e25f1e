// Package assistant answers free-text investment questions by splitting them
// into sub-tasks, routing each to a capability and synthesizing one reply.
package assistant

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/db"
	"github.com/ajitpratap0/riskwise/internal/fallback"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/market"
	"github.com/ajitpratap0/riskwise/internal/metrics"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Apology is the reply when synthesis fails
const Apology = "Sorry, I could not process your request. Please try again later."

// Query outcomes
const (
	OutcomeAnswered = "answered"
	OutcomeApology  = "apology"
)

// Per-task error messages
const (
	ErrMsgNoTicker = "no ticker symbol found"
	ErrMsgNoData   = "no data available for this request"
)

// ConsultationRecorder stores processed queries
type ConsultationRecorder interface {
	SaveConsultation(ctx context.Context, c *db.Consultation) error
}

// Config wires the orchestrator's collaborators. Any of them may be nil;
// tasks that need a missing one report an error payload.
type Config struct {
	LLM       llm.Completer
	Market    market.Gateway
	Analyzer  *risk.Analyzer
	Advisor   *advisor.Engine
	WatchList []string
	Recorder  ConsultationRecorder
}

// Response is the outcome of one processed query
type Response struct {
	Text    string            `json:"response"`
	Tasks   []string          `json:"tasks"`
	Results []TaskResult      `json:"task_results"`
	History []llm.ChatMessage `json:"chat_history"`
}

// Orchestrator runs the decompose, route, synthesize pipeline
type Orchestrator struct {
	cfg    Config
	routes []route
	log    zerolog.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(cfg Config, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg: cfg,
		log: log.With().Str("component", "assistant").Logger(),
	}
	o.routes = o.buildRoutes()
	return o
}

// queryState is per-query scratch: the original text and the ticker,
// extracted at most once
type queryState struct {
	query        string
	ticker       string
	tickerFound  bool
	tickerLooked bool
}

func (o *Orchestrator) ticker(ctx context.Context, q *queryState) (string, bool) {
	if !q.tickerLooked {
		q.ticker, q.tickerFound = ExtractTicker(ctx, o.cfg.LLM, q.query)
		q.tickerLooked = true
	}
	return q.ticker, q.tickerFound
}

// Process answers query. History is copied, extended with the query and the
// reply, and returned. A response is always produced.
func (o *Orchestrator) Process(ctx context.Context, query string, history []llm.ChatMessage) Response {
	start := time.Now()
	ctx = o.log.WithContext(ctx)

	hist := slices.Clone(history)
	hist = append(hist, llm.ChatMessage{Role: llm.RoleUser, Content: query})

	tasks := Decompose(ctx, o.cfg.LLM, query)
	state := &queryState{query: query}

	results := make([]TaskResult, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, o.execute(ctx, state, task))
	}

	text, outcome := o.synthesize(ctx, query, results)
	hist = append(hist, llm.ChatMessage{Role: llm.RoleAssistant, Content: text})
	metrics.RecordQuery(outcome)

	resp := Response{Text: text, Tasks: tasks, Results: results, History: hist}
	o.record(ctx, query, resp, outcome, time.Since(start))

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	o.log.Info().
		Int("tasks", len(tasks)).
		Int("failed_tasks", failed).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("Query processed")

	return resp
}

// Route resolves a single task label against query
func (o *Orchestrator) Route(ctx context.Context, query, task string) TaskResult {
	return o.execute(ctx, &queryState{query: query}, task)
}

// execute routes task through the table, first match wins
func (o *Orchestrator) execute(ctx context.Context, q *queryState, task string) TaskResult {
	lower := strings.ToLower(task)
	category := CategoryGeneric
	h := o.handleGeneric
	for _, r := range o.routes {
		if r.matches(lower) {
			category, h = r.category, r.handle
			break
		}
	}
	metrics.RecordRoutedTask(string(category))

	o.log.Debug().Str("task", task).Str("category", string(category)).Msg("Task routed")

	p := fallback.Attempt(ctx, fallback.KindGateway, "assistant.task."+string(category), func(ctx context.Context) (Payload, error) {
		return h(ctx, q, task), nil
	})
	return TaskResult{Task: task, Category: category, Payload: p.Or(ErrorPayload{Message: ErrMsgNoData})}
}

// handlePrice fetches the series, plus the live quote and recent news when
// the task asks for them. Quote and news failures drop only their field.
func (o *Orchestrator) handlePrice(ctx context.Context, q *queryState, task string) Payload {
	ticker, ok := o.ticker(ctx, q)
	if !ok {
		return ErrorPayload{Message: ErrMsgNoTicker}
	}
	if o.cfg.Market == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	v := fallback.Attempt(ctx, fallback.KindGateway, "assistant.price", func(ctx context.Context) (*market.PriceSeries, error) {
		return o.cfg.Market.Prices(ctx, market.PriceQuery{Ticker: ticker})
	})
	if !v.OK {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	p := PricePayload{Series: v.Val}

	lower := strings.ToLower(task)
	if containsAny(lower, quoteKeywords) {
		p.Quote = fallback.Attempt(ctx, fallback.KindGateway, "assistant.price.quote", func(ctx context.Context) (*market.RecordSet, error) {
			return o.cfg.Market.Quote(ctx, ticker)
		}).Val
	}
	if containsAny(lower, newsKeywords) {
		p.News = fallback.Attempt(ctx, fallback.KindGateway, "assistant.price.news", func(ctx context.Context) (*market.RecordSet, error) {
			return o.cfg.Market.News(ctx, ticker, market.DefaultNewsLimit)
		}).Val
	}
	return p
}

func (o *Orchestrator) handleStatements(ctx context.Context, q *queryState, _ string) Payload {
	ticker, ok := o.ticker(ctx, q)
	if !ok {
		return ErrorPayload{Message: ErrMsgNoTicker}
	}
	if o.cfg.Market == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	v := fallback.Attempt(ctx, fallback.KindGateway, "assistant.statements", func(ctx context.Context) (*market.StatementBundle, error) {
		return market.FetchStatementBundle(ctx, o.cfg.Market, ticker)
	})
	if !v.OK {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	return StatementsPayload{Bundle: v.Val}
}

func (o *Orchestrator) handleMetrics(ctx context.Context, q *queryState, _ string) Payload {
	ticker, ok := o.ticker(ctx, q)
	if !ok {
		return ErrorPayload{Message: ErrMsgNoTicker}
	}
	if o.cfg.Market == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	v := fallback.Attempt(ctx, fallback.KindGateway, "assistant.metrics", func(ctx context.Context) (*market.RecordSet, error) {
		return o.cfg.Market.Metrics(ctx, ticker, market.DefaultMetricsPeriod, market.DefaultMetricsLimit)
	})
	if !v.OK {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	return MetricsPayload{Metrics: v.Val}
}

func (o *Orchestrator) handleMarket(ctx context.Context, _ *queryState, _ string) Payload {
	if o.cfg.Market == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	snap := market.BuildSnapshot(ctx, o.cfg.Market, o.cfg.WatchList)
	if snap.Empty() {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	return MarketPayload{Snapshot: snap}
}

func (o *Orchestrator) handleRecommendation(ctx context.Context, q *queryState, _ string) Payload {
	if o.cfg.Advisor == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	tier := ExtractTierHint(q.query)
	rec := o.cfg.Advisor.Enrich(ctx, string(tier), advisor.Profile{Extra: map[string]any{"query": q.query}})
	return RecommendationPayload{Recommendation: rec}
}

func (o *Orchestrator) handleRisk(ctx context.Context, q *queryState, _ string) Payload {
	if o.cfg.Analyzer == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	m, defaulted := ExtractMember(ctx, o.cfg.LLM, q.query)
	return RiskPayload{
		Member:     m,
		Defaulted:  defaulted,
		Assessment: o.cfg.Analyzer.Analyze(ctx, m, nil),
	}
}

func (o *Orchestrator) handleGeneric(ctx context.Context, q *queryState, task string) Payload {
	if o.cfg.LLM == nil {
		return ErrorPayload{Message: ErrMsgNoData}
	}
	v := fallback.Attempt(ctx, fallback.KindGateway, "assistant.generic", func(ctx context.Context) (string, error) {
		return o.cfg.LLM.Complete(ctx, []llm.ChatMessage{
			{Role: llm.RoleUser, Content: llm.BuildGenericPrompt(task, q.query)},
		}, llm.Params{})
	})
	if !v.OK {
		return ErrorPayload{Message: "language model request failed"}
	}
	return TextPayload{Text: v.Val}
}

// synthesize asks for one consolidated answer; failure yields Apology
func (o *Orchestrator) synthesize(ctx context.Context, query string, results []TaskResult) (string, string) {
	if o.cfg.LLM == nil {
		fallback.Note(ctx, fallback.KindGateway, "assistant.synthesize", errors.New("no language model configured"))
		return Apology, OutcomeApology
	}

	outcomes := make([]llm.TaskOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, llm.TaskOutcome{Task: r.Task, Payload: llm.FormatContextAsJSON(r.Payload)})
	}

	v := fallback.Attempt(ctx, fallback.KindGateway, "assistant.synthesize", func(ctx context.Context) (string, error) {
		text, err := llm.CompleteWithSystem(ctx, o.cfg.LLM, llm.SynthesisSystemPrompt, llm.BuildSynthesisPrompt(query, outcomes), llm.Params{})
		if err == nil && strings.TrimSpace(text) == "" {
			err = llm.ErrEmptyResponse
		}
		return text, err
	})
	if !v.OK {
		return Apology, OutcomeApology
	}
	return v.Val, OutcomeAnswered
}

// record stores the consultation; failures are logged only
func (o *Orchestrator) record(ctx context.Context, query string, resp Response, outcome string, elapsed time.Duration) {
	if o.cfg.Recorder == nil {
		return
	}

	categories := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		categories = append(categories, string(r.Category))
	}

	c := &db.Consultation{
		Query:      query,
		Tasks:      resp.Tasks,
		Categories: categories,
		Response:   resp.Text,
		Outcome:    outcome,
		DurationMs: int(elapsed.Milliseconds()),
	}
	if err := o.cfg.Recorder.SaveConsultation(ctx, c); err != nil {
		o.log.Warn().Err(err).Msg("Failed to record consultation")
	}
}
