package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/assistant"
	"github.com/ajitpratap0/riskwise/internal/config"
	"github.com/ajitpratap0/riskwise/internal/db"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/market"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// app holds the engines, built once per process and injected everywhere
type app struct {
	classifier   *risk.Classifier
	analyzer     *risk.Analyzer
	advisor      *advisor.Engine
	orchestrator *assistant.Orchestrator

	llm    *llm.Client
	market *market.Service
	cache  *market.CachedFetcher
	redis  *redis.Client
	db     *db.DB
}

// buildApp wires the engines from cfg. Optional backing services that fail
// to connect are logged and left out.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	a.llm = llm.NewClient(llm.ClientConfig{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.GetTimeout(),
	})

	var fetcher market.Fetcher = market.NewClient(market.ClientConfig{
		BaseURL:           cfg.Market.BaseURL,
		APIKey:            cfg.Market.APIKey,
		Timeout:           cfg.Market.GetTimeout(),
		RequestsPerSecond: cfg.Market.RequestsPerSecond,
		Burst:             cfg.Market.Burst,
		BreakerEnabled:    cfg.Market.BreakerEnabled,
	})
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.cache = market.NewCachedFetcher(fetcher, a.redis, cfg.Redis.GetTTL())
		if err := a.cache.Health(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.GetRedisAddr()).Msg("Redis unreachable, market cache will fall through")
		}
		fetcher = a.cache
	}
	a.market = market.NewService(fetcher)

	a.classifier = risk.NewClassifier(log.Logger)
	// a missing or invalid bundle is logged by Load and leaves the rule in charge
	_ = a.classifier.Load(cfg.Model.BundlePath)

	catalogue, err := advisor.DefaultCatalogue()
	if err != nil {
		return nil, err
	}
	a.advisor = advisor.NewEngine(catalogue, a.market, a.llm, cfg.Market.WatchList, log.Logger)
	a.analyzer = risk.NewAnalyzer(a.classifier, a.llm, a.market, log.Logger)

	orchCfg := assistant.Config{
		LLM:       a.llm,
		Market:    a.market,
		Analyzer:  a.analyzer,
		Advisor:   a.advisor,
		WatchList: cfg.Market.WatchList,
	}
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			log.Warn().Err(err).Msg("Consultation log unavailable, continuing without it")
		} else {
			a.db = database
			orchCfg.Recorder = database
		}
	}
	a.orchestrator = assistant.NewOrchestrator(orchCfg, log.Logger)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}
