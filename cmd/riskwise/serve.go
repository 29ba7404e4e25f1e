package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/api"
	"github.com/ajitpratap0/riskwise/internal/config"
	"github.com/ajitpratap0/riskwise/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the metrics server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := api.Deps{
		Classifier:   a.classifier,
		Analyzer:     a.analyzer,
		Advisor:      a.advisor,
		Orchestrator: a.orchestrator,
	}
	if a.db != nil {
		deps.Database = a.db
		deps.Consultations = a.db
	}
	if a.cache != nil {
		deps.Cache = a.cache
	}

	server := api.NewServer(api.Config{
		Host:           cfg.API.Host,
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Auth: &api.AuthConfig{
			Enabled:    cfg.API.AuthEnabled,
			HeaderName: cfg.API.AuthHeader,
			Keys:       cfg.API.APIKeys,
		},
		Version: config.GetVersion(),
	}, deps)

	var metricsServer *metrics.Server
	if cfg.Monitoring.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Monitoring.PrometheusPort, config.GetVersion(), func() map[string]any {
			return map[string]any{"model": string(a.classifier.State())}
		}, log.Logger)
		if err := metricsServer.Start(); err != nil {
			return err
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err = <-serverErrors:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		log.Error().Err(stopErr).Msg("Failed to stop server gracefully")
	}
	if metricsServer != nil {
		if stopErr := metricsServer.Shutdown(shutdownCtx); stopErr != nil {
			log.Error().Err(stopErr).Msg("Failed to stop metrics server gracefully")
		}
	}

	log.Info().Msg("Server stopped")
	return err
}
