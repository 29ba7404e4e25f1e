package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/config"
	"github.com/ajitpratap0/riskwise/internal/mcpserver"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve assess_risk, recommend and ask as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			server := mcpserver.New(mcpserver.Deps{
				Classifier:   a.classifier,
				Analyzer:     a.analyzer,
				Advisor:      a.advisor,
				Orchestrator: a.orchestrator,
			}, config.GetVersion(), log.Logger)

			log.Info().Msg("MCP server ready, listening on stdio")
			return mcpserver.Run(cmd.Context(), server)
		},
	}
}
