// Command riskwise classifies investment risk, recommends allocations and
// answers free-text investment questions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/config"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config

	rootCmd = &cobra.Command{
		Use:   "riskwise",
		Short: "Risk classification and investment recommendation engine",
		Long: `riskwise classifies a person's investment risk tier from a few attributes,
turns the tier into a personalized asset allocation, and answers free-text
investment questions using market data and a language model.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration and the global logger. The mcp command
// logs to stderr because stdout carries the protocol.
func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	opts := config.LogOptionsFrom(cfg.App, logLevel)
	if cmd.Name() == "mcp" {
		opts.Output = os.Stderr
	}
	config.InitLogger(opts)
	return nil
}
