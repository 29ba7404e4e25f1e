package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Answer a free-text investment question",
		Example: `  riskwise ask "What is the current price of AAPL and is it right for a conservative investor?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runAsk,
	}

	cmd.Flags().Bool("details", false, "print the sub-tasks and their raw results as JSON")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	details, _ := cmd.Flags().GetBool("details")
	query := strings.Join(args, " ")

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	resp := a.orchestrator.Process(cmd.Context(), query, nil)
	if details {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
	return err
}
