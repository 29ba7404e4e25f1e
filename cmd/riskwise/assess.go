package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/risk"
)

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Classify one member's risk tier",
		Example: `  riskwise assess --age 42 --balance 1250.50 --housing
  riskwise assess --age 70 --balance=-20 --enhanced`,
		RunE: runAssess,
	}

	addMemberFlags(cmd)
	cmd.Flags().Bool("enhanced", false, "also ask the language model for a narrative")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("balance")

	return cmd
}

func addMemberFlags(cmd *cobra.Command) {
	cmd.Flags().Int("age", 0, "age in years")
	cmd.Flags().String("balance", "", "account balance")
	cmd.Flags().Bool("housing", false, "has a housing loan")
	cmd.Flags().Bool("loan", false, "has a personal loan")
	cmd.Flags().String("job", "", "job category")
	cmd.Flags().String("marital", "", "marital status")
	cmd.Flags().String("education", "", "education level")
}

// memberFromFlags builds a validated member from the member flags
func memberFromFlags(cmd *cobra.Command) (risk.Member, error) {
	age, _ := cmd.Flags().GetInt("age")
	balanceRaw, _ := cmd.Flags().GetString("balance")
	housing, _ := cmd.Flags().GetBool("housing")
	loan, _ := cmd.Flags().GetBool("loan")
	job, _ := cmd.Flags().GetString("job")
	marital, _ := cmd.Flags().GetString("marital")
	education, _ := cmd.Flags().GetString("education")

	balance, err := decimal.NewFromString(balanceRaw)
	if err != nil {
		return risk.Member{}, risk.ValidationErrors{{Field: "balance", Message: fmt.Sprintf("invalid number %q", balanceRaw)}}
	}

	m := risk.Member{
		Age:             age,
		Balance:         balance,
		HasHousingLoan:  housing,
		HasPersonalLoan: loan,
		Job:             job,
		Marital:         marital,
		Education:       education,
	}
	if err := m.Validate(); err != nil {
		return risk.Member{}, err
	}
	return m.Normalized(), nil
}

func runAssess(cmd *cobra.Command, _ []string) error {
	m, err := memberFromFlags(cmd)
	if err != nil {
		return err
	}
	enhanced, _ := cmd.Flags().GetBool("enhanced")

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if enhanced {
		return printJSON(cmd.OutOrStdout(), a.analyzer.Analyze(cmd.Context(), m, nil))
	}
	return printJSON(cmd.OutOrStdout(), a.classifier.Classify(cmd.Context(), m))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
