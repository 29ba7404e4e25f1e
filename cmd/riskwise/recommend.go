package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend an allocation for a risk tier or a member",
		Long: `Prints the personalized catalogue entry for --tier. Without --tier the member
flags are classified first and the model tier is used.`,
		Example: `  riskwise recommend --tier Medium --age 65 --balance 20000 --loan
  riskwise recommend --age 28 --balance 3000 --enriched`,
		RunE: runRecommend,
	}

	addMemberFlags(cmd)
	cmd.Flags().String("tier", "", "risk tier label (High, Medium, Low or an alias)")
	cmd.Flags().Bool("enriched", false, "attach market data and narrative advice")

	return cmd
}

// profileFromFlags uses only the member flags that were set
func profileFromFlags(cmd *cobra.Command) (advisor.Profile, error) {
	var p advisor.Profile
	if cmd.Flags().Changed("age") {
		age, _ := cmd.Flags().GetInt("age")
		p.Age = &age
	}
	if cmd.Flags().Changed("balance") {
		raw, _ := cmd.Flags().GetString("balance")
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return p, risk.ValidationErrors{{Field: "balance", Message: fmt.Sprintf("invalid number %q", raw)}}
		}
		p.Balance = &balance
	}
	housing, _ := cmd.Flags().GetBool("housing")
	loan, _ := cmd.Flags().GetBool("loan")
	p.HasLoans = housing || loan
	return p, nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	tier, _ := cmd.Flags().GetString("tier")
	enriched, _ := cmd.Flags().GetBool("enriched")

	if tier == "" && !(cmd.Flags().Changed("age") && cmd.Flags().Changed("balance")) {
		return errors.New("either --tier or both --age and --balance are required")
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	var profile advisor.Profile
	if tier == "" {
		m, err := memberFromFlags(cmd)
		if err != nil {
			return err
		}
		profile = advisor.ProfileFromMember(m)
		tier = string(a.classifier.Classify(cmd.Context(), m).RandomForest)
	} else if profile, err = profileFromFlags(cmd); err != nil {
		return err
	}

	if enriched {
		return printJSON(cmd.OutOrStdout(), a.advisor.Enrich(cmd.Context(), tier, profile))
	}
	return printJSON(cmd.OutOrStdout(), a.advisor.Personalize(tier, profile))
}
