package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zoeholiday/pricingservice/internal/pricing"
)

func (c *cli) newRulesCmd() *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List a rule catalog in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(rulesFile)
			if err != nil {
				return err
			}
			rules := catalog.Rules()
			if c.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), rules)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRIORITY\tID\tTYPE\tADJUSTMENT\tWHEN")
			for _, r := range rules {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Priority, r.ID, r.Type, describeAdjustment(r), describeWhen(r))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "list this rule file instead of the built-in catalog")
	return cmd
}

// loadCatalog reads and validates path, or returns the built-in catalog when
// path is empty.
func loadCatalog(path string) (*pricing.Catalog, error) {
	if path == "" {
		return pricing.DefaultCatalog(), nil
	}
	rules, err := pricing.ReadRulesFile(path)
	if err != nil {
		return nil, err
	}
	return pricing.NewCatalog(rules...)
}

func describeAdjustment(r pricing.PricingRule) string {
	sign := ""
	if r.AdjustmentValue.IsPositive() {
		sign = "+"
	}
	if r.AdjustmentType == pricing.AdjustmentPercentage {
		return sign + r.AdjustmentValue.String() + "%"
	}
	return sign + r.AdjustmentValue.String()
}

func describeWhen(r pricing.PricingRule) string {
	when := ""
	if r.StartDate != "" {
		when = fmt.Sprintf("%s..%s", r.StartDate, r.EndDate)
	}
	if r.DaysBeforeDeparture != nil {
		op := "<="
		if r.Type == pricing.RuleTypeEarlyBird {
			op = ">="
		}
		when = appendWhen(when, fmt.Sprintf("days %s %d", op, *r.DaysBeforeDeparture))
	}
	for _, cond := range r.Conditions {
		when = appendWhen(when, fmt.Sprintf("%s %s %g", cond.Field, cond.Operator, float64(cond.Value)))
	}
	if when == "" {
		return "always"
	}
	return when
}

func appendWhen(when, part string) string {
	if when == "" {
		return part
	}
	return when + ", " + part
}
