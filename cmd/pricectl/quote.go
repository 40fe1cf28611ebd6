package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/quote"
)

// departureFlags are the trip inputs shared by quote and simulate
type departureFlags struct {
	tripID    string
	price     string
	departure string
	available int
	total     int
}

func (f *departureFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tripID, "trip", "", "trip identifier")
	cmd.Flags().StringVar(&f.price, "price", "", "base price (required)")
	cmd.Flags().StringVar(&f.departure, "departure", "", "departure date, RFC 3339 or YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&f.available, "available", 0, "available spots")
	cmd.Flags().IntVar(&f.total, "total", 0, "total spots")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("departure")
}

func (f *departureFlags) request() (quote.Request, error) {
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid --price %q: %w", f.price, err)
	}
	departure, err := parseTime(f.departure)
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid --departure: %w", err)
	}
	return quote.Request{
		TripID:         f.tripID,
		BasePrice:      price,
		DepartureDate:  departure,
		AvailableSpots: f.available,
		TotalSpots:     f.total,
	}, nil
}

func (c *cli) newQuoteCmd() *cobra.Command {
	var flags departureFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a departure against the built-in catalog",
		Example: `  pricectl quote --price 1000 --departure 2026-12-24 --available 4 --total 20
  pricectl quote --price 1000 --departure 2026-08-01 --now 2026-05-10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			svc, err := c.service(pricing.DefaultCatalog())
			if err != nil {
				return err
			}
			q, err := svc.Quote(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.printQuote(cmd.OutOrStdout(), q)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *cli) newSimulateCmd() *cobra.Command {
	var (
		flags     departureFlags
		rulesFile string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Price a departure against the rules in a YAML or JSON file",
		Example: `  pricectl simulate --rules promo.yaml --price 800 --departure 2026-07-15`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			rules, err := pricing.ReadRulesFile(rulesFile)
			if err != nil {
				return err
			}
			svc, err := c.service(pricing.DefaultCatalog())
			if err != nil {
				return err
			}
			q, err := svc.Simulate(cmd.Context(), req, rules)
			if err != nil {
				return err
			}
			return c.printQuote(cmd.OutOrStdout(), q)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rule file to evaluate (required)")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func (c *cli) printQuote(w io.Writer, q *quote.Quote) error {
	if c.jsonOutput() {
		return writeJSON(w, q)
	}

	f := c.formatter()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if q.TripID != "" {
		fmt.Fprintf(tw, "Trip:\t%s\n", q.TripID)
	}
	fmt.Fprintf(tw, "Original:\t%s\n", q.Display.Original)
	fmt.Fprintf(tw, "Final:\t%s\n", q.Display.Final)
	if q.Display.HasSavings {
		fmt.Fprintf(tw, "Savings:\t%s (%d%%)\n", q.Display.Savings, q.Price.SavingsPercentage)
	}
	for _, adj := range q.Price.Adjustments {
		amount := adj.Amount
		if !adj.IsIncrease {
			amount = amount.Neg()
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", adj.RuleName, adj.RuleType, f.Format(amount))
	}
	if len(q.Badges) > 0 {
		fmt.Fprintf(tw, "Badges:\t%s\n", strings.Join(q.Badges, ", "))
	}
	if q.Urgency != "" {
		fmt.Fprintf(tw, "Urgency:\t%s\n", q.Urgency)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
