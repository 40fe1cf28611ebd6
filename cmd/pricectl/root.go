package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zoeholiday/pricingservice/internal/log"
	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/quote"
)

// cli carries the settings shared by every subcommand
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "pricectl",
		Short: "Quotes ZoeHoliday trips with the dynamic pricing engine",
		Long: `pricectl prices trip departures with the same rule engine the pricing service runs.
It can quote against the built-in catalog, simulate a custom rule file, list the
catalog and price a CSV of departures.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(c.v.GetString("log-level"), "console")
		},
	}

	flags := root.PersistentFlags()
	flags.String("now", "", "evaluation time, RFC 3339 or YYYY-MM-DD (default is the current time)")
	flags.String("currency", "$", "currency symbol used for display")
	flags.String("locale", "en", "locale used for number grouping")
	flags.Bool("json", false, "print results as JSON")
	flags.String("log-level", "warn", "log level")

	c.v.SetEnvPrefix("PRICECTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)

	root.AddCommand(
		c.newQuoteCmd(),
		c.newSimulateCmd(),
		c.newRulesCmd(),
		c.newBatchCmd(),
	)
	return root
}

// clock returns the evaluation clock selected by --now
func (c *cli) clock() (func() time.Time, error) {
	raw := c.v.GetString("now")
	if raw == "" {
		return time.Now, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// service builds a quote service over catalog using the CLI clock and display settings
func (c *cli) service(catalog *pricing.Catalog) (*quote.Service, error) {
	clock, err := c.clock()
	if err != nil {
		return nil, err
	}
	return quote.NewService(
		pricing.NewCalculator(catalog, pricing.WithClock(clock)),
		c.formatter(),
		quote.WithClock(clock),
	), nil
}

func (c *cli) formatter() *pricing.Formatter {
	return pricing.NewFormatter(c.v.GetString("currency"), c.v.GetString("locale"))
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}
