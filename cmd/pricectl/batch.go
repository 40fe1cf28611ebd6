package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zoeholiday/pricingservice/internal/quote"
)

const batchColumns = 5

var batchHeader = []string{"trip_id", "original_price", "final_price", "savings_percentage", "adjustments", "badges", "urgency"}

func (c *cli) newBatchCmd() *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "batch <departures.csv>",
		Short: "Price every departure in a CSV file",
		Long: `batch reads departures from a CSV file with the header
trip_id,base_price,departure_date,available_spots,total_spots
and writes one priced row per departure. Malformed rows are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(rulesFile)
			if err != nil {
				return err
			}
			svc, err := c.service(catalog)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open CSV file: %w", err)
			}
			defer file.Close()

			requests, err := readDepartures(file, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			quotes := make([]*quote.Quote, 0, len(requests))
			for _, req := range requests {
				q, err := svc.Quote(cmd.Context(), req)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipping %s: %v\n", req.TripID, err)
					continue
				}
				quotes = append(quotes, q)
			}

			if c.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), quotes)
			}
			return writeQuotesCSV(cmd.OutOrStdout(), quotes)
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "price against this rule file instead of the built-in catalog")
	return cmd
}

// readDepartures parses the departures CSV. Rows that cannot be parsed are
// reported on warn and skipped.
func readDepartures(r io.Reader, warn io.Writer) ([]quote.Request, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var requests []quote.Request
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if len(record) < batchColumns {
			fmt.Fprintf(warn, "Warning: line %d has %d columns, want %d\n", line, len(record), batchColumns)
			continue
		}

		req, err := parseDeparture(record)
		if err != nil {
			fmt.Fprintf(warn, "Warning: line %d: %v\n", line, err)
			continue
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func parseDeparture(record []string) (quote.Request, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(record[1]))
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid base price %q", record[1])
	}
	departure, err := parseTime(strings.TrimSpace(record[2]))
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid departure date: %w", err)
	}
	available, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid available spots %q", record[3])
	}
	total, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return quote.Request{}, fmt.Errorf("invalid total spots %q", record[4])
	}

	return quote.Request{
		TripID:         strings.TrimSpace(record[0]),
		BasePrice:      price,
		DepartureDate:  departure,
		AvailableSpots: available,
		TotalSpots:     total,
	}, nil
}

func writeQuotesCSV(w io.Writer, quotes []*quote.Quote) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(batchHeader); err != nil {
		return err
	}
	for _, q := range quotes {
		names := make([]string, len(q.Price.Adjustments))
		for i, adj := range q.Price.Adjustments {
			names[i] = adj.RuleName
		}
		row := []string{
			q.TripID,
			q.Price.OriginalPrice.StringFixed(2),
			q.Price.FinalPrice.StringFixed(2),
			strconv.Itoa(q.Price.SavingsPercentage),
			strings.Join(names, "; "),
			strings.Join(q.Badges, "; "),
			q.Urgency,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
