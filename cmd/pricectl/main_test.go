package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeholiday/pricingservice/internal/quote"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestQuoteCmd(t *testing.T) {
	out, _, err := execute(t, "quote",
		"--trip", "nile-cruise-7d",
		"--price", "1000",
		"--departure", "2026-08-13",
		"--available", "10",
		"--total", "20",
		"--now", "2026-05-10")
	require.NoError(t, err)

	assert.Contains(t, out, "nile-cruise-7d")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "$800.00")
	assert.Contains(t, out, "Early Bird (90+ days)")
	assert.Contains(t, out, "-$200.00")
	assert.Contains(t, out, "Save 20%")
}

func TestQuoteCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "quote",
		"--price", "1000",
		"--departure", "2026-05-12",
		"--available", "4",
		"--now", "2026-05-10",
		"--json")
	require.NoError(t, err)

	var q quote.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "700", q.Price.FinalPrice.String())
	assert.NotEmpty(t, q.Urgency)
}

func TestQuoteCmd_MissingFlags(t *testing.T) {
	_, _, err := execute(t, "quote", "--departure", "2026-08-13")
	assert.Error(t, err)

	_, _, err = execute(t, "quote", "--price", "abc", "--departure", "2026-08-13")
	assert.Error(t, err)

	_, _, err = execute(t, "quote", "--price", "100", "--departure", "2026-08-13", "--now", "yesterday")
	assert.Error(t, err)
}

func TestSimulateCmd(t *testing.T) {
	rules := writeFile(t, "rules.yaml", `
rules:
  - id: flash-sale
    name: Flash Sale
    type: special-event
    adjustment_type: percentage
    adjustment_value: -40
    priority: 2
  - id: extra-flash
    name: Extra Flash
    type: special-event
    adjustment_type: percentage
    adjustment_value: -40
    priority: 1
`)

	out, _, err := execute(t, "simulate",
		"--rules", rules,
		"--price", "1000",
		"--departure", "2026-07-15",
		"--now", "2026-05-10",
		"--json")
	require.NoError(t, err)

	var q quote.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	// 1000 -> 600 -> 360, floored at half the base price
	assert.Equal(t, "500", q.Price.FinalPrice.String())
	assert.Len(t, q.Price.Adjustments, 2)
}

func TestSimulateCmd_InvalidRules(t *testing.T) {
	rules := writeFile(t, "rules.yaml", `
rules:
  - id: broken
    name: Broken
    type: mystery
    adjustment_type: percentage
    adjustment_value: 5
`)

	_, _, err := execute(t, "simulate", "--rules", rules, "--price", "100", "--departure", "2026-07-15")
	assert.Error(t, err)
}

func TestRulesCmd(t *testing.T) {
	out, _, err := execute(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13)
	assert.Contains(t, lines[0], "PRIORITY")
	assert.Contains(t, lines[1], "last-minute-3")
	assert.Contains(t, out, "12-20..12-31")
	assert.Contains(t, out, "days >= 90")
	assert.Contains(t, out, "availability lte 5")
}

func TestBatchCmd(t *testing.T) {
	departures := writeFile(t, "departures.csv", `trip_id,base_price,departure_date,available_spots,total_spots
nile-cruise-7d,1000,2026-08-13,10,20
aswan-2d,1000,2026-05-12,4,20
broken,abc,2026-05-12,4,20
short,100
`)

	out, stderr, err := execute(t, "batch", departures, "--now", "2026-05-10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "trip_id,original_price,final_price"))
	assert.True(t, strings.HasPrefix(lines[1], "nile-cruise-7d,1000.00,800.00,20,"))
	assert.True(t, strings.HasPrefix(lines[2], "aswan-2d,1000.00,700.00,30,"))

	assert.Contains(t, stderr, "line 4")
	assert.Contains(t, stderr, "line 5")
}
