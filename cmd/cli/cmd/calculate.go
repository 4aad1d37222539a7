// Package cmd - calculate command
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"carbontrace/adapters/factors/hcl"
	"carbontrace/core/calc"
	"carbontrace/core/entry"
	"carbontrace/core/record"
	"carbontrace/internal/config"
	"carbontrace/internal/logging"
)

var (
	outputFormat string
	datasetDir   string
	showFactors  bool
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate <rows.json>",
	Short: "Compute emissions for a file of activity rows",
	Long: `Read activity rows from a JSON file, resolve an emission factor for each
row and print per-category and overall totals.

The file holds a JSON array of row objects. Each row names its category
("fuel", "electricity", ...) and the selection and quantity fields that
category needs.

Examples:
  carbontrace calculate rows.json
  carbontrace calculate --format json rows.json
  carbontrace calculate --dataset ./factors rows.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
	calculateCmd.Flags().StringVarP(&datasetDir, "dataset", "d", "", "directory of .hcl factor dataset overlays")
	calculateCmd.Flags().BoolVar(&showFactors, "show-factors", false, "show the resolved factor for each row")
}

// rowOutput is one computed row in the calculate report.
type rowOutput struct {
	Category  string           `json:"category"`
	Selection []string         `json:"selection,omitempty"`
	CO2Factor *decimal.Decimal `json:"co2_factor,omitempty"`
	Emissions *decimal.Decimal `json:"emissions,omitempty"`
	Complete  bool             `json:"complete"`
}

// calculateOutput is the full calculate report.
type calculateOutput struct {
	Rows         []rowOutput            `json:"rows"`
	Totals       map[string]calc.Totals `json:"totals"`
	GrandTotalKg decimal.Decimal        `json:"grand_total_kg"`
}

func runCalculate(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}

	dir := datasetDir
	if dir == "" {
		dir = config.Get().Factors.DatasetDir
	}
	catalog, err := hcl.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load factor dataset: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rows file: %w", err)
	}
	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse rows file: %w", err)
	}

	logging.Info("Computing emissions")

	result := calculateOutput{
		Rows:   make([]rowOutput, 0, len(records)),
		Totals: make(map[string]calc.Totals),
	}
	rowsByCategory := make(map[entry.Category][]entry.Entry)

	for i := range records {
		e, err := record.ToEntry(&records[i])
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		e = calc.Recompute(catalog, e)
		rowsByCategory[e.Category] = append(rowsByCategory[e.Category], e)

		out := rowOutput{
			Category: string(e.Category),
			Complete: e.Emissions.Valid,
		}
		for _, v := range e.Selection {
			if v != "" {
				out.Selection = append(out.Selection, v)
			}
		}
		if e.ResolvedFactor.Valid {
			f := e.ResolvedFactor.Decimal
			out.CO2Factor = &f
		}
		if e.Emissions.Valid {
			v := e.Emissions.Decimal
			out.Emissions = &v
		}
		result.Rows = append(result.Rows, out)
	}

	grand := decimal.Zero
	for cat, rows := range rowsByCategory {
		totals := calc.Aggregate(rows)
		result.Totals[string(cat)] = totals
		if cat != entry.CategoryInvestment {
			grand = grand.Add(totals.Emissions)
		}
	}
	result.GrandTotalKg = grand

	switch outputFormat {
	case "json":
		return printJSON(result)
	case "cli":
		printReport(result)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func printJSON(result calculateOutput) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printReport(result calculateOutput) {
	fmt.Printf("Computed %d rows\n\n", len(result.Rows))

	for i, row := range result.Rows {
		label := row.Category
		for _, v := range row.Selection {
			label += " / " + v
		}
		if !row.Complete {
			fmt.Printf("  %3d. %-60s %12s\n", i+1, label, "incomplete")
			continue
		}
		unit := "kg CO2e"
		if row.Category == string(entry.CategoryInvestment) {
			unit = "t CO2e"
		}
		fmt.Printf("  %3d. %-60s %12s %s\n", i+1, label, row.Emissions.StringFixed(2), unit)
		if showFactors && row.CO2Factor != nil {
			fmt.Printf("       factor: %s\n", row.CO2Factor.String())
		}
	}

	fmt.Println()
	for _, cat := range entry.Categories() {
		totals, ok := result.Totals[string(cat)]
		if !ok {
			continue
		}
		unit := "kg CO2e"
		if cat == entry.CategoryInvestment {
			unit = "t CO2e"
		}
		fmt.Printf("  %-28s %12s %s  (%d/%d rows complete)\n",
			cat, totals.Emissions.StringFixed(2), unit, totals.Complete, totals.Rows)
	}
	fmt.Printf("\n  Total: %s kg CO2e\n", result.GrandTotalKg.StringFixed(2))
}
