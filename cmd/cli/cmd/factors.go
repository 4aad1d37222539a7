// Package cmd - factors command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"carbontrace/adapters/factors/hcl"
	"carbontrace/core/factors"
	"carbontrace/internal/config"
)

var factorsDatasetDir string

// factorsCmd represents the factors command
var factorsCmd = &cobra.Command{
	Use:   "factors [table] [path...]",
	Short: "Browse and resolve emission factors",
	Long: `Browse the emission factor catalog.

With no arguments, list the available factor tables. With a table name and
an optional selection path, show the next options or the resolved factor.

Examples:
  carbontrace factors
  carbontrace factors fuel
  carbontrace factors fuel "Liquid fuels" Diesel Litre
  carbontrace factors grid France`,
	Args: cobra.ArbitraryArgs,
	RunE: runFactors,
}

func init() {
	factorsCmd.Flags().StringVarP(&factorsDatasetDir, "dataset", "d", "", "directory of .hcl factor dataset overlays")
}

func runFactors(cmd *cobra.Command, args []string) error {
	dir := factorsDatasetDir
	if dir == "" {
		dir = config.Get().Factors.DatasetDir
	}
	catalog, err := hcl.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load factor dataset: %w", err)
	}

	if len(args) == 0 {
		fmt.Println("Available factor tables:")
		for _, name := range factors.TableNames() {
			t := catalog.Table(name)
			fmt.Printf("  %-22s %d top-level entries\n", name, t.Len())
		}
		return nil
	}

	table := catalog.Table(args[0])
	if table == nil {
		return fmt.Errorf("unknown table: %s", args[0])
	}
	path := args[1:]

	res := table.Resolve(path...)
	switch res.State {
	case factors.Resolved:
		fmt.Printf("%s kg CO2e per unit\n", res.Factor.Value.String())
	case factors.NotApplicableState:
		fmt.Println("not applicable for this selection")
	default:
		if len(res.Options) == 0 {
			return fmt.Errorf("no factor found for %v", path)
		}
		available := table.AvailableOptions(path...)
		selectable := make(map[string]bool, len(available))
		for _, opt := range available {
			selectable[opt] = true
		}
		fmt.Println("Options:")
		for _, opt := range res.Options {
			if selectable[opt] {
				fmt.Printf("  %s\n", opt)
			} else {
				fmt.Printf("  %s (not applicable)\n", opt)
			}
		}
	}
	return nil
}
