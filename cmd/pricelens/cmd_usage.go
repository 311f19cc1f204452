package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pricelens/internal/usage"
)

var usageJSON bool

// usageCmd prints the provider token ledger
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show provider token usage by model and category",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Print the ledger as JSON")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	tracker, err := usage.NewTracker(usagePath())
	if err != nil {
		return err
	}
	stats := tracker.Stats()
	out := cmd.OutOrStdout()

	if usageJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	if stats.Total.Requests == 0 {
		fmt.Fprintln(out, "Noch keine Anfragen.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tANFRAGEN\tEINGABE\tAUSGABE\tGESAMT")
	row := func(name string, c usage.Counts) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, c.Requests, c.Input, c.Output, c.Total)
	}
	row("Gesamt", stats.Total)
	for _, k := range slices.Sorted(maps.Keys(stats.ByModel)) {
		row("Modell "+k, stats.ByModel[k])
	}
	for _, k := range slices.Sorted(maps.Keys(stats.ByCategory)) {
		row("Kategorie "+k, stats.ByCategory[k])
	}
	return tw.Flush()
}
