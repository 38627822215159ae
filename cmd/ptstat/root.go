// ptstat is the proficiency-testing statistics CLI: it derives assigned
// values, their uncertainties, and participant performance scores from a
// round of laboratory results per ISO 13528:2022.
//
// Usage:
//
//	ptstat calculate <input.csv> [--config=<path>] [--method=<name>]
//	                 [--sigma-pt=<value>] [--results-json=<path>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ptstat",
	Short: "Robust statistics for interlaboratory proficiency testing",
	Long: "ptstat computes assigned values, standard uncertainties, and participant\n" +
		"performance scores (z and zeta) for proficiency-testing rounds following\n" +
		"the robust procedures of ISO 13528:2022.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(calculateCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
