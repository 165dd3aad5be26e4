package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	_ "time/tzdata"
)

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Invoices, quotes, payments and subscriptions for Investify tenants",
	Long: `billing serves the Investify billing API and runs its background jobs.

Configuration is read from .env and the environment; see internal/config.`,
	SilenceUsage: true,
}

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
