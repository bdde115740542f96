package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	port    int
	dbPath  string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "invalloc",
	Short: "Inventory Allocator - Ship orders from the cheapest warehouses",
	Long: `Inventory Allocator decides which warehouses ship which quantities of
each item in an order. Orders are shipped from a single warehouse where
possible and otherwise split over as few warehouses as possible, preferring
warehouses listed first.

It provides a REST API and one-shot commands for allocating request files
and managing the stored warehouse list.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8080, "Server port")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "./data/invalloc.db", "Database file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}
