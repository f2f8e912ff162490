package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argus/internal/results"
)

var (
	seedFile     string
	seedTruncate bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the results database table from a CSV snapshot",
	Long: `Decode a snapshot file and insert its rows into the results table.
The service's database source serves them once file and blob snapshots
are exhausted.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Snapshot file to load")
	seedCmd.Flags().BoolVar(&seedTruncate, "truncate", false, "Clear the results table first")
	seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, infra, err := loadRuntime()
	if err != nil {
		return err
	}

	conn := infra.Connection()
	if conn == nil {
		return fmt.Errorf("database is not enabled; set [database] enabled = true")
	}

	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", seedFile, err)
	}
	defer f.Close()

	store, err := results.DecodeSnapshot(f)
	if err != nil {
		return fmt.Errorf("invalid snapshot %s: %w", seedFile, err)
	}

	inserted, total, err := results.SeedResults(cmd.Context(), conn, store, seedTruncate)
	if err != nil {
		return fmt.Errorf("failed to seed results: %w", err)
	}

	fmt.Printf("Inserted %d records (%d total in table)\n", inserted, total)
	return nil
}
