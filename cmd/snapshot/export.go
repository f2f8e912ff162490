package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argus/internal/results"
	"argus/pkg/formatting"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the loaded result table to a CSV snapshot",
	Long: `Walk the configured source chain, load the winning result table, and
write it to a CSV snapshot file.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "results.csv", "Output snapshot path")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, infra, err := loadRuntime()
	if err != nil {
		return err
	}

	sys := results.New(
		&cfg.Results,
		infra.Connection(),
		infra.Storage,
		infra.Logger,
		cfg.API.Pagination,
	)

	store, err := sys.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	status, err := sys.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to resolve source: %w", err)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	defer f.Close()

	if err := results.EncodeSnapshot(f, store); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", exportOut, err)
	}

	fmt.Printf("Loaded %d records (%d sensors) from %s\n", store.Len(), len(store.Columns), status.Source)
	fmt.Printf("Exported to %s (%s)\n", exportOut, formatting.Bytes(info.Size()))
	return nil
}
