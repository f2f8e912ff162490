// Command snapshot moves detection results between the service's
// sources: file export, blob upload, and database seeding.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"argus/internal/config"
	"argus/internal/infrastructure"
)

var rootCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage result snapshots",
	Long: `snapshot moves detection results between the service's sources.

export walks the configured source chain and writes the winning result
table to a CSV file. upload pushes a snapshot file into blob storage.
seed fills the results database table from a snapshot file.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime builds the configuration and infrastructure a subcommand
// needs. Systems are initialized but not lifecycle-started; connections
// are established on first use.
func loadRuntime() (*config.Config, *infrastructure.Infrastructure, error) {
	// Load .env for local development; missing files are fine.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, infra, nil
}
