package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"argus/internal/results"
)

var (
	uploadFile string
	uploadKey  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a CSV snapshot to blob storage",
	Long: `Validate a snapshot file and upload it to the configured blob
container. The service's blob source reads it on the next cold load.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Snapshot file to upload")
	uploadCmd.Flags().StringVarP(&uploadKey, "key", "k", "", "Blob key (default: the configured blob_key)")
	uploadCmd.MarkFlagRequired("file")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, infra, err := loadRuntime()
	if err != nil {
		return err
	}

	if infra.Storage == nil {
		return fmt.Errorf("storage is not enabled; set [storage] enabled = true")
	}

	key := uploadKey
	if key == "" {
		key = cfg.Results.BlobKey
	}

	f, err := os.Open(uploadFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", uploadFile, err)
	}
	defer f.Close()

	store, err := results.DecodeSnapshot(f)
	if err != nil {
		return fmt.Errorf("invalid snapshot %s: %w", uploadFile, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", uploadFile, err)
	}

	if err := infra.Storage.Upload(cmd.Context(), key, f, "text/csv"); err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}

	fmt.Printf("Uploaded %d records (%d sensors) to blob %q\n", store.Len(), len(store.Columns), key)
	return nil
}
