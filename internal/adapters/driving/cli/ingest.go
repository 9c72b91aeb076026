package cli

import (
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [document-id...]",
	Short: "Run the ingestion pipeline for uploaded documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var retryCmd = &cobra.Command{
	Use:   "retry [document-id]",
	Short: "Re-run ingestion for a failed or indexed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetry,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(retryCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	for _, id := range args {
		if err := ingestService.Ingest(ctx, id); err != nil {
			return err
		}
		cmd.Printf("Indexed %s\n", id)
	}
	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	if err := ingestService.Retry(ctx, args[0]); err != nil {
		return err
	}
	cmd.Printf("Indexed %s\n", args[0])
	return nil
}
