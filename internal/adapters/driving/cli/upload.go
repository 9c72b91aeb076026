package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadIngest bool

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload documents",
	Long: `Stores the given files and registers them for ingestion.
With --ingest the full pipeline runs immediately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadIngest, "ingest", false, "run ingestion immediately after upload")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}

		doc, err := ingestService.Upload(ctx, owner, path, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		cmd.Printf("Uploaded %s (%s, %d bytes) as %s\n", doc.Filename, doc.Format, doc.SizeBytes, doc.ID)

		if uploadIngest {
			if err := ingestService.Ingest(ctx, doc.ID); err != nil {
				return err
			}
			cmd.Printf("Indexed %s\n", doc.ID)
		}
	}
	return nil
}
