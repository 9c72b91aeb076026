package cli

import (
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your recent queries",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	records, err := documentService.History(ctx, owner, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No queries yet.")
		return nil
	}
	for _, rec := range records {
		cmd.Printf("%s  %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.Query)
		answer := rec.Answer
		if len(answer) > 160 {
			answer = answer[:160] + "..."
		}
		cmd.Printf("    %s\n", answer)
	}
	return nil
}
