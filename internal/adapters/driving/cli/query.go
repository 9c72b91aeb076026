package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

var (
	queryTopK     int
	queryRerank   bool
	queryDocs     []string
	queryJSON     bool
	queryNoAnswer bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the chunks most relevant to the question and generates a
grounded answer with page and region citations. With --retrieve-only
the retrieved chunks are printed without answer generation.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks handed to the synthesizer")
	queryCmd.Flags().BoolVar(&queryRerank, "rerank", false, "rerank candidates with the cross-encoder")
	queryCmd.Flags().StringSliceVar(&queryDocs, "documents", nil, "restrict to specific document IDs")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryNoAnswer, "retrieve-only", false, "skip answer generation")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	req := domain.QueryRequest{
		Query:        args[0],
		Owner:        owner,
		DocumentIDs:  queryDocs,
		TopK:         queryTopK,
		UseReranking: queryRerank,
	}

	if queryNoAnswer {
		results, err := queryService.Retrieve(ctx, req)
		if err != nil {
			return err
		}
		return outputRetrieval(cmd, results)
	}

	answer, err := queryService.Answer(ctx, req)
	if err != nil {
		return err
	}

	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if answer.Warning != "" {
		cmd.Printf("Warning: %s\n\n", answer.Warning)
	}
	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] document %s, page %d (%.2f)\n", i+1, src.DocumentID, src.Page, src.Similarity)
			if src.BBox != nil {
				cmd.Printf("      region x=%.0f y=%.0f w=%.0f h=%.0f\n",
					src.BBox.X, src.BBox.Y, src.BBox.Width, src.BBox.Height)
			}
		}
	}

	cmd.Printf("\nretrieval %s, generation %s\n",
		answer.RetrievalTime.Round(time.Millisecond), answer.GenerationTime.Round(time.Millisecond))
	return nil
}

func outputRetrieval(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if queryJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, res := range results {
		cmd.Printf("  [%d] %s page %d (similarity %.3f", i+1, res.Chunk.DocumentID, res.Chunk.Page, res.Similarity)
		if res.RerankScore != 0 {
			cmd.Printf(", rerank %.3f", res.RerankScore)
		}
		cmd.Println(")")
		text := res.Chunk.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		cmd.Printf("      %s\n\n", text)
	}
	return nil
}
