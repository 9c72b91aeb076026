package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var documentJSON bool

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect uploaded documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [document-id]",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [document-id]",
	Short: "List a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and everything derived from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	documentCmd.PersistentFlags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentChunksCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	docs, err := documentService.List(ctx, owner)
	if err != nil {
		return err
	}

	if documentJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		cmd.Printf("%s  %-10s %-8s %s\n", doc.ID, doc.Status, doc.Format, doc.Filename)
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if documentJSON {
		return printJSON(cmd, doc)
	}
	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Filename: %s\n", doc.Filename)
	cmd.Printf("Format:   %s\n", doc.Format)
	cmd.Printf("Size:     %d bytes\n", doc.SizeBytes)
	cmd.Printf("Status:   %s\n", doc.Status)
	cmd.Printf("Owner:    %s\n", doc.Owner)
	cmd.Printf("Uploaded: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	chunks, err := documentService.Chunks(ctx, args[0])
	if err != nil {
		return err
	}

	if documentJSON {
		return printJSON(cmd, chunks)
	}
	if len(chunks) == 0 {
		cmd.Println("No chunks. Has the document been ingested?")
		return nil
	}
	for _, chunk := range chunks {
		text := chunk.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		cmd.Printf("  [%d] page %d  %s\n      %s\n", chunk.Index, chunk.Page, chunk.ID, text)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	if err := ingestService.Delete(ctx, args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
