package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/veridoc-labs/veridoc/internal/logger"
)

// watchDebounce is how long a file must stay quiet before it is
// ingested. Editors and downloads produce bursts of write events.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new or changed files",
	Long: `Watches a directory and runs upload plus ingestion for every
supported file that appears or changes. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := ensureServices(ctx); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	supported := make(map[string]bool)
	for _, f := range registry.Formats() {
		supported[f] = true
	}

	cmd.Printf("Watching %s (formats: %s), press Ctrl-C to stop\n",
		dir, strings.Join(registry.Formats(), ", "))

	// Pending files and their quiet-period deadlines.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(event.Name), "."))
			if !supported[ext] {
				continue
			}
			pending[event.Name] = time.Now().Add(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher: %v", err)

		case now := <-ticker.C:
			for path, deadline := range pending {
				if now.Before(deadline) {
					continue
				}
				delete(pending, path)
				if err := ingestFile(ctx, cmd, path); err != nil {
					logger.Warn("Ingest %s: %v", path, err)
				}
			}
		}
	}
}

func ingestFile(ctx context.Context, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := ingestService.Upload(ctx, owner, path, f)
	if err != nil {
		return err
	}
	if err := ingestService.Ingest(ctx, doc.ID); err != nil {
		return err
	}
	cmd.Printf("Indexed %s as %s\n", doc.Filename, doc.ID)
	return nil
}
