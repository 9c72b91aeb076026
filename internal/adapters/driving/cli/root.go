// Package cli implements the command-line interface. Commands wire the
// configured adapters into the core services on first use.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	blobfs "github.com/veridoc-labs/veridoc/internal/adapters/driven/blob/fs"
	embedollama "github.com/veridoc-labs/veridoc/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/veridoc-labs/veridoc/internal/adapters/driven/embedding/openai"
	llmollama "github.com/veridoc-labs/veridoc/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/veridoc-labs/veridoc/internal/adapters/driven/llm/openai"
	"github.com/veridoc-labs/veridoc/internal/adapters/driven/rerank/tei"
	"github.com/veridoc-labs/veridoc/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/veridoc-labs/veridoc/internal/adapters/driven/vector/memory"
	vectormilvus "github.com/veridoc-labs/veridoc/internal/adapters/driven/vector/milvus"
	"github.com/veridoc-labs/veridoc/internal/chunking"
	"github.com/veridoc-labs/veridoc/internal/config"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/core/services"
	"github.com/veridoc-labs/veridoc/internal/loaders"
	"github.com/veridoc-labs/veridoc/internal/loaders/csvdoc"
	"github.com/veridoc-labs/veridoc/internal/loaders/docx"
	"github.com/veridoc-labs/veridoc/internal/loaders/html"
	"github.com/veridoc-labs/veridoc/internal/loaders/jsondoc"
	"github.com/veridoc-labs/veridoc/internal/loaders/pdf"
	"github.com/veridoc-labs/veridoc/internal/loaders/plaintext"
	"github.com/veridoc-labs/veridoc/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
	owner   string
)

var (
	cfg             *config.Config
	registry        *loaders.Registry
	ingestService   *services.IngestService
	queryService    *services.QueryService
	documentService *services.DocumentService
	closers         []func() error
)

var rootCmd = &cobra.Command{
	Use:   "veridoc",
	Short: "Ask questions about your documents",
	Long: `veridoc ingests documents (PDF, DOCX, HTML, text, CSV, JSON),
indexes them as vector embeddings, and answers natural-language
questions grounded in their content, with page and region citations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.veridoc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", defaultOwner(), "ownership tag for documents and queries")
}

// Execute runs the root command.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// ensureServices builds the service graph from configuration. It is
// called by every command that touches the pipeline, and is a no-op
// after the first call.
func ensureServices(ctx context.Context) error {
	if ingestService != nil {
		return nil
	}

	logger.SetVerbose(verbose)

	path := cfgPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("Config loaded from %s", path)

	// The environment wins over the file for secrets.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
		cfg.LLM.APIKey = key
	}

	docStore, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	closers = append(closers, docStore.Close)

	blobDir := ""
	if cfg.DataDir != "" {
		blobDir = filepath.Join(cfg.DataDir, "blobs")
	}
	blobStore, err := blobfs.NewBlobStore(blobDir)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	llmService, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, llmService.Close)

	var rerankService driven.RerankService
	if cfg.Rerank.Enabled {
		svc := tei.NewRerankService(tei.Config{
			BaseURL: cfg.Rerank.BaseURL,
			Model:   cfg.Rerank.Model,
		})
		closers = append(closers, svc.Close)
		rerankService = svc
	}

	vectorIndex, err := buildVectorIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return err
	}
	closers = append(closers, vectorIndex.Close)

	registry = loaders.NewRegistry(
		pdf.New(),
		docx.New(),
		html.New(),
		plaintext.New(),
		csvdoc.New(),
		jsondoc.New(),
	)
	chunker := chunking.New(
		chunking.WithChunkSize(cfg.Chunking.Size),
		chunking.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService = services.NewIngestService(docStore, blobStore, registry, chunker, embedder, vectorIndex)
	queryService = services.NewQueryService(docStore, embedder, vectorIndex, rerankService, llmService)
	documentService = services.NewDocumentService(docStore)
	return nil
}

func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL:     cfg.Embedding.BaseURL,
			Model:       cfg.Embedding.Model,
			Concurrency: cfg.Embedding.Concurrency,
		}), nil
	case "openai":
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildLLM(cfg *config.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}), nil
	case "openai":
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildVectorIndex(ctx context.Context, cfg *config.Config, dimensions int) (driven.VectorIndex, error) {
	switch cfg.Vector.Provider {
	case "memory":
		// Ephemeral: vectors last for the process lifetime only.
		// Useful for watch sessions and tests; use milvus to persist.
		return vectormem.NewIndex(), nil
	case "milvus":
		return vectormilvus.NewIndex(ctx, vectormilvus.Config{
			Address:    cfg.Vector.Address,
			Collection: cfg.Vector.Collection,
			Dimensions: dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown vector provider %q", cfg.Vector.Provider)
	}
}

func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Close: %v", err)
		}
	}
	closers = nil
}
