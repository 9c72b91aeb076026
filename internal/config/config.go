// Package config loads and persists the TOML configuration file that
// selects providers and tunes the pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration. Zero values fall back
// to defaults at load time, so a partial file is always valid.
type Config struct {
	// DataDir is where metadata, blobs, and local indexes live.
	// Defaults to ~/.veridoc.
	DataDir string `toml:"data_dir"`

	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Rerank    Rerank    `toml:"rerank"`
	Vector    Vector    `toml:"vector"`
	Chunking  Chunking  `toml:"chunking"`
	Query     Query     `toml:"query"`
}

// Embedding selects and configures the embedding provider.
type Embedding struct {
	// Provider is "ollama" or "openai".
	Provider    string `toml:"provider"`
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	Concurrency int    `toml:"concurrency"`
}

// LLM selects and configures the answer generation provider.
type LLM struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// Rerank configures the optional cross-encoder rerank service.
type Rerank struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Vector selects the vector index backend.
type Vector struct {
	// Provider is "memory" or "milvus".
	Provider   string `toml:"provider"`
	Address    string `toml:"address"`
	Collection string `toml:"collection"`
}

// Chunking tunes the chunker.
type Chunking struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// Query tunes the read path.
type Query struct {
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Embedding: Embedding{Provider: "ollama"},
		LLM:       LLM{Provider: "ollama"},
		Vector:    Vector{Provider: "memory"},
		Chunking:  Chunking{Size: 1000, Overlap: 200},
		Query:     Query{TopK: 5},
	}
}

// DefaultPath returns the default config file location,
// ~/.veridoc/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".veridoc", "config.toml"), nil
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present file is overlaid on them, so unset keys keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed. File permissions are restricted: the file may hold API keys.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = def.Embedding.Provider
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.Vector.Provider == "" {
		c.Vector.Provider = def.Vector.Provider
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = def.Chunking.Size
	}
	if c.Chunking.Overlap < 0 {
		c.Chunking.Overlap = def.Chunking.Overlap
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = def.Query.TopK
	}
}
