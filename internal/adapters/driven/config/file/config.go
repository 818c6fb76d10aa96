// Package file provides TOML-backed configuration for Recall.
// Configuration is stored at ~/.recall/config.toml by default.
package file

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk configuration.
type Config struct {
	// DataDir is where the index database lives.
	DataDir string `toml:"data_dir"`

	// WatchDir is the directory the import watcher observes.
	WatchDir string `toml:"watch_dir"`

	// MaxResults is the search topK ceiling.
	MaxResults int `toml:"max_results"`

	// Ingest controls chunking.
	Ingest IngestConfig `toml:"ingest"`

	// Model controls the embedding engine.
	Model ModelConfig `toml:"model"`
}

// IngestConfig controls chunking.
type IngestConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// ModelConfig controls the embedding engine.
type ModelConfig struct {
	// Path is the ONNX model file location. Empty disables the
	// embedding engine and with it semantic search.
	Path string `toml:"path"`

	// Name is a display name for the model.
	Name string `toml:"name"`

	// SeqLen is the fixed token sequence length.
	SeqLen int `toml:"seq_len"`

	// StoreDim is the number of vector components kept.
	StoreDim int `toml:"store_dim"`

	// Pooling is the rank-3 reduction strategy: mean, first or last.
	Pooling string `toml:"pooling"`

	// Tensor name overrides; empty names are resolved automatically.
	InputIDsTensor string `toml:"input_ids_tensor"`
	MaskTensor     string `toml:"mask_tensor"`
	OutputTensor   string `toml:"output_tensor"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		MaxResults: 50,
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Model: ModelConfig{
			Name:     "all-MiniLM-L6-v2",
			SeqLen:   256,
			StoreDim: 384,
			Pooling:  "mean",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".recall", "config.toml"), nil
}

// Load reads the configuration at path, layering the file's values
// over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
