// Package cli provides the cobra command-line interface for Recall.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/cgo/ort"
	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/lazy"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is the CLI version, overridable at build time.
var version = "0.1.0"

var (
	flagVerbose bool
	flagConfig  string
)

// retrievalProvider constructs the shared retrieval service at most
// once; every command that needs it awaits the same construction.
var retrievalProvider = lazy.New(buildRetrieval)

// cfg is loaded before any command runs.
var cfg file.Config

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Local retrieval for a personal assistant",
	Long: `Recall indexes your notes, documents, email and calendar locally
and retrieves relevant passages to ground assistant answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		path := flagConfig
		if path == "" {
			var err error
			path, err = file.DefaultPath()
			if err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
		}

		var err error
		cfg, err = file.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.recall/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildRetrieval wires the embedding engine, index store and
// orchestrator from the loaded configuration.
func buildRetrieval(_ context.Context) (driving.RetrievalService, error) {
	var embedder driven.EmbeddingService

	if cfg.Model.Path != "" {
		session, err := ort.Open(cfg.Model.Path)
		if err != nil {
			return nil, fmt.Errorf("loading model: %w", err)
		}

		engine, err := local.NewEngine(session, tokenizer.New(0), local.Config{
			ModelName: cfg.Model.Name,
			SeqLen:    cfg.Model.SeqLen,
			StoreDim:  cfg.Model.StoreDim,
			Pooling:   local.Pooling(cfg.Model.Pooling),
			Overrides: local.Overrides{
				InputIDs: cfg.Model.InputIDsTensor,
				Mask:     cfg.Model.MaskTensor,
				Output:   cfg.Model.OutputTensor,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("building embedding engine: %w", err)
		}
		embedder = engine
		logger.Info("Embedding engine ready: %s", engine.ModelName())
	} else {
		logger.Info("No model configured, semantic search disabled")
	}

	store, err := sqlite.NewStore(cfg.DataDir, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}

	ingest := domain.IngestConfig{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	}

	return services.NewRetrievalService(store,
		services.WithIngestConfig(ingest),
		services.WithMaxResults(cfg.MaxResults),
	), nil
}
