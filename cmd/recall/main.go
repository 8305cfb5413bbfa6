// Command recall is a local retrieval engine over a directory of
// markdown notes.
package main

import (
	"fmt"
	"os"
	"time"

	configfile "github.com/kestrel-labs/recall-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/kestrel-labs/recall-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/kestrel-labs/recall-cli/internal/adapters/driven/embedding/openai"
	ollamagen "github.com/kestrel-labs/recall-cli/internal/adapters/driven/generation/ollama"
	openaigen "github.com/kestrel-labs/recall-cli/internal/adapters/driven/generation/openai"
	"github.com/kestrel-labs/recall-cli/internal/adapters/driven/source/filesystem"
	"github.com/kestrel-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/kestrel-labs/recall-cli/internal/adapters/driving/cli"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/services"
	"github.com/kestrel-labs/recall-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configfile.Load("")
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	metadata := store.MetadataStore()
	vectors := store.VectorStore()
	cache := store.ResponseCache()

	embedder := buildEmbedder(cfg)
	generator := buildGenerator(cfg)

	retriever := services.NewRetriever(metadata, vectors, embedder, services.RetrieverConfig{
		VectorWeight:  cfg.Retrieval.VectorWeight,
		LexicalWeight: cfg.Retrieval.LexicalWeight,
	})

	synthesizer := services.NewSynthesizer(retriever, metadata, cache, generator, services.SynthesizerConfig{
		CacheTTL: cfg.Cache.TTL.Value(),
	})

	stats := services.NewStatsService(metadata, vectors, cache)

	svcs := cli.Services{
		Search:   retriever,
		Answer:   synthesizer,
		Stats:    stats,
		Cache:    cache,
		Metadata: metadata,
	}

	// Indexing needs a notes directory. Without one, search and ask still
	// work against whatever was indexed before.
	if cfg.Notes.Root != "" {
		source, err := filesystem.New(cfg.Notes.Root,
			filesystem.WithInclude(cfg.Notes.Include...),
			filesystem.WithExclude(cfg.Notes.Exclude...),
		)
		if err != nil {
			return fmt.Errorf("opening notes directory: %w", err)
		}
		svcs.Source = source
		svcs.Indexer = services.NewIndexer(source, metadata, vectors, embedder, services.IndexerConfig{
			EmbedTimeout: cfg.Index.EmbedTimeout.Value(),
			EmbedRate:    cfg.Index.EmbedRate,
		})
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)

	return cli.Execute()
}

// buildEmbedder constructs the embedding service named by the config.
// Misconfiguration degrades to lexical-only search rather than failing
// commands that never embed.
func buildEmbedder(cfg *configfile.Config) driven.EmbeddingService {
	switch cfg.Embedding.Provider {
	case "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			logger.Warn("embedding service unavailable: %v", err)
			return nil
		}
		return svc
	default:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	}
}

// buildGenerator constructs the generation service named by the config.
func buildGenerator(cfg *configfile.Config) driven.GenerationService {
	switch cfg.Generation.Provider {
	case "openai":
		svc, err := openaigen.NewGenerationService(openaigen.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
		})
		if err != nil {
			logger.Warn("generation service unavailable: %v", err)
			return nil
		}
		return svc
	default:
		return ollamagen.NewGenerationService(ollamagen.Config{
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
			Timeout: 2 * time.Minute,
		})
	}
}
