// Package file provides TOML file-based configuration.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk configuration, stored as TOML in the recall
// config directory.
type Config struct {
	Notes      NotesConfig     `toml:"notes"`
	Retrieval  RetrievalConfig `toml:"retrieval"`
	Cache      CacheConfig     `toml:"cache"`
	Embedding  ServiceConfig   `toml:"embedding"`
	Generation ServiceConfig   `toml:"generation"`
	Index      IndexConfig     `toml:"index"`
}

// NotesConfig locates the note corpus.
type NotesConfig struct {
	// Root is the notes directory. Required before indexing.
	Root string `toml:"root"`

	// Include are glob patterns for notes to index (default: **/*.md).
	Include []string `toml:"include"`

	// Exclude are glob patterns for paths to skip.
	Exclude []string `toml:"exclude"`
}

// RetrievalConfig tunes ranking.
type RetrievalConfig struct {
	// VectorWeight and LexicalWeight blend the two scoring signals.
	VectorWeight  float64 `toml:"vector_weight"`
	LexicalWeight float64 `toml:"lexical_weight"`

	// DefaultK is the result count when a query does not set one.
	DefaultK int `toml:"default_k"`

	// MinScore drops results scoring below the threshold. Zero keeps all.
	MinScore float64 `toml:"min_score"`
}

// CacheConfig tunes the response cache.
type CacheConfig struct {
	// TTL is how long cached answers stay valid (default: 24h).
	TTL duration `toml:"ttl"`
}

// ServiceConfig points at a model service.
type ServiceConfig struct {
	// Provider selects the adapter: "ollama" or "openai".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// APIKey authenticates hosted providers. Ignored by ollama.
	APIKey string `toml:"api_key"`

	// Dimensions pins the embedding size. Zero uses the model default.
	Dimensions int `toml:"dimensions"`
}

// IndexConfig tunes the sync pipeline.
type IndexConfig struct {
	// EmbedRate caps embedding calls per second. Zero means unlimited.
	EmbedRate float64 `toml:"embed_rate"`

	// EmbedTimeout bounds a single embedding call (default: 30s).
	EmbedTimeout duration `toml:"embed_timeout"`
}

// duration wraps time.Duration with TOML string encoding ("24h", "90s").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Value returns the wrapped time.Duration.
func (d duration) Value() time.Duration {
	return time.Duration(d)
}

// Default configuration values.
const (
	DefaultVectorWeight  = 0.7
	DefaultLexicalWeight = 0.3
	DefaultK             = 5
	DefaultCacheTTL      = 24 * time.Hour
	DefaultProvider      = "ollama"
)

// DefaultConfig returns a config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Notes: NotesConfig{
			Include: []string{"**/*.md"},
		},
		Retrieval: RetrievalConfig{
			VectorWeight:  DefaultVectorWeight,
			LexicalWeight: DefaultLexicalWeight,
			DefaultK:      DefaultK,
		},
		Cache: CacheConfig{
			TTL: duration(DefaultCacheTTL),
		},
		Embedding: ServiceConfig{
			Provider: DefaultProvider,
		},
		Generation: ServiceConfig{
			Provider: DefaultProvider,
		},
	}
}

// DefaultDir returns the recall config directory, ~/.recall.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".recall"), nil
}

// Load reads config.toml from the given directory, applying defaults for
// missing fields. A missing file yields the defaults. If configDir is
// empty, the default directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	cfg := DefaultConfig()

	raw, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.normalise()
	return cfg, nil
}

// Save writes the config as TOML to the given directory, creating it if
// needed.
func Save(configDir string, cfg *Config) error {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), raw, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// normalise backfills zero values that would otherwise disable features.
func (c *Config) normalise() {
	if len(c.Notes.Include) == 0 {
		c.Notes.Include = []string{"**/*.md"}
	}
	if c.Retrieval.VectorWeight == 0 && c.Retrieval.LexicalWeight == 0 {
		c.Retrieval.VectorWeight = DefaultVectorWeight
		c.Retrieval.LexicalWeight = DefaultLexicalWeight
	}
	if c.Retrieval.DefaultK == 0 {
		c.Retrieval.DefaultK = DefaultK
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = duration(DefaultCacheTTL)
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultProvider
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = DefaultProvider
	}
}
