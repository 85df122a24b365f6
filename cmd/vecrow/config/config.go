// Package config loads the vecrow CLI configuration from vecrow.toml,
// VECROW_ environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/enrich"
)

// Config is the CLI configuration. The TOML layout uses sections for the
// embedding, enrichment and archive settings.
type Config struct {
	DataDir       string `mapstructure:"data_dir"`
	WALDir        string `mapstructure:"wal_dir"`
	SegmentSizeMB int    `mapstructure:"segment_size_mb"`
	VectorDims    int    `mapstructure:"vector_dims"`

	// Index is "flat" or "hnsw".
	Index string `mapstructure:"index"`

	// Durability is "async" or "sync".
	Durability  string `mapstructure:"durability"`
	CompressWAL bool   `mapstructure:"compress_wal"`

	// Compression is the column segment compression: none, lz4 or zstd.
	Compression string `mapstructure:"compression"`

	MaxConcurrentEmbeds int `mapstructure:"max_concurrent_embeds"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	// Provider is "random" or "http".
	Provider string            `mapstructure:"provider"`
	Seed     int64             `mapstructure:"seed"`
	Endpoint embedder.Endpoint `mapstructure:"endpoint"`

	// RateLimit caps requests per second. 0 is unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// CacheSize memoizes up to this many texts. 0 disables the cache.
	CacheSize int `mapstructure:"cache_size"`
}

// EnrichConfig selects the post-insert enricher.
type EnrichConfig struct {
	// Provider is "none", "heuristic" or "reasoning".
	Provider string            `mapstructure:"provider"`
	Prompt   string            `mapstructure:"prompt"`
	Endpoint embedder.Endpoint `mapstructure:"endpoint"`
}

// ArchiveConfig configures where flushed segments are copied.
type ArchiveConfig struct {
	// URI is empty, a local path, file://path, s3://bucket/prefix or
	// minio://bucket/prefix.
	URI string `mapstructure:"uri"`

	Region        string `mapstructure:"region"`
	DynamoDBTable string `mapstructure:"dynamodb_table"`

	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`

	RateLimitMBps int64 `mapstructure:"rate_limit_mbps"`
}

const (
	defaultDataDir       = "data"
	defaultWALDir        = "wal"
	defaultSegmentSizeMB = 128
	defaultVectorDims    = 384
	defaultIndex         = "hnsw"
	defaultDurability    = "async"
	defaultCompression   = "zstd"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"

	defaultEmbeddingProvider = "random"
	defaultEmbeddingSeed     = 42
	defaultEmbeddingPath     = "/embed"
	defaultEmbeddingModel    = "mini"
	defaultEmbeddingTimeout  = 10 * time.Second

	defaultEnrichProvider = "none"
	defaultReasoningPath  = "/complete"
)

// NewDefaultConfig returns a Config with defaults for all fields.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:       defaultDataDir,
		WALDir:        defaultWALDir,
		SegmentSizeMB: defaultSegmentSizeMB,
		VectorDims:    defaultVectorDims,
		Index:         defaultIndex,
		Durability:    defaultDurability,
		Compression:   defaultCompression,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Seed:     defaultEmbeddingSeed,
			Endpoint: embedder.Endpoint{
				Path:    defaultEmbeddingPath,
				Model:   defaultEmbeddingModel,
				Timeout: defaultEmbeddingTimeout,
			},
		},
		Enrich: EnrichConfig{
			Provider: defaultEnrichProvider,
			Prompt:   enrich.DefaultPrompt,
			Endpoint: embedder.Endpoint{
				Path:    defaultReasoningPath,
				Timeout: defaultEmbeddingTimeout,
			},
		},
	}
}

// Validate checks enumerated fields and sizes.
func (c *Config) Validate() error {
	if c.VectorDims <= 0 {
		return fmt.Errorf("vector_dims must be positive, got %d", c.VectorDims)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("embedding.cache_size must not be negative, got %d", c.Embedding.CacheSize)
	}
	if c.SegmentSizeMB < 0 {
		return fmt.Errorf("segment_size_mb must not be negative, got %d", c.SegmentSizeMB)
	}
	if err := oneOf("index", c.Index, "flat", "hnsw"); err != nil {
		return err
	}
	if err := oneOf("durability", c.Durability, "async", "sync"); err != nil {
		return err
	}
	if err := oneOf("compression", c.Compression, "none", "lz4", "zstd"); err != nil {
		return err
	}
	if err := oneOf("embedding.provider", c.Embedding.Provider, "random", "http"); err != nil {
		return err
	}
	if c.Embedding.Provider == "http" && c.Embedding.Endpoint.BaseURL == "" {
		return fmt.Errorf("embedding.endpoint.base_url is required for the http provider")
	}
	if err := oneOf("enrich.provider", c.Enrich.Provider, "none", "heuristic", "reasoning"); err != nil {
		return err
	}
	if c.Enrich.Provider == "reasoning" && c.Enrich.Endpoint.BaseURL == "" {
		return fmt.Errorf("enrich.endpoint.base_url is required for the reasoning provider")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: want one of %s", key, value, strings.Join(allowed, ", "))
}
