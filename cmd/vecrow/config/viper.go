package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VECROW_DATA_DIR.
const EnvPrefix = "VECROW"

// InitViper creates a *viper.Viper with defaults, the config file and
// environment variables registered.
//
// An empty configFile searches for vecrow.toml in the working directory.
// A missing file is not an error; an explicit but unreadable one is.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (VECROW_DATA_DIR, VECROW_ARCHIVE_URI, etc.)
//  3. vecrow.toml values
//  4. Defaults from NewDefaultConfig()
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("vecrow")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setViperDefaults registers NewDefaultConfig() under dotted keys. Every key
// must have a default for AutomaticEnv to reach it through Unmarshal.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("wal_dir", d.WALDir)
	v.SetDefault("segment_size_mb", d.SegmentSizeMB)
	v.SetDefault("vector_dims", d.VectorDims)
	v.SetDefault("index", d.Index)
	v.SetDefault("durability", d.Durability)
	v.SetDefault("compress_wal", d.CompressWAL)
	v.SetDefault("compression", d.Compression)
	v.SetDefault("max_concurrent_embeds", d.MaxConcurrentEmbeds)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.seed", d.Embedding.Seed)
	v.SetDefault("embedding.rate_limit", d.Embedding.RateLimit)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
	v.SetDefault("embedding.endpoint.base_url", d.Embedding.Endpoint.BaseURL)
	v.SetDefault("embedding.endpoint.path", d.Embedding.Endpoint.Path)
	v.SetDefault("embedding.endpoint.model", d.Embedding.Endpoint.Model)
	v.SetDefault("embedding.endpoint.auth_header", d.Embedding.Endpoint.AuthHeader)
	v.SetDefault("embedding.endpoint.api_key", d.Embedding.Endpoint.APIKey)
	v.SetDefault("embedding.endpoint.timeout", d.Embedding.Endpoint.Timeout)

	// Enrichment
	v.SetDefault("enrich.provider", d.Enrich.Provider)
	v.SetDefault("enrich.prompt", d.Enrich.Prompt)
	v.SetDefault("enrich.endpoint.base_url", d.Enrich.Endpoint.BaseURL)
	v.SetDefault("enrich.endpoint.path", d.Enrich.Endpoint.Path)
	v.SetDefault("enrich.endpoint.model", d.Enrich.Endpoint.Model)
	v.SetDefault("enrich.endpoint.auth_header", d.Enrich.Endpoint.AuthHeader)
	v.SetDefault("enrich.endpoint.api_key", d.Enrich.Endpoint.APIKey)
	v.SetDefault("enrich.endpoint.timeout", d.Enrich.Endpoint.Timeout)

	// Archive
	v.SetDefault("archive.uri", d.Archive.URI)
	v.SetDefault("archive.region", d.Archive.Region)
	v.SetDefault("archive.dynamodb_table", d.Archive.DynamoDBTable)
	v.SetDefault("archive.endpoint", d.Archive.Endpoint)
	v.SetDefault("archive.access_key", d.Archive.AccessKey)
	v.SetDefault("archive.secret_key", d.Archive.SecretKey)
	v.SetDefault("archive.secure", d.Archive.Secure)
	v.SetDefault("archive.rate_limit_mbps", d.Archive.RateLimitMBps)
}
