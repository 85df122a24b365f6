package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vecrow"
	"github.com/hupe1980/vecrow/cmd/vecrow/config"
	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/engine"
	"github.com/hupe1980/vecrow/enrich"
	"github.com/hupe1980/vecrow/reasoning"
	"github.com/hupe1980/vecrow/segment"
	"github.com/hupe1980/vecrow/wal"
)

// walFileName is the log file inside wal_dir.
const walFileName = "vecrow.wal"

const rootLongDesc string = `vecrow is an embeddable multi-version row store with vector search.

Every write is kept as a timestamped version. Rows with a "text" field are
embedded and searchable by similarity.

Configuration is read from vecrow.toml, VECROW_* environment variables and
flags, in increasing order of precedence.

  vecrow ingest rows.jsonl       Insert JSON lines
  vecrow query "<SemanticQL>"    Run FIND SIMILAR "<text>" IN default TOP 5
  vecrow replay                  Replay the WAL and report what it holds
  vecrow flush                   Write pending versions to a segment
  vecrow inspect                 Show the manifest and segments`

type rootCommander struct {
	configFile string
	cfg        *config.Config
	logger     *vecrow.Logger
}

func newRootCmd() *cobra.Command {
	r := &rootCommander{}

	cmd := &cobra.Command{
		Use:           "vecrow",
		Short:         "vecrow - multi-version rows with vector search",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&r.configFile, "config", "c", "", "Path to vecrow.toml")
	config.AddPersistentFlags(cmd, config.Flags)

	cmd.AddCommand(
		newIngestCmd(r),
		newQueryCmd(r),
		newReplayCmd(r),
		newFlushCmd(r),
		newInspectCmd(r),
	)

	return cmd
}

func (r *rootCommander) load(cmd *cobra.Command) error {
	v, err := config.InitViper(r.configFile)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, config.Flags.RegistryKeys())

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	r.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		r.logger = vecrow.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts))
	} else {
		r.logger = vecrow.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts))
	}
	return nil
}

func (r *rootCommander) walPath() string {
	return filepath.Join(r.cfg.WALDir, walFileName)
}

func (r *rootCommander) newEmbedder() embedder.Embedder {
	c := r.cfg.Embedding

	var emb embedder.Embedder
	if c.Provider == "http" {
		emb = embedder.NewHTTP(c.Endpoint, r.cfg.VectorDims, func(o *embedder.HTTPOptions) {
			o.Logger = r.logger.Logger
			if c.RateLimit > 0 {
				o.Limiter = rate.NewLimiter(rate.Limit(c.RateLimit), 1)
			}
		})
	} else {
		seed := c.Seed
		emb = embedder.NewRandom("random", r.cfg.VectorDims, &seed)
	}

	if c.CacheSize > 0 {
		emb = embedder.NewCached(emb, c.CacheSize)
	}
	return emb
}

func (r *rootCommander) newEnricher() enrich.Enricher {
	switch r.cfg.Enrich.Provider {
	case "heuristic":
		return enrich.Heuristic{}
	case "reasoning":
		client := reasoning.New(r.cfg.Enrich.Endpoint, func(o *reasoning.Options) {
			o.Logger = r.logger.Logger
		})
		return enrich.NewReasoning(client, r.cfg.Enrich.Prompt)
	default:
		return nil
	}
}

func parseDurability(s string) wal.DurabilityMode {
	if s == "sync" {
		return wal.DurabilitySync
	}
	return wal.DurabilityAsync
}

// options translates the configuration into DB options. The archive is only
// opened when withArchive is set, so read-only commands need no credentials.
func (r *rootCommander) options(ctx context.Context, withArchive bool) ([]vecrow.Option, error) {
	compression, err := segment.ParseCompression(r.cfg.Compression)
	if err != nil {
		return nil, err
	}

	opts := []vecrow.Option{
		vecrow.WithLogger(r.logger),
		vecrow.WithWAL(r.walPath()),
		vecrow.WithDurability(parseDurability(r.cfg.Durability)),
		vecrow.WithDataDir(r.cfg.DataDir),
		vecrow.WithMaxConcurrentEmbeds(r.cfg.MaxConcurrentEmbeds),
		vecrow.WithEngineOptions(func(o *engine.Options) {
			o.Compression = compression
		}),
	}

	if r.cfg.CompressWAL {
		opts = append(opts, vecrow.WithWALCompression())
	}

	if r.cfg.Index == "flat" {
		opts = append(opts, vecrow.WithFlat())
	} else {
		opts = append(opts, vecrow.WithHNSW(0, 0))
	}

	if e := r.newEnricher(); e != nil {
		opts = append(opts, vecrow.WithEnricher(e))
	}

	if withArchive && r.cfg.Archive.URI != "" {
		store, err := openArchive(ctx, r.cfg.Archive)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			vecrow.WithArchive(store),
			vecrow.WithArchiveRateLimit(r.cfg.Archive.RateLimitMBps<<20),
		)
	}

	return opts, nil
}

func (r *rootCommander) openDB(ctx context.Context, withArchive bool, extra ...vecrow.Option) (*vecrow.DB, error) {
	opts, err := r.options(ctx, withArchive)
	if err != nil {
		return nil, err
	}
	return vecrow.Open(ctx, r.newEmbedder(), append(opts, extra...)...)
}
