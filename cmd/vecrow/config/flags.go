package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag bound to a config key.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Description string
}

// FlagSet maps registry keys to flags.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagDataDir    = "data-dir"
	FlagWALDir     = "wal-dir"
	FlagDims       = "dims"
	FlagIndex      = "index"
	FlagDurability = "durability"
	FlagArchive    = "archive"
	FlagEmbedURL   = "embed-url"
	FlagLogLevel   = "log-level"
)

// Flags holds the persistent flags shared by every command.
var Flags = FlagSet{
	FlagDataDir:    {Name: "data-dir", ViperKey: "data_dir", Description: "Directory for segments and the manifest"},
	FlagWALDir:     {Name: "wal-dir", ViperKey: "wal_dir", Description: "Directory for the write-ahead log"},
	FlagDims:       {Name: "dims", ViperKey: "vector_dims", Description: "Embedding dimensionality"},
	FlagIndex:      {Name: "index", ViperKey: "index", Description: "Vector index: flat or hnsw"},
	FlagDurability: {Name: "durability", ViperKey: "durability", Description: "WAL durability: async or sync"},
	FlagArchive:    {Name: "archive", ViperKey: "archive.uri", Description: "Archive target: path, s3://bucket/prefix or minio://bucket/prefix"},
	FlagEmbedURL:   {Name: "embed-url", ViperKey: "embedding.endpoint.base_url", Description: "Base URL of the embedding service"},
	FlagLogLevel:   {Name: "log-level", Shorthand: "l", ViperKey: "log_level", Description: "Log level: debug, info, warn or error"},
}

// RegistryKeys returns every key of fs.
func (fs FlagSet) RegistryKeys() []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	return keys
}

// AddPersistentFlags registers every flag of fs on cmd as a persistent
// string or int flag, depending on the type of its default.
func AddPersistentFlags(cmd *cobra.Command, fs FlagSet) {
	d := viper.New()
	setViperDefaults(d)

	for _, f := range fs {
		switch def := d.Get(f.ViperKey).(type) {
		case int:
			cmd.PersistentFlags().IntP(f.Name, f.Shorthand, def, f.Description)
		default:
			cmd.PersistentFlags().StringP(f.Name, f.Shorthand, d.GetString(f.ViperKey), f.Description)
		}
	}
}

// BindRegisteredFlags binds already-registered flags to viper so they take
// precedence over environment, file and defaults.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(def.Name)
		}
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}
