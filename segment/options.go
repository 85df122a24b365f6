package segment

import (
	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/internal/fs"
)

// Options configures segment readers and writers.
type Options struct {
	// FileSystem is used to open segment files. Defaults to the local file system.
	FileSystem fs.FileSystem

	// Codec encodes row payloads and row segment metadata. Defaults to codec.Default.
	Codec codec.Codec

	// Compression selects the block compression of column segments.
	// Readers detect the compression from the file and ignore this field.
	Compression CompressionType

	// Sync fsyncs files after writing.
	Sync bool
}

// DefaultOptions returns default segment options.
var DefaultOptions = Options{
	Compression: CompressionNone,
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.FileSystem = fs.OrDefault(opts.FileSystem)
	opts.Codec = codec.OrDefault(opts.Codec)
	return opts
}
