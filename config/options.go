// Package config collects the knobs the storage core is parameterized by.
// There is no file/flag parser here: the CLI and catalog that would feed
// one are out of this core's scope, so Options is just a plain struct built
// with functional options, the same constructor-parameter idiom the teacher
// uses for its manager constructors.
package config

const (
	defaultPoolSize       = 64
	defaultReplacerK      = 2
	defaultHeaderMaxDepth = 9
	defaultDirectoryMax   = 9
	defaultBucketMaxSize  = 64
)

// Options holds the sizes and depths every component in this module is
// parameterized by.
type Options struct {
	// PoolSize is the number of frames in the buffer pool.
	PoolSize int
	// ReplacerK is the K in the LRU-K replacer.
	ReplacerK int
	// HeaderMaxDepth bounds the extendible hash header's fan-out (2^depth
	// directory pages).
	HeaderMaxDepth uint8
	// DirectoryMaxDepth bounds a directory page's global depth (2^depth
	// bucket slots).
	DirectoryMaxDepth uint8
	// BucketMaxSize bounds how many (key, value) pairs fit in one bucket
	// page before it must split.
	BucketMaxSize int
}

// Option mutates Options during construction.
type Option func(*Options)

// Default returns the options every test/demo in this module uses unless
// overridden.
func Default() Options {
	return Options{
		PoolSize:          defaultPoolSize,
		ReplacerK:         defaultReplacerK,
		HeaderMaxDepth:    defaultHeaderMaxDepth,
		DirectoryMaxDepth: defaultDirectoryMax,
		BucketMaxSize:     defaultBucketMaxSize,
	}
}

func New(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithPoolSize(n int) Option {
	return func(o *Options) { o.PoolSize = n }
}

func WithReplacerK(k int) Option {
	return func(o *Options) { o.ReplacerK = k }
}

func WithHeaderMaxDepth(d uint8) Option {
	return func(o *Options) { o.HeaderMaxDepth = d }
}

func WithDirectoryMaxDepth(d uint8) Option {
	return func(o *Options) { o.DirectoryMaxDepth = d }
}

func WithBucketMaxSize(n int) Option {
	return func(o *Options) { o.BucketMaxSize = n }
}
