package tensorio

import "runtime"

// Options configure the writer.
type Options struct {
	// Compression selects the payload compression algorithm.
	Compression Compression
	// BlockSize is the Q8 quantization block size. Q8 tensor columns
	// must be a multiple of it.
	BlockSize int
	// Concurrency bounds the number of rows quantized in parallel.
	Concurrency int
}

// DefaultOptions are the options used when no overrides are given.
var DefaultOptions = Options{
	Compression: CompressionZstd,
	BlockSize:   32,
	Concurrency: runtime.GOMAXPROCS(0),
}

// WithCompression sets the payload compression algorithm.
func WithCompression(c Compression) func(*Options) {
	return func(o *Options) { o.Compression = c }
}

// WithBlockSize sets the Q8 quantization block size.
func WithBlockSize(n int) func(*Options) {
	return func(o *Options) { o.BlockSize = n }
}

// WithConcurrency bounds the number of rows quantized in parallel.
func WithConcurrency(n int) func(*Options) {
	return func(o *Options) { o.Concurrency = n }
}
