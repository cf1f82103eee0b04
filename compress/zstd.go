package compress

// ZstdCompressor compresses with Zstandard. The backend is chosen at build
// time, see zstd_pure.go and zstd_cgo.go.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
