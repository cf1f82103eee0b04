// Package compress provides the codecs applied to a draws archive payload
// after its columns have been Gorilla-encoded.
//
// Supported algorithms (format.CompressionType):
//   - None: the payload is stored as encoded
//   - Zstd: best ratio, the default for archives kept on disk
//   - S2: faster, somewhat larger output
//   - LZ4: fastest decompression
//
// Zstd uses the pure Go klauspost/compress implementation. Building with
// the gozstd tag and cgo enabled switches to the libzstd binding
// github.com/valyala/gozstd; both produce standard zstd frames, so archives
// are interchangeable.
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(payload)
package compress
