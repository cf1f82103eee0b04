// Package encoding provides the column codecs used by the draws archive.
//
// Numeric encoders/decoders:
//   - NumericRawEncoder/Decoder - uncompressed 64-bit floats
//   - NumericGorillaEncoder/Decoder - Gorilla XOR compression
//
// Name tables:
//   - EncodeNames/DecodeNames - length-prefixed column names
//   - VerifyNameHashes - cross-check names against hashed column IDs
//
// Encoders borrow their buffers from internal/pool and must be released with
// Finish once the encoded bytes have been copied into the archive.
package encoding
