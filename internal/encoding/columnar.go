package encoding

import "iter"

// ColumnarEncoder encodes one column of values, e.g. the draws of a single
// parameter in a single chain.
type ColumnarEncoder[T comparable] interface {
	// Write appends a single value.
	Write(data T)

	// WriteSlice appends values in order.
	WriteSlice(values []T)

	// Bytes returns the encoded bytes. The slice is valid until the next
	// Write, WriteSlice or Finish and must not be modified.
	Bytes() []byte

	// Len returns the number of values written.
	Len() int

	// Finish returns buffer resources to the pool. The encoder is unusable
	// afterwards; Write and Bytes panic.
	//
	//	enc := NewNumericGorillaEncoder()
	//	defer enc.Finish()
	Finish()
}

// ColumnarDecoder decodes a column produced by the matching encoder.
type ColumnarDecoder[T comparable] interface {
	// All yields the decoded values. Malformed data yields fewer than
	// count values; the caller is expected to detect that.
	All(data []byte, count int) iter.Seq[T]
}
