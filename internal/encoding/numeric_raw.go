package encoding

import (
	"iter"
	"math"

	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/internal/pool"
)

// NumericRawEncoder stores float64 values as fixed 8-byte IEEE 754 words in
// the byte order of the given engine.
type NumericRawEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

var _ ColumnarEncoder[float64] = (*NumericRawEncoder)(nil)

// NewNumericRawEncoder creates a raw encoder using engine for byte order.
func NewNumericRawEncoder(engine endian.EndianEngine) *NumericRawEncoder {
	return &NumericRawEncoder{
		engine: engine,
		buf:    pool.GetColumnBuffer(),
	}
}

// Write encodes a single value.
func (e *NumericRawEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	start := e.buf.Len()
	e.buf.ExtendOrGrow(8)
	e.engine.PutUint64(e.buf.Slice(start, start+8), math.Float64bits(val))
}

// WriteSlice encodes values with a single buffer extension.
func (e *NumericRawEncoder) WriteSlice(values []float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	if len(values) == 0 {
		return
	}
	e.count += len(values)

	start := e.buf.Len()
	e.buf.ExtendOrGrow(len(values) * 8)

	for i, v := range values {
		offset := start + i*8
		e.engine.PutUint64(e.buf.Slice(offset, offset+8), math.Float64bits(v))
	}
}

// Bytes returns the encoded column.
func (e *NumericRawEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *NumericRawEncoder) Len() int {
	return e.count
}

// Finish returns the buffer to the pool.
func (e *NumericRawEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutColumnBuffer(e.buf)
	e.buf = nil
}

// NumericRawDecoder decodes columns written by NumericRawEncoder.
type NumericRawDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[float64] = NumericRawDecoder{}

// NewNumericRawDecoder creates a raw decoder using engine for byte order.
func NewNumericRawDecoder(engine endian.EndianEngine) NumericRawDecoder {
	return NumericRawDecoder{engine: engine}
}

// All yields min(count, len(data)/8) values.
func (d NumericRawDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		n := min(count, len(data)/8)
		for i := range n {
			if !yield(math.Float64frombits(d.engine.Uint64(data[i*8:]))) {
				return
			}
		}
	}
}

// At returns the value at index without decoding the rest of the column.
func (d NumericRawDecoder) At(data []byte, index int, count int) (float64, bool) {
	if index < 0 || index >= count || (index+1)*8 > len(data) {
		return 0, false
	}

	return math.Float64frombits(d.engine.Uint64(data[index*8:])), true
}
