package encoding

import (
	"encoding/binary"
	"iter"
	"math"
	"math/bits"

	"github.com/arloliu/bayesfit/internal/pool"
)

// NumericGorillaEncoder compresses a float64 column with the Gorilla XOR scheme.
//
// The first value is stored verbatim (64 bits). Every following value is
// XORed with its predecessor:
//   - XOR == 0: a single 0 bit
//   - XOR fits the previous leading/trailing window: bits "10" + window bits
//   - otherwise: bits "11" + 5 bits leading zeros + 6 bits (length-1) + meaningful bits
//
// MCMC traces change on almost every draw but stay in a narrow range, so
// sign and exponent bits are shared and the window stays small. Rejected
// proposals repeat the previous value exactly and cost one bit.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for algorithm details.
type NumericGorillaEncoder struct {
	bitBuf        uint64
	prevValue     uint64
	bitCount      int
	count         int
	prevLeading   int
	prevTrailing  int
	prevBlockSize int
	firstValue    bool

	buf *pool.ByteBuffer
}

var _ ColumnarEncoder[float64] = (*NumericGorillaEncoder)(nil)

// NewNumericGorillaEncoder creates an encoder backed by a pooled column buffer.
// Call Finish once the bytes have been copied out.
func NewNumericGorillaEncoder() *NumericGorillaEncoder {
	return &NumericGorillaEncoder{
		buf:        pool.GetColumnBuffer(),
		firstValue: true,
	}
}

// Write encodes a single value.
func (e *NumericGorillaEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write values after Finish()")
	}

	e.count++
	valBits := math.Float64bits(val)

	if e.firstValue {
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	e.writeValue(valBits)
}

// WriteSlice encodes values in order.
func (e *NumericGorillaEncoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.Write(v)
	}
}

// Bytes flushes pending bits and returns the encoded column.
//
// Pending bits are padded to a byte boundary, so Bytes must only be called
// after the final Write. The returned slice aliases the internal buffer and
// is valid until Finish.
func (e *NumericGorillaEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	if e.bitCount > 0 {
		e.flushBits()
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *NumericGorillaEncoder) Len() int {
	return e.count
}

// Finish returns the buffer to the pool. The encoder is unusable afterwards.
func (e *NumericGorillaEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutColumnBuffer(e.buf)
	e.buf = nil
}

func (e *NumericGorillaEncoder) writeValue(valBits uint64) {
	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBits(0, 1)
		return
	}

	e.writeBits(1, 1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)

	// leading zeros are stored in 5 bits
	if leading > 31 {
		leading = 31
	}

	if e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBits(0, 1)
		e.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBits(1, 1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec // G115: leading is 0-31
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec // G115: blockSize-1 is 0-63
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

// writeBits appends the low numBits (1-64) of value to the bit buffer.
func (e *NumericGorillaEncoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}

	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		if numBits == 64 {
			e.bitBuf = value
		} else {
			e.bitBuf = (e.bitBuf << numBits) | value
		}
		e.bitCount += numBits

		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	// split across the 64-bit boundary
	highBits := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> highBits)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << highBits) - 1)
	e.bitCount = highBits
}

// flushBits appends the pending bits, most significant first, padding the last byte with zeros.
func (e *NumericGorillaEncoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	numBytes := (e.bitCount + 7) / 8
	aligned := e.bitBuf << (64 - e.bitCount)

	start := e.buf.Len()
	e.buf.ExtendOrGrow(numBytes)
	bs := e.buf.Slice(start, start+numBytes)

	if numBytes == 8 {
		binary.BigEndian.PutUint64(bs, aligned)
	} else {
		for i := range numBytes {
			bs[i] = byte(aligned >> (56 - i*8))
		}
	}

	e.bitBuf = 0
	e.bitCount = 0
}

// NumericGorillaDecoder decodes columns produced by NumericGorillaEncoder.
// It is stateless and safe for concurrent use.
type NumericGorillaDecoder struct{}

var _ ColumnarDecoder[float64] = NumericGorillaDecoder{}

// NewNumericGorillaDecoder returns a decoder value.
func NewNumericGorillaDecoder() NumericGorillaDecoder {
	return NumericGorillaDecoder{}
}

// All yields up to count values from data. Malformed or truncated input
// ends the sequence early; callers compare the number of yielded values with count.
func (d NumericGorillaDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if len(data) == 0 || count <= 0 {
			return
		}

		br := newBitReader(data)

		prev, ok := br.readBits(64)
		if !ok {
			return
		}
		if !yield(math.Float64frombits(prev)) {
			return
		}

		trailing, blockSize := 0, 0
		blockValid := false

		for remaining := count - 1; remaining > 0; remaining-- {
			changed, ok := br.readBits(1)
			if !ok {
				return
			}

			if changed == 1 {
				newBlock, ok := br.readBits(1)
				if !ok {
					return
				}

				if newBlock == 1 {
					leading, ok := br.readBits(5)
					if !ok {
						return
					}
					size, ok := br.readBits(6)
					if !ok {
						return
					}
					blockSize = int(size) + 1
					trailing = 64 - int(leading) - blockSize
					if trailing < 0 {
						return
					}
					blockValid = true
				} else if !blockValid {
					return
				}

				meaningful, ok := br.readBits(blockSize)
				if !ok {
					return
				}
				prev ^= meaningful << uint(trailing) //nolint:gosec // G115: trailing is 0-63
			}

			if !yield(math.Float64frombits(prev)) {
				return
			}
		}
	}
}

// Decode collects All into a new slice and reports whether exactly count values were decoded.
func (d NumericGorillaDecoder) Decode(data []byte, count int) ([]float64, bool) {
	out := make([]float64, 0, count)
	for v := range d.All(data, count) {
		out = append(out, v)
	}

	return out, len(out) == count
}

// bitReader reads big-endian bit fields from a byte slice.
type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// readBits reads numBits (0-64) bits, right-aligned in the result.
func (br *bitReader) readBits(numBits int) (uint64, bool) {
	var result uint64

	for numBits > 0 {
		if br.bitCount == 0 && !br.fillBuffer() {
			return 0, false
		}

		n := min(numBits, br.bitCount)
		chunk := br.bitBuf >> (64 - n)

		if n == 64 {
			result = chunk
			br.bitBuf = 0
		} else {
			result = (result << n) | chunk
			br.bitBuf <<= n
		}
		br.bitCount -= n
		numBits -= n
	}

	return result, true
}

// fillBuffer loads up to 8 bytes, left-aligned, into the bit buffer.
func (br *bitReader) fillBuffer() bool {
	if br.bytePos >= len(br.data) {
		return false
	}

	n := min(8, len(br.data)-br.bytePos)
	if n == 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos:])
	} else {
		br.bitBuf = 0
		for i := range n {
			br.bitBuf |= uint64(br.data[br.bytePos+i]) << (56 - i*8)
		}
	}
	br.bytePos += n
	br.bitCount = n * 8

	return true
}
