package encoding

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bayesfit/endian"
)

func TestNumericRaw_RoundTrip(t *testing.T) {
	values := []float64{2.0, 3.0, 1.0, -7.25, 0}

	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		enc := NewNumericRawEncoder(engine)
		enc.Write(values[0])
		enc.WriteSlice(values[1:])
		enc.WriteSlice(nil)

		require.Equal(t, len(values), enc.Len())
		data := append([]byte(nil), enc.Bytes()...)
		require.Len(t, data, len(values)*8)
		enc.Finish()

		dec := NewNumericRawDecoder(engine)
		require.Equal(t, values, slices.Collect(dec.All(data, len(values))))

		v, ok := dec.At(data, 3, len(values))
		require.True(t, ok)
		require.Equal(t, -7.25, v)

		_, ok = dec.At(data, len(values), len(values))
		require.False(t, ok)
	}
}

func TestNumericRaw_ShortData(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	enc := NewNumericRawEncoder(engine)
	defer enc.Finish()
	enc.WriteSlice([]float64{1, 2})

	got := slices.Collect(NewNumericRawDecoder(engine).All(enc.Bytes()[:12], 2))
	require.Equal(t, []float64{1}, got)
}
