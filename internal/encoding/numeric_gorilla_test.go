package encoding

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func encodeGorilla(t *testing.T, values []float64) []byte {
	t.Helper()

	enc := NewNumericGorillaEncoder()
	defer enc.Finish()

	enc.WriteSlice(values)
	require.Equal(t, len(values), enc.Len())

	return append([]byte(nil), enc.Bytes()...)
}

func TestNumericGorilla_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1056))
	walk := make([]float64, 2500)
	x := 2.0
	for i := range walk {
		if rng.Float64() < 0.8 {
			x += rng.NormFloat64() * 0.01
		}
		walk[i] = x
	}

	tests := []struct {
		name   string
		values []float64
	}{
		{"single", []float64{42.0}},
		{"constant", []float64{1, 1, 1, 1, 1}},
		{"integers", []float64{1, 2, 3, 4, 5, 6, 7}},
		{"sign changes", []float64{-1.5, 1.5, -0.25, 0.25, 0}},
		{"special", []float64{math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64, -0.0}},
		{"random walk", walk},
	}

	dec := NewNumericGorillaDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeGorilla(t, tt.values)

			got, ok := dec.Decode(data, len(tt.values))
			require.True(t, ok)
			if diff := cmp.Diff(tt.values, got); diff != "" {
				t.Fatalf("decoded values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNumericGorilla_NaNRoundTrip(t *testing.T) {
	data := encodeGorilla(t, []float64{1, math.NaN(), 2})

	got, ok := NewNumericGorillaDecoder().Decode(data, 3)
	require.True(t, ok)
	require.Equal(t, 1.0, got[0])
	require.True(t, math.IsNaN(got[1]))
	require.Equal(t, 2.0, got[2])
}

func TestNumericGorilla_UnchangedValuesCostOneBit(t *testing.T) {
	// 64 bits for the first value, then 1 bit each for three repeats
	data := encodeGorilla(t, []float64{100, 100, 100, 100})
	require.Len(t, data, 9)
}

func TestNumericGorilla_CompressesTraces(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = 3.0 + float64(i%7)*0.001
	}

	data := encodeGorilla(t, values)
	require.Less(t, len(data), len(values)*8)
}

func TestNumericGorilla_Truncated(t *testing.T) {
	values := []float64{0.1, 0.7, 1.3, 2.9, 5.1}
	data := encodeGorilla(t, values)

	_, ok := NewNumericGorillaDecoder().Decode(data[:len(data)-3], len(values))
	require.False(t, ok)

	_, ok = NewNumericGorillaDecoder().Decode(nil, 1)
	require.False(t, ok)
}

func TestNumericGorilla_EarlyBreak(t *testing.T) {
	data := encodeGorilla(t, []float64{1, 2, 3, 4})

	var seen []float64
	for v := range NewNumericGorillaDecoder().All(data, 4) {
		seen = append(seen, v)
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []float64{1, 2}, seen)
}

func TestNumericGorillaEncoder_PanicsAfterFinish(t *testing.T) {
	enc := NewNumericGorillaEncoder()
	enc.Write(1)
	enc.Finish()
	enc.Finish()

	require.Panics(t, func() { enc.Write(2) })
	require.Panics(t, func() { enc.Bytes() })
}

func BenchmarkNumericGorillaEncoder(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 2500)
	for i := range values {
		values[i] = 1 + rng.NormFloat64()*0.02
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		enc := NewNumericGorillaEncoder()
		enc.WriteSlice(values)
		_ = enc.Bytes()
		enc.Finish()
	}
}

func BenchmarkNumericGorillaDecoder(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 2500)
	for i := range values {
		values[i] = 1 + rng.NormFloat64()*0.02
	}

	enc := NewNumericGorillaEncoder()
	enc.WriteSlice(values)
	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	dec := NewNumericGorillaDecoder()
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		for v := range dec.All(data, len(values)) {
			_ = v
		}
	}
}
