package archive

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/arloliu/bayesfit/compress"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
	"github.com/arloliu/bayesfit/sampler"
)

func fixtureDraws(chains, perChain int) *sampler.Draws {
	rng := rand.New(rand.NewSource(1056))
	d := sampler.NewDraws([]string{"beta0", "beta1", "sigma"}, chains, perChain)

	for c := range d.Chains {
		b0, b1, s := 2.0, 3.0, 1.0
		for i := range d.Chains[c] {
			// repeat the previous draw now and then, like a rejected proposal
			if rng.Float64() < 0.9 {
				b0 += rng.NormFloat64() * 0.01
				b1 += rng.NormFloat64() * 0.02
				s = 1 + rng.NormFloat64()*0.01
			}
			t := &d.Chains[c][i]
			t.Values[0], t.Values[1], t.Values[2] = b0, b1, s
			t.LP = -2418 + rng.NormFloat64()
			t.AcceptStat = rng.Float64()
			t.StepSize = 0.35 + 0.01*float64(c)
			t.TreeDepth = 1 + rng.Intn(4)
			t.Divergent = i%97 == 0
		}
	}

	return d
}

func writeArchive(t *testing.T, d *sampler.Draws, opts ...Option) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, d, opts...))

	return buf.Bytes()
}

func TestWriteRead_RoundTrip(t *testing.T) {
	d := fixtureDraws(3, 200)

	compressions := []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	}
	encodings := []format.EncodingType{format.TypeGorilla, format.TypeRaw}

	for _, ct := range compressions {
		for _, et := range encodings {
			for _, big := range []bool{false, true} {
				t.Run(fmt.Sprintf("%s/%s/big=%v", ct, et, big), func(t *testing.T) {
					opts := []Option{WithCompression(ct), WithEncoding(et)}
					if big {
						opts = append(opts, WithBigEndian())
					}
					data := writeArchive(t, d, opts...)

					var h Header
					require.NoError(t, h.Parse(data))
					require.Equal(t, big, h.BigEndian)

					got, err := Read(bytes.NewReader(data))
					require.NoError(t, err)
					if diff := cmp.Diff(d, got); diff != "" {
						t.Fatalf("draws mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestOpen_Metadata(t *testing.T) {
	d := fixtureDraws(2, 50)
	data := writeArchive(t, d, WithCompression(format.CompressionS2))

	a, err := Open(bytes.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, format.TypeGorilla, a.Header.Encoding)
	require.Equal(t, format.CompressionS2, a.Header.Compression)
	require.EqualValues(t, 2, a.Header.Chains)
	require.EqualValues(t, 3, a.Header.Params)
	require.EqualValues(t, 50, a.Header.DrawsPerChain)
	require.Equal(t, []string{"beta0", "beta1", "sigma"}, a.Params())
	require.Equal(t, d.ColumnNames(), a.Names)
	require.Len(t, a.Index, len(a.Names)*2)

	entries, ok := a.Lookup("sigma")
	require.True(t, ok)
	require.Len(t, entries, 2)
	require.EqualValues(t, 0, entries[0].Chain)
	require.EqualValues(t, 1, entries[1].Chain)

	_, ok = a.Lookup("gamma")
	require.False(t, ok)

	got, err := a.Series(1, sampler.ColumnTreeDepth)
	require.NoError(t, err)
	want, _ := d.Series(1, sampler.ColumnTreeDepth)
	require.Equal(t, want, got)

	_, err = a.Series(2, "sigma")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = a.Series(0, "gamma")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestArchive_At(t *testing.T) {
	d := fixtureDraws(2, 50)

	for _, et := range []format.EncodingType{format.TypeRaw, format.TypeGorilla} {
		t.Run(et.String(), func(t *testing.T) {
			a, err := Parse(writeArchive(t, d, WithEncoding(et), WithBigEndian()))
			require.NoError(t, err)

			for _, draw := range []int{0, 17, 49} {
				v, err := a.At(1, "beta1", draw)
				require.NoError(t, err)
				require.Equal(t, d.Chains[1][draw].Values[1], v)

				lp, err := a.At(0, sampler.ColumnLP, draw)
				require.NoError(t, err)
				require.Equal(t, d.Chains[0][draw].LP, lp)
			}

			_, err = a.At(0, "beta1", 50)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
			_, err = a.At(0, "beta1", -1)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
			_, err = a.At(2, "beta1", 0)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
			_, err = a.At(0, "gamma", 0)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestWrite_StatsHook(t *testing.T) {
	var stats compress.CompressionStats
	calls := 0
	writeArchive(t, fixtureDraws(3, 500),
		WithEncoding(format.TypeRaw),
		WithCompression(format.CompressionZstd),
		WithStatsHook(func(s compress.CompressionStats) {
			calls++
			stats = s
		}),
	)

	require.Equal(t, 1, calls)
	require.Equal(t, format.CompressionZstd, stats.Algorithm)
	require.EqualValues(t, 8*3*500*8, stats.OriginalSize)
	require.Less(t, stats.CompressedSize, stats.OriginalSize)
}

func TestGorillaSmallerThanRaw(t *testing.T) {
	d := fixtureDraws(3, 500)
	raw := writeArchive(t, d, WithEncoding(format.TypeRaw), WithCompression(format.CompressionNone))
	gorilla := writeArchive(t, d, WithEncoding(format.TypeGorilla), WithCompression(format.CompressionNone))

	require.Less(t, len(gorilla), len(raw))
}

func TestRead_Corruption(t *testing.T) {
	data := writeArchive(t, fixtureDraws(2, 100))

	t.Run("payload bit flip", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-5] ^= 0x40
		_, err := Read(bytes.NewReader(bad))
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("checksum field", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[30] ^= 0x01
		_, err := Read(bytes.NewReader(bad))
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, cut := range []int{0, 10, HeaderSize, len(data) - 1} {
			_, err := Read(bytes.NewReader(data[:cut]))
			require.ErrorIs(t, err, errs.ErrInvalidArchive, "cut=%d", cut)
		}
	})

	t.Run("magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		copy(bad, "XXXX")
		_, err := Read(bytes.NewReader(bad))
		require.ErrorIs(t, err, errs.ErrInvalidArchive)
	})

	t.Run("version", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] = 9
		_, err := Read(bytes.NewReader(bad))
		require.ErrorIs(t, err, errs.ErrInvalidArchive)
	})

	t.Run("compression", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[6] = 0x7f
		_, err := Read(bytes.NewReader(bad))
		require.ErrorIs(t, err, errs.ErrInvalidArchive)
	})
}

func TestWrite_Invalid(t *testing.T) {
	var buf bytes.Buffer

	require.ErrorIs(t, Write(&buf, nil), errs.ErrInvalidArgument)
	require.ErrorIs(t, Write(&buf, sampler.NewDraws([]string{"a"}, 0, 0)), errs.ErrInvalidArgument)
	require.ErrorIs(t, Write(&buf, sampler.NewDraws([]string{"a"}, 2, 0)), errs.ErrInvalidArgument)

	ragged := fixtureDraws(2, 10)
	ragged.Chains[1] = ragged.Chains[1][:5]
	require.ErrorIs(t, Write(&buf, ragged), errs.ErrInvalidArgument)

	d := fixtureDraws(1, 10)
	require.ErrorIs(t, Write(&buf, d, WithCompression(0x7f)), errs.ErrInvalidArgument)
	require.ErrorIs(t, Write(&buf, d, WithEncoding(0x7f)), errs.ErrInvalidArgument)
	require.Zero(t, buf.Len())
}

func TestHeader_RoundTrip(t *testing.T) {
	for _, big := range []bool{false, true} {
		h := Header{
			Encoding:      format.TypeGorilla,
			Compression:   format.CompressionLZ4,
			BigEndian:     big,
			Chains:        3,
			Params:        3,
			DrawsPerChain: 2500,
			MetaLength:    1234,
			PayloadLength: 56789,
			Checksum:      0xdeadbeefcafef00d,
		}

		b := h.Bytes()
		require.Len(t, b, HeaderSize)
		require.Equal(t, "BFDR", string(b[:4]))

		var got Header
		require.NoError(t, got.Parse(b))
		require.Equal(t, h, got)
	}
}

func BenchmarkWrite(b *testing.B) {
	d := fixtureDraws(3, 2500)
	var buf bytes.Buffer

	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		if err := Write(&buf, d); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRead(b *testing.B) {
	d := fixtureDraws(3, 2500)
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Read(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
