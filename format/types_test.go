package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name string
		want CompressionType
		ok   bool
	}{
		{"", CompressionNone, true},
		{"none", CompressionNone, true},
		{"zstd", CompressionZstd, true},
		{"s2", CompressionS2, true},
		{"lz4", CompressionLZ4, true},
		{"brotli", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompression(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStrings(t *testing.T) {
	require.Equal(t, "Gorilla", TypeGorilla.String())
	require.Equal(t, "Raw", TypeRaw.String())
	require.Equal(t, "Unknown", EncodingType(0x9).String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0x9).String())
}

func TestParseEncoding(t *testing.T) {
	got, ok := ParseEncoding("raw")
	require.True(t, ok)
	require.Equal(t, TypeRaw, got)

	got, ok = ParseEncoding("")
	require.True(t, ok)
	require.Equal(t, TypeGorilla, got)

	_, ok = ParseEncoding("delta")
	require.False(t, ok)
}
