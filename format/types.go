package format

type (
	EncodingType    uint8
	CompressionType uint8
)

const (
	TypeRaw     EncodingType = 0x1 // TypeRaw stores float64 columns as little-endian IEEE 754 words.
	TypeGorilla EncodingType = 0x3 // TypeGorilla stores float64 columns XOR-compressed.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (e EncodingType) String() string {
	switch e {
	case TypeRaw:
		return "Raw"
	case TypeGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a configuration name ("none", "zstd", "s2", "lz4")
// to its CompressionType. The second return value is false for unknown names.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

// ParseEncoding maps a configuration name ("raw", "gorilla") to its
// EncodingType. The second return value is false for unknown names.
func ParseEncoding(name string) (EncodingType, bool) {
	switch name {
	case "raw":
		return TypeRaw, true
	case "", "gorilla":
		return TypeGorilla, true
	default:
		return 0, false
	}
}
