package archive

import (
	"fmt"

	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
)

const (
	// HeaderSize is the fixed size of the archive header.
	HeaderSize = 32
	// Version is the archive layout version written by this package.
	Version = 1

	magic = "BFDR"

	flagBigEndian = 0x01
)

// Header is the fixed-size section at the start of an archive.
type Header struct {
	Encoding      format.EncodingType
	Compression   format.CompressionType
	BigEndian     bool
	Chains        uint16
	Params        uint16
	DrawsPerChain uint32
	// MetaLength is the byte length of the name table and index.
	MetaLength uint32
	// PayloadLength is the byte length of the stored (compressed) payload.
	PayloadLength uint32
	// Checksum is the xxHash64 of the name table, index and stored payload.
	Checksum uint64
}

// Engine returns the byte order the header selects.
func (h *Header) Engine() endian.EndianEngine {
	return endian.ForFlag(h.BigEndian)
}

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := h.Engine()

	copy(b[0:4], magic)
	b[4] = Version
	b[5] = byte(h.Encoding)
	b[6] = byte(h.Compression)
	if h.BigEndian {
		b[7] = flagBigEndian
	}
	engine.PutUint16(b[8:10], h.Chains)
	engine.PutUint16(b[10:12], h.Params)
	engine.PutUint32(b[12:16], h.DrawsPerChain)
	engine.PutUint32(b[16:20], h.MetaLength)
	engine.PutUint32(b[20:24], h.PayloadLength)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// Parse decodes and validates the header from data.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", errs.ErrInvalidArchive, HeaderSize, len(data))
	}
	if string(data[0:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", errs.ErrInvalidArchive, data[0:4])
	}
	if data[4] != Version {
		return fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidArchive, data[4])
	}

	h.Encoding = format.EncodingType(data[5])
	h.Compression = format.CompressionType(data[6])
	h.BigEndian = data[7]&flagBigEndian != 0

	engine := h.Engine()
	h.Chains = engine.Uint16(data[8:10])
	h.Params = engine.Uint16(data[10:12])
	h.DrawsPerChain = engine.Uint32(data[12:16])
	h.MetaLength = engine.Uint32(data[16:20])
	h.PayloadLength = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return h.validate()
}

func (h *Header) validate() error {
	switch h.Encoding {
	case format.TypeRaw, format.TypeGorilla:
	default:
		return fmt.Errorf("%w: unknown encoding 0x%02x", errs.ErrInvalidArchive, uint8(h.Encoding))
	}

	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: unknown compression 0x%02x", errs.ErrInvalidArchive, uint8(h.Compression))
	}

	if h.Chains == 0 || h.DrawsPerChain == 0 {
		return fmt.Errorf("%w: empty archive (%d chains, %d draws per chain)", errs.ErrInvalidArchive, h.Chains, h.DrawsPerChain)
	}

	return nil
}
