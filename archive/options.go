package archive

import (
	"fmt"

	"github.com/arloliu/bayesfit/compress"
	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
	"github.com/arloliu/bayesfit/internal/options"
)

type writeConfig struct {
	encoding    format.EncodingType
	compression format.CompressionType
	engine      endian.EndianEngine
	statsHook   func(compress.CompressionStats)
}

func defaultWriteConfig() *writeConfig {
	return &writeConfig{
		encoding:    format.TypeGorilla,
		compression: format.CompressionZstd,
		engine:      endian.GetLittleEndianEngine(),
	}
}

// Option configures Write.
type Option = options.Option[*writeConfig]

// WithCompression selects the payload codec. The default is zstd.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *writeConfig) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
		}
		c.compression = ct

		return nil
	})
}

// WithEncoding selects the column encoding. The default is Gorilla.
func WithEncoding(et format.EncodingType) Option {
	return options.New(func(c *writeConfig) error {
		switch et {
		case format.TypeRaw, format.TypeGorilla:
			c.encoding = et
			return nil
		default:
			return fmt.Errorf("%w: unsupported encoding %s", errs.ErrInvalidArgument, et)
		}
	})
}

// WithBigEndian writes multi-byte fields most significant byte first.
func WithBigEndian() Option {
	return options.NoError(func(c *writeConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithStatsHook registers fn to receive the payload compression statistics.
func WithStatsHook(fn func(compress.CompressionStats)) Option {
	return options.NoError(func(c *writeConfig) {
		c.statsHook = fn
	})
}
