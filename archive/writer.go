package archive

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/bayesfit/compress"
	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
	"github.com/arloliu/bayesfit/internal/encoding"
	"github.com/arloliu/bayesfit/internal/hash"
	"github.com/arloliu/bayesfit/internal/options"
	"github.com/arloliu/bayesfit/internal/pool"
	"github.com/arloliu/bayesfit/sampler"
)

// Write encodes d and writes the archive to w.
func Write(w io.Writer, d *sampler.Draws, opts ...Option) error {
	cfg := defaultWriteConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	if err := validateDraws(d); err != nil {
		return err
	}

	engine := cfg.engine
	names := d.ColumnNames()

	nameTable, err := encoding.EncodeNames(names, engine)
	if err != nil {
		return err
	}

	payload := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(payload)

	chains := d.NumChains()
	perChain := d.DrawsPerChain()
	index := make([]byte, 0, len(names)*chains*IndexEntrySize)

	for _, name := range names {
		id := hash.ID(name)
		for c := range chains {
			series, _ := d.Series(c, name)

			enc := newEncoder(cfg.encoding, engine)
			enc.WriteSlice(series)
			data := enc.Bytes()

			offset := payload.Len()
			if offset+len(data) > math.MaxUint32 {
				enc.Finish()
				return fmt.Errorf("%w: payload exceeds 4 GiB", errs.ErrInvalidArgument)
			}
			_, _ = payload.Write(data)
			enc.Finish()

			index = IndexEntry{
				ID:     id,
				Chain:  uint16(c),         //nolint:gosec // G115: checked in validateDraws
				Offset: uint32(offset),    //nolint:gosec // G115: checked above
				Length: uint32(len(data)), //nolint:gosec // G115: checked above
			}.appendTo(index, engine)
		}
	}

	stored, stats, err := compress.CompressWithStats(cfg.compression, payload.Bytes())
	if err != nil {
		return err
	}
	if cfg.statsHook != nil {
		cfg.statsHook(stats)
	}
	if len(stored) > math.MaxUint32 {
		return fmt.Errorf("%w: compressed payload exceeds 4 GiB", errs.ErrInvalidArgument)
	}

	body := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(body)
	_, _ = body.Write(nameTable)
	_, _ = body.Write(index)
	_, _ = body.Write(stored)

	h := Header{
		Encoding:      cfg.encoding,
		Compression:   cfg.compression,
		BigEndian:     endian.IsBigEndian(engine),
		Chains:        uint16(chains),                      //nolint:gosec // G115: checked in validateDraws
		Params:        uint16(len(d.Params)),               //nolint:gosec // G115: bounded by EncodeNames
		DrawsPerChain: uint32(perChain),                    //nolint:gosec // G115: checked in validateDraws
		MetaLength:    uint32(len(nameTable) + len(index)), //nolint:gosec // G115: bounded by the payload check
		PayloadLength: uint32(len(stored)),                 //nolint:gosec // G115: checked above
		Checksum:      hash.Sum(body.Bytes()),
	}

	if _, err := w.Write(h.Bytes()); err != nil {
		return fmt.Errorf("failed to write archive header: %w", err)
	}
	if _, err := body.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write archive body: %w", err)
	}

	return nil
}

func validateDraws(d *sampler.Draws) error {
	if d == nil || d.NumChains() == 0 || d.DrawsPerChain() == 0 {
		return fmt.Errorf("%w: no draws to archive", errs.ErrInvalidArgument)
	}
	if d.NumChains() > math.MaxUint16 {
		return fmt.Errorf("%w: %d chains exceed %d", errs.ErrInvalidArgument, d.NumChains(), math.MaxUint16)
	}
	if d.DrawsPerChain() > math.MaxUint32 {
		return fmt.Errorf("%w: too many draws per chain", errs.ErrInvalidArgument)
	}

	perChain := d.DrawsPerChain()
	for c, ts := range d.Chains {
		if len(ts) != perChain {
			return fmt.Errorf("%w: chain %d has %d draws, want %d", errs.ErrInvalidArgument, c, len(ts), perChain)
		}
	}

	return nil
}

func newEncoder(et format.EncodingType, engine endian.EndianEngine) encoding.ColumnarEncoder[float64] {
	if et == format.TypeRaw {
		return encoding.NewNumericRawEncoder(engine)
	}

	return encoding.NewNumericGorillaEncoder()
}
