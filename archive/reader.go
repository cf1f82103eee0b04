package archive

import (
	"fmt"
	"io"
	"slices"

	"github.com/arloliu/bayesfit/compress"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
	"github.com/arloliu/bayesfit/internal/encoding"
	"github.com/arloliu/bayesfit/internal/hash"
	"github.com/arloliu/bayesfit/sampler"
)

// Archive is a decoded archive: header, column names, index and the
// decompressed payload.
type Archive struct {
	Header  Header
	Names   []string
	Index   []IndexEntry
	payload []byte
	byID    map[uint64][]IndexEntry
}

// Read decodes a whole archive from r into draws.
func Read(r io.Reader) (*sampler.Draws, error) {
	a, err := Open(r)
	if err != nil {
		return nil, err
	}

	return a.Draws()
}

// Open reads r to the end, verifies the checksum and decodes the metadata.
// Columns are decoded on demand.
func Open(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	return Parse(data)
}

// Parse decodes an archive held in memory.
func Parse(data []byte) (*Archive, error) {
	a := &Archive{}
	if err := a.Header.Parse(data); err != nil {
		return nil, err
	}

	h := &a.Header
	body := data[HeaderSize:]
	want := uint64(h.MetaLength) + uint64(h.PayloadLength)
	if uint64(len(body)) != want {
		return nil, fmt.Errorf("%w: body is %d bytes, header declares %d", errs.ErrInvalidArchive, len(body), want)
	}
	if sum := hash.Sum(body); sum != h.Checksum {
		return nil, fmt.Errorf("%w: got %016x, want %016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	engine := h.Engine()
	meta := body[:h.MetaLength]

	names, n, err := encoding.DecodeNames(meta, engine)
	if err != nil {
		return nil, err
	}
	if int(h.Params) > len(names) {
		return nil, fmt.Errorf("%w: %d parameters but %d names", errs.ErrInvalidArchive, h.Params, len(names))
	}
	if !slices.Equal(names[h.Params:], sampler.DiagnosticColumns) {
		return nil, fmt.Errorf("%w: unexpected diagnostic columns %v", errs.ErrInvalidArchive, names[h.Params:])
	}

	chains := int(h.Chains)
	index, err := parseIndex(meta[n:], len(names)*chains, engine)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(names))
	for i := range names {
		ids[i] = index[i*chains].ID
	}
	if err := encoding.VerifyNameHashes(names, ids, hash.ID); err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(h.Compression, "payload")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}
	payload, err := codec.Decompress(body[h.MetaLength:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}

	a.byID = make(map[uint64][]IndexEntry, len(names))
	for i, e := range index {
		if e.ID != ids[i/chains] || int(e.Chain) != i%chains {
			return nil, fmt.Errorf("%w: index entry %d out of order", errs.ErrInvalidArchive, i)
		}
		if uint64(e.Offset)+uint64(e.Length) > uint64(len(payload)) {
			return nil, fmt.Errorf("%w: index entry %d exceeds payload", errs.ErrInvalidArchive, i)
		}
		a.byID[e.ID] = append(a.byID[e.ID], e)
	}

	a.Names = names
	a.Index = index
	a.payload = payload

	return a, nil
}

// Params returns the model parameter names.
func (a *Archive) Params() []string {
	return slices.Clone(a.Names[:a.Header.Params])
}

// Lookup returns the per-chain index entries of the named column.
func (a *Archive) Lookup(name string) ([]IndexEntry, bool) {
	entries, ok := a.byID[hash.ID(name)]
	return entries, ok
}

// Series decodes the named column of chain.
func (a *Archive) Series(chain int, name string) ([]float64, error) {
	entries, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown column %q", errs.ErrInvalidArgument, name)
	}
	if chain < 0 || chain >= len(entries) {
		return nil, fmt.Errorf("%w: chain %d out of range", errs.ErrInvalidArgument, chain)
	}

	return a.decode(entries[chain])
}

// At returns one draw of a column. Raw columns are read in place, Gorilla
// columns are decoded in full.
func (a *Archive) At(chain int, name string, draw int) (float64, error) {
	entries, ok := a.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown column %q", errs.ErrInvalidArgument, name)
	}
	if chain < 0 || chain >= len(entries) {
		return 0, fmt.Errorf("%w: chain %d out of range", errs.ErrInvalidArgument, chain)
	}
	count := int(a.Header.DrawsPerChain)
	if draw < 0 || draw >= count {
		return 0, fmt.Errorf("%w: draw %d out of range [0, %d)", errs.ErrInvalidArgument, draw, count)
	}

	e := entries[chain]
	if a.Header.Encoding == format.TypeRaw {
		data := a.payload[e.Offset : e.Offset+e.Length]
		v, ok := encoding.NewNumericRawDecoder(a.Header.Engine()).At(data, draw, count)
		if !ok {
			return 0, fmt.Errorf("%w: column of chain %d is truncated", errs.ErrInvalidArchive, e.Chain)
		}

		return v, nil
	}

	values, err := a.decode(e)
	if err != nil {
		return 0, err
	}

	return values[draw], nil
}

// Draws decodes every column into sampler draws.
func (a *Archive) Draws() (*sampler.Draws, error) {
	chains := int(a.Header.Chains)
	d := sampler.NewDraws(a.Params(), chains, int(a.Header.DrawsPerChain))

	for i, e := range a.Index {
		values, err := a.decode(e)
		if err != nil {
			return nil, err
		}
		if err := d.SetSeries(int(e.Chain), a.Names[i/chains], values); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
		}
	}

	return d, nil
}

func (a *Archive) decode(e IndexEntry) ([]float64, error) {
	data := a.payload[e.Offset : e.Offset+e.Length]
	count := int(a.Header.DrawsPerChain)

	var (
		values []float64
		ok     bool
	)
	if a.Header.Encoding == format.TypeRaw {
		values = slices.Collect(encoding.NewNumericRawDecoder(a.Header.Engine()).All(data, count))
		ok = len(values) == count
	} else {
		values, ok = encoding.NewNumericGorillaDecoder().Decode(data, count)
	}
	if !ok {
		return nil, fmt.Errorf("%w: column of chain %d decoded %d of %d values", errs.ErrInvalidArchive, e.Chain, len(values), count)
	}

	return values, nil
}
