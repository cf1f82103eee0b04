package archive

import (
	"fmt"

	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/errs"
)

// IndexEntrySize is the on-disk size of one IndexEntry.
const IndexEntrySize = 20

// IndexEntry locates one encoded column of one chain in the decompressed payload.
type IndexEntry struct {
	// ID is the xxHash64 of the column name.
	ID     uint64 // offset 0, 8 bytes
	Chain  uint16 // offset 8, 2 bytes; 2 bytes reserved
	Offset uint32 // offset 12, 4 bytes
	Length uint32 // offset 16, 4 bytes
}

func (e IndexEntry) appendTo(b []byte, engine endian.EndianEngine) []byte {
	b = engine.AppendUint64(b, e.ID)
	b = engine.AppendUint16(b, e.Chain)
	b = engine.AppendUint16(b, 0)
	b = engine.AppendUint32(b, e.Offset)

	return engine.AppendUint32(b, e.Length)
}

func parseIndex(data []byte, count int, engine endian.EndianEngine) ([]IndexEntry, error) {
	if len(data) != count*IndexEntrySize {
		return nil, fmt.Errorf("%w: index needs %d bytes, got %d", errs.ErrInvalidArchive, count*IndexEntrySize, len(data))
	}

	entries := make([]IndexEntry, count)
	for i := range entries {
		b := data[i*IndexEntrySize : (i+1)*IndexEntrySize]
		entries[i] = IndexEntry{
			ID:     engine.Uint64(b[0:8]),
			Chain:  engine.Uint16(b[8:10]),
			Offset: engine.Uint32(b[12:16]),
			Length: engine.Uint32(b[16:20]),
		}
	}

	return entries, nil
}
