package encoding

import (
	"fmt"

	"github.com/arloliu/bayesfit/endian"
	"github.com/arloliu/bayesfit/errs"
)

// MaxNames is the largest number of column names a name table can hold.
const MaxNames = 65535

// EncodeNames encodes column names into a length-prefixed table.
// Format: [Count: uint16] [Len1: uint16][Name1: UTF-8] [Len2: uint16][Name2: UTF-8] ...
func EncodeNames(names []string, engine endian.EndianEngine) ([]byte, error) {
	if len(names) > MaxNames {
		return nil, fmt.Errorf("%w: name count %d exceeds maximum %d", errs.ErrInvalidArgument, len(names), MaxNames)
	}

	totalSize := 2
	for _, name := range names {
		if len(name) == 0 || len(name) > 65535 {
			return nil, fmt.Errorf("%w: name %q must be 1-65535 bytes", errs.ErrInvalidArgument, name)
		}
		totalSize += 2 + len(name)
	}

	buf := make([]byte, 0, totalSize)
	buf = engine.AppendUint16(buf, uint16(len(names))) //nolint:gosec // bounded above
	for _, name := range names {
		buf = engine.AppendUint16(buf, uint16(len(name))) //nolint:gosec // bounded above
		buf = append(buf, name...)
	}

	return buf, nil
}

// DecodeNames decodes a name table and returns the names and the number of bytes consumed.
func DecodeNames(data []byte, engine endian.EndianEngine) ([]string, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: cannot read name count (need 2 bytes, have %d)", errs.ErrInvalidArchive, len(data))
	}

	count := int(engine.Uint16(data))
	offset := 2
	names := make([]string, count)

	for i := range count {
		if len(data) < offset+2 {
			return nil, 0, fmt.Errorf("%w: cannot read length of name %d at offset %d", errs.ErrInvalidArchive, i, offset)
		}

		nameLen := int(engine.Uint16(data[offset:]))
		offset += 2

		if len(data) < offset+nameLen {
			return nil, 0, fmt.Errorf("%w: name %d needs %d bytes at offset %d, have %d total",
				errs.ErrInvalidArchive, i, nameLen, offset, len(data))
		}

		names[i] = string(data[offset : offset+nameLen])
		offset += nameLen
	}

	return names, offset, nil
}

// VerifyNameHashes checks that hashFunc(names[i]) == ids[i] for every name.
func VerifyNameHashes(names []string, ids []uint64, hashFunc func(string) uint64) error {
	if len(names) != len(ids) {
		return fmt.Errorf("%w: %d names but %d ids", errs.ErrInvalidArchive, len(names), len(ids))
	}

	for i, name := range names {
		if want := hashFunc(name); want != ids[i] {
			return fmt.Errorf("%w: name %q at index %d: expected id 0x%016x, got 0x%016x",
				errs.ErrInvalidArchive, name, i, want, ids[i])
		}
	}

	return nil
}
