package hash

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string. Parameter names in the draws
// archive index are stored as their ID.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Sum computes the xxHash64 of a byte payload; the archive uses it as its checksum.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Short returns the first 8 hex digits of ID(data), used for stable model names.
func Short(data string) string {
	s := strconv.FormatUint(ID(data), 16)
	for len(s) < 16 {
		s = "0" + s
	}

	return s[:8]
}
