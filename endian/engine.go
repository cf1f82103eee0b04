// Package endian provides the byte order used by the draws archive.
//
// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so the
// archive writer can append header fields without temporary buffers and the
// reader can decode them with the same value:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, drawsPerChain)
//	n := engine.Uint32(buf[8:12])
//
// The returned engines are the stateless binary.LittleEndian and
// binary.BigEndian values and are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the archive default.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ForFlag returns the big-endian engine when bigEndian is set and the
// little-endian engine otherwise. The archive header stores the flag.
func ForFlag(bigEndian bool) EndianEngine {
	if bigEndian {
		return GetBigEndianEngine()
	}

	return GetLittleEndianEngine()
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == GetBigEndianEngine()
}
