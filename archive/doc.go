// Package archive stores posterior draws in a compact binary file.
//
// Layout:
//
//	+--------------------+ 0
//	| header (32 bytes)  |
//	+--------------------+ 32
//	| name table         | every column name, see internal/encoding.EncodeNames
//	+--------------------+
//	| index              | one 20-byte entry per (column, chain)
//	+--------------------+
//	| payload            | encoded columns, compressed as a whole
//	+--------------------+
//
// Header fields (multi-byte fields use the byte order selected by the flags byte):
//
//	0-3   magic "BFDR"
//	4     version
//	5     encoding (format.EncodingType)
//	6     compression (format.CompressionType)
//	7     flags, bit 0 = big endian
//	8-9   chains
//	10-11 parameters; the remaining names are sampler diagnostics
//	12-15 draws per chain
//	16-19 metadata length (name table + index)
//	20-23 stored payload length
//	24-31 xxHash64 of everything after the header
//
// Columns are the model parameters followed by lp__, accept_stat__,
// stepsize__, treedepth__ and divergent__. Index entries are ordered by
// column, then chain, and carry the xxHash64 of the column name so a reader
// can locate a column without scanning the name table:
//
//	a, err := archive.Open(f)
//	entries, ok := a.Lookup("sigma")
package archive
