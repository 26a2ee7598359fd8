// Package pointio reads and writes tensors in a small self-describing binary
// container, optionally block-compressed with LZ4 or zstd.
//
// Layout (little-endian):
//
//	magic   [4]byte  "FPST"
//	version uint8
//	dtype   uint8
//	rank    uint8
//	dims    [rank]uint32
//	comp    uint8
//	crc     uint32   CRC32-C of the uncompressed payload
//	blocks  ...      [uncompressed uint32][compressed uint32][data]
//
// A block whose compressed size is 0 is stored raw.
package pointio
