package stream

import (
	"hash/crc32"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC checks a frame's CRC against its decoded payload. Frames
// without a CRC pass.
func VerifyCRC(f *Frame) error {
	if f.CRC == nil {
		return nil
	}
	if got := ComputeCRC(f.Payload); got != *f.CRC {
		return &CRCMismatchError{Expected: *f.CRC, Got: got}
	}
	return nil
}
