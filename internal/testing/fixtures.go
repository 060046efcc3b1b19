// Package testing provides small binary-fixture builders shared by the
// prefetch package's end-to-end tests, the way the teacher library keeps
// its own test-support helpers out of the public API surface under
// internal/testing.
package testing

import (
	"encoding/binary"
	"unicode/utf16"
)

// EncodeUTF16LE encodes s as UTF-16LE code units with no terminator.
func EncodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

// PadUTF16LE encodes s as UTF-16LE, NUL-padded to byteLen.
func PadUTF16LE(s string, byteLen int) []byte {
	out := make([]byte, byteLen)
	copy(out, EncodeUTF16LE(s))
	return out
}

// Header builds an 84-byte Prefetch file header.
func Header(version uint32, fileSize uint32, name string, hash uint32) []byte {
	buf := make([]byte, 84)
	binary.LittleEndian.PutUint32(buf[0:4], version)
	copy(buf[4:8], "SCCA")
	binary.LittleEndian.PutUint32(buf[12:16], fileSize)
	copy(buf[16:76], PadUTF16LE(name, 60))
	binary.LittleEndian.PutUint32(buf[76:80], hash)
	return buf
}

// FileInfoV17 builds a 156-byte v17 file-information block with every
// offset zeroed except run_count.
func FileInfoV17(runCount uint32) []byte {
	buf := make([]byte, 156)
	binary.LittleEndian.PutUint32(buf[52:56], runCount)
	return buf
}

// FileInfoSize returns the on-disk size of a file-information block.
func FileInfoSize(version uint32) int {
	if version == 17 {
		return 156
	}
	return 224
}
