// Package binutil provides bounds-checked little-endian integer decoding
// for the Prefetch decoder pipeline. Every read fails with a ShortInput
// pferrors.Error rather than panicking when the slice is too small.
package binutil

import (
	"encoding/binary"
	"time"

	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// filetimeEpoch is 1601-01-01 00:00:00 UTC expressed as a Go time.Time, the
// epoch FILETIME ticks are counted from.
var filetimeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// Uint16 reads a little-endian uint16 at offset in data.
func Uint16(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, pferrors.New(pferrors.ShortInput, "uint16 read at offset %d needs 2 bytes, have %d", offset, len(data)-offset)
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// Uint32 reads a little-endian uint32 at offset in data.
func Uint32(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, pferrors.New(pferrors.ShortInput, "uint32 read at offset %d needs 4 bytes, have %d", offset, len(data)-offset)
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}

// Uint64 reads a little-endian uint64 at offset in data.
func Uint64(data []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(data) {
		return 0, pferrors.New(pferrors.ShortInput, "uint64 read at offset %d needs 8 bytes, have %d", offset, len(data)-offset)
	}
	return binary.LittleEndian.Uint64(data[offset : offset+8]), nil
}

// FILETIME is a 64-bit Windows time value: 100-nanosecond ticks since
// 1601-01-01 UTC. It is carried unmodified by the decoder; converting it to
// wall-clock time is a presentation concern left to callers (see ToTime).
type FILETIME uint64

// ToTime converts a FILETIME to a Go time.Time. A zero FILETIME yields the
// zero time.Time, matching the "no recorded run" case.
func (f FILETIME) ToTime() time.Time {
	if f == 0 {
		return time.Time{}
	}
	// FILETIME ticks are 100-nanosecond intervals. Split into whole seconds
	// and a remainder so dates centuries after 1601 do not overflow a
	// time.Duration.
	const ticksPerSecond = 10_000_000
	secs := int64(uint64(f) / ticksPerSecond)
	nsec := int64(uint64(f)%ticksPerSecond) * 100
	return time.Unix(filetimeEpoch.Unix()+secs, nsec).UTC()
}

// FILETIMEAt reads a FILETIME (a raw little-endian uint64) at offset in data.
func FILETIMEAt(data []byte, offset int) (FILETIME, error) {
	v, err := Uint64(data, offset)
	if err != nil {
		return 0, err
	}
	return FILETIME(v), nil
}
