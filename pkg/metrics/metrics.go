// Package metrics walks the metrics array: per-file statistics recorded
// for files touched during the prefetch-traced launch.
package metrics

import (
	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// EntrySize returns the on-disk size of one metrics entry for version.
func EntrySize(version uint32) (int, error) {
	switch version {
	case 17:
		return 20, nil
	case 23, 26:
		return 32, nil
	default:
		return 0, pferrors.New(pferrors.UnsupportedVersion, "no metrics entry layout for format_version %d", version)
	}
}

// Entry is one metrics-array record. AverageDurationMs and FileReference
// are zero-valued on v17, which has no such fields.
type Entry struct {
	StartTimeMs                      uint32
	DurationMs                       uint32
	FilenameStringOffset             uint32
	FilenameStringNumberOfCharacters uint32
	Flags                            uint32
	AverageDurationMs                uint32
	FileReference                    uint64 // low 48 bits = MFT entry, high 16 = sequence
}

// Decode reads count entries of the version-appropriate size from data and
// decodes them in file order. count == 0 returns an empty, non-nil slice.
func Decode(data []byte, count uint32, version uint32, log *logging.Logger) ([]Entry, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}
	entries := make([]Entry, 0, count)
	if count == 0 {
		return entries, nil
	}

	entrySize, err := EntrySize(version)
	if err != nil {
		return nil, err
	}
	needed := int(count) * entrySize
	if len(data) < needed {
		return nil, pferrors.New(pferrors.ShortInput, "metrics array requires %d bytes for %d entries, got %d", needed, count, len(data))
	}

	for i := uint32(0); i < count; i++ {
		base := int(i) * entrySize
		var e Entry

		e.StartTimeMs, err = binutil.Uint32(data, base+0)
		if err != nil {
			return nil, err
		}
		e.DurationMs, err = binutil.Uint32(data, base+4)
		if err != nil {
			return nil, err
		}
		e.FilenameStringOffset, err = binutil.Uint32(data, base+8)
		if err != nil {
			return nil, err
		}
		e.FilenameStringNumberOfCharacters, err = binutil.Uint32(data, base+12)
		if err != nil {
			return nil, err
		}
		e.Flags, err = binutil.Uint32(data, base+16)
		if err != nil {
			return nil, err
		}

		if version == 23 || version == 26 {
			e.AverageDurationMs, err = binutil.Uint32(data, base+20)
			if err != nil {
				return nil, err
			}
			e.FileReference, err = binutil.Uint64(data, base+24)
			if err != nil {
				return nil, err
			}
		}

		entries = append(entries, e)
	}

	log.Trace("decoded metrics array", "count", len(entries))
	return entries, nil
}

// MFTEntry returns the low 48 bits of an NTFS file reference.
func MFTEntry(ref uint64) uint64 { return ref & 0xFFFFFFFFFFFF }

// Sequence returns the high 16 bits of an NTFS file reference.
func Sequence(ref uint64) uint16 { return uint16(ref >> 48) }
