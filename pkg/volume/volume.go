// Package volume decodes the volume information block: per-volume
// records, each with a device path, an NTFS file-reference list, and a
// directory-strings table. All inter-field offsets inside this package are
// relative to the start of the volume block buffer, never to the start of
// the file — the block is modeled as its own sub-buffer, matching the
// on-disk self-relative addressing (spec.md §4.7, §9).
package volume

import (
	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
	"github.com/bgrewell/prefetch-kit/pkg/strtable"
)

// RecordSize returns the on-disk size of one per-volume record for version.
func RecordSize(version uint32) (int, error) {
	switch version {
	case 17:
		return 104, nil
	case 23, 26:
		return 96, nil
	default:
		return 0, pferrors.New(pferrors.UnsupportedVersion, "no volume record layout for format_version %d", version)
	}
}

// Volume is one decoded per-volume record, plus everything its pointers
// reach: the device path, the NTFS file references, and the directory
// strings.
type Volume struct {
	DevicePath        string
	CreationTime      binutil.FILETIME
	SerialNumber      uint32
	FileReferences    []uint64 // NTFS MFT references; low 48 bits entry, high 16 bits sequence
	DirectoryStrings  []string
	// DirectoryStringCountMismatch records whether the declared
	// NumberOfDirectoryStrings disagreed with the count actually decoded
	// from the directory-strings table (spec.md §4.7: "reported but not
	// fatal").
	DirectoryStringCountMismatch bool
}

// MFTEntry returns the low 48 bits of an NTFS file reference.
func MFTEntry(ref uint64) uint64 { return ref & 0xFFFFFFFFFFFF }

// Sequence returns the high 16 bits of an NTFS file reference.
func Sequence(ref uint64) uint16 { return uint16(ref >> 48) }

// Decode decodes count per-volume records from block, where block holds
// exactly the volumes_information_size bytes starting at
// volumes_information_offset. All offsets found inside per-volume records
// are relative to the start of block.
func Decode(block []byte, count uint32, version uint32, log *logging.Logger) ([]Volume, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}
	volumes := make([]Volume, 0, count)
	if count == 0 {
		return volumes, nil
	}

	recordSize, err := RecordSize(version)
	if err != nil {
		return nil, err
	}
	needed := int(count) * recordSize
	if len(block) < needed {
		return nil, pferrors.New(pferrors.ShortInput, "volume block requires %d bytes for %d records, got %d", needed, count, len(block))
	}

	for i := uint32(0); i < count; i++ {
		base := int(i) * recordSize
		record := block[base : base+recordSize]
		v, err := decodeOne(block, record, log)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}

	return volumes, nil
}

// decodeOne decodes a single per-volume record. block is the entire
// volume-block buffer (offsets inside record are relative to it); record is
// the fixed-size slice for this volume alone.
func decodeOne(block []byte, record []byte, log *logging.Logger) (Volume, error) {
	devicePathOffset, err := binutil.Uint32(record, 0)
	if err != nil {
		return Volume{}, err
	}
	devicePathChars, err := binutil.Uint32(record, 4)
	if err != nil {
		return Volume{}, err
	}
	creationTime, err := binutil.FILETIMEAt(record, 8)
	if err != nil {
		return Volume{}, err
	}
	serialNumber, err := binutil.Uint32(record, 16)
	if err != nil {
		return Volume{}, err
	}
	fileRefsOffset, err := binutil.Uint32(record, 20)
	if err != nil {
		return Volume{}, err
	}
	fileRefsSize, err := binutil.Uint32(record, 24)
	if err != nil {
		return Volume{}, err
	}
	dirStringsOffset, err := binutil.Uint32(record, 28)
	if err != nil {
		return Volume{}, err
	}
	numDirStrings, err := binutil.Uint32(record, 32)
	if err != nil {
		return Volume{}, err
	}

	v := Volume{
		CreationTime: creationTime,
		SerialNumber: serialNumber,
	}

	if devicePathOffset != 0 && devicePathChars != 0 {
		start := int64(devicePathOffset)
		length := int64(devicePathChars) * 2
		if start < 0 || length < 0 || start+length > int64(len(block)) {
			return Volume{}, pferrors.New(pferrors.OffsetOutOfBounds, "device path [%d, %d) escapes volume block of size %d", start, start+length, len(block))
		}
		name, err := strtable.DecodeFixed(block[start : start+length])
		if err != nil {
			return Volume{}, pferrors.Wrap(pferrors.MalformedStringTable, err, "failed to decode device path")
		}
		v.DevicePath = name
	}

	if fileRefsOffset != 0 {
		refs, err := decodeFileReferences(block, fileRefsOffset, fileRefsSize)
		if err != nil {
			return Volume{}, err
		}
		v.FileReferences = refs
	}

	if dirStringsOffset != 0 {
		strs, mismatch, err := decodeDirectoryStrings(block, dirStringsOffset, numDirStrings)
		if err != nil {
			return Volume{}, err
		}
		v.DirectoryStrings = strs
		v.DirectoryStringCountMismatch = mismatch
	}

	log.Trace("decoded volume", "device_path", v.DevicePath, "serial_number", v.SerialNumber,
		"file_reference_count", len(v.FileReferences), "directory_string_count", len(v.DirectoryStrings))

	return v, nil
}

// decodeFileReferences decodes the file-reference list starting at offset
// (relative to block). The region begins with an 8-byte header (version,
// number_of_file_references), 8 ignored bytes, then
// (number_of_file_references - 1) 64-bit references — the header itself
// counts as the first "reference" (spec.md §4.7).
func decodeFileReferences(block []byte, offset uint32, size uint32) ([]uint64, error) {
	start := int64(offset)
	end := start + int64(size)
	if start < 0 || end > int64(len(block)) || end < start {
		return nil, pferrors.New(pferrors.OffsetOutOfBounds, "file references [%d, %d) escapes volume block of size %d", start, end, len(block))
	}
	region := block[start:end]
	if len(region) < 16 {
		return nil, pferrors.New(pferrors.ShortInput, "file references region requires at least 16 bytes, got %d", len(region))
	}

	numRefs, err := binutil.Uint32(region, 4)
	if err != nil {
		return nil, err
	}
	if numRefs == 0 {
		return nil, nil
	}

	payloadCount := int(numRefs) - 1
	refs := make([]uint64, 0, payloadCount)
	cursor := 16
	for i := 0; i < payloadCount; i++ {
		ref, err := binutil.Uint64(region, cursor)
		if err != nil {
			return nil, pferrors.Wrap(pferrors.OffsetOutOfBounds, err, "file reference %d escapes its region", i)
		}
		refs = append(refs, ref)
		cursor += 8
	}

	return refs, nil
}

// decodeDirectoryStrings decodes the directory-strings array, which
// extends from offset to the end of the volume block. It reports (but does
// not fail on) a mismatch between the declared count and the number of
// strings actually decoded.
func decodeDirectoryStrings(block []byte, offset uint32, declaredCount uint32) ([]string, bool, error) {
	start := int64(offset)
	if start < 0 || start > int64(len(block)) {
		return nil, false, pferrors.New(pferrors.OffsetOutOfBounds, "directory strings offset %d escapes volume block of size %d", start, len(block))
	}

	entries, err := strtable.Parse(block[start:])
	if err != nil {
		return nil, false, pferrors.Wrap(pferrors.MalformedStringTable, err, "failed to decode directory strings")
	}

	strs := make([]string, len(entries))
	for i, e := range entries {
		strs[i] = e.Value
	}

	mismatch := uint32(len(strs)) != declaredCount
	return strs, mismatch, nil
}
