// Package fileinfo decodes the version-dispatched file-information block
// that immediately follows the file header.
package fileinfo

import (
	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// Size returns the on-disk size of the file-information block for version.
func Size(version uint32) (int, error) {
	switch version {
	case 17:
		return 156, nil
	case 23, 26:
		return 224, nil
	default:
		return 0, pferrors.New(pferrors.UnsupportedVersion, "no file-information layout for format_version %d", version)
	}
}

// FileInformation is the version-normalized file-information block: fields
// present in all versions, plus the per-version last-run-time slice.
type FileInformation struct {
	MetricsArrayOffset          uint32
	NumberOfMetricsEntries      uint32
	TraceChainArrayOffset       uint32
	NumberOfTraceChainEntries   uint32
	FilenameStringsOffset       uint32
	FilenameStringsSize         uint32
	VolumesInformationOffset    uint32
	NumberOfVolumes             uint32
	VolumesInformationSize      uint32
	LastRunTimes                []binutil.FILETIME // 1 element (v17) or 8 (v23/v26)
	RunCount                    uint32
	unknown []byte // trailing padding/reserved bytes, preserved opaquely
}

// Unknown exposes the trailing padding/reserved bytes, preserved opaquely
// so downstream tooling can be extended without revising the core.
func (fi FileInformation) Unknown() []byte { return fi.unknown }

// Decode decodes the file-information block starting at data[0] (callers
// pass the slice beginning right after the 84-byte header), validating
// every non-zero offset lies within [headerSize, fileSize].
func Decode(data []byte, version uint32, fileSize uint32, headerSize uint32, log *logging.Logger) (FileInformation, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}

	blockSize, err := Size(version)
	if err != nil {
		return FileInformation{}, err
	}
	if len(data) < blockSize {
		return FileInformation{}, pferrors.New(pferrors.ShortInput, "file-information block requires %d bytes, got %d", blockSize, len(data))
	}

	var fi FileInformation

	fi.MetricsArrayOffset, err = binutil.Uint32(data, 0)
	if err != nil {
		return FileInformation{}, err
	}
	fi.NumberOfMetricsEntries, err = binutil.Uint32(data, 4)
	if err != nil {
		return FileInformation{}, err
	}
	fi.TraceChainArrayOffset, err = binutil.Uint32(data, 8)
	if err != nil {
		return FileInformation{}, err
	}
	fi.NumberOfTraceChainEntries, err = binutil.Uint32(data, 12)
	if err != nil {
		return FileInformation{}, err
	}
	fi.FilenameStringsOffset, err = binutil.Uint32(data, 16)
	if err != nil {
		return FileInformation{}, err
	}
	fi.FilenameStringsSize, err = binutil.Uint32(data, 20)
	if err != nil {
		return FileInformation{}, err
	}
	fi.VolumesInformationOffset, err = binutil.Uint32(data, 24)
	if err != nil {
		return FileInformation{}, err
	}
	fi.NumberOfVolumes, err = binutil.Uint32(data, 28)
	if err != nil {
		return FileInformation{}, err
	}
	fi.VolumesInformationSize, err = binutil.Uint32(data, 32)
	if err != nil {
		return FileInformation{}, err
	}

	cursor := 36
	switch version {
	case 17:
		ft, err := binutil.FILETIMEAt(data, cursor)
		if err != nil {
			return FileInformation{}, err
		}
		fi.LastRunTimes = []binutil.FILETIME{ft}
		cursor += 8
		fi.unknown = append([]byte(nil), data[cursor:cursor+8]...)
		cursor += 8
		fi.RunCount, err = binutil.Uint32(data, cursor)
		if err != nil {
			return FileInformation{}, err
		}
		cursor += 4
	case 23, 26:
		times := make([]binutil.FILETIME, 8)
		for i := range times {
			ft, err := binutil.FILETIMEAt(data, cursor)
			if err != nil {
				return FileInformation{}, err
			}
			times[i] = ft
			cursor += 8
		}
		fi.LastRunTimes = times
		fi.RunCount, err = binutil.Uint32(data, cursor)
		if err != nil {
			return FileInformation{}, err
		}
		cursor += 4
	}

	if cursor < blockSize {
		fi.unknown = append(fi.unknown, data[cursor:blockSize]...)
	}

	for _, off := range []uint32{fi.MetricsArrayOffset, fi.TraceChainArrayOffset, fi.FilenameStringsOffset, fi.VolumesInformationOffset} {
		if off == 0 {
			continue
		}
		if off < headerSize || off > fileSize {
			return FileInformation{}, pferrors.New(pferrors.OffsetOutOfBounds, "file-information offset %d escapes [%d, %d]", off, headerSize, fileSize)
		}
	}
	if fi.FilenameStringsOffset != 0 && fi.FilenameStringsOffset+fi.FilenameStringsSize > fileSize {
		return FileInformation{}, pferrors.New(pferrors.OffsetOutOfBounds, "filename strings section [%d, %d) escapes file size %d", fi.FilenameStringsOffset, fi.FilenameStringsOffset+fi.FilenameStringsSize, fileSize)
	}
	if fi.VolumesInformationOffset != 0 && fi.VolumesInformationOffset+fi.VolumesInformationSize > fileSize {
		return FileInformation{}, pferrors.New(pferrors.OffsetOutOfBounds, "volumes information section [%d, %d) escapes file size %d", fi.VolumesInformationOffset, fi.VolumesInformationOffset+fi.VolumesInformationSize, fileSize)
	}

	log.Trace("decoded file information",
		"metrics_offset", fi.MetricsArrayOffset, "metrics_count", fi.NumberOfMetricsEntries,
		"trace_chain_offset", fi.TraceChainArrayOffset, "trace_chain_count", fi.NumberOfTraceChainEntries,
		"filenames_offset", fi.FilenameStringsOffset, "filenames_size", fi.FilenameStringsSize,
		"volumes_offset", fi.VolumesInformationOffset, "volumes_count", fi.NumberOfVolumes, "run_count", fi.RunCount,
	)

	return fi, nil
}
