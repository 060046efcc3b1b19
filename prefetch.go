// Package prefetch parses Windows Prefetch (SCCA) files: on-disk artifacts
// generated by the Windows cache manager to accelerate application launch.
// Open wires the layered decoders (header, file-information, metrics,
// trace chain, filename strings, volumes) together and returns an
// immutable, queryable File.
package prefetch

import (
	"fmt"
	"sync/atomic"

	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/fileinfo"
	"github.com/bgrewell/prefetch-kit/pkg/header"
	"github.com/bgrewell/prefetch-kit/pkg/metrics"
	"github.com/bgrewell/prefetch-kit/pkg/option"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
	"github.com/bgrewell/prefetch-kit/pkg/reader"
	"github.com/bgrewell/prefetch-kit/pkg/strtable"
	"github.com/bgrewell/prefetch-kit/pkg/tracechain"
	"github.com/bgrewell/prefetch-kit/pkg/volume"
)

// Warning is a non-fatal condition recorded on a parsed File rather than
// failing the parse (spec.md §7): only pferrors.InconsistentCounts (a
// declared/decoded count disagreement) and pferrors.SizeMismatch (the
// header's declared file_size vs. the reader's actual size) appear here.
type Warning struct {
	Kind    pferrors.Kind
	Message string
}

// File is the immutable, parsed representation of a Prefetch file. It owns
// its volumes and filenames exclusively and may be shared across
// goroutines without synchronization once constructed (spec.md §5).
type File struct {
	formatVersion      uint32
	fileSizeDeclared   uint32
	prefetchHash       uint32
	executableFilename string
	runCount           uint32
	lastRunTimes       []binutil.FILETIME
	filenames          []string
	volumes            []volume.Volume
	metricsEntries     []metrics.Entry
	traceChainEntries  []tracechain.Entry
	warnings           []Warning

	// SourcePath is set by OpenPath; empty when parsing from an arbitrary
	// ByteReader.
	SourcePath string
}

// FormatVersion returns the decoded format version (17, 23, or 26).
func (f *File) FormatVersion() uint32 { return f.formatVersion }

// FileSizeDeclared returns the file size as declared by the header.
func (f *File) FileSizeDeclared() uint32 { return f.fileSizeDeclared }

// PrefetchHash returns the 32-bit prefetch hash from the header.
func (f *File) PrefetchHash() uint32 { return f.prefetchHash }

// ExecutableFilename returns the decoded executable name from the header.
func (f *File) ExecutableFilename() string { return f.executableFilename }

// RunCount returns the run_count field from the file-information block.
func (f *File) RunCount() uint32 { return f.runCount }

// LastRunTime returns the FILETIME at index (0 is most recent). The valid
// range is [0, 1) for format version 17 and [0, 8) for 23/26.
func (f *File) LastRunTime(index int) (binutil.FILETIME, error) {
	if index < 0 || index >= len(f.lastRunTimes) {
		return 0, pferrors.New(pferrors.InvalidArgument, "last run time index %d out of range [0, %d)", index, len(f.lastRunTimes))
	}
	return f.lastRunTimes[index], nil
}

// FilenamesCount returns the number of filename strings parsed.
func (f *File) FilenamesCount() int { return len(f.filenames) }

// Filename returns the filename string at index.
func (f *File) Filename(index int) (string, error) {
	if index < 0 || index >= len(f.filenames) {
		return "", pferrors.New(pferrors.InvalidArgument, "filename index %d out of range [0, %d)", index, len(f.filenames))
	}
	return f.filenames[index], nil
}

// VolumesCount returns the number of volumes parsed.
func (f *File) VolumesCount() int { return len(f.volumes) }

// Volume returns a read-only view over the volume at index.
func (f *File) Volume(index int) (VolumeView, error) {
	if index < 0 || index >= len(f.volumes) {
		return VolumeView{}, pferrors.New(pferrors.InvalidArgument, "volume index %d out of range [0, %d)", index, len(f.volumes))
	}
	return VolumeView{v: &f.volumes[index]}, nil
}

// MetricsCount returns the number of metrics entries parsed.
func (f *File) MetricsCount() int { return len(f.metricsEntries) }

// Metric returns the metrics entry at index.
func (f *File) Metric(index int) (metrics.Entry, error) {
	if index < 0 || index >= len(f.metricsEntries) {
		return metrics.Entry{}, pferrors.New(pferrors.InvalidArgument, "metrics index %d out of range [0, %d)", index, len(f.metricsEntries))
	}
	return f.metricsEntries[index], nil
}

// TraceChainCount returns the number of trace-chain entries parsed.
func (f *File) TraceChainCount() int { return len(f.traceChainEntries) }

// TraceChainEntry returns the trace-chain entry at index.
func (f *File) TraceChainEntry(index int) (tracechain.Entry, error) {
	if index < 0 || index >= len(f.traceChainEntries) {
		return tracechain.Entry{}, pferrors.New(pferrors.InvalidArgument, "trace chain index %d out of range [0, %d)", index, len(f.traceChainEntries))
	}
	return f.traceChainEntries[index], nil
}

// Warnings returns the non-fatal conditions recorded during the parse.
func (f *File) Warnings() []Warning {
	return append([]Warning(nil), f.warnings...)
}

// VolumeView exposes one decoded Volume's fields and ordered sub-lists.
type VolumeView struct {
	v *volume.Volume
}

// DevicePath returns the volume's device path (e.g. "\Device\HarddiskVolume1").
func (vv VolumeView) DevicePath() string { return vv.v.DevicePath }

// CreationTime returns the volume's creation time as a raw FILETIME.
func (vv VolumeView) CreationTime() binutil.FILETIME { return vv.v.CreationTime }

// SerialNumber returns the volume's serial number.
func (vv VolumeView) SerialNumber() uint32 { return vv.v.SerialNumber }

// FileReferenceCount returns the number of NTFS file references recorded
// for this volume.
func (vv VolumeView) FileReferenceCount() int { return len(vv.v.FileReferences) }

// FileReferenceAt returns the raw NTFS file reference at index. Use
// volume.MFTEntry/volume.Sequence to decompose it.
func (vv VolumeView) FileReferenceAt(index int) (uint64, error) {
	if index < 0 || index >= len(vv.v.FileReferences) {
		return 0, pferrors.New(pferrors.InvalidArgument, "file reference index %d out of range [0, %d)", index, len(vv.v.FileReferences))
	}
	return vv.v.FileReferences[index], nil
}

// DirectoryStringCount returns the number of directory strings recorded
// for this volume.
func (vv VolumeView) DirectoryStringCount() int { return len(vv.v.DirectoryStrings) }

// DirectoryStringAt returns the directory string at index.
func (vv VolumeView) DirectoryStringAt(index int) (string, error) {
	if index < 0 || index >= len(vv.v.DirectoryStrings) {
		return "", pferrors.New(pferrors.InvalidArgument, "directory string index %d out of range [0, %d)", index, len(vv.v.DirectoryStrings))
	}
	return vv.v.DirectoryStrings[index], nil
}

// Parser drives a single Open call and offers cooperative cancellation.
// Its ByteReader is consumed exclusively for the duration of Open; callers
// must not issue concurrent reads on the same reader (spec.md §5).
type Parser struct {
	aborted atomic.Bool
}

// NewParser creates a Parser ready for a single Open call.
func NewParser() *Parser {
	return &Parser{}
}

// Abort requests cooperative cancellation. Every decode stage checks it at
// entry; once observed, Open returns an Aborted error.
func (p *Parser) Abort() {
	p.aborted.Store(true)
}

func (p *Parser) checkAborted() error {
	if p != nil && p.aborted.Load() {
		return pferrors.New(pferrors.Aborted, "parse aborted")
	}
	return nil
}

// Open parses r into a File using a fresh, unshared Parser. Use OpenWithParser
// to retain a handle for cooperative cancellation.
func Open(r reader.ByteReader, opts ...option.Option) (*File, error) {
	return OpenWithParser(NewParser(), r, opts...)
}

// OpenPath opens path as a local file and parses it, closing the
// underlying file handle before returning (whether or not parsing
// succeeded).
func OpenPath(path string, opts ...option.Option) (*File, error) {
	r, err := reader.FromFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := Open(r, opts...)
	if err != nil {
		return nil, err
	}
	f.SourcePath = path
	return f, nil
}

// OpenWithParser parses r into a File, observing p's abort flag between
// every section decode.
func OpenWithParser(p *Parser, r reader.ByteReader, opts ...option.Option) (*File, error) {
	if r == nil {
		return nil, pferrors.New(pferrors.InvalidArgument, "reader must not be nil")
	}

	options := option.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	log := options.Logger

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	size := r.Size()
	if size < int64(header.Size) {
		return nil, pferrors.New(pferrors.ShortInput, "file of %d bytes is too small to hold a header", size)
	}

	headerBuf := make([]byte, header.Size)
	if _, err := r.ReadAt(headerBuf, 0); err != nil {
		return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read header")
	}

	hdr, err := header.Decode(headerBuf, log)
	if err != nil {
		return nil, err
	}

	f := &File{
		formatVersion:      hdr.FormatVersion,
		fileSizeDeclared:   hdr.FileSize,
		prefetchHash:       hdr.PrefetchHash,
		executableFilename: hdr.ExecutableFilename,
	}

	if int64(hdr.FileSize) != size {
		msg := sizeMismatchMessage(hdr.FileSize, size)
		f.warnings = append(f.warnings, Warning{Kind: pferrors.SizeMismatch, Message: msg})
		log.Warn(pferrors.SizeMismatch, msg, "declared_size", hdr.FileSize, "actual_size", size)
	}

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	fiSize, err := fileinfo.Size(hdr.FormatVersion)
	if err != nil {
		return nil, err
	}
	fiBuf := make([]byte, fiSize)
	if _, err := r.ReadAt(fiBuf, int64(header.Size)); err != nil {
		return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read file-information block")
	}
	fi, err := fileinfo.Decode(fiBuf, hdr.FormatVersion, hdr.FileSize, uint32(header.Size), log)
	if err != nil {
		return nil, err
	}
	f.runCount = fi.RunCount
	f.lastRunTimes = fi.LastRunTimes

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	if fi.NumberOfMetricsEntries > 0 && fi.MetricsArrayOffset != 0 {
		entrySize, err := metrics.EntrySize(hdr.FormatVersion)
		if err != nil {
			return nil, err
		}
		needed := int64(fi.NumberOfMetricsEntries) * int64(entrySize)
		if int64(fi.MetricsArrayOffset)+needed > int64(hdr.FileSize) {
			return nil, pferrors.New(pferrors.OffsetOutOfBounds, "metrics array [%d, %d) escapes file size %d", fi.MetricsArrayOffset, int64(fi.MetricsArrayOffset)+needed, hdr.FileSize)
		}
		buf := make([]byte, needed)
		if _, err := r.ReadAt(buf, int64(fi.MetricsArrayOffset)); err != nil {
			return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read metrics array")
		}
		entries, err := metrics.Decode(buf, fi.NumberOfMetricsEntries, hdr.FormatVersion, log)
		if err != nil {
			return nil, err
		}
		f.metricsEntries = entries
	}

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	if fi.NumberOfTraceChainEntries > 0 && fi.TraceChainArrayOffset != 0 {
		needed := int64(fi.NumberOfTraceChainEntries) * int64(tracechain.EntrySize)
		if int64(fi.TraceChainArrayOffset)+needed > int64(hdr.FileSize) {
			return nil, pferrors.New(pferrors.OffsetOutOfBounds, "trace chain array [%d, %d) escapes file size %d", fi.TraceChainArrayOffset, int64(fi.TraceChainArrayOffset)+needed, hdr.FileSize)
		}
		buf := make([]byte, needed)
		if _, err := r.ReadAt(buf, int64(fi.TraceChainArrayOffset)); err != nil {
			return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read trace chain array")
		}
		entries, err := tracechain.Decode(buf, fi.NumberOfTraceChainEntries, log)
		if err != nil {
			return nil, err
		}
		f.traceChainEntries = entries
	}

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	if fi.FilenameStringsSize > 0 && fi.FilenameStringsOffset != 0 {
		buf := make([]byte, fi.FilenameStringsSize)
		if _, err := r.ReadAt(buf, int64(fi.FilenameStringsOffset)); err != nil {
			return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read filename strings table")
		}
		entries, err := strtable.Parse(buf)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Value
		}
		f.filenames = names
	}

	if err := p.checkAborted(); err != nil {
		return nil, err
	}

	if fi.NumberOfVolumes > 0 && fi.VolumesInformationOffset != 0 {
		buf := make([]byte, fi.VolumesInformationSize)
		if _, err := r.ReadAt(buf, int64(fi.VolumesInformationOffset)); err != nil {
			return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to read volumes information block")
		}
		vols, err := volume.Decode(buf, fi.NumberOfVolumes, hdr.FormatVersion, log)
		if err != nil {
			return nil, err
		}
		f.volumes = vols
		for _, v := range vols {
			if v.DirectoryStringCountMismatch {
				msg := "declared number_of_directory_strings disagreed with the decoded directory-strings count for volume " + v.DevicePath
				f.warnings = append(f.warnings, Warning{Kind: pferrors.InconsistentCounts, Message: msg})
				log.Warn(pferrors.InconsistentCounts, msg, "device_path", v.DevicePath)
			}
		}
	}

	// StrictCounts only promotes a declared/decoded count disagreement; a
	// file_size/actual-size mismatch is never fatal, per spec.md §4.2/§7.
	if len(f.warnings) > 0 && options.StrictCounts {
		for _, w := range f.warnings {
			if w.Kind == pferrors.InconsistentCounts {
				return nil, pferrors.New(pferrors.InconsistentCounts, "%s", w.Message)
			}
		}
	}

	log.Debug("parsed prefetch file", "format_version", f.formatVersion, "executable_filename", f.executableFilename,
		"filenames_count", len(f.filenames), "volumes_count", len(f.volumes))

	return f, nil
}

func sizeMismatchMessage(declared uint32, actual int64) string {
	return fmt.Sprintf("header declares file_size=%d but reader reports %d bytes", declared, actual)
}
