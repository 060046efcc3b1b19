// Package reader provides concrete ByteReader adapters. The core decoder
// only depends on the ByteReader interface (spec.md §1's external byte
// source contract); this package supplies ready-to-use implementations
// backed by a local file, an io.ReaderAt, or an in-memory buffer.
package reader

import (
	"bytes"
	"io"
	"os"

	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// ByteReader is a random-access byte source. Implementations must be safe
// for the decoder's exclusive use for the duration of a single parse; the
// core never issues concurrent reads on the same ByteReader (spec.md §5).
type ByteReader interface {
	// Size reports the total number of bytes available.
	Size() int64
	// ReadAt reads len(buf) bytes starting at off, like io.ReaderAt.
	ReadAt(buf []byte, off int64) (int, error)
	// IsOpen reports whether the reader is still usable.
	IsOpen() bool
	// Close releases any underlying resource.
	Close() error
}

// fileReader wraps *os.File.
type fileReader struct {
	f    *os.File
	size int64
	open bool
}

// FromFile opens path read-only and wraps it as a ByteReader.
func FromFile(path string) (ByteReader, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, pferrors.Wrap(pferrors.ReadFailed, err, "failed to stat %s", path)
	}
	return &fileReader{f: f, size: info.Size(), open: true}, nil
}

func (r *fileReader) Size() int64 { return r.size }

func (r *fileReader) ReadAt(buf []byte, off int64) (int, error) {
	if !r.open {
		return 0, pferrors.New(pferrors.ReadFailed, "reader is closed")
	}
	return r.f.ReadAt(buf, off)
}

func (r *fileReader) IsOpen() bool { return r.open }

func (r *fileReader) Close() error {
	if !r.open {
		return nil
	}
	r.open = false
	return r.f.Close()
}

// readerAtWrapper wraps an arbitrary io.ReaderAt whose total size is known
// up front (remote blob clients, already-open handles the caller owns).
type readerAtWrapper struct {
	ra   io.ReaderAt
	size int64
	open bool
}

// FromReaderAt wraps ra, reporting size as its total length. The caller
// retains ownership of ra; Close is a no-op beyond marking the wrapper
// closed.
func FromReaderAt(ra io.ReaderAt, size int64) ByteReader {
	return &readerAtWrapper{ra: ra, size: size, open: true}
}

func (r *readerAtWrapper) Size() int64 { return r.size }

func (r *readerAtWrapper) ReadAt(buf []byte, off int64) (int, error) {
	if !r.open {
		return 0, pferrors.New(pferrors.ReadFailed, "reader is closed")
	}
	return r.ra.ReadAt(buf, off)
}

func (r *readerAtWrapper) IsOpen() bool { return r.open }

func (r *readerAtWrapper) Close() error {
	r.open = false
	return nil
}

// FromBytes wraps an in-memory buffer, used heavily by tests and for
// sources the caller has already fully buffered.
func FromBytes(b []byte) ByteReader {
	return FromReaderAt(bytes.NewReader(b), int64(len(b)))
}
