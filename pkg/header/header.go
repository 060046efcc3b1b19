// Package header decodes the fixed 84-byte Prefetch file header.
package header

import (
	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
	"github.com/bgrewell/prefetch-kit/pkg/strtable"
)

// Size is the fixed on-disk size of the header.
const Size = 84

// Signature is the expected 4-byte magic at offset 4.
const Signature = "SCCA"

// supportedVersions enumerates the format versions this decoder understands.
var supportedVersions = map[uint32]bool{17: true, 23: true, 26: true}

// Header is the decoded fixed 84-byte file header.
type Header struct {
	FormatVersion       uint32
	FileSize            uint32
	ExecutableFilename  string
	PrefetchHash        uint32
	unknown1            uint32 // offset 8, 4 bytes
	unknown2            uint32 // offset 80, 4 bytes
}

// Unknown1 exposes the reserved field at offset 8, preserved opaquely so
// downstream tooling can be extended without revising the core.
func (h Header) Unknown1() uint32 { return h.unknown1 }

// Unknown2 exposes the reserved field at offset 80.
func (h Header) Unknown2() uint32 { return h.unknown2 }

// Decode reads exactly Size bytes from data (which must already contain
// bytes [0, Size) of the file) and validates the signature and format
// version.
func Decode(data []byte, log *logging.Logger) (Header, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}
	if len(data) < Size {
		return Header{}, pferrors.New(pferrors.ShortInput, "header requires %d bytes, got %d", Size, len(data))
	}

	formatVersion, err := binutil.Uint32(data, 0)
	if err != nil {
		return Header{}, err
	}

	sig := string(data[4:8])
	if sig != Signature {
		return Header{}, pferrors.New(pferrors.InvalidSignature, "expected signature %q, got %q", Signature, sig)
	}

	if !supportedVersions[formatVersion] {
		return Header{}, pferrors.New(pferrors.UnsupportedVersion, "format_version %d is not one of 17, 23, 26", formatVersion)
	}

	unknown1, err := binutil.Uint32(data, 8)
	if err != nil {
		return Header{}, err
	}

	fileSize, err := binutil.Uint32(data, 12)
	if err != nil {
		return Header{}, err
	}

	name, err := strtable.DecodeFixed(data[16:76])
	if err != nil {
		return Header{}, pferrors.Wrap(pferrors.MalformedStringTable, err, "failed to decode executable_filename")
	}

	prefetchHash, err := binutil.Uint32(data, 76)
	if err != nil {
		return Header{}, err
	}

	unknown2, err := binutil.Uint32(data, 80)
	if err != nil {
		return Header{}, err
	}

	log.Trace("decoded header", "format_version", formatVersion, "file_size", fileSize, "executable_filename", name, "prefetch_hash", prefetchHash)

	return Header{
		FormatVersion:      formatVersion,
		FileSize:           fileSize,
		ExecutableFilename: name,
		PrefetchHash:       prefetchHash,
		unknown1:           unknown1,
		unknown2:           unknown2,
	}, nil
}
