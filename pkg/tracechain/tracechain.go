// Package tracechain walks the trace-chain array: a linked list of 512 KiB
// page-load descriptors ordered by load time. The decoder surfaces entries
// in file order and does not validate chain integrity (spec.md §4.5, §9)
// — cycles and dangling indices, if present on disk, are preserved as-is.
package tracechain

import (
	"github.com/bgrewell/prefetch-kit/pkg/binutil"
	"github.com/bgrewell/prefetch-kit/pkg/logging"
	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// EntrySize is the fixed on-disk size of a trace-chain entry.
const EntrySize = 12

// Terminal is the sentinel value of NextTableIndex marking end-of-chain.
// It must be surfaced as-is, never mistaken for a real index.
const Terminal = 0xFFFFFFFF

// Entry is one trace-chain record. The three small unknown/padding fields
// following BlockLoadCount (spec.md §3) occupy the final 4 bytes of the
// 12-byte record; they are preserved opaquely rather than discarded.
type Entry struct {
	NextTableIndex uint32
	BlockLoadCount uint32
	unknown0       uint8
	unknown1       uint8
	unknown2       uint16
}

// IsTerminal reports whether e ends its chain.
func (e Entry) IsTerminal() bool { return e.NextTableIndex == Terminal }

// Unknown returns the three small unknown/padding fields following
// BlockLoadCount, preserved opaquely.
func (e Entry) Unknown() (uint8, uint8, uint16) { return e.unknown0, e.unknown1, e.unknown2 }

// Decode reads count entries of EntrySize bytes from data, in file order.
func Decode(data []byte, count uint32, log *logging.Logger) ([]Entry, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}
	entries := make([]Entry, 0, count)
	if count == 0 {
		return entries, nil
	}

	needed := int(count) * EntrySize
	if len(data) < needed {
		return nil, pferrors.New(pferrors.ShortInput, "trace chain array requires %d bytes for %d entries, got %d", needed, count, len(data))
	}

	for i := uint32(0); i < count; i++ {
		base := int(i) * EntrySize
		next, err := binutil.Uint32(data, base+0)
		if err != nil {
			return nil, err
		}
		loadCount, err := binutil.Uint32(data, base+4)
		if err != nil {
			return nil, err
		}
		unknown2, err := binutil.Uint16(data, base+10)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			NextTableIndex: next,
			BlockLoadCount: loadCount,
			unknown0:       data[base+8],
			unknown1:       data[base+9],
			unknown2:       unknown2,
		})
	}

	log.Trace("decoded trace chain array", "count", len(entries))
	return entries, nil
}
