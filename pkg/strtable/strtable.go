// Package strtable decodes the UTF-16LE, NUL-separated string tables used
// by the filename-strings section and a volume's directory-strings array.
package strtable

import (
	"unicode/utf16"

	"github.com/bgrewell/prefetch-kit/pkg/pferrors"
)

// Entry is one decoded string together with the byte offset (relative to
// the start of the region handed to Parse) at which it began.
type Entry struct {
	StartOffset int
	CharCount   int
	Value       string
}

// Parse decodes a contiguous region of concatenated UTF-16LE strings, each
// terminated by a single NUL code unit (two NUL bytes). A trailing empty
// string caused by a final separator is omitted, per the "drop the
// trailing empty entry" design decision.
func Parse(data []byte) ([]Entry, error) {
	if len(data)%2 != 0 {
		return nil, pferrors.New(pferrors.MalformedStringTable, "string table region has odd length %d", len(data))
	}

	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}

	var entries []Entry
	start := 0
	for i, u := range units {
		if u != 0 {
			continue
		}
		runes := utf16.Decode(units[start:i])
		entries = append(entries, Entry{
			StartOffset: start * 2,
			CharCount:   i - start,
			Value:       string(runes),
		})
		start = i + 1
	}

	// A region with no terminating NUL leaves a trailing run; a non-empty
	// unterminated trailing run is still surfaced.
	if start < len(units) {
		runes := utf16.Decode(units[start:])
		if len(runes) > 0 {
			entries = append(entries, Entry{
				StartOffset: start * 2,
				CharCount:   len(units) - start,
				Value:       string(runes),
			})
		}
	}

	// Empty entries produced by final separators are dropped.
	for len(entries) > 0 && entries[len(entries)-1].CharCount == 0 {
		entries = entries[:len(entries)-1]
	}

	return entries, nil
}

// DecodeFixed decodes a fixed-width NUL-padded UTF-16LE field (used by the
// file header's executable filename), stopping at the first NUL code unit.
func DecodeFixed(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", pferrors.New(pferrors.MalformedStringTable, "fixed string field has odd length %d", len(data))
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units)), nil
}
