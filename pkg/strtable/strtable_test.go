package strtable

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestParseTwoFilenames(t *testing.T) {
	var data []byte
	data = append(data, encodeUTF16LE(`\DEVICE\X.DLL`)...)
	data = append(data, 0x00, 0x00)
	data = append(data, encodeUTF16LE(`\DEVICE\Y.DLL`)...)
	data = append(data, 0x00, 0x00)

	entries, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, `\DEVICE\X.DLL`, entries[0].Value)
	require.Equal(t, `\DEVICE\Y.DLL`, entries[1].Value)
}

func TestParseDropsTrailingEmptyEntry(t *testing.T) {
	var data []byte
	data = append(data, encodeUTF16LE("A")...)
	data = append(data, 0x00, 0x00)
	// A second, empty string caused by a final separator.
	data = append(data, 0x00, 0x00)

	entries, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "A", entries[0].Value)
}

func TestParseEmptyRegion(t *testing.T) {
	entries, err := Parse(nil)
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestParseOddLengthIsMalformed(t *testing.T) {
	_, err := Parse([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestDecodeFixedStopsAtNUL(t *testing.T) {
	data := make([]byte, 60)
	copy(data, encodeUTF16LE("A.EXE"))
	name, err := DecodeFixed(data)
	require.NoError(t, err)
	require.Equal(t, "A.EXE", name)
}
