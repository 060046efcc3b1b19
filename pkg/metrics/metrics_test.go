package metrics

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeZeroCountIsEmpty(t *testing.T) {
	entries, err := Decode(nil, 0, 17, nil)
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestDecodeV17Entry(t *testing.T) {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], 100)
	binary.LittleEndian.PutUint32(buf[4:8], 50)
	entries, err := Decode(buf, 1, 17, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint32(100), entries[0].StartTimeMs)
	require.Equal(t, uint32(50), entries[0].DurationMs)
	require.Equal(t, uint64(0), entries[0].FileReference)
}

func TestDecodeV23EntryHasFileReference(t *testing.T) {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[24:32], 0x0001000000000042)
	entries, err := Decode(buf, 1, 23, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0001000000000042), entries[0].FileReference)
	require.Equal(t, uint64(0x42), MFTEntry(entries[0].FileReference))
	require.Equal(t, uint16(1), Sequence(entries[0].FileReference))
}

func TestDecodeShortInput(t *testing.T) {
	_, err := Decode(make([]byte, 5), 1, 17, nil)
	require.Error(t, err)
}
