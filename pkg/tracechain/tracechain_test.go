package tracechain

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeZeroCountIsEmpty(t *testing.T) {
	entries, err := Decode(nil, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestDecodeTerminalSentinel(t *testing.T) {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], Terminal)
	binary.LittleEndian.PutUint32(buf[4:8], 3)

	entries, err := Decode(buf, 1, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsTerminal())
	require.Equal(t, uint32(3), entries[0].BlockLoadCount)
}

func TestDecodeNonTerminalIsNotSentinel(t *testing.T) {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], 2)

	entries, err := Decode(buf, 1, nil)
	require.NoError(t, err)
	require.False(t, entries[0].IsTerminal())
	require.Equal(t, uint32(2), entries[0].NextTableIndex)
}

func TestDecodeShortInput(t *testing.T) {
	_, err := Decode(make([]byte, 4), 1, nil)
	require.Error(t, err)
}
