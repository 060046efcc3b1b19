package fileinfo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeV17AllOffsetsZero(t *testing.T) {
	buf := make([]byte, 156)
	binary.LittleEndian.PutUint32(buf[36+8+8:], 1) // run_count at its v17 offset

	fi, err := Decode(buf, 17, 170, 84, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(0), fi.MetricsArrayOffset)
	require.Equal(t, uint32(0), fi.NumberOfVolumes)
	require.Len(t, fi.LastRunTimes, 1)
	require.Equal(t, uint32(1), fi.RunCount)
}

func TestDecodeV23HasEightLastRunTimes(t *testing.T) {
	buf := make([]byte, 224)
	fi, err := Decode(buf, 23, 1000, 84, nil)
	require.NoError(t, err)
	require.Len(t, fi.LastRunTimes, 8)
}

func TestDecodeOffsetOutOfBounds(t *testing.T) {
	buf := make([]byte, 156)
	binary.LittleEndian.PutUint32(buf[0:4], 50) // metrics_array_offset below header size 84
	_, err := Decode(buf, 17, 170, 84, nil)
	require.Error(t, err)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	_, err := Decode(make([]byte, 224), 99, 1000, 84, nil)
	require.Error(t, err)
}

func TestDecodeShortInput(t *testing.T) {
	_, err := Decode(make([]byte, 10), 17, 170, 84, nil)
	require.Error(t, err)
}
