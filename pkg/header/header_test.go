package header

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func encodeUTF16LEPadded(s string, byteLen int) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, byteLen)
	for i, u := range units {
		if i*2+1 >= byteLen {
			break
		}
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

func buildHeader(version uint32, signature string, fileSize uint32, name string, hash uint32) []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[0:4], version)
	copy(buf[4:8], signature)
	binary.LittleEndian.PutUint32(buf[12:16], fileSize)
	copy(buf[16:76], encodeUTF16LEPadded(name, 60))
	binary.LittleEndian.PutUint32(buf[76:80], hash)
	return buf
}

func TestDecodeMinimalV17(t *testing.T) {
	buf := buildHeader(17, Signature, 170, "A.EXE", 0xDEADBEEF)
	h, err := Decode(buf, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(17), h.FormatVersion)
	require.Equal(t, uint32(0xDEADBEEF), h.PrefetchHash)
	require.Equal(t, "A.EXE", h.ExecutableFilename)
	require.Equal(t, uint32(170), h.FileSize)
}

func TestDecodeBadSignature(t *testing.T) {
	buf := buildHeader(17, "ABCD", 170, "A.EXE", 1)
	_, err := Decode(buf, nil)
	require.Error(t, err)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := buildHeader(30, Signature, 170, "A.EXE", 1)
	_, err := Decode(buf, nil)
	require.Error(t, err)
}

func TestDecodeShortInput(t *testing.T) {
	_, err := Decode(make([]byte, 10), nil)
	require.Error(t, err)
}
