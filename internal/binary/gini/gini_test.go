package gini

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const heading = "TIGE01 KNES 101200\r\r\n"

func block(lines, size int) []byte {
	b := make([]byte, BlockSize)
	b[0], b[1], b[2], b[3] = 1, 18, 5, 3
	binary.BigEndian.PutUint16(b[4:6], uint16(lines))
	binary.BigEndian.PutUint16(b[6:8], uint16(size))
	b[8], b[9], b[10], b[11], b[12] = 123, 6, 10, 12, 15
	b[15] = ProjLambert
	binary.BigEndian.PutUint16(b[16:18], uint16(size))
	binary.BigEndian.PutUint16(b[18:20], uint16(lines))
	// 12.19N, 133.4588W
	copy(b[20:23], []byte{0x01, 0xDC, 0x2C})
	copy(b[23:26], []byte{0x94, 0x5D, 0x3C})
	copy(b[33:36], []byte{0x00, 0x00, 0x28})
	b[41] = 4
	return b
}

func raster(lines, size int) []byte {
	out := make([]byte, lines*size)
	for i := range out {
		out[i] = byte(i % 251)
	}
	return out
}

func deflate(t *testing.T, parts ...[]byte) []byte {
	t.Helper()
	var out bytes.Buffer
	for _, p := range parts {
		zw, err := zlib.NewWriterLevel(&out, zlib.BestCompression)
		require.NoError(t, err)
		_, err = zw.Write(p)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}
	return out.Bytes()
}

func TestDecodeCompressed(t *testing.T) {
	first := append([]byte(heading), block(4, 10)...)
	data := append([]byte(heading), deflate(t, first, raster(2, 10), raster(2, 10))...)
	data = append(data, []byte("junk")...)

	im, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	h := im.Header
	assert.Equal(t, "TIGE01 KNES 101200", h.WMO)
	assert.True(t, h.Compressed)
	assert.Equal(t, 18, h.Creator)
	assert.Equal(t, 3, h.Channel)
	assert.Equal(t, time.Date(2023, 6, 10, 12, 15, 0, 0, time.UTC), h.Valid)
	assert.Equal(t, ProjLambert, h.Projection)
	assert.InDelta(t, 12.19, h.Lat1, 1e-4)
	assert.InDelta(t, -133.4588, h.Lon1, 1e-4)
	assert.InDelta(t, 4.0, h.Dx, 1e-9)
	require.Len(t, im.Lines, 4)
	px, ok := im.Pixel(3, 2)
	assert.True(t, ok)
	assert.Equal(t, byte(3), px)
	assert.True(t, im.Warnings.Has(nws.ErrOutOfBounds))
}

func TestDecodeGzipUncompressed(t *testing.T) {
	plain := append([]byte(heading), block(3, 8)...)
	plain = append(plain, raster(2, 8)...)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	im, err := Decode(&buf)
	require.NoError(t, err)
	assert.False(t, im.Header.Compressed)
	assert.Len(t, im.Lines, 2)
	assert.True(t, im.Warnings.Has(nws.ErrOutOfBounds))
	_, ok := im.Pixel(8, 0)
	assert.False(t, ok)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no heading", bytes.Repeat([]byte{0}, 600)},
		{"short block", append([]byte(heading), make([]byte, 100)...)},
		{"bad zlib", append([]byte(heading), 0x78, 0xDA, 0x00, 0x01)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, nws.ErrInvalidEnvelope)
		})
	}
}
