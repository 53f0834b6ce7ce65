package nldn

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

func header(extra int) []byte {
	b := make([]byte, 8+extra)
	copy(b, Magic)
	binary.BigEndian.PutUint32(b[4:8], uint32(8+extra))
	return b
}

func record(sec int64, lat, lon float64, amp float64, kind byte) []byte {
	b := make([]byte, RecordSize)
	binary.BigEndian.PutUint32(b[0:4], uint32(sec))
	binary.BigEndian.PutUint32(b[4:8], 500000000)
	binary.BigEndian.PutUint32(b[8:12], uint32(int32(lat*1000)))
	binary.BigEndian.PutUint32(b[12:16], uint32(int32(lon*1000)))
	binary.BigEndian.PutUint16(b[18:20], uint16(int16(amp*10)))
	b[21] = 2
	b[22] = kind
	b[23] = 5
	return b
}

func TestDecode(t *testing.T) {
	t0 := time.Date(2023, 6, 10, 20, 0, 0, 0, time.UTC).Unix()
	var buf bytes.Buffer
	buf.Write(header(4))
	buf.Write(record(t0, 41.5, -93.5, -25.3, 0))
	buf.Write(record(t0+1, 95.0, -93.5, 10, 0))
	buf.Write(header(0))
	buf.Write(record(t0+2, 42.25, -92.125, 8.5, 1))
	buf.Write([]byte{1, 2, 3})

	strokes, warns, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, strokes, 2)

	first := strokes[0]
	assert.Equal(t, time.Date(2023, 6, 10, 20, 0, 0, 500000000, time.UTC), first.Valid)
	assert.InDelta(t, 41.5, first.Lat, 1e-9)
	assert.InDelta(t, -93.5, first.Lon, 1e-9)
	assert.InDelta(t, -25.3, first.Amplitude, 1e-9)
	assert.Equal(t, "-", first.Polarity)
	assert.Equal(t, CloudToGround, first.Type)
	assert.Equal(t, 2, first.Multiplicity)
	assert.InDelta(t, 0.5, first.EllipseKm, 1e-9)

	second := strokes[1]
	assert.Equal(t, InCloud, second.Type)
	assert.Equal(t, "+", second.Polarity)

	assert.Len(t, warns, 2)
	assert.True(t, warns.Has(nws.ErrOutOfBounds))
}

func TestDecodeWithoutMagic(t *testing.T) {
	_, _, err := Decode(bytes.NewReader(record(0, 0, 0, 0, 0)))
	assert.ErrorIs(t, err, nws.ErrInvalidEnvelope)
}
