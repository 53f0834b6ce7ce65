// Package gini decodes GINI satellite images as broadcast over NOAAPort: a
// WMO heading followed by a product definition block and raster lines,
// usually split across consecutive zlib streams.
package gini

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"nws_parser/internal/nws"
)

const (
	// WMOPrefixSize is the "TIGE01 KNES 101200\r\r\n" heading.
	WMOPrefixSize = 21
	// BlockSize is the physical size of the product definition block.
	BlockSize     = 512
	// HeaderSize is the part of the block that carries fields.
	HeaderSize    = 80
)

var wmoRe = regexp.MustCompile(`^[A-Z]{4}[0-9]{2} [A-Z]{4} [0-9]{6}`)

// Projection codes of the product definition block.
const (
	ProjMercator    = 1
	ProjLambert     = 3
	ProjPolarStereo = 5
)

// Header holds the product definition block fields.
type Header struct {
	WMO        string    `json:"wmo"`
	Source     int       `json:"source"`
	Creator    int       `json:"creating_entity"`
	Sector     int       `json:"sector"`
	Channel    int       `json:"channel"`
	NumLines   int       `json:"num_lines"`
	LineSize   int       `json:"line_size"`
	Valid      time.Time `json:"valid"`
	Projection int       `json:"projection"`
	Nx         int       `json:"nx"`
	Ny         int       `json:"ny"`
	Lat1       float64   `json:"lat1"`
	Lon1       float64   `json:"lon1"`
	Lov        float64   `json:"lov"`
	Dx         float64   `json:"dx_km"`
	Dy         float64   `json:"dy_km"`
	ScanMode   int       `json:"scan_mode"`
	Resolution int       `json:"resolution"`
	Compressed bool      `json:"compressed"`
}

// Image is a decoded GINI product.
type Image struct {
	Header   Header       `json:"header"`
	Lines    [][]byte     `json:"-"`
	Warnings nws.Warnings `json:"warnings,omitempty"`
}

// Pixel returns the raw count at column x of line y.
func (im *Image) Pixel(x, y int) (byte, bool) {
	if y < 0 || y >= len(im.Lines) || x < 0 || x >= len(im.Lines[y]) {
		return 0, false
	}
	return im.Lines[y][x], true
}

// Decode reads one GINI product, unwrapping gzip when present.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gini: %w", err)
	}
	if len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gunzip gini: %w", err)
		}
		data, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("gunzip gini: %w", err)
		}
	}
	if len(data) < WMOPrefixSize || !wmoRe.Match(data) {
		return nil, fmt.Errorf("%w: gini without WMO heading", nws.ErrInvalidEnvelope)
	}
	im := &Image{}
	im.Header.WMO = string(bytes.TrimSpace(data[:WMOPrefixSize]))

	payload := data[WMOPrefixSize:]
	if isZlib(payload) {
		im.Header.Compressed = true
		payload, err = inflate(payload, &im.Warnings)
		if err != nil {
			return nil, err
		}
		// The first stream repeats the heading.
		if len(payload) >= WMOPrefixSize && wmoRe.Match(payload) {
			payload = payload[WMOPrefixSize:]
		}
	}
	if len(payload) < BlockSize {
		return nil, fmt.Errorf("%w: gini product definition block is %d bytes", nws.ErrInvalidEnvelope, len(payload))
	}
	if err := im.Header.decode(payload[:HeaderSize]); err != nil {
		return nil, err
	}
	im.readLines(payload[BlockSize:])
	return im, nil
}

func isZlib(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x78 && b[1] == 0xDA
}

// inflate decompresses consecutive zlib streams. Bytes after the last
// stream that do not start another one are dropped with a warning.
func inflate(data []byte, ws *nws.Warnings) ([]byte, error) {
	var out bytes.Buffer
	br := bytes.NewReader(data)
	for chunk := 0; br.Len() > 0; chunk++ {
		pos := len(data) - br.Len()
		if !isZlib(data[pos:]) {
			ws.Add(nws.ErrOutOfBounds, "%d trailing bytes after zlib chunk %d", br.Len(), chunk)
			break
		}
		zr, err := zlib.NewReader(br)
		if err == nil {
			_, err = io.Copy(&out, zr)
			zr.Close()
		}
		if err != nil {
			if chunk == 0 {
				return nil, fmt.Errorf("%w: gini inflate: %v", nws.ErrInvalidEnvelope, err)
			}
			ws.Add(nws.ErrOutOfBounds, "zlib chunk %d: %v", chunk, err)
			break
		}
	}
	return out.Bytes(), nil
}

func (h *Header) decode(b []byte) error {
	h.Source = int(b[0])
	h.Creator = int(b[1])
	h.Sector = int(b[2])
	h.Channel = int(b[3])
	h.NumLines = int(binary.BigEndian.Uint16(b[4:6]))
	h.LineSize = int(binary.BigEndian.Uint16(b[6:8]))
	year := 1900 + int(b[8])
	if year < 1970 {
		year += 100
	}
	h.Valid = time.Date(year, time.Month(b[9]), int(b[10]), int(b[11]), int(b[12]), int(b[13]),
		int(b[14])*10*int(time.Millisecond), time.UTC)
	if b[9] < 1 || b[9] > 12 || b[10] < 1 || b[10] > 31 || b[11] > 23 || b[12] > 59 {
		return fmt.Errorf("%w: gini time %d-%d-%d %d:%d", nws.ErrInvalidTimestamp, year, b[9], b[10], b[11], b[12])
	}
	h.Projection = int(b[15])
	h.Nx = int(binary.BigEndian.Uint16(b[16:18]))
	h.Ny = int(binary.BigEndian.Uint16(b[18:20]))
	h.Lat1 = coord(b[20:23])
	h.Lon1 = coord(b[23:26])
	h.Lov = coord(b[30:33])
	h.Dx = float64(uint24(b[33:36])) / 10
	h.Dy = float64(uint24(b[36:39])) / 10
	h.ScanMode = int(b[40])
	h.Resolution = int(b[41])
	if h.LineSize == 0 {
		h.LineSize = h.Nx
	}
	return nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// coord decodes a 3 byte sign-magnitude value in ten-thousandths of a
// degree.
func coord(b []byte) float64 {
	v := float64(uint24(b)&0x7FFFFF) / 10000
	if b[0]&0x80 != 0 {
		v = -v
	}
	return v
}

func (im *Image) readLines(raster []byte) {
	h := im.Header
	if h.LineSize <= 0 {
		im.Warnings.Add(nws.ErrOutOfBounds, "gini line size is zero")
		return
	}
	n := len(raster) / h.LineSize
	if n > h.NumLines {
		n = h.NumLines
	}
	if n < h.NumLines {
		im.Warnings.Add(nws.ErrOutOfBounds, "gini has %d of %d lines", n, h.NumLines)
	}
	if extra := len(raster) - n*h.LineSize; extra > 0 && n == h.NumLines {
		im.Warnings.Add(nws.ErrOutOfBounds, "gini has %d bytes after the last line", extra)
	}
	im.Lines = make([][]byte, n)
	for i := 0; i < n; i++ {
		im.Lines[i] = raster[i*h.LineSize : (i+1)*h.LineSize]
	}
}
