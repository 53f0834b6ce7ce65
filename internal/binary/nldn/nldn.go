// Package nldn decodes the binary lightning stroke feed. A feed is a run of
// blocks, each opened by the "NLDN" magic and a header length, followed by
// fixed 28 byte stroke records.
package nldn

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"nws_parser/internal/nws"
)

// Magic opens every block.
var Magic = []byte("NLDN")

// RecordSize is the length of one stroke record.
const RecordSize = 28

// Stroke types.
const (
	CloudToGround = "CG"
	InCloud       = "IC"
)

// Stroke is one located discharge. Amplitude is in kA; its sign is the
// polarity.
type Stroke struct {
	Valid        time.Time `json:"valid"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Amplitude    float64   `json:"signal"`
	Polarity     string    `json:"polarity"`
	Multiplicity int       `json:"multiplicity"`
	Type         string    `json:"type"`
	EllipseKm    float64   `json:"axis_km"`
}

// Scanner reads strokes one at a time.
type Scanner struct {
	r      *bufio.Reader
	rec    [RecordSize]byte
	cur    Stroke
	blocks int
	err    error
	warn   nws.Warnings
}

// NewScanner creates a new stroke scanner.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next stroke.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for {
		head, err := s.r.Peek(len(Magic))
		if len(head) < len(Magic) {
			if len(head) > 0 {
				s.warn.Add(nws.ErrOutOfBounds, "nldn stream ends with a %d byte partial record", len(head))
			}
			if err != nil && err != io.EOF {
				s.err = err
			}
			return false
		}
		if bytes.Equal(head, Magic) {
			if err := s.readHeader(); err != nil {
				s.err = err
				return false
			}
			continue
		}
		if s.blocks == 0 {
			s.err = fmt.Errorf("%w: nldn stream does not start with magic", nws.ErrInvalidEnvelope)
			return false
		}
		n, err := io.ReadFull(s.r, s.rec[:])
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			if n > 0 {
				s.warn.Add(nws.ErrOutOfBounds, "nldn stream ends with a %d byte partial record", n)
			}
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		st, ok := s.decode()
		if !ok {
			continue
		}
		s.cur = st
		return true
	}
}

// readHeader consumes the magic, the header length and the rest of the
// header.
func (s *Scanner) readHeader() error {
	var hdr [8]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		return fmt.Errorf("%w: nldn header: %v", nws.ErrInvalidEnvelope, err)
	}
	size := int(binary.BigEndian.Uint32(hdr[4:8]))
	if size < len(hdr) {
		return fmt.Errorf("%w: nldn header length %d", nws.ErrInvalidEnvelope, size)
	}
	if _, err := s.r.Discard(size - len(hdr)); err != nil {
		return fmt.Errorf("%w: nldn header: %v", nws.ErrInvalidEnvelope, err)
	}
	s.blocks++
	return nil
}

func (s *Scanner) decode() (Stroke, bool) {
	b := s.rec[:]
	sec := int64(binary.BigEndian.Uint32(b[0:4]))
	nsec := int64(binary.BigEndian.Uint32(b[4:8]))
	lat := float64(int32(binary.BigEndian.Uint32(b[8:12]))) / 1000
	lon := float64(int32(binary.BigEndian.Uint32(b[12:16]))) / 1000
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		s.warn.Add(nws.ErrOutOfBounds, "nldn stroke at %.3f %.3f", lat, lon)
		return Stroke{}, false
	}
	st := Stroke{
		Valid:        time.Unix(sec, nsec).UTC(),
		Lat:          lat,
		Lon:          lon,
		Amplitude:    float64(int16(binary.BigEndian.Uint16(b[18:20]))) / 10,
		Multiplicity: int(b[21]),
		Type:         CloudToGround,
		EllipseKm:    float64(b[23]) / 10,
	}
	st.Polarity = "+"
	if st.Amplitude < 0 {
		st.Polarity = "-"
	}
	if b[22] == 1 {
		st.Type = InCloud
	}
	return st, true
}

// Stroke returns the stroke read by the last Scan.
func (s *Scanner) Stroke() Stroke { return s.cur }

// Err returns the first fatal error.
func (s *Scanner) Err() error { return s.err }

// Warnings returns records skipped so far.
func (s *Scanner) Warnings() nws.Warnings { return s.warn }

// Decode reads every stroke of r.
func Decode(r io.Reader) ([]Stroke, nws.Warnings, error) {
	s := NewScanner(r)
	var out []Stroke
	for s.Scan() {
		out = append(out, s.Stroke())
	}
	return out, s.Warnings(), s.Err()
}
