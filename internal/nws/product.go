// Package nws decodes the universal envelope of NWS text products: the WMO
// heading, AFOS PIL, MND issuance line and the $$ delimited segments with
// their UGC, VTEC, polygon and tag content.
package nws

import (
	"fmt"
	"strings"
	"time"

	"nws_parser/internal/geo"
	"nws_parser/internal/patterns"
)

// Options carries everything outside the product bytes that decoding
// depends on. The zero value decodes against the wall clock with no
// reference tables.
type Options struct {
	// Now anchors month/year resolution of DDHHMM stamps and future checks.
	Now time.Time

	// Valid, when set, overrides the decoded issuance time.
	Valid *time.Time

	Stations geo.StationResolver
	UGCs     geo.UGCResolver

	// WindAlerts suppresses repeated METAR wind alerts. Nil emits every
	// alert.
	WindAlerts Deduper
}

// Deduper reports whether a key was already seen, recording it if not.
// Implementations must be safe for concurrent use.
type Deduper interface {
	Seen(key string) bool
}

// NowUTC returns the anchor, defaulting to the current time.
func (o Options) NowUTC() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

// maxFutureSkew is how far beyond the anchor a timestamp may fall before
// it is flagged as future.
const maxFutureSkew = time.Hour

// maxAnchorDrift bounds the distance between an MND stamp and the anchor.
const maxAnchorDrift = 25 * 24 * time.Hour

// TextProduct is a decoded product envelope with its segments.
type TextProduct struct {
	WMO          WMOHeader      `json:"wmo"`
	AFOS         string         `json:"afos,omitempty"`
	Valid        time.Time      `json:"valid"`
	WMOValid     time.Time      `json:"wmo_valid"`
	TZ           *time.Location `json:"-"`
	TZAbbr       string         `json:"tzabbr,omitempty"`
	IsCorrection bool           `json:"is_correction"`
	Raw          string         `json:"-"`
	Text         string         `json:"text"`
	Segments     []Segment      `json:"segments"`
	Warnings     Warnings       `json:"warnings,omitempty"`

	// now is retained for family decoders that apply future checks.
	now         time.Time
	localOffset time.Duration
}

// Parse decodes the envelope and segments of one product. Only a missing
// or malformed WMO heading is fatal.
func Parse(raw []byte, opts Options) (*TextProduct, error) {
	return ParseString(string(raw), opts)
}

// ParseString is Parse for text already held as a string.
func ParseString(raw string, opts Options) (*TextProduct, error) {
	now := opts.NowUTC()
	text := patterns.NormalizeText(raw)

	wmo, end, err := ParseWMOHeader(text)
	if err != nil {
		return nil, err
	}
	p := &TextProduct{
		WMO:          wmo,
		IsCorrection: wmo.BBB != "",
		Raw:          raw,
		Text:         text,
		now:          now,
	}

	p.AFOS = findAFOS(text[end:])

	wmoValid, err := ResolveDDHHMM(wmo.DDHHMM, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	p.WMOValid = wmoValid
	p.Valid = wmoValid

	mnd, err := ParseMND(text)
	switch {
	case err != nil:
		p.Warnings = append(p.Warnings, AsWarning(err))
	case mnd != nil:
		p.TZ = mnd.Loc
		p.TZAbbr = mnd.TZAbbr
		_, off := mnd.Local.Zone()
		p.localOffset = time.Duration(off) * time.Second
		drift := mnd.UTC.Sub(now)
		if drift < 0 {
			drift = -drift
		}
		if drift > maxAnchorDrift {
			p.Warnings.Add(ErrInvalidTimestamp, "MND time %s is %s from now", mnd.UTC.Format(time.RFC3339), drift.Round(time.Hour))
		} else {
			p.Valid = mnd.UTC
		}
	}
	if opts.Valid != nil {
		p.Valid = opts.Valid.UTC()
	}
	if p.Valid.Sub(now) > maxFutureSkew {
		p.Warnings.Add(ErrFutureTimestamp, "product valid %s is after %s", p.Valid.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	p.Segments = p.splitSegments()
	if opts.UGCs != nil {
		p.checkUGCs(opts.UGCs)
	}
	return p, nil
}

// checkUGCs warns about codes absent from the reference table.
func (p *TextProduct) checkUGCs(r geo.UGCResolver) {
	source := geo.SourceForProduct(p.AFOS)
	seen := map[UGC]bool{}
	for i := range p.Segments {
		for _, u := range p.Segments[i].UGCs {
			if seen[u] {
				continue
			}
			seen[u] = true
			if _, ok := r.UGC(u.String(), p.Valid, source); !ok {
				p.Warn(ErrUnknownCode, "ugc %s not in reference table", u)
			}
		}
	}
}

// findAFOS returns the PIL from the line following the WMO heading.
func findAFOS(rest string) string {
	for i, line := range strings.Split(rest, "\n") {
		if i > 2 {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if patterns.AFOSPattern.MatchString(line) {
			return line
		}
		return ""
	}
	return ""
}

func (p *TextProduct) splitSegments() []Segment {
	parts := strings.Split(p.Text, "$$")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if len(segs) > 0 && len(strings.TrimSpace(part)) < 10 {
			continue
		}
		seg, ws := parseSegment(len(segs), part, p.Valid, p.TZ)
		p.Warnings = append(p.Warnings, ws...)
		segs = append(segs, seg)
	}
	return segs
}

// Now returns the anchor the product was decoded with.
func (p *TextProduct) Now() time.Time { return p.now }

// Source returns the issuing center, e.g. KDMX.
func (p *TextProduct) Source() string { return p.WMO.CCCC }

// WFO is the three character office: from the PIL when it carries one,
// else the CCCC without its leading letter.
func (p *TextProduct) WFO() string {
	if len(p.AFOS) == 6 {
		return p.AFOS[3:]
	}
	if len(p.WMO.CCCC) == 4 {
		return p.WMO.CCCC[1:]
	}
	return p.WMO.CCCC
}

// Category is the first three characters of the PIL.
func (p *TextProduct) Category() string {
	if len(p.AFOS) < 3 {
		return ""
	}
	return p.AFOS[:3]
}

// ProductID renders YYYYMMDDHHMM-CCCC-TTAAII-AFOS[-BBB].
func (p *TextProduct) ProductID() string {
	id := fmt.Sprintf("%s-%s-%s-%s", p.Valid.UTC().Format("200601021504"), p.WMO.CCCC, p.WMO.TTAAII, p.AFOS)
	if p.WMO.BBB != "" {
		id += "-" + p.WMO.BBB
	}
	return id
}

// Localize renders t in the product timezone, falling back to UTC.
func (p *TextProduct) Localize(t time.Time) time.Time {
	if p.TZ == nil {
		return t.UTC()
	}
	return t.In(p.TZ)
}

// LocalOffset is the fixed UTC offset written in the MND line, used when
// interpreting wall-clock times inside the product body.
func (p *TextProduct) LocalOffset() time.Duration { return p.localOffset }

// Warn appends a warning to the product.
func (p *TextProduct) Warn(kind error, format string, args ...any) {
	p.Warnings.Add(kind, format, args...)
}

// AddWarning appends an error converted with AsWarning.
func (p *TextProduct) AddWarning(err error) {
	p.Warnings = append(p.Warnings, AsWarning(err))
}

// HasVTEC reports whether any segment carries VTEC.
func (p *TextProduct) HasVTEC() bool {
	for i := range p.Segments {
		if len(p.Segments[i].VTEC) > 0 {
			return true
		}
	}
	return false
}

// Body returns the text after the header block (WMO, PIL and blank
// lines), which family decoders scan for their grammar.
func (p *TextProduct) Body() string {
	_, end, err := ParseWMOHeader(p.Text)
	if err != nil {
		return p.Text
	}
	rest := strings.TrimLeft(p.Text[end:], "\n")
	if p.AFOS != "" && strings.HasPrefix(strings.TrimSpace(firstLine(rest)), p.AFOS) {
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		} else {
			rest = ""
		}
	}
	return rest
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Render reproduces the product as NOAAPort framed bytes.
func (p *TextProduct) Render() []byte {
	return []byte(patterns.FrameLDM(0, p.Text))
}

// LocalZone is a fixed zone named after the MND abbreviation.
func (p *TextProduct) LocalZone() *time.Location {
	if p.TZAbbr == "" {
		return time.UTC
	}
	return time.FixedZone(p.TZAbbr, int(p.localOffset/time.Second))
}
