// Package shef decodes Standard Hydrologic Exchange Format messages: the
// .A single station, .B multiple station and .E time series formats.
package shef

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Element is one decoded value.
type Element struct {
	Code
	Station          string     `json:"station"`
	BaseValid        time.Time  `json:"basevalid"`
	Valid            time.Time  `json:"valid"`
	StrValue         string     `json:"str_value"`
	NumValue         *float64   `json:"num_value"`
	UnitConvention   string     `json:"unit_convention"`
	Qualifier        string     `json:"qualifier,omitempty"`
	DataCreated      *time.Time `json:"data_created,omitempty"`
	Depth            *int       `json:"depth,omitempty"`
	VariableDuration string     `json:"dv_interval,omitempty"`
	Comment          string     `json:"comment,omitempty"`
	Format           string     `json:"format"`
	Revised          bool       `json:"revised,omitempty"`
}

// Result holds every element of a product.
type Result struct {
	*nws.TextProduct
	Elements []Element `json:"elements"`
}

func (r *Result) Type() string           { return "shef" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes products routed by PIL.
type Parser struct{}

// ContentParser claims any product carrying SHEF records.
type ContentParser struct{}

func init() {
	registry.Register(&Parser{})
	registry.Register(&ContentParser{})
}

func (p *Parser) Name() string { return "shef" }
func (p *Parser) Prefixes() []string {
	return []string{"RR", "HYD", "RTP", "RVA", "RVD", "OSO", "CRN", "HMD", "SHF"}
}
func (p *Parser) Priority() int { return 20 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return recordLineRe.MatchString(prod.Text)
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	return Decode(prod)
}

func (p *ContentParser) Name() string       { return "shef-content" }
func (p *ContentParser) Prefixes() []string { return nil }
func (p *ContentParser) Priority() int      { return 90 }

func (p *ContentParser) QuickCheck(prod *nws.TextProduct) bool {
	return recordLineRe.MatchString(prod.Text)
}

func (p *ContentParser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	return Decode(prod)
}

var (
	recordLineRe = regexp.MustCompile(`(?m)^\.[ABE]R?[0-9]{0,2}\s`)
	recordRe     = regexp.MustCompile(`^\.([ABE])(R)?([0-9]{1,2})?(?:\s|$)`)
)

type record struct {
	format  byte
	revised bool
	header  string
	body    []string
}

// Decode extracts every SHEF record of prod. A product without a single
// decodable element yields a nil Result.
func Decode(prod *nws.TextProduct) (registry.Result, error) {
	d := &decoder{prod: prod, anchor: prod.Valid}
	for _, rec := range d.split(prod.Text) {
		switch rec.format {
		case 'A':
			d.decodeA(rec)
		case 'B':
			d.decodeB(rec)
		case 'E':
			d.decodeE(rec)
		}
	}
	if len(d.elements) == 0 {
		return nil, nil
	}
	return &Result{TextProduct: prod, Elements: d.elements}, nil
}

type decoder struct {
	prod     *nws.TextProduct
	anchor   time.Time
	elements []Element
}

// stripComments drops text between colons; an unpaired colon runs to the
// end of the line.
func stripComments(line string) string {
	if !strings.Contains(line, ":") {
		return line
	}
	var b strings.Builder
	in := false
	for _, r := range line {
		if r == ':' {
			in = !in
			continue
		}
		if !in {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinContinuation(a, b string) string {
	if strings.HasSuffix(a, "/") || strings.HasPrefix(b, "/") {
		return a + b
	}
	return a + "/" + b
}

// split groups lines into records, folding continuation lines into their
// parent and collecting .B body lines up to .END.
func (d *decoder) split(text string) []*record {
	var recs []*record
	var cur *record
	inBody := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(stripComments(line))
		if line == "" {
			continue
		}
		m := recordRe.FindStringSubmatch(line)
		if inBody {
			if strings.HasPrefix(line, ".END") {
				inBody, cur = false, nil
				continue
			}
			if m == nil {
				cur.body = append(cur.body, line)
				continue
			}
			if m[1] == "B" && m[3] != "" && len(cur.body) == 0 {
				cur.header = joinContinuation(cur.header, strings.TrimSpace(line[len(m[0]):]))
				continue
			}
			d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF .B record for %q not closed by .END", firstField(cur.header))
			inBody = false
		}
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(line[len(m[0]):])
		if m[3] != "" {
			if cur == nil || cur.format != m[1][0] {
				d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF continuation %q without a parent record", line)
				continue
			}
			cur.header = joinContinuation(cur.header, rest)
			continue
		}
		cur = &record{format: m[1][0], revised: m[2] != "", header: rest}
		recs = append(recs, cur)
		inBody = cur.format == 'B'
	}
	if inBody {
		d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF .B record for %q not closed by .END", firstField(cur.header))
	}
	return recs
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// header decodes "STATION DATE [TZ] ..." and returns the remaining
// slash separated fields.
func (d *decoder) header(rec *record) (string, *clock, []string, bool) {
	parts := strings.Split(rec.header, "/")
	toks := strings.Fields(parts[0])
	if len(toks) < 2 {
		d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF .%c header %q too short", rec.format, rec.header)
		return "", nil, nil, false
	}
	station, date := toks[0], toks[1]
	toks = toks[2:]
	loc := time.UTC
	if len(toks) > 0 {
		if z, ok := zones[toks[0]]; ok {
			loc = z
			toks = toks[1:]
		}
	}
	c := newClock(d.anchor, loc)
	if err := c.setDate(date); err != nil {
		d.prod.AddWarning(err)
		return "", nil, nil, false
	}
	fields := append([]string{strings.Join(toks, " ")}, parts[1:]...)
	return station, c, fields, true
}

func (d *decoder) decodeA(rec *record) {
	station, c, fields, ok := d.header(rec)
	if !ok {
		return
	}
	for _, field := range fields {
		toks := strings.Fields(field)
		var code *Code
		for i, tok := range toks {
			if code == nil && tok[0] == 'D' {
				if _, err := c.modify(tok); err != nil {
					d.prod.AddWarning(err)
					break
				}
				continue
			}
			if code == nil {
				cd, err := ParseCode(tok)
				if err != nil {
					d.prod.AddWarning(err)
					break
				}
				code = &cd
				continue
			}
			el, ok := d.element(rec, station, c, *code, tok, c.valid())
			if ok {
				el.Comment = quoted(toks[i+1:])
				d.elements = append(d.elements, el)
			}
			code = nil
			break
		}
		if code != nil {
			d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF %s %s has no value", station, code.Key())
		}
	}
}

func (d *decoder) decodeE(rec *record) {
	station, c, fields, ok := d.header(rec)
	if !ok {
		return
	}
	var code *Code
	next := c.valid()
	count := 0
	for _, field := range fields {
		toks := strings.Fields(field)
		if len(toks) == 0 {
			if code != nil {
				next, count = d.advance(c, next), count+1
			}
			continue
		}
		for _, tok := range toks {
			if tok[0] == 'D' {
				moved, err := c.modify(tok)
				if err != nil {
					d.prod.AddWarning(err)
					return
				}
				if moved {
					next, count = c.valid(), 0
				}
				continue
			}
			if code == nil {
				cd, err := ParseCode(tok)
				if err != nil {
					d.prod.AddWarning(err)
					return
				}
				code = &cd
				continue
			}
			if count > 0 && c.interval.isZero() {
				d.prod.Warn(nws.ErrInvalidTimestamp, "SHEF .E %s %s series has no DI interval", station, code.Key())
				return
			}
			if el, ok := d.element(rec, station, c, *code, tok, next); ok {
				d.elements = append(d.elements, el)
			}
			next, count = d.advance(c, next), count+1
		}
	}
}

func (d *decoder) advance(c *clock, t time.Time) time.Time {
	if c.interval.isZero() {
		return t
	}
	return c.interval.apply(t, 1)
}

type bParam struct {
	code  Code
	clock clock
}

func (d *decoder) decodeB(rec *record) {
	_, c, fields, ok := d.header(rec)
	if !ok {
		return
	}
	var params []bParam
	for _, field := range fields {
		for _, tok := range strings.Fields(field) {
			if tok[0] == 'D' {
				if _, err := c.modify(tok); err != nil {
					d.prod.AddWarning(err)
				}
				continue
			}
			cd, err := ParseCode(tok)
			if err != nil {
				d.prod.AddWarning(err)
				cd = Code{}
			}
			params = append(params, bParam{code: cd, clock: *c})
		}
	}
	if len(params) == 0 {
		d.prod.Warn(nws.ErrInvalidEnvelope, "SHEF .B header %q has no parameters", rec.header)
		return
	}
	for _, line := range rec.body {
		for _, entry := range strings.Split(line, ",") {
			d.decodeBEntry(rec, params, entry)
		}
	}
}

// decodeBEntry decodes "STATION [Dxx...] v1/v2/...". Date modifiers on the
// body line override the header for every value on it.
func (d *decoder) decodeBEntry(rec *record, params []bParam, entry string) {
	parts := strings.Split(entry, "/")
	toks := strings.Fields(parts[0])
	if len(toks) == 0 {
		return
	}
	station := toks[0]
	var overrides []string
	values := []string{""}
	for i, tok := range toks[1:] {
		if tok[0] == 'D' && values[0] == "" {
			overrides = append(overrides, tok)
			continue
		}
		values[0] = strings.Join(toks[1+i:], " ")
		break
	}
	values = append(values, parts[1:]...)
	if len(values) > len(params) {
		d.prod.Warn(nws.ErrOutOfBounds, "SHEF .B %s has %d values for %d parameters", station, len(values), len(params))
		values = values[:len(params)]
	}
	for i, raw := range values {
		vt := strings.Fields(raw)
		if len(vt) == 0 || params[i].code.PhysicalElement == "" {
			continue
		}
		c := params[i].clock
		bad := false
		for _, o := range overrides {
			if _, err := c.modify(o); err != nil {
				d.prod.AddWarning(err)
				bad = true
				break
			}
		}
		if bad {
			return
		}
		if el, ok := d.element(rec, station, &c, params[i].code, vt[0], c.valid()); ok {
			el.Comment = quoted(vt[1:])
			d.elements = append(d.elements, el)
		}
	}
}

func quoted(toks []string) string {
	if len(toks) == 0 || !strings.HasPrefix(toks[0], `"`) && !strings.HasPrefix(toks[0], "'") {
		return ""
	}
	return strings.Trim(strings.Join(toks, " "), `"'`)
}

// element builds an Element from a raw value token, applying trace,
// missing, qualifier, paired and unit conventions.
func (d *decoder) element(rec *record, station string, c *clock, code Code, raw string, valid time.Time) (Element, bool) {
	el := Element{
		Code:             code,
		Station:          station,
		BaseValid:        c.base().UTC(),
		Valid:            valid.UTC(),
		StrValue:         raw,
		UnitConvention:   c.units,
		Qualifier:        c.qualifier,
		DataCreated:      c.created,
		VariableDuration: c.dv,
		Format:           string(rec.format),
		Revised:          rec.revised,
	}
	if isMissing(raw) {
		return el, true
	}
	if raw == "T" || raw == "TRACE" {
		el.NumValue = patterns.Float(patterns.TraceValue)
		return el, true
	}
	num := raw
	if last := raw[len(raw)-1]; len(raw) > 1 && containsByte(qualifierCodes, last) {
		num, el.Qualifier = raw[:len(raw)-1], string(last)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		d.prod.AddWarning(fmt.Errorf("%w: SHEF value %q for %s %s", nws.ErrUnknownCode, raw, station, code.Key()))
		return el, false
	}
	pe := code.PhysicalElement
	if pairedElements[pe] {
		depth, val := splitPaired(v)
		el.Depth, v = &depth, val
	}
	if c.units == "S" {
		conv, ok := toEnglish(pe, v)
		if !ok {
			d.prod.Warn(nws.ErrUnknownCode, "SHEF no SI conversion for %s, value kept as reported", pe)
		}
		v = conv
	}
	if tensOfDegrees[pe] {
		v *= 10
	}
	el.NumValue = &v
	return el, true
}
