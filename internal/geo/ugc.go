package geo

import (
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// UGC source flags. Fire weather zones and public forecast zones share
// codes, so the same SSZNNN can appear twice with different sources.
const (
	SourceCounty   = "c"
	SourceZone     = "z"
	SourceFireZone = "fz"
	SourceMarine   = "mz"
)

// UGCRecord is one time-bounded row of the UGC reference table.
type UGCRecord struct {
	Code     string       `json:"ugc"`
	Name     string       `json:"name"`
	State    string       `json:"state"`
	WFOs     []string     `json:"wfos,omitempty"`
	Source   string       `json:"source"`
	Begin    time.Time    `json:"begin_ts"`
	End      *time.Time   `json:"end_ts,omitempty"`
	Centroid orb.Point    `json:"-"`
	Geometry orb.Geometry `json:"-"`
}

// ValidAt reports whether the row is in effect at t.
func (r UGCRecord) ValidAt(t time.Time) bool {
	if !r.Begin.IsZero() && t.Before(r.Begin) {
		return false
	}
	if r.End != nil && !t.Before(*r.End) {
		return false
	}
	return true
}

// UGCResolver looks up UGC codes valid at an instant.
type UGCResolver interface {
	UGC(code string, valid time.Time, source string) (UGCRecord, bool)
}

// UGCLister is implemented by resolvers that can enumerate their rows.
type UGCLister interface {
	Records(valid time.Time) []UGCRecord
}

// UGCTable is an immutable in-memory UGCResolver.
type UGCTable struct {
	byCode map[string][]UGCRecord
}

// NewUGCTable indexes records by code, newest Begin first.
func NewUGCTable(records []UGCRecord) *UGCTable {
	t := &UGCTable{byCode: make(map[string][]UGCRecord)}
	for _, r := range records {
		r.Code = strings.ToUpper(r.Code)
		t.byCode[r.Code] = append(t.byCode[r.Code], r)
	}
	for code := range t.byCode {
		rows := t.byCode[code]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Begin.After(rows[j].Begin) })
	}
	return t
}

// Len returns the number of distinct codes.
func (t *UGCTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCode)
}

// UGC returns the row for code valid at the given time. When source is
// set, a row with that source is preferred; otherwise public zones win
// over fire weather zones. Rows outside their validity window are only
// used if nothing current exists.
func (t *UGCTable) UGC(code string, valid time.Time, source string) (UGCRecord, bool) {
	if t == nil {
		return UGCRecord{}, false
	}
	rows := t.byCode[strings.ToUpper(code)]
	if len(rows) == 0 {
		return UGCRecord{}, false
	}
	want := source
	if want == "" {
		want = SourceZone
		if len(code) == 6 && code[2] == 'C' {
			want = SourceCounty
		}
	}
	var current []UGCRecord
	for _, r := range rows {
		if r.ValidAt(valid) {
			current = append(current, r)
		}
	}
	if len(current) == 0 {
		current = rows
	}
	for _, r := range current {
		if r.Source == want {
			return r, true
		}
	}
	return current[0], true
}

// Records returns every row in effect at valid, ordered by code.
func (t *UGCTable) Records(valid time.Time) []UGCRecord {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	var out []UGCRecord
	for _, code := range codes {
		for _, r := range t.byCode[code] {
			if r.ValidAt(valid) {
				out = append(out, r)
			}
		}
	}
	return out
}

// SourceForProduct maps an AFOS category to the UGC source used to
// resolve its zones.
func SourceForProduct(afos string) string {
	if len(afos) < 3 {
		return ""
	}
	switch afos[:3] {
	case "FWF", "RFW", "FWM", "FWA":
		return SourceFireZone
	case "MWS", "SMW", "MWW", "CWF", "NSH", "OFF", "GLF":
		return SourceMarine
	}
	return ""
}
