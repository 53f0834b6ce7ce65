package nws

import (
	"fmt"
	"strconv"
	"time"

	"nws_parser/internal/patterns"
	"nws_parser/internal/reference"
)

// Action is the VTEC action code.
type Action string

const (
	ActionNew Action = "NEW"
	ActionCon Action = "CON"
	ActionExa Action = "EXA"
	ActionExt Action = "EXT"
	ActionExb Action = "EXB"
	ActionUpg Action = "UPG"
	ActionCan Action = "CAN"
	ActionExp Action = "EXP"
	ActionRou Action = "ROU"
	ActionCor Action = "COR"
)

// ParseAction validates a VTEC action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionNew, ActionCon, ActionExa, ActionExt, ActionExb,
		ActionUpg, ActionCan, ActionExp, ActionRou, ActionCor:
		return a, nil
	}
	return "", fmt.Errorf("%w: vtec action %q", ErrUnknownCode, s)
}

// Significance is the VTEC significance letter.
type Significance string

const (
	SigWarning   Significance = "W"
	SigAdvisory  Significance = "Y"
	SigWatch     Significance = "A"
	SigStatement Significance = "S"
	SigOutlook   Significance = "O"
	SigSynopsis  Significance = "N"
	SigForecast  Significance = "F"
)

// ParseSignificance validates a VTEC significance.
func ParseSignificance(s string) (Significance, error) {
	switch g := Significance(s); g {
	case SigWarning, SigAdvisory, SigWatch, SigStatement, SigOutlook, SigSynopsis, SigForecast:
		return g, nil
	}
	return "", fmt.Errorf("%w: vtec significance %q", ErrUnknownCode, s)
}

// VTEC is one /K.AAA.CCCC.PP.S.EEEE.B-E/ string.
type VTEC struct {
	Class        string       `json:"class"`
	Action       Action       `json:"action"`
	Office       string       `json:"office"`
	Phenomena    string       `json:"phenomena"`
	Significance Significance `json:"significance"`
	ETN          int          `json:"etn"`
	Begin        *time.Time   `json:"begin,omitempty"`
	End          *time.Time   `json:"end,omitempty"`
}

const vtecTimeLayout = "060102T1504Z"

// zeroVTECTime is the wire form of a null timestamp.
const zeroVTECTime = "000000T0000Z"

func parseVTECTime(s string) (*time.Time, error) {
	if s == zeroVTECTime {
		return nil, nil
	}
	t, err := time.Parse(vtecTimeLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: vtec time %q", ErrInvalidTimestamp, s)
	}
	return &t, nil
}

func formatVTECTime(t *time.Time) string {
	if t == nil {
		return zeroVTECTime
	}
	return t.UTC().Format(vtecTimeLayout)
}

// String renders the canonical wire form.
func (v VTEC) String() string {
	return fmt.Sprintf("/%s.%s.%s.%s.%s.%04d.%s-%s/", v.Class, v.Action, v.Office,
		v.Phenomena, v.Significance, v.ETN, formatVTECTime(v.Begin), formatVTECTime(v.End))
}

// WFO returns the three letter office.
func (v VTEC) WFO() string {
	if len(v.Office) == 4 {
		return v.Office[1:]
	}
	return v.Office
}

// EventName is "Tornado Warning" style text.
func (v VTEC) EventName() string {
	return reference.EventName(v.Phenomena, string(v.Significance))
}

// Key identifies the event across products: office, phenomena,
// significance, etn and year of issuance.
func (v VTEC) Key(year int) string {
	return fmt.Sprintf("%d.%s.%s.%s.%04d", year, v.Office, v.Phenomena, v.Significance, v.ETN)
}

// ParseVTEC decodes a single VTEC string.
func ParseVTEC(raw string) (VTEC, error) {
	m := patterns.VTECPattern.FindStringSubmatch(raw)
	if m == nil {
		return VTEC{}, fmt.Errorf("%w: not a vtec string %q", ErrUnknownCode, raw)
	}
	return vtecFromMatch(m)
}

func vtecFromMatch(m []string) (VTEC, error) {
	action, err := ParseAction(m[2])
	if err != nil {
		return VTEC{}, err
	}
	sig, err := ParseSignificance(m[5])
	if err != nil {
		return VTEC{}, err
	}
	etn, _ := strconv.Atoi(m[6])
	if etn < 1 || etn > 9999 {
		return VTEC{}, fmt.Errorf("%w: vtec etn %d", ErrOutOfBounds, etn)
	}
	begin, err := parseVTECTime(m[7])
	if err != nil {
		return VTEC{}, err
	}
	end, err := parseVTECTime(m[8])
	if err != nil {
		return VTEC{}, err
	}
	return VTEC{
		Class:        m[1],
		Action:       action,
		Office:       m[3],
		Phenomena:    m[4],
		Significance: sig,
		ETN:          etn,
		Begin:        begin,
		End:          end,
	}, nil
}

// FindVTEC returns every VTEC string in text in source order. Entries that
// fail validation are reported as warnings and skipped.
func FindVTEC(text string) ([]VTEC, Warnings) {
	var ws Warnings
	var out []VTEC
	for _, m := range patterns.VTECPattern.FindAllStringSubmatch(text, -1) {
		v, err := vtecFromMatch(m)
		if err != nil {
			ws = append(ws, AsWarning(err))
			continue
		}
		if v.Begin != nil && v.End != nil && !v.End.After(*v.Begin) {
			ws.Add(ErrOutOfBounds, "vtec %s ends at or before it begins", m[0])
			v.End = nil
		}
		out = append(out, v)
	}
	return out, ws
}

// HVTEC is the hydrologic VTEC line.
type HVTEC struct {
	NWSLI          string     `json:"nwsli"`
	Severity       string     `json:"severity"`
	ImmediateCause string     `json:"immediate_cause"`
	Begin          *time.Time `json:"begin,omitempty"`
	Crest          *time.Time `json:"crest,omitempty"`
	End            *time.Time `json:"end,omitempty"`
	Record         string     `json:"record"`
}

func (h HVTEC) String() string {
	return fmt.Sprintf("/%s.%s.%s.%s.%s.%s.%s/", h.NWSLI, h.Severity, h.ImmediateCause,
		formatVTECTime(h.Begin), formatVTECTime(h.Crest), formatVTECTime(h.End), h.Record)
}

// FindHVTEC returns every H-VTEC string in text.
func FindHVTEC(text string) ([]HVTEC, Warnings) {
	var ws Warnings
	var out []HVTEC
	for _, m := range patterns.HVTECPattern.FindAllStringSubmatch(text, -1) {
		h := HVTEC{NWSLI: m[1], Severity: m[2], ImmediateCause: m[3], Record: m[7]}
		if _, ok := reference.HVTECCause[h.ImmediateCause]; !ok {
			ws.Add(ErrUnknownCode, "hvtec cause %q", h.ImmediateCause)
		}
		if _, ok := reference.HVTECRecord[h.Record]; !ok {
			ws.Add(ErrUnknownCode, "hvtec record %q", h.Record)
		}
		var err error
		times := []**time.Time{&h.Begin, &h.Crest, &h.End}
		for i, dst := range times {
			if *dst, err = parseVTECTime(m[4+i]); err != nil {
				ws = append(ws, AsWarning(err))
			}
		}
		out = append(out, h)
	}
	return out, ws
}
