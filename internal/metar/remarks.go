package metar

import (
	"regexp"
	"strconv"
	"time"

	"nws_parser/internal/patterns"
)

// Remark group grammar.
var (
	preciseTempRe = regexp.MustCompile(`^T([01])([0-9]{3})(?:([01])([0-9]{3}))?$`)
	slpRe         = regexp.MustCompile(`^SLP([0-9]{3})$`)
	hourlyPcpnRe  = regexp.MustCompile(`^P([0-9]{4}|////)$`)
	sixHourPcpnRe = regexp.MustCompile(`^6([0-9]{4}|////)$`)
	dayPcpnRe     = regexp.MustCompile(`^7([0-9]{4}|////)$`)
	snowDepthRe   = regexp.MustCompile(`^4/([0-9]{3})$`)
	max6Re        = regexp.MustCompile(`^1([01])([0-9]{3})$`)
	min6Re        = regexp.MustCompile(`^2([01])([0-9]{3})$`)
	maxMin24Re    = regexp.MustCompile(`^4([01])([0-9]{3})([01])([0-9]{3})$`)
	peakWindRe    = regexp.MustCompile(`^([0-9]{3})([0-9]{2,3})/([0-9]{2})?([0-9]{2})$`)
	iceRe         = regexp.MustCompile(`^I([136])([0-9]{3})$`)
)

func (r *Report) parseRemarks(tokens []string) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "PK" && i+2 < len(tokens) && tokens[i+1] == "WND":
			if m := peakWindRe.FindStringSubmatch(tokens[i+2]); m != nil {
				r.parsePeakWind(m)
				i += 2
			}
		case preciseTempRe.MatchString(tok):
			m := preciseTempRe.FindStringSubmatch(tok)
			r.Temp = tenths(m[1], m[2])
			if m[3] != "" {
				r.Dewpoint = tenths(m[3], m[4])
			}
		case slpRe.MatchString(tok):
			v, _ := strconv.Atoi(slpRe.FindStringSubmatch(tok)[1])
			base := 1000.0
			if v >= 500 {
				base = 900.0
			}
			r.SLP = patterns.Float(patterns.Round(base+float64(v)/10, 1))
		case hourlyPcpnRe.MatchString(tok):
			r.Precip1h = hundredths(hourlyPcpnRe.FindStringSubmatch(tok)[1])
		case sixHourPcpnRe.MatchString(tok):
			v := hundredths(sixHourPcpnRe.FindStringSubmatch(tok)[1])
			// Synoptic hours carry the 6 hour total, the others 3 hours.
			if !r.Time.IsZero() && r.Time.Add(10*time.Minute).Hour()%6 == 0 {
				r.Precip6h = v
			} else {
				r.Precip3h = v
			}
		case dayPcpnRe.MatchString(tok):
			r.Precip24h = hundredths(dayPcpnRe.FindStringSubmatch(tok)[1])
		case snowDepthRe.MatchString(tok):
			v, _ := strconv.Atoi(snowDepthRe.FindStringSubmatch(tok)[1])
			r.SnowDepth = patterns.Float(float64(v))
		case max6Re.MatchString(tok):
			m := max6Re.FindStringSubmatch(tok)
			r.Max6h = tenths(m[1], m[2])
		case min6Re.MatchString(tok):
			m := min6Re.FindStringSubmatch(tok)
			r.Min6h = tenths(m[1], m[2])
		case maxMin24Re.MatchString(tok):
			m := maxMin24Re.FindStringSubmatch(tok)
			r.Max24h = tenths(m[1], m[2])
			r.Min24h = tenths(m[3], m[4])
		case iceRe.MatchString(tok):
			m := iceRe.FindStringSubmatch(tok)
			v := hundredths("0" + m[2])
			switch m[1] {
			case "1":
				r.Ice1h = v
			case "3":
				r.Ice3h = v
			case "6":
				r.Ice6h = v
			}
		}
	}
}

func (r *Report) parsePeakWind(m []string) {
	d, _ := strconv.Atoi(m[1])
	s, _ := strconv.Atoi(m[2])
	r.PeakWindDir, r.PeakWindSpeed = &d, &s
	if r.Time.IsZero() {
		return
	}
	hour := r.Time.Hour()
	if m[3] != "" {
		hour, _ = strconv.Atoi(m[3])
	}
	minute, _ := strconv.Atoi(m[4])
	t := time.Date(r.Time.Year(), r.Time.Month(), r.Time.Day(), hour, minute, 0, 0, time.UTC)
	switch {
	case !t.After(r.Time):
	case m[3] == "":
		t = t.Add(-time.Hour)
	default:
		t = t.Add(-24 * time.Hour)
	}
	r.PeakWindTime = &t
}

// tenths decodes the sign digit plus three digit tenths of the T, 1, 2 and
// 4 groups.
func tenths(sign, digits string) *float64 {
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	f := float64(v) / 10
	if sign == "1" {
		f = -f
	}
	return &f
}

// hundredths decodes a four digit hundredths of an inch amount; all zeros is
// a trace and slashes are missing.
func hundredths(s string) *float64 {
	if s == "////" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	if v == 0 {
		return patterns.Float(patterns.TraceValue)
	}
	return patterns.Float(float64(v) / 100)
}
