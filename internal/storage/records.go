package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"nws_parser/internal/ncei/ds3505"
	"nws_parser/internal/ncei/ghcnh"
	"nws_parser/internal/nws"
	"nws_parser/internal/parsers/lsr"
	"nws_parser/internal/parsers/mcd"
	"nws_parser/internal/parsers/metarcollect"
	"nws_parser/internal/parsers/mos"
	"nws_parser/internal/parsers/pirep"
	"nws_parser/internal/parsers/saw"
	"nws_parser/internal/parsers/shef"
	"nws_parser/internal/parsers/sigmet"
	"nws_parser/internal/parsers/spcpts"
	"nws_parser/internal/registry"
)

// ProductRow is the archive row every decoded product produces.
type ProductRow struct {
	ProductID    string
	AFOS         string
	TTAAII       string
	Source       string
	Valid        time.Time
	IsCorrection bool
	Family       string
	Text         string
	Warnings     []string
}

// VTECRow is one event/UGC pairing of a VTEC segment.
type VTECRow struct {
	ProductID    string
	WFO          string
	Phenomena    string
	Significance string
	ETN          int
	Year         int
	Action       nws.Action
	UGC          string
	Begin        *time.Time
	End          *time.Time
	PolygonWKT   string
}

// LSRRow is one local storm report.
type LSRRow struct {
	ProductID string
	Valid     time.Time
	Type      string
	Magnitude *float64
	Unit      string
	City      string
	County    string
	State     string
	Source    string
	Remark    string
	WFO       string
	Lon, Lat  float64
	Duplicate bool
}

// OutlookRow is one layered outlook area.
type OutlookRow struct {
	ProductID string
	Day       int
	Cycle     int
	Kind      string
	Category  string
	Threshold string
	Issue     time.Time
	Expire    time.Time
	GeomWKT   string
}

// WatchRow is a SAW watch.
type WatchRow struct {
	ProductID string
	Num       int
	Type      string
	Action    string
	Issue     time.Time
	Expire    time.Time
	GeomWKT   string
}

// MCDRow is a mesoscale or precipitation discussion.
type MCDRow struct {
	ProductID  string
	Num        int
	Year       int
	Concerning string
	WatchProb  *int
	Issue      *time.Time
	Expire     *time.Time
	GeomWKT    string
}

// PIREPRow is one pilot report.
type PIREPRow struct {
	ProductID string
	Valid     time.Time
	Urgent    bool
	Aircraft  string
	Lon, Lat  *float64
	Report    string
}

// SIGMETRow is one SIGMET area.
type SIGMETRow struct {
	ProductID string
	Class     string
	Label     string
	Issue     time.Time
	Expire    time.Time
	GeomWKT   string
	Raw       string
}

// ObservationRow is one value in the long observation table.
type ObservationRow struct {
	Station  string
	Valid    time.Time
	Family   string
	Variable string
	Value    *float64
	Product  string
}

// Records is everything one result persists.
type Records struct {
	Product      ProductRow
	VTEC         []VTECRow
	LSRs         []LSRRow
	Outlooks     []OutlookRow
	Watches      []WatchRow
	MCDs         []MCDRow
	PIREPs       []PIREPRow
	SIGMETs      []SIGMETRow
	Observations []ObservationRow
}

func geomWKT(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return ""
		}
	case orb.MultiPolygon:
		if len(v) == 0 {
			return ""
		}
	}
	return wkt.MarshalString(g)
}

// BuildRecords flattens a decoded result into storage rows.
func BuildRecords(res registry.Result) Records {
	p := res.Base()
	pid := p.ProductID()
	rec := Records{Product: ProductRow{
		ProductID:    pid,
		AFOS:         p.AFOS,
		TTAAII:       p.WMO.TTAAII,
		Source:       p.Source(),
		Valid:        p.Valid,
		IsCorrection: p.IsCorrection,
		Family:       res.Type(),
		Text:         p.Text,
		Warnings:     p.Warnings.Strings(),
	}}
	rec.VTEC = vtecRows(p, pid)

	switch r := res.(type) {
	case *lsr.Result:
		for _, l := range r.Reports {
			rec.LSRs = append(rec.LSRs, LSRRow{
				ProductID: pid, Valid: l.Valid, Type: l.TypeCode, Magnitude: l.Magnitude,
				Unit: l.MagUnits, City: l.City, County: l.County, State: l.State,
				Source: l.Source, Remark: l.Remark, WFO: l.WFO, Lon: l.Lon, Lat: l.Lat,
				Duplicate: l.Duplicate,
			})
		}
	case *spcpts.Result:
		days := make([]int, 0, len(r.Collections))
		for d := range r.Collections {
			days = append(days, d)
		}
		sort.Ints(days)
		for _, d := range days {
			c := r.Collections[d]
			for _, o := range c.Outlooks {
				rec.Outlooks = append(rec.Outlooks, OutlookRow{
					ProductID: pid, Day: d, Cycle: r.Cycle, Kind: r.Kind,
					Category: o.Category, Threshold: string(o.Threshold),
					Issue: c.Issue, Expire: c.Expire, GeomWKT: geomWKT(o.Geometry),
				})
			}
		}
	case *saw.Result:
		rec.Watches = append(rec.Watches, WatchRow{
			ProductID: pid, Num: r.Num, Type: string(r.WWType), Action: string(r.Action),
			Issue: r.Sts, Expire: r.Ets, GeomWKT: geomWKT(r.Polygon),
		})
	case *mcd.Result:
		rec.MCDs = append(rec.MCDs, MCDRow{
			ProductID: pid, Num: r.DiscussionNum, Year: p.Valid.Year(),
			Concerning: r.Concerning, WatchProb: r.WatchProb,
			Issue: r.Sts, Expire: r.Ets, GeomWKT: geomWKT(r.Polygon),
		})
	case *pirep.Result:
		for _, rep := range r.Reports {
			rec.PIREPs = append(rec.PIREPs, PIREPRow{
				ProductID: pid, Valid: rep.Valid, Urgent: rep.Priority == pirep.Urgent,
				Aircraft: rep.Aircraft, Lon: rep.Longitude, Lat: rep.Latitude, Report: rep.Raw,
			})
		}
	case *sigmet.Result:
		for _, s := range r.Sigmets {
			rec.SIGMETs = append(rec.SIGMETs, SIGMETRow{
				ProductID: pid, Class: string(s.Class), Label: s.Label,
				Issue: s.Start, Expire: s.End, GeomWKT: geomWKT(s.Geometry), Raw: s.Raw,
			})
		}
	case *metarcollect.Result:
		for _, o := range r.Observations {
			rec.Observations = append(rec.Observations, metarRows(o, pid)...)
		}
	case *shef.Result:
		for _, e := range r.Elements {
			rec.Observations = append(rec.Observations, ObservationRow{
				Station: e.Station, Valid: e.Valid, Family: "shef",
				Variable: e.Key(), Value: e.NumValue, Product: pid,
			})
		}
	case *mos.Result:
		for _, run := range r.Runs {
			for _, f := range run.Forecasts {
				for _, name := range sortedKeys(f.Values) {
					v := f.Values[name]
					rec.Observations = append(rec.Observations, ObservationRow{
						Station: run.Station, Valid: f.Valid, Family: "mos." + strings.ToLower(run.Model),
						Variable: name, Value: &v, Product: pid,
					})
				}
			}
		}
	}
	return rec
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func vtecRows(p *nws.TextProduct, pid string) []VTECRow {
	var rows []VTECRow
	for _, seg := range p.Segments {
		poly := ""
		if seg.HasPolygon() {
			poly = geomWKT(seg.Polygon)
		}
		for _, v := range seg.VTEC {
			year := p.Valid.Year()
			if v.Begin != nil {
				year = v.Begin.Year()
			}
			for _, u := range seg.UGCs {
				rows = append(rows, VTECRow{
					ProductID: pid, WFO: v.Office, Phenomena: v.Phenomena,
					Significance: string(v.Significance), ETN: v.ETN, Year: year,
					Action: v.Action, UGC: u.String(), Begin: v.Begin, End: v.End,
					PolygonWKT: poly,
				})
			}
		}
	}
	return rows
}

func intValue(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func metarRows(o metarcollect.Observation, pid string) []ObservationRow {
	r := o.Report
	if r == nil || r.Nil {
		return nil
	}
	values := []struct {
		name string
		v    *float64
	}{
		{"tmpc", r.Temp},
		{"dwpc", r.Dewpoint},
		{"drct", intValue(r.WindDir)},
		{"sknt", intValue(r.WindSpeed)},
		{"gust", intValue(r.WindGust)},
		{"vsby", r.Visibility},
		{"alti", r.Altimeter},
		{"mslp", r.SLP},
		{"p01i", r.Precip1h},
		{"p03i", r.Precip3h},
		{"p06i", r.Precip6h},
		{"p24i", r.Precip24h},
		{"snowd", r.SnowDepth},
		{"peak_wind_gust", intValue(r.PeakWindSpeed)},
		{"ice_accretion_1hr", r.Ice1h},
	}
	var rows []ObservationRow
	for _, kv := range values {
		if kv.v == nil {
			continue
		}
		rows = append(rows, ObservationRow{
			Station: r.Station, Valid: r.Time, Family: "metar",
			Variable: kv.name, Value: kv.v, Product: pid,
		})
	}
	return rows
}

// GHCNhRows converts archive rows to observation rows. Values flagged
// erroneous are skipped.
func GHCNhRows(obs []*ghcnh.Observation) []ObservationRow {
	var rows []ObservationRow
	for _, o := range obs {
		for _, name := range sortedValueKeys(o.Values) {
			v := o.Get(name)
			if v == nil {
				continue
			}
			rows = append(rows, ObservationRow{
				Station: o.Station, Valid: o.Valid, Family: "ghcnh",
				Variable: name, Value: v,
			})
		}
	}
	return rows
}

func sortedValueKeys(m map[string]ghcnh.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DS3505Rows converts ISD records to observation rows keyed by the
// USAF-WBAN identifier.
func DS3505Rows(obs []*ds3505.Observation) []ObservationRow {
	var rows []ObservationRow
	for _, o := range obs {
		for _, kv := range []struct {
			name string
			v    *float64
		}{
			{"tmpf", o.TempF},
			{"dwpf", o.DewF},
			{"drct", intValue(o.WindDir)},
			{"sknt", o.WindKt},
			{"gust", o.GustKt},
			{"vsby", o.VisMiles},
			{"mslp", o.MSLP},
			{"alti", o.AltimeterIn},
			{"snowd", o.SnowDepthIn},
		} {
			if kv.v == nil {
				continue
			}
			rows = append(rows, ObservationRow{
				Station: o.Station(), Valid: o.Valid, Family: "ds3505",
				Variable: kv.name, Value: kv.v,
			})
		}
	}
	return rows
}
