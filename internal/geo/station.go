// Package geo resolves station identifiers and UGC codes to locations.
//
// Tables are built once from a reference snapshot and are safe for
// concurrent readers. They are never mutated after construction.
package geo

import (
	"strings"
)

// Station is one row of the station reference table.
type Station struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Network string  `json:"network,omitempty"`
	WFO     string  `json:"wfo,omitempty"`
	TZName  string  `json:"tzname,omitempty"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
}

// StationResolver looks up stations by identifier.
type StationResolver interface {
	Station(id string) (Station, bool)
}

// StationTable is an immutable in-memory StationResolver.
type StationTable struct {
	byID map[string]Station
}

// NewStationTable indexes stations by their identifier. Later rows with
// the same identifier win.
func NewStationTable(stations []Station) *StationTable {
	t := &StationTable{byID: make(map[string]Station, len(stations))}
	for _, s := range stations {
		s.ID = strings.ToUpper(strings.TrimSpace(s.ID))
		if s.ID == "" {
			continue
		}
		t.byID[s.ID] = s
	}
	return t
}

// Len returns the number of indexed stations.
func (t *StationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}

// Station resolves an identifier, trying NWSLI, ICAO and IATA spellings.
// "DSM", "KDSM" and "PANC"/"ANC" all resolve when either form is indexed.
func (t *StationTable) Station(id string) (Station, bool) {
	if t == nil {
		return Station{}, false
	}
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, cand := range Variants(id) {
		if s, ok := t.byID[cand]; ok {
			return s, true
		}
	}
	return Station{}, false
}

// All returns every station ordered by nothing in particular.
func (t *StationTable) All() []Station {
	out := make([]Station, 0, t.Len())
	if t == nil {
		return out
	}
	for _, s := range t.byID {
		out = append(out, s)
	}
	return out
}

// Variants lists the identifier spellings tried for a lookup, most
// specific first.
func Variants(id string) []string {
	out := []string{id}
	switch len(id) {
	case 3:
		out = append(out, "K"+id, "P"+id, "T"+id)
	case 4:
		switch id[0] {
		case 'K', 'P', 'T':
			out = append(out, id[1:])
		}
	}
	return out
}
