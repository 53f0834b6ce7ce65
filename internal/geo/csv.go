package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadStationsCSV reads a station table with the header
// id,name,state,network,wfo,tzname,lon,lat. Extra columns are ignored.
func LoadStationsCSV(r io.Reader) (*StationTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read station header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"id", "lon", "lat"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("station csv missing column %q", need)
		}
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var stations []Station
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read station line %d: %w", line, err)
		}
		lon, err1 := strconv.ParseFloat(get(row, "lon"), 64)
		lat, err2 := strconv.ParseFloat(get(row, "lat"), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("station line %d: bad coordinates", line)
		}
		stations = append(stations, Station{
			ID:      get(row, "id"),
			Name:    get(row, "name"),
			State:   get(row, "state"),
			Network: get(row, "network"),
			WFO:     get(row, "wfo"),
			TZName:  get(row, "tzname"),
			Lon:     lon,
			Lat:     lat,
		})
	}
	return NewStationTable(stations), nil
}
