package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nws_parser/internal/dedup"
	"nws_parser/internal/geo"
	"nws_parser/internal/geometry"
	"nws_parser/internal/nws"
	"nws_parser/internal/observability"
	"nws_parser/internal/storage"
)

// globalFlags holds the persistent flags shared by every subcommand.
var globalFlags struct {
	LogLevel       string
	LogFormat      string
	StationsCSV    string
	StationsDB     string
	UGCDB          string
	Boundary       string
	LegacyBoundary string
	Now            string
}

var rootCmd = &cobra.Command{
	Use:   "nws_parser",
	Short: "Decode and normalize NWS text and binary products",
	Long: `nws_parser decodes National Weather Service products into structured
records: VTEC events, storm reports, outlooks, observations and more.

Quick start:
  nws_parser decode product.txt          # decode one product to JSON
  nws_parser decode --table feed.ldm     # summarize an LDM feed
  nws_parser ingest                      # run the NATS ingest service
  nws_parser binary nldn strokes.bin     # decode a lightning feed`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.LogLevel, "log-level", "",
		"log level: debug|info|warn|error (overrides LOG_LEVEL)")
	pf.StringVar(&globalFlags.LogFormat, "log-format", "",
		"log format: json|console (overrides LOG_FORMAT)")
	pf.StringVar(&globalFlags.StationsCSV, "stations", "",
		"station table CSV (id,name,state,network,wfo,tzname,lon,lat)")
	pf.StringVar(&globalFlags.StationsDB, "stations-db", "",
		"SQLite station snapshot (overrides NWS_STATIONS_DB)")
	pf.StringVar(&globalFlags.UGCDB, "ugc-db", "",
		"SQLite UGC snapshot (overrides NWS_UGC_DB)")
	pf.StringVar(&globalFlags.Boundary, "boundary", "",
		"GeoJSON outlook boundary (overrides NWS_BOUNDARY_GEOJSON)")
	pf.StringVar(&globalFlags.LegacyBoundary, "legacy-boundary", "",
		"GeoJSON boundary for outlooks before 2019-05-09 (default: derived from --boundary)")
	pf.StringVar(&globalFlags.Now, "now", "",
		"RFC3339 reference time for resolving DDHHMM stamps (default: current time)")

	rootCmd.AddCommand(decodeCmd, ingestCmd, stationsCmd, searchCmd, binaryCmd)
}

// cliLogger builds the logger for one-shot commands, which log to stderr
// in console form unless told otherwise.
func cliLogger() zerolog.Logger {
	level := globalFlags.LogLevel
	if level == "" {
		level = "warn"
	}
	format := globalFlags.LogFormat
	if format == "" {
		format = "console"
	}
	return observability.NewLogger(level, format)
}

// referenceTime parses --now, falling back to the wall clock.
func referenceTime() (time.Time, error) {
	if globalFlags.Now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, globalFlags.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", globalFlags.Now, err)
	}
	return t.UTC(), nil
}

// references names the reference tables to load. Flags win over the
// environment values passed in.
type references struct {
	StationsCSV    string
	StationsDB     string
	UGCDB          string
	Boundary       string
	LegacyBoundary string
	DedupSize      int
}

func (r references) withFlags() references {
	if globalFlags.StationsCSV != "" {
		r.StationsCSV = globalFlags.StationsCSV
	}
	if globalFlags.StationsDB != "" {
		r.StationsDB = globalFlags.StationsDB
	}
	if globalFlags.UGCDB != "" {
		r.UGCDB = globalFlags.UGCDB
	}
	if globalFlags.Boundary != "" {
		r.Boundary = globalFlags.Boundary
		r.LegacyBoundary = globalFlags.LegacyBoundary
	}
	return r
}

// loadOptions builds decoder options from the reference tables. Missing
// tables leave the matching resolver nil, which decoders treat as "no
// lookups available".
func loadOptions(ctx context.Context, refs references, log zerolog.Logger) (nws.Options, error) {
	opts := nws.Options{WindAlerts: dedup.New(refs.DedupSize)}

	switch {
	case refs.StationsCSV != "":
		f, err := os.Open(refs.StationsCSV)
		if err != nil {
			return opts, fmt.Errorf("open stations: %w", err)
		}
		defer f.Close()
		table, err := geo.LoadStationsCSV(f)
		if err != nil {
			return opts, err
		}
		opts.Stations = table
		log.Info().Int("stations", table.Len()).Str("path", refs.StationsCSV).Msg("station table loaded")
	case refs.StationsDB != "":
		table, err := loadStationsDB(ctx, refs.StationsDB)
		if err != nil {
			return opts, err
		}
		opts.Stations = table
		log.Info().Int("stations", table.Len()).Str("path", refs.StationsDB).Msg("station table loaded")
	}

	if refs.UGCDB != "" {
		db, err := storage.OpenLocal(refs.UGCDB)
		if err != nil {
			return opts, err
		}
		defer db.Close()
		table, err := db.LoadUGCsSQLite(ctx)
		if err != nil {
			return opts, fmt.Errorf("load ugcs: %w", err)
		}
		opts.UGCs = table
		log.Info().Int("ugcs", table.Len()).Str("path", refs.UGCDB).Msg("ugc table loaded")
	}

	if refs.Boundary != "" {
		if err := loadBoundaries(refs.Boundary, refs.LegacyBoundary); err != nil {
			return opts, err
		}
		log.Info().Str("path", refs.Boundary).Str("legacy", refs.LegacyBoundary).Msg("outlook boundaries loaded")
	}
	return opts, nil
}

// loadBoundaries replaces the embedded outlook boundaries. An empty legacy
// path derives the older boundary from the current one.
func loadBoundaries(current, legacy string) error {
	read := func(name, path string) (*geometry.Boundary, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read boundary: %w", err)
		}
		return geometry.ReadBoundary(name, data)
	}
	cur, err := read("conus", current)
	if err != nil {
		return err
	}
	var old *geometry.Boundary
	if legacy != "" {
		if old, err = read("conus_marine", legacy); err != nil {
			return err
		}
	}
	return geometry.UseBoundaries(cur, old)
}

func loadStationsDB(ctx context.Context, path string) (*geo.StationTable, error) {
	db, err := storage.OpenLocal(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	table, err := db.LoadStationsSQLite(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	return table, nil
}
