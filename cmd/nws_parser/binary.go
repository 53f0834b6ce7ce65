package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"nws_parser/internal/binary/gini"
	"nws_parser/internal/binary/nldn"
	"nws_parser/internal/bufkit"
	"nws_parser/internal/config"
	"nws_parser/internal/ncei/ds3505"
	"nws_parser/internal/ncei/ghcnh"
	"nws_parser/internal/ncei/igra"
	"nws_parser/internal/nws"
	"nws_parser/internal/storage"
)

var binaryFlags struct {
	Output string
	Pretty bool
	Table  bool
	Store  bool
}

var binaryCmd = &cobra.Command{
	Use:   "binary",
	Short: "Decode binary feeds and NCEI archive files",
	Long: `Decoders for inputs that are not NWS text products: GINI satellite
imagery, the NLDN lightning feed, NCEI DS3505 (ISD), GHCNh and IGRA archives,
and BUFKIT model soundings.

FILE may be "-" for stdin.`,
}

func binaryRunner(decode func(cmd *cobra.Command, r io.Reader) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return decode(cmd, r)
	}
}

func emit(cmd *cobra.Command, v any) error {
	return writeJSON(cmd.OutOrStdout(), binaryFlags.Output, v, binaryFlags.Pretty)
}

func reportWarnings(cmd *cobra.Command, ws nws.Warnings) {
	for _, w := range ws {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w.Message)
	}
}

// openClickHouse connects with the environment settings for --store.
func openClickHouse(ctx context.Context) (*storage.ClickHouseDB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return storage.OpenClickHouse(ctx, cfg.Storage.ClickHouse)
}

func storeObservations(cmd *cobra.Command, rows []storage.ObservationRow) error {
	ctx := cmdContext(cmd)
	ch, err := openClickHouse(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()
	if err := ch.InsertObservations(ctx, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "stored %d observation values\n", len(rows))
	return nil
}

var giniCmd = &cobra.Command{
	Use:   "gini FILE",
	Short: "Decode a GINI satellite image header",
	Args:  cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		im, err := gini.Decode(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, im.Warnings)
		if !binaryFlags.Table {
			return emit(cmd, im)
		}
		h := im.Header
		printSimpleTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, func(add func(...string)) {
			add("WMO", h.WMO)
			add("Valid", h.Valid.Format("2006-01-02 15:04Z"))
			add("Sector", strconv.Itoa(h.Sector))
			add("Channel", strconv.Itoa(h.Channel))
			add("Projection", strconv.Itoa(h.Projection))
			add("Grid", fmt.Sprintf("%d x %d", h.Nx, h.Ny))
			add("Lines read", strconv.Itoa(len(im.Lines)))
		})
		return nil
	}),
}

var nldnCmd = &cobra.Command{
	Use:   "nldn FILE",
	Short: "Decode an NLDN lightning stroke feed",
	Example: `  nws_parser binary nldn strokes.bin --table
  nws_parser binary nldn strokes.bin --store`,
	Args: cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		strokes, warns, err := nldn.Decode(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, warns)
		if binaryFlags.Store {
			ctx := cmdContext(cmd)
			ch, err := openClickHouse(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()
			if err := ch.InsertLightning(ctx, strokes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "stored %d strokes\n", len(strokes))
			return nil
		}
		if !binaryFlags.Table {
			return emit(cmd, strokes)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"VALID", "LAT", "LON", "KA", "TYPE", "MULT"}, func(add func(...string)) {
			for _, s := range strokes {
				add(s.Valid.Format("15:04:05.000"),
					strconv.FormatFloat(s.Lat, 'f', 3, 64),
					strconv.FormatFloat(s.Lon, 'f', 3, 64),
					strconv.FormatFloat(s.Amplitude, 'f', 1, 64),
					s.Type, strconv.Itoa(s.Multiplicity))
			}
		})
		return nil
	}),
}

var ds3505Cmd = &cobra.Command{
	Use:   "ds3505 FILE",
	Short: "Decode NCEI DS3505 (ISD) fixed width records",
	Args:  cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		obs, warns, err := ds3505.ReadAll(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, warns)
		if binaryFlags.Store {
			return storeObservations(cmd, storage.DS3505Rows(obs))
		}
		if !binaryFlags.Table {
			return emit(cmd, obs)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"STATION", "VALID", "TMPF", "DWPF", "SKNT", "VSBY"}, func(add func(...string)) {
			for _, o := range obs {
				add(o.Station(), o.Valid.Format("2006-01-02 15:04"),
					fmtFloat(o.TempF, 1), fmtFloat(o.DewF, 1), fmtFloat(o.WindKt, 0), fmtFloat(o.VisMiles, 2))
			}
		})
		return nil
	}),
}

var ghcnhCmd = &cobra.Command{
	Use:   "ghcnh FILE",
	Short: "Decode a GHCNh pipe delimited station file",
	Args:  cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		obs, warns, err := ghcnh.ReadAll(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, warns)
		if binaryFlags.Store {
			return storeObservations(cmd, storage.GHCNhRows(obs))
		}
		if !binaryFlags.Table {
			return emit(cmd, obs)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"STATION", "VALID", "TEMP", "DEWPT", "WIND"}, func(add func(...string)) {
			for _, o := range obs {
				add(o.Station, o.Valid.Format("2006-01-02 15:04"),
					fmtFloat(o.Get("temperature"), 1),
					fmtFloat(o.Get("dew_point_temperature"), 1),
					fmtFloat(o.Get("wind_speed"), 1))
			}
		})
		return nil
	}),
}

var igraCmd = &cobra.Command{
	Use:   "igra FILE",
	Short: "Decode IGRA radiosonde soundings",
	Args:  cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		soundings, warns, err := igra.ReadAll(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, warns)
		if !binaryFlags.Table {
			return emit(cmd, soundings)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"STATION", "VALID", "LAT", "LON", "LEVELS"}, func(add func(...string)) {
			for _, s := range soundings {
				add(s.Station, s.Valid.Format("2006-01-02 15Z"),
					strconv.FormatFloat(s.Lat, 'f', 2, 64),
					strconv.FormatFloat(s.Lon, 'f', 2, 64),
					strconv.Itoa(len(s.Levels)))
			}
		})
		return nil
	}),
}

var bufkitCmd = &cobra.Command{
	Use:   "bufkit FILE",
	Short: "Decode a BUFKIT model sounding file",
	Args:  cobra.ExactArgs(1),
	RunE: binaryRunner(func(cmd *cobra.Command, r io.Reader) error {
		b, err := bufkit.Decode(r)
		if err != nil {
			return err
		}
		reportWarnings(cmd, b.Warnings)
		if !binaryFlags.Table {
			return emit(cmd, b)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"STATION", "VALID", "HOUR", "LEVELS"}, func(add func(...string)) {
			for _, s := range b.Soundings {
				add(s.Station, s.Valid.Format("2006-01-02 15Z"), strconv.Itoa(s.Hour), strconv.Itoa(len(s.Levels)))
			}
		})
		return nil
	}),
}

func init() {
	pf := binaryCmd.PersistentFlags()
	pf.StringVarP(&binaryFlags.Output, "output", "o", "", "output JSON file (default: stdout)")
	pf.BoolVar(&binaryFlags.Pretty, "pretty", false, "pretty-print JSON output")
	pf.BoolVar(&binaryFlags.Table, "table", false, "print a summary table instead of JSON")

	for _, c := range []*cobra.Command{nldnCmd, ds3505Cmd, ghcnhCmd} {
		c.Flags().BoolVar(&binaryFlags.Store, "store", false, "write to ClickHouse (CLICKHOUSE_* settings)")
	}

	binaryCmd.AddCommand(giniCmd, nldnCmd, ds3505Cmd, ghcnhCmd, igraCmd, bufkitCmd)
}
