package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nws_parser/internal/geo"
	"nws_parser/internal/storage"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the station reference table",
	Long: `Commands for loading and inspecting the station table used to resolve
offset locations ("10 N DSM") and station coordinates.

The table is read from --stations (CSV) or --stations-db (SQLite).`,
}

// ─── stations import ─────────────────────────────────────────────────────────

var stationsImportCmd = &cobra.Command{
	Use:     "import CSV",
	Short:   "Load a station CSV into the SQLite snapshot",
	Example: `  nws_parser stations import stations.csv --stations-db ref.db`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.StationsDB == "" {
			return errors.New("--stations-db is required")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		table, err := geo.LoadStationsCSV(f)
		if err != nil {
			return err
		}

		db, err := storage.OpenLocal(globalFlags.StationsDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PutStations(cmdContext(cmd), table.All()); err != nil {
			return fmt.Errorf("store stations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d stations into %s\n", table.Len(), globalFlags.StationsDB)
		return nil
	},
}

// ─── stations show ───────────────────────────────────────────────────────────

var stationsShowCmd = &cobra.Command{
	Use:     "show ID...",
	Short:   "Show stations by identifier",
	Example: `  nws_parser stations show DSM KDSM --stations stations.csv`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := openStationTable(cmdContext(cmd))
		if err != nil {
			return err
		}
		var found []geo.Station
		var missing []string
		for _, id := range args {
			if st, ok := table.Station(strings.ToUpper(id)); ok {
				found = append(found, st)
			} else {
				missing = append(missing, id)
			}
		}
		printStations(cmd, found)
		if len(missing) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "not found: %s\n", strings.Join(missing, ", "))
		}
		return nil
	},
}

// ─── stations list ───────────────────────────────────────────────────────────

var stationsListFlags struct {
	Network string
	WFO     string
}

var stationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stations, optionally filtered",
	Example: `  nws_parser stations list --network IA_ASOS --stations-db ref.db
  nws_parser stations list --wfo DMX --stations stations.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := openStationTable(cmdContext(cmd))
		if err != nil {
			return err
		}
		var rows []geo.Station
		for _, st := range table.All() {
			if stationsListFlags.Network != "" && !strings.EqualFold(st.Network, stationsListFlags.Network) {
				continue
			}
			if stationsListFlags.WFO != "" && !strings.EqualFold(st.WFO, stationsListFlags.WFO) {
				continue
			}
			rows = append(rows, st)
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stations match.")
			return nil
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
		printStations(cmd, rows)
		return nil
	},
}

func init() {
	stationsListCmd.Flags().StringVar(&stationsListFlags.Network, "network", "", "only this network")
	stationsListCmd.Flags().StringVar(&stationsListFlags.WFO, "wfo", "", "only stations of this forecast office")
	stationsCmd.AddCommand(stationsImportCmd, stationsShowCmd, stationsListCmd)
}

func openStationTable(ctx context.Context) (*geo.StationTable, error) {
	switch {
	case globalFlags.StationsCSV != "":
		f, err := os.Open(globalFlags.StationsCSV)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geo.LoadStationsCSV(f)
	case globalFlags.StationsDB != "":
		return loadStationsDB(ctx, globalFlags.StationsDB)
	}
	return nil, errors.New("set --stations or --stations-db")
}

func printStations(cmd *cobra.Command, stations []geo.Station) {
	printSimpleTable(cmd.OutOrStdout(), []string{"ID", "NAME", "STATE", "NETWORK", "WFO", "LON", "LAT"}, func(add func(...string)) {
		for _, st := range stations {
			add(st.ID, truncate(st.Name, 32), st.State, st.Network, st.WFO,
				strconv.FormatFloat(st.Lon, 'f', 4, 64),
				strconv.FormatFloat(st.Lat, 'f', 4, 64))
		}
	})
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
