package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nws_parser/internal/config"
	"nws_parser/internal/storage"
)

var searchFlags struct {
	Index  string
	AFOS   string
	Family string
	Limit  int
	JSON   bool
}

var searchCmd = &cobra.Command{
	Use:   "search [TEXT]",
	Short: "Search the local product index",
	Long: `Search queries the SQLite full text index that "ingest" fills when
NWS_INDEX_DB is set. TEXT uses SQLite FTS5 match syntax.`,
	Example: `  nws_parser search tornado --index products.db
  nws_parser search --afos SVRDMX --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := searchFlags.Index
		if path == "" {
			path = config.EnvOrDefault("NWS_INDEX_DB", "")
		}
		if path == "" {
			return errors.New("set --index or NWS_INDEX_DB")
		}
		db, err := storage.OpenLocal(path)
		if err != nil {
			return err
		}
		defer db.Close()

		params := storage.SearchParams{AFOS: searchFlags.AFOS, Family: searchFlags.Family, Limit: searchFlags.Limit}
		if len(args) == 1 {
			params.Text = args[0]
		}
		rows, err := db.SearchProducts(cmdContext(cmd), params)
		if err != nil {
			return err
		}
		if searchFlags.JSON {
			return writeJSON(cmd.OutOrStdout(), "", rows, true)
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No products match.")
			return nil
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"VALID", "PRODUCT ID", "AFOS", "FAMILY", "WARNINGS"}, func(add func(...string)) {
			for _, r := range rows {
				add(r.Valid.Format("2006-01-02 15:04"), r.ProductID, r.AFOS, r.Family, strconv.Itoa(len(r.Warnings)))
			}
		})
		return nil
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.Index, "index", "", "SQLite product index (overrides NWS_INDEX_DB)")
	f.StringVar(&searchFlags.AFOS, "afos", "", "only this AFOS identifier")
	f.StringVar(&searchFlags.Family, "family", "", "only this decoder family")
	f.IntVar(&searchFlags.Limit, "limit", 20, "maximum rows")
	f.BoolVar(&searchFlags.JSON, "json", false, "print JSON instead of a table")
}
