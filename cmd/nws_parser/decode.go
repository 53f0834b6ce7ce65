package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"nws_parser/internal/nws"
	_ "nws_parser/internal/parsers" // register all decoders via init()
	"nws_parser/internal/pipeline"
	"nws_parser/internal/registry"
)

// DecodeOut is one entry of the decode output.
type DecodeOut struct {
	Family    string             `json:"family,omitempty"`
	ProductID string             `json:"product_id,omitempty"`
	Result    registry.Result    `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Trace     []registry.Attempt `json:"trace,omitempty"`
}

// Stats counts what a decode run saw.
type Stats struct {
	Products  int
	Decoded   int
	Unclaimed int
	Failed    int
	Warnings  int
}

var decodeFlags struct {
	Output string
	Pretty bool
	All    bool
	Stats  bool
	Table  bool
	Trace  bool
}

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE...]",
	Short: "Decode text products to JSON",
	Long: `Decode reads one or more files (stdin when none are given), splits LDM
framed feeds into products and decodes each one.

Products no decoder claims are dropped unless --all is set.`,
	Example: `  nws_parser decode SVRDMX.txt --pretty
  nws_parser decode --table --stats feed.ldm
  cat product.txt | nws_parser decode --trace`,
	RunE: runDecode,
}

func init() {
	f := decodeCmd.Flags()
	f.StringVarP(&decodeFlags.Output, "output", "o", "", "output JSON file (default: stdout)")
	f.BoolVar(&decodeFlags.Pretty, "pretty", false, "pretty-print JSON output")
	f.BoolVar(&decodeFlags.All, "all", false, "include products no decoder claimed and failures")
	f.BoolVar(&decodeFlags.Stats, "stats", false, "print counters to stderr")
	f.BoolVar(&decodeFlags.Table, "table", false, "print a summary table instead of JSON")
	f.BoolVar(&decodeFlags.Trace, "trace", false, "include the routing trace of each product")
}

func runDecode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := cliLogger()

	now, err := referenceTime()
	if err != nil {
		return err
	}
	opts, err := loadOptions(ctx, references{}.withFlags(), log)
	if err != nil {
		return err
	}
	opts.Now = now

	reg := registry.Default()
	reg.Sort()

	if len(args) == 0 {
		args = []string{"-"}
	}

	frames := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		for _, path := range args {
			if err := readFrames(ctx, path, frames); err != nil {
				readErr <- err
				return
			}
		}
		readErr <- nil
	}()

	out := make([]DecodeOut, 0, 64)
	st := &Stats{}
	for raw := range frames {
		st.Products++
		entry, keep := decodeOne(reg, raw, opts, st)
		if keep || decodeFlags.All {
			out = append(out, entry)
		}
	}
	if err := <-readErr; err != nil {
		return err
	}

	if decodeFlags.Table {
		printDecodeTable(cmd.OutOrStdout(), out)
	} else if err := writeJSON(cmd.OutOrStdout(), decodeFlags.Output, out, decodeFlags.Pretty); err != nil {
		return err
	}

	if decodeFlags.Stats {
		fmt.Fprintf(os.Stderr, "stats: products=%d decoded=%d unclaimed=%d failed=%d warnings=%d\n",
			st.Products, st.Decoded, st.Unclaimed, st.Failed, st.Warnings)
	}
	return nil
}

func readFrames(ctx context.Context, path string, frames chan<- []byte) error {
	r, err := openInput(path)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := pipeline.ReadLDM(ctx, r, frames); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// decodeOne decodes a single frame and reports whether it produced a
// record.
func decodeOne(reg *registry.Registry, raw []byte, opts nws.Options, st *Stats) (DecodeOut, bool) {
	var entry DecodeOut
	if decodeFlags.Trace {
		if p, err := nws.Parse(raw, opts); err == nil {
			entry.Trace = reg.Trace(p, opts)
		}
	}

	res, err := reg.Decode(raw, opts)
	switch {
	case err != nil:
		st.Failed++
		entry.Error = err.Error()
		return entry, false
	case res == nil:
		st.Unclaimed++
		return entry, false
	}
	st.Decoded++
	st.Warnings += len(res.Base().Warnings)
	entry.Family = res.Type()
	entry.ProductID = res.Base().ProductID()
	entry.Result = res
	return entry, true
}

func printDecodeTable(w io.Writer, out []DecodeOut) {
	printSimpleTable(w, []string{"FAMILY", "PRODUCT ID", "SEGMENTS", "WARNINGS", "ERROR"}, func(add func(...string)) {
		for _, e := range out {
			segments, warnings := "", ""
			if e.Result != nil {
				p := e.Result.Base()
				segments = strconv.Itoa(len(p.Segments))
				warnings = strconv.Itoa(len(p.Warnings))
			}
			add(e.Family, e.ProductID, segments, warnings, truncate(e.Error, 60))
		}
	})
}
