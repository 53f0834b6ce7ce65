package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// printSimpleTable renders a bordered, left aligned table.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	fill(func(cols ...string) { tw.Append(cols) })
	tw.Render()
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// writeJSON encodes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any, pretty bool) error {
	enc, err := marshalJSON(v, pretty)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(enc); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// openInput opens path, or returns stdin for "" and "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func fmtFloat(v *float64, prec int) string {
	if v == nil {
		return "M"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
