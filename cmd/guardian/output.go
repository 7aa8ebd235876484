package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// report is a command result. Tabular formats render Columns and Rows;
// json and yaml encode Value.
type report struct {
	Columns []string
	Rows    [][]string
	Value   any
	Footer  string // printed after the table only
}

func writeReport(w io.Writer, format string, r report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(r.Value)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(r.Value); err != nil {
			return err
		}

		return enc.Close()
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(r.Columns); err != nil {
			return err
		}

		if err := cw.WriteAll(r.Rows); err != nil {
			return err
		}

		return cw.Error()
	case "table", "":
		return writeTable(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, r report) error {
	title := cases.Title(language.English)

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = title.String(strings.ReplaceAll(c, "_", " "))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range r.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Footer != "" {
		_, err := fmt.Fprintln(w, r.Footer)
		return err
	}

	return nil
}

func itoa[T ~int | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64](v T) string {
	return fmt.Sprintf("%d", v)
}

func ftoa(v float64, prec int) string {
	return fmt.Sprintf("%.*f", prec, v)
}
