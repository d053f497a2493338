package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/polydb-io/polydb/internal/database/common"
	"github.com/polydb-io/polydb/pkg/provider"
)

// renderRecords writes a record sequence in the chosen format. The column
// set is the union of all record columns in first-seen order, so ragged
// results (Redis replies, Mongo documents) still line up.
func renderRecords(w io.Writer, records []provider.Record, format string) error {
	switch format {
	case "json":
		return renderJSON(w, records)
	case "csv":
		return renderCSV(w, records)
	case "table", "":
		return renderTable(w, records)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func unionColumns(records []provider.Record) []string {
	var columns []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, col := range rec.Columns {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
	}
	return columns
}

func renderTable(w io.Writer, records []provider.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	columns := unionColumns(records)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = common.ValueToString(rec.Values[col])
		}
		t.AppendRow(row)
	}
	t.Render()

	_, err := fmt.Fprintf(w, "(%d rows)\n", len(records))
	return err
}

func renderJSON(w io.Writer, records []provider.Record) error {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = rec.Values
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, records []provider.Record) error {
	columns := unionColumns(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = common.ValueToString(rec.Values[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
