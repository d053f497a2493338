// Package transfer implements the CSV/JSON codec shared by every adapter:
// export serialization, import parsing, and document flattening for engines
// whose records are nested.
package transfer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/polydb-io/polydb/internal/database/common"
	"github.com/polydb-io/polydb/pkg/provider"
)

// HeaderFromFirst returns the column order of the first record: the header
// convention for uniform (relational) data.
func HeaderFromFirst(records []provider.Record) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Columns
}

// UnionHeader returns the union of all columns across records, in first-seen
// order. Document stores export divergent shapes, so the header must cover
// every key that appears anywhere.
func UnionHeader(records []provider.Record) []string {
	var header []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, col := range rec.Columns {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			header = append(header, col)
		}
	}
	return header
}

// WriteCSV writes records under the given header. Cells are escaped per
// RFC 4180 (wrapped in double quotes with internal quotes doubled whenever a
// value contains a comma, quote or newline); nil values serialize to the
// empty string. Columns a record lacks are written empty.
func WriteCSV(w io.Writer, records []provider.Record, header []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, col := range header {
			row[i] = common.ValueToString(rec.Values[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV parses quoted-field-aware CSV. The first line is the header; rows
// whose column count does not match the header are dropped and counted so
// the caller can surface a warning. All values come back as strings.
func ParseCSV(r io.Reader) (records []provider.Record, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("error reading CSV header: %w", err)
	}

	records = []provider.Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("error reading CSV row: %w", err)
		}
		if len(row) != len(header) {
			dropped++
			continue
		}
		rec := provider.NewRecord()
		for i, col := range header {
			rec.Set(col, row[i])
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}
