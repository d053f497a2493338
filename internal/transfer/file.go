package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/polydb-io/polydb/pkg/provider"
)

// WriteOptions adjusts file export behavior per engine.
type WriteOptions struct {
	// FlattenCSV flattens nested records before CSV serialization and
	// uses the union of all flattened columns as the header. Document
	// stores need this; relational engines do not.
	FlattenCSV bool
}

// WriteFile writes records to path as CSV or JSON depending on the file
// extension and returns the written path.
func WriteFile(path string, records []provider.Record, opts WriteOptions) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		header := HeaderFromFirst(records)
		if opts.FlattenCSV {
			records = FlattenAll(records)
			header = UnionHeader(records)
		}
		if err := WriteCSV(f, records, header); err != nil {
			return "", err
		}
	case ".json":
		if err := WriteJSON(f, records); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported export format %q: use .csv or .json", ext)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error flushing %s: %w", path, err)
	}
	return path, nil
}

// ReadFile parses records from a CSV or JSON file. For CSV, dropped is the
// number of rows discarded for not matching the header width.
func ReadFile(path string) (records []provider.Record, dropped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		records, err = ParseJSON(f)
		return records, 0, err
	default:
		return nil, 0, fmt.Errorf("unsupported import format %q: use .csv or .json", ext)
	}
}
