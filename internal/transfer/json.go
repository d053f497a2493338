package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/polydb-io/polydb/pkg/provider"
)

// WriteJSON writes records as a pretty-printed JSON array, preserving each
// record's field order. Values serialize structurally with no custom
// encoding.
func WriteJSON(w io.Writer, records []provider.Record) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, rec := range records {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, col := range rec.Columns {
			if j > 0 {
				buf.WriteString(",")
			}
			key, err := json.Marshal(col)
			if err != nil {
				return err
			}
			value, err := json.Marshal(rec.Values[col])
			if err != nil {
				return fmt.Errorf("error serializing field %q: %w", col, err)
			}
			buf.WriteString("\n    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(value)
		}
		if rec.Len() > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
	}
	buf.WriteString("\n]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// ParseJSON parses an array of objects, preserving each object's key order.
// Numbers decode as json.Number to avoid float mangling of large integers.
func ParseJSON(r io.Reader) ([]provider.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error reading JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("JSON import source must be an array of objects")
	}

	records := []provider.Record{}
	for dec.More() {
		rec, err := decodeOrderedObject(dec)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("error reading JSON: %w", err)
	}
	return records, nil
}

// decodeOrderedObject consumes one object from the decoder, keeping key
// order. The stock map decoding would lose it.
func decodeOrderedObject(dec *json.Decoder) (provider.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return provider.Record{}, fmt.Errorf("error reading JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return provider.Record{}, fmt.Errorf("JSON import source must be an array of objects")
	}

	rec := provider.NewRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return provider.Record{}, fmt.Errorf("error reading JSON key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return provider.Record{}, fmt.Errorf("unexpected JSON token %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return provider.Record{}, fmt.Errorf("error reading value of %q: %w", key, err)
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return provider.Record{}, fmt.Errorf("error reading JSON: %w", err)
	}
	return rec, nil
}
