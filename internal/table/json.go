package table

// json.go - ingestion of raw JSON record arrays

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSONRecords reads a JSON array of flat objects from path and returns a
// table whose columns follow the order keys first appear in the source. Keys
// introduced by later records are appended as new columns; earlier rows get
// nulls for them.
//
// A token-level decoder is used instead of unmarshalling into maps, because
// Go maps do not preserve key order and the source field order is part of the
// table's column identity.
func ReadJSONRecords(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeJSONRecords(f)
}

// DecodeJSONRecords decodes a JSON array of flat records from r.
func DecodeJSONRecords(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected a JSON array of records, got %v", tok)
	}

	t := New()
	for dec.More() {
		row, err := decodeRecord(dec, t)
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, row)
	}

	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return t, nil
}

// decodeRecord consumes one object from the decoder, registering any new
// columns on t, and returns the row aligned to t's column order.
func decodeRecord(dec *json.Decoder, t *Table) ([]any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a record object, got %v", tok)
	}

	type kv struct {
		col int
		val any
	}
	var fields []kv
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading record key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a record key, got %v", keyTok)
		}
		v, err := decodeScalar(dec, key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, kv{col: t.AddColumn(key), val: v})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("reading record: %w", err)
	}

	row := make([]any, len(t.cols))
	for _, f := range fields {
		row[f.col] = f.val
	}
	return row, nil
}

// decodeScalar reads one scalar value. Numbers decode to int64 when integral
// and float64 otherwise. Nested objects and arrays are rejected: records are
// flat by contract.
func decodeScalar(dec *json.Decoder, key string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading value for %q: %w", key, err)
	}
	switch x := tok.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case bool:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number for %q: %w", key, err)
		}
		return f, nil
	case json.Delim:
		return nil, fmt.Errorf("field %q is not a flat value", key)
	default:
		return nil, fmt.Errorf("unsupported value for %q: %v", key, tok)
	}
}
