// Package ingest parses tracker export files into normalized table rows.
//
// One loader per metric family. Each family's raw input is a tagged union
// over the known historical export shapes; every loader tries its primary
// shape first and at least one fallback shape before giving up on a file.
// A failed file surfaces as a ParseError or SchemaError and never touches
// the loader's accumulated output, so callers can skip it and continue.
package ingest

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/tskov/fitloom/internal/errors"
)

// Description identifies a family and the filename patterns it claims.
type Description struct {
	// Family is the metric family name, used for logging and filtering.
	Family string

	// Patterns are the glob patterns matched against file base names.
	Patterns []string
}

// Loader is the capability contract every family implements.
//
// Load parses one located file and folds its rows into the family's own
// output collection. The collection is unchanged when Load returns an
// error. Loaders are not safe for concurrent Load calls on the same
// instance; the pipeline runs families in parallel but each family's
// files sequentially.
type Loader interface {
	Describe() Description
	Load(path string) error
}

// readRecords reads a JSON export file containing an array of records.
// Any read or decode failure is a ParseError for the file.
func readRecords(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewParseError(path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewParseError(path, err)
	}

	return records, nil
}

// flexNumber decodes a JSON value that historical exports emit either as
// a number or as a numeric string ("3" vs 3).
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = flexNumber(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

func ptrF(v float64) *float64 { return &v }
func ptrI32(v int32) *int32   { return &v }
func ptrI64(v int64) *int64   { return &v }
