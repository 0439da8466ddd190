// Package records reads and writes the delimited client files the notifier
// operates on.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Field names the notifier requires or appends.
const (
	FieldNumber = "number"
	FieldText   = "text"
	FieldError  = "errorMessage"
)

// ErrNoHeader reports an input file without a header line.
var ErrNoHeader = errors.New("input has no header line")

// Record maps field names to values for one input row. The field order is
// carried by the enclosing Document's header, shared by all records.
type Record map[string]string

// Document is one loaded input file: the header order plus its rows.
type Document struct {
	Header  []string
	Records []Record
}

// Load parses a comma-separated input with a header line into a Document.
//
// The header defines field names and their order. Rows shorter than the
// header are padded with empty strings; values beyond the header count are
// dropped. Both follow the lenient legacy file handling rather than
// rejecting non-rectangular input.
func Load(r io.Reader) (*Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for _, required := range []string{FieldNumber, FieldText} {
		if !hasColumn(header, required) {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	doc := &Document{Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

// OutputHeader returns the header for the failure file: the input header
// with the error column appended.
func OutputHeader(header []string) []string {
	out := make([]string, 0, len(header)+1)
	out = append(out, header...)
	return append(out, FieldError)
}

// WriteFailures writes one header line followed by one line per record,
// in the order given. Every record must carry a value for every header
// column; a missing key is an error rather than a silently empty cell.
func WriteFailures(w io.Writer, header []string, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for _, rec := range recs {
		for i, name := range header {
			v, ok := rec[name]
			if !ok {
				return fmt.Errorf("record missing field %q", name)
			}
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// hasColumn requires the exact column name: header names double as record
// keys, so a case-folded match would still leave lookups empty.
func hasColumn(header []string, name string) bool {
	return slices.Contains(header, name)
}
