// Package csv reads transaction records from CSV files with a header row.
package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/payguard/fraudml/pkg/features"
)

// Reader reads transaction records from a CSV file. The header row names
// the record fields; numeric-looking cells become numbers, everything else
// stays a string, and empty cells are treated as absent fields.
type Reader struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
}

// NewReader opens a CSV file and consumes its header row.
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:   file,
		reader: csv.NewReader(file),
	}

	headers, err := r.reader.Read()
	if err != nil {
		file.Close()
		return nil, err
	}
	if len(headers) == 0 {
		file.Close()
		return nil, errors.New("csv file has no header row")
	}
	r.headers = headers

	return r, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns all rows as records.
func (r *Reader) Read() ([]features.Record, error) {
	var records []features.Record

	for {
		row, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := r.toRecord(row)
		if len(rec) == 0 {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) toRecord(row []string) features.Record {
	rec := make(features.Record, len(r.headers))
	for i, header := range r.headers {
		if i >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			rec[header] = f
		} else {
			rec[header] = cell
		}
	}
	return rec
}
