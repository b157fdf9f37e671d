// Package jsonl writes scored results as JSON lines.
package jsonl

import (
	"encoding/json"
	"io"
	"os"

	"github.com/payguard/fraudml/pkg/scoring"
)

// Writer writes one JSON object per line to an underlying stream.
type Writer struct {
	out     io.Writer
	file    *os.File
	encoder *json.Encoder
}

// NewWriter wraps an arbitrary stream.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, encoder: json.NewEncoder(out)}
}

// NewFileWriter creates (or truncates) a file and writes results to it.
func NewFileWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := NewWriter(file)
	w.file = file
	return w, nil
}

// Write outputs a single result.
func (w *Writer) Write(result scoring.Result) error {
	return w.encoder.Encode(result)
}

// WriteAll outputs multiple results.
func (w *Writer) WriteAll(results []scoring.Result) error {
	for _, r := range results {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
