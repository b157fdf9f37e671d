// Package io provides record ingestion and result output for the CLI.
package io

import (
	"github.com/payguard/fraudml/pkg/features"
	"github.com/payguard/fraudml/pkg/scoring"
)

// RecordReader reads transaction records from a data source.
type RecordReader interface {
	// Read returns the complete set of records.
	Read() ([]features.Record, error)

	// Close releases resources.
	Close() error
}

// ResultWriter writes scored results.
type ResultWriter interface {
	// Write outputs a single result.
	Write(result scoring.Result) error

	// WriteAll outputs multiple results.
	WriteAll(results []scoring.Result) error

	// Close releases resources.
	Close() error
}
