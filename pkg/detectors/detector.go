// Package detectors provides scoring backends for transaction anomaly detection.
package detectors

import "context"

// Scorer is the common interface for all anomaly scoring backends.
//
// Backends are polymorphic over model family (reconstruction-based or
// isolation-based) but share one orientation convention: higher scores mean
// more anomalous, and scores are never negative.
type Scorer interface {
	// Score returns anomaly scores for the given samples.
	// data is a 2D slice where each row is a feature vector; the vector
	// width must match the width the backend was trained with.
	Score(data [][]float64) ([]float64, error)

	// ScoreOne returns the anomaly score for a single feature vector.
	ScoreOne(sample []float64) (float64, error)

	// Save serializes the trained backend to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained backend from bytes.
	Load(data []byte) error
}

// Trainable is implemented by backends that can be fitted in-process.
type Trainable interface {
	Scorer

	// Fit trains the backend on historical data.
	// data is a 2D slice where each row is a sample and each column is a feature.
	Fit(data [][]float64) error
}

// StreamScorer extends Scorer with streaming capabilities.
type StreamScorer interface {
	Scorer

	// ScoreStream processes feature vectors from a channel and outputs verdicts.
	ScoreStream(ctx context.Context, input <-chan []float64, output chan<- Verdict) error
}

// Verdict is a single streaming scoring result.
type Verdict struct {
	// Score is the anomaly score for the sample.
	Score float64
	// IsAnomaly indicates whether the score exceeds the backend's own cutoff.
	// Batch callers apply their own threshold policy instead.
	IsAnomaly bool
	// Features is the original input vector.
	Features []float64
}
