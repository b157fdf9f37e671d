// Package scoring orchestrates the batch pipeline: payload validation,
// feature normalization, the fitted transform, a scoring backend and the
// threshold policy, assembled into per-record results.
package scoring

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/payguard/fraudml/pkg/detectors"
	"github.com/payguard/fraudml/pkg/features"
	"github.com/payguard/fraudml/pkg/threshold"
)

// Result merges a record's display fields with the anomaly verdict.
type Result struct {
	ID              string  `json:"id"`
	Timestamp       string  `json:"timestamp,omitempty"`
	Merchant        string  `json:"merchant"`
	Location        string  `json:"location"`
	Amount          float64 `json:"amount"`
	Hour            int     `json:"hour"`
	UserID          string  `json:"user_id"`
	TransactionType string  `json:"transaction_type"`
	Channel         string  `json:"channel"`
	DeviceType      string  `json:"device_type"`
	IsAnomaly       bool    `json:"isAnomaly"`
	AnomalyScore    float64 `json:"anomalyScore"`
}

// Engine holds the process-wide read-only scoring state. Artifacts are
// loaded once at startup; every call after that only reads them, so the
// engine is safe for concurrent use without locking.
type Engine struct {
	transform *features.Transform
	backend   detectors.Scorer
	policy    *threshold.Policy
	log       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for batch diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithThresholdConfig points the policy at a persisted threshold file.
func WithThresholdConfig(path string) Option {
	return func(e *Engine) {
		e.policy.ConfigPath = path
	}
}

// NewEngine creates an engine around loaded artifacts. Either artifact may
// be nil: the engine then reports not ready and scoring calls fail fast
// instead of crashing the process.
func NewEngine(transform *features.Transform, backend detectors.Scorer, opts ...Option) *Engine {
	e := &Engine{
		transform: transform,
		backend:   backend,
		policy:    &threshold.Policy{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ready reports whether both artifacts are loaded.
func (e *Engine) Ready() bool {
	return e.transform != nil && e.backend != nil
}

// ScoreBatch runs the full pipeline over a batch. The batch either fully
// succeeds or fully fails; a bad record aborts the whole call.
func (e *Engine) ScoreBatch(records []features.Record) ([]Result, error) {
	if !e.Ready() {
		return nil, ErrNotReady
	}
	if len(records) == 0 {
		return nil, &ValidationError{Detail: "empty batch"}
	}

	table, err := features.Normalize(records)
	if err != nil {
		return nil, err
	}
	if table.AmountScale != 1 {
		e.log.Warn().
			Float64("scale", table.AmountScale).
			Msg("batch amount scale corrected before feature extraction")
	}

	vectors, err := e.transform.Apply(table)
	if err != nil {
		return nil, err
	}

	scores, err := e.backend.Score(vectors)
	if err != nil {
		return nil, fmt.Errorf("backend scoring: %w", err)
	}

	flags, decision := e.policy.Flags(scores)
	e.logBatch(scores, flags, decision)

	return assemble(records, table, scores, flags), nil
}

func (e *Engine) logBatch(scores []float64, flags []bool, d threshold.Decision) {
	min, max, sum := scores[0], scores[0], 0.0
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		sum += s
	}
	anomalies := 0
	for _, f := range flags {
		if f {
			anomalies++
		}
	}

	e.log.Info().
		Int("batch", len(scores)).
		Int("anomalies", anomalies).
		Str("threshold_mode", string(d.Mode)).
		Float64("threshold", d.Effective).
		Float64("static_rate", d.AnomalyRate).
		Float64("score_min", min).
		Float64("score_max", max).
		Float64("score_mean", sum/float64(len(scores))).
		Msg("batch scored")
}

// assemble merges display fields with verdicts, preserving input order.
// Categorical fields and the hour come from the normalized table so the
// documented defaults show up in output; the amount stays raw.
func assemble(records []features.Record, table *features.Table, scores []float64, flags []bool) []Result {
	results := make([]Result, len(records))
	for i, rec := range records {
		r := Result{
			Merchant:        table.Categorical[features.FieldMerchant][i],
			Location:        table.Categorical[features.FieldLocation][i],
			TransactionType: table.Categorical[features.FieldTransactionType][i],
			Channel:         table.Categorical[features.FieldChannel][i],
			DeviceType:      table.Categorical[features.FieldDeviceType][i],
			Hour:            int(table.Numeric[features.FieldHour][i]),
			IsAnomaly:       flags[i],
			AnomalyScore:    scores[i],
		}

		if id, ok := rec.String(features.FieldID); ok {
			r.ID = id
		} else {
			r.ID = strconv.Itoa(i)
		}
		if ts, ok := rec.String(features.FieldTimestamp); ok {
			r.Timestamp = ts
		}
		if amount, ok := rec.Float(features.FieldAmount); ok {
			r.Amount = amount
		}
		if uid, ok := rec.String(features.FieldUserID); ok {
			r.UserID = uid
		} else {
			r.UserID = "0"
		}

		results[i] = r
	}
	return results
}
