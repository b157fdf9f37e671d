// Package threshold converts raw anomaly scores into binary flags.
//
// A persisted static cutoff works until the score distribution drifts; when
// it would flag more than half of a batch, the policy switches to a
// percentile of the batch's own scores. The decision is re-made from scratch
// on every batch, so no state survives between calls.
package threshold

import (
	"encoding/json"
	"os"
	"sort"
)

// Mode identifies which cutoff a resolution used.
type Mode string

const (
	// Static means the persisted cutoff was applied as-is.
	Static Mode = "static"
	// Dynamic means the persisted cutoff was deemed miscalibrated for the
	// batch and a batch percentile was applied instead.
	Dynamic Mode = "dynamic"
)

const (
	// DefaultStatic applies when no threshold config is readable.
	DefaultStatic = 0.005

	// switchRate is the anomaly rate above which the static cutoff is
	// considered miscalibrated.
	switchRate = 0.5

	// dynamicPercentile is the batch percentile used as fallback cutoff.
	dynamicPercentile = 95
)

// Policy resolves the effective cutoff for each batch.
type Policy struct {
	// ConfigPath points at an optional JSON file {"threshold": x}. It is
	// re-read on every resolution; read or parse failures fall back to
	// DefaultStatic.
	ConfigPath string
}

// Decision is the outcome of resolving one batch.
type Decision struct {
	Mode        Mode
	Static      float64
	Effective   float64
	AnomalyRate float64
}

// Resolve picks the effective cutoff for a batch of scores.
func (p *Policy) Resolve(scores []float64) Decision {
	static := p.staticThreshold()

	over := 0
	for _, s := range scores {
		if s > static {
			over++
		}
	}
	rate := 0.0
	if len(scores) > 0 {
		rate = float64(over) / float64(len(scores))
	}

	d := Decision{Mode: Static, Static: static, Effective: static, AnomalyRate: rate}
	if rate > switchRate {
		d.Mode = Dynamic
		d.Effective = percentile(scores, dynamicPercentile)
	}
	return d
}

// Flags applies the resolved cutoff with a strict comparison: a score equal
// to the cutoff is not flagged. For a batch of one the dynamic percentile
// degenerates to that record's own score, so the strict comparison keeps a
// record from being anomalous relative to itself.
func (p *Policy) Flags(scores []float64) ([]bool, Decision) {
	d := p.Resolve(scores)

	flags := make([]bool, len(scores))
	for i, s := range scores {
		flags[i] = s > d.Effective
	}
	return flags, d
}

// thresholdConfig is the persisted form: {"threshold": 0.005}.
type thresholdConfig struct {
	Threshold float64 `json:"threshold"`
}

func (p *Policy) staticThreshold() float64 {
	if p.ConfigPath == "" {
		return DefaultStatic
	}

	data, err := os.ReadFile(p.ConfigPath)
	if err != nil {
		return DefaultStatic
	}

	var cfg thresholdConfig
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Threshold <= 0 {
		return DefaultStatic
	}
	return cfg.Threshold
}

// percentile returns the p-th percentile using the nearest-rank convention
// on the sorted scores.
func percentile(scores []float64, p float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)-1) * p / 100)
	return sorted[idx]
}

// WriteConfig persists a static threshold, the inverse of staticThreshold.
// Used by the training CLI after calibrating on training scores.
func WriteConfig(path string, value float64) error {
	data, err := json.MarshalIndent(thresholdConfig{Threshold: value}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
