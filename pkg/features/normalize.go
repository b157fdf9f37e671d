package features

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// NumericColumns and CategoricalColumns define the training-time schema.
// Order is load-bearing: the transform lays out feature vectors in exactly
// this order.
var (
	NumericColumns     = []string{FieldAmount, FieldHour, FieldUserID}
	CategoricalColumns = []string{FieldTransactionType, FieldChannel, FieldMerchant, FieldDeviceType, FieldLocation}
)

// categoricalDefaults are the documented fill-ins for absent or null fields.
var categoricalDefaults = map[string]string{
	FieldTransactionType: "purchase",
	FieldChannel:         "mobile",
	FieldMerchant:        "Unknown",
	FieldDeviceType:      "Android",
	FieldLocation:        "Unknown",
}

const (
	defaultHour = 12

	// Batch-mean heuristics guarding the backend against scale drift.
	// Means above scaleCeiling get divided down to the training scale;
	// means below currencyFloor are treated as foreign-currency values
	// and converted with a fixed rate.
	scaleCeiling  = 2_000_000
	scaleDivisor  = 1000
	currencyFloor = 100_000
	currencyRate  = 16000
)

// SchemaError reports feature columns still unusable after defaulting.
type SchemaError struct {
	Detail string
}

func (e *SchemaError) Error() string {
	return "schema: " + e.Detail
}

// Table is a column-shaped batch ready for the transform artifact.
type Table struct {
	N           int
	Numeric     map[string][]float64
	Categorical map[string][]string

	// AmountScale is the correction applied to the amount column
	// (1 when the batch mean sat inside the training scale).
	AmountScale float64
}

// Normalize shapes a batch of raw records into the trained column schema,
// applying field defaults, hour extraction, the canonical user_id encoding
// and the batch amount scale correction. Scaling and one-hot encoding are
// not done here; that is the transform artifact's job.
func Normalize(records []Record) (*Table, error) {
	if len(records) == 0 {
		return nil, &SchemaError{Detail: "empty batch"}
	}

	t := &Table{
		N:           len(records),
		Numeric:     make(map[string][]float64, len(NumericColumns)),
		Categorical: make(map[string][]string, len(CategoricalColumns)),
		AmountScale: 1,
	}
	for _, col := range NumericColumns {
		t.Numeric[col] = make([]float64, len(records))
	}
	for _, col := range CategoricalColumns {
		t.Categorical[col] = make([]string, len(records))
	}

	for i, rec := range records {
		amount, ok := rec.Float(FieldAmount)
		if !ok {
			return nil, &SchemaError{Detail: fmt.Sprintf("record %d: amount missing or non-numeric", i)}
		}
		t.Numeric[FieldAmount][i] = amount
		t.Numeric[FieldHour][i] = hourOf(rec)
		t.Numeric[FieldUserID][i] = EncodeUserID(rec[FieldUserID])

		for _, col := range CategoricalColumns {
			if s, ok := rec.String(col); ok {
				t.Categorical[col][i] = s
			} else {
				t.Categorical[col][i] = categoricalDefaults[col]
			}
		}
	}

	correctAmountScale(t)

	return t, nil
}

// hourOf resolves the hour-of-day for a record: an explicit hour field is
// coerced and clipped to [0, 23]; otherwise the hour is extracted from a
// parseable timestamp; otherwise the default applies.
func hourOf(rec Record) float64 {
	if _, present := rec[FieldHour]; present {
		h, ok := rec.Float(FieldHour)
		if !ok {
			return defaultHour
		}
		return math.Min(23, math.Max(0, math.Trunc(h)))
	}

	if ts, ok := rec.String(FieldTimestamp); ok {
		if parsed, err := ParseTimestamp(ts); err == nil {
			return float64(parsed.Hour())
		}
	}
	return defaultHour
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the timestamp formats accepted on input records.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// correctAmountScale applies the batch-mean heuristics to the amount column.
// The branches are mutually exclusive by construction.
func correctAmountScale(t *Table) {
	amounts := t.Numeric[FieldAmount]

	var sum float64
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(len(amounts))

	switch {
	case mean > scaleCeiling:
		t.AmountScale = 1.0 / scaleDivisor
	case mean < currencyFloor:
		t.AmountScale = currencyRate
	default:
		return
	}

	for i := range amounts {
		amounts[i] *= t.AmountScale
	}
}
