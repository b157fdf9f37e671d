// Package features shapes raw transaction records into the fixed-width
// numeric vectors the scoring backends consume.
package features

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Record is one candidate transaction as delivered by the caller. Field
// presence is heterogeneous; missing optional fields never reject a record.
type Record map[string]any

// Canonical field names.
const (
	FieldID              = "id"
	FieldAmount          = "amount"
	FieldTimestamp       = "timestamp"
	FieldUserID          = "user_id"
	FieldHour            = "hour"
	FieldTransactionType = "transaction_type"
	FieldChannel         = "channel"
	FieldMerchant        = "merchant"
	FieldDeviceType      = "device_type"
	FieldLocation        = "location"
)

// Float extracts a numeric field, coercing numeric strings.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat(v)
}

// String extracts a string field. Non-string scalars are formatted.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// userIDSpace bounds the hash fallback for non-numeric user identifiers.
const userIDSpace = 100000

// EncodeUserID maps a user identifier to its canonical numeric encoding:
// numeric values (or numeric strings) pass through, anything else is
// FNV-1a-hashed into [0, userIDSpace). Training and inference share this
// single rule; a mismatch would silently degrade scores rather than fail.
func EncodeUserID(v any) float64 {
	if v == nil {
		return 0
	}
	if f, ok := toFloat(v); ok {
		return float64(int64(f))
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	return float64(h.Sum32() % userIDSpace)
}
