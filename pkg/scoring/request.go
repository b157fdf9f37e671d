package scoring

import (
	"encoding/json"

	"github.com/payguard/fraudml/pkg/features"
)

// ParsePayload validates and decodes a scoring request of the form
// {"transactions": [{...}, ...]}. The three malformed shapes the boundary
// can deliver (no transactions field, transactions not a list, empty list)
// each produce a distinct ValidationError.
func ParsePayload(data []byte) ([]features.Record, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &ValidationError{Detail: "request body is not a JSON object"}
	}

	raw, ok := envelope["transactions"]
	if !ok {
		return nil, &ValidationError{Detail: `missing "transactions" field`}
	}

	var records []features.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &ValidationError{Detail: `"transactions" must be a list of objects`}
	}

	if len(records) == 0 {
		return nil, &ValidationError{Detail: `"transactions" must not be empty`}
	}

	return records, nil
}
