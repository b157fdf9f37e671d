package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantLen int
		wantErr bool
	}{
		{
			name:    "valid batch",
			payload: `{"transactions": [{"amount": 100.5, "merchant": "Amazon"}, {"amount": 25}]}`,
			wantLen: 2,
		},
		{
			name:    "missing transactions field",
			payload: `{}`,
			wantErr: true,
		},
		{
			name:    "transactions not a list",
			payload: `{"transactions": "x"}`,
			wantErr: true,
		},
		{
			name:    "empty transactions list",
			payload: `{"transactions": []}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			payload: `[1, 2, 3]`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			payload: `{"transactions": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParsePayload([]byte(tt.payload))

			if tt.wantErr {
				var validationErr *ValidationError
				require.Error(t, err)
				assert.ErrorAs(t, err, &validationErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestParsePayloadDistinctMessages(t *testing.T) {
	_, missing := ParsePayload([]byte(`{}`))
	_, notList := ParsePayload([]byte(`{"transactions": "x"}`))
	_, empty := ParsePayload([]byte(`{"transactions": []}`))

	assert.NotEqual(t, missing.Error(), notList.Error())
	assert.NotEqual(t, notList.Error(), empty.Error())
	assert.NotEqual(t, missing.Error(), empty.Error())
}

func TestParsePayloadFieldValues(t *testing.T) {
	records, err := ParsePayload([]byte(`{"transactions": [{"amount": 100.5, "user_id": "user456", "hour": 14}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	amount, ok := records[0].Float("amount")
	require.True(t, ok)
	assert.Equal(t, 100.5, amount)

	uid, ok := records[0].String("user_id")
	require.True(t, ok)
	assert.Equal(t, "user456", uid)
}
