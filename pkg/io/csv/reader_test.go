package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader(t *testing.T) {
	path := writeCSV(t, `id,amount,user_id,merchant,hour
1,250000,42,Tokopedia,14
2,98000.5,user456,,3
`)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"id", "amount", "user_id", "merchant", "hour"}, r.Headers())

	records, err := r.Read()
	require.NoError(t, err)
	require.Len(t, records, 2)

	amount, ok := records[0].Float("amount")
	require.True(t, ok)
	assert.Equal(t, 250000.0, amount)

	// Numeric-looking cells become numbers, the rest stay strings.
	assert.Equal(t, 42.0, records[0]["user_id"])
	assert.Equal(t, "user456", records[1]["user_id"])
	assert.Equal(t, "Tokopedia", records[0]["merchant"])

	// Empty cells are absent fields, not empty strings.
	_, present := records[1]["merchant"]
	assert.False(t, present)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestReaderEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := NewReader(path)
	assert.Error(t, err, "header row is required")
}
