package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingTable(t *testing.T) *Table {
	t.Helper()
	table, err := Normalize([]Record{
		{"amount": 400_000.0, "hour": 10.0, "user_id": 1.0, "merchant": "Amazon", "location": "Jakarta"},
		{"amount": 600_000.0, "hour": 14.0, "user_id": 2.0, "merchant": "Starbucks", "location": "Bandung"},
	})
	require.NoError(t, err)
	return table
}

func TestTransformFitApply(t *testing.T) {
	table := trainingTable(t)

	tf := NewTransform()
	require.NoError(t, tf.Fit(table))

	// 3 numeric columns + 5 categorical vocabularies. transaction_type,
	// channel and device_type collapsed to their defaults, so one category
	// each; merchant and location carry two.
	assert.Equal(t, 3+1+1+2+1+2, tf.Width())

	vectors, err := tf.Apply(table)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Len(t, vectors[0], tf.Width())

	// Two symmetric samples standardize to -1 and +1 on every numeric column.
	for col := 0; col < 3; col++ {
		assert.InDelta(t, -1, vectors[0][col], 1e-9)
		assert.InDelta(t, 1, vectors[1][col], 1e-9)
	}

	// Every one-hot block contributes exactly one hot unit per row.
	for _, vec := range vectors {
		hot := 0.0
		for _, v := range vec[3:] {
			hot += v
		}
		assert.Equal(t, 5.0, hot)
	}
}

func TestTransformDeterministicLayout(t *testing.T) {
	table := trainingTable(t)

	tf := NewTransform()
	require.NoError(t, tf.Fit(table))

	// Vocabularies are sorted, so "Amazon" owns the first merchant slot
	// regardless of row order during fit.
	assert.Equal(t, []string{"Amazon", "Starbucks"}, tf.Vocab[FieldMerchant])
	assert.Equal(t, []string{"Bandung", "Jakarta"}, tf.Vocab[FieldLocation])
}

func TestTransformUnseenCategory(t *testing.T) {
	tf := NewTransform()
	require.NoError(t, tf.Fit(trainingTable(t)))

	unseen, err := Normalize([]Record{
		{"amount": 500_000.0, "hour": 12.0, "user_id": 1.0, "merchant": "Alibaba", "location": "Jakarta"},
	})
	require.NoError(t, err)

	vectors, err := tf.Apply(unseen)
	require.NoError(t, err)

	// Merchant block sits after the numerics and the single-category
	// transaction_type and channel blocks.
	merchantBlock := vectors[0][5:7]
	assert.Equal(t, []float64{0, 0}, merchantBlock, "unseen category encodes as zeros")
}

func TestTransformApplyErrors(t *testing.T) {
	tf := NewTransform()

	_, err := tf.Apply(trainingTable(t))
	assert.Error(t, err, "apply before fit")

	require.NoError(t, tf.Fit(trainingTable(t)))

	var transformErr *TransformError

	_, err = tf.Apply(&Table{N: 0})
	assert.ErrorAs(t, err, &transformErr)

	broken := trainingTable(t)
	delete(broken.Numeric, FieldUserID)
	_, err = tf.Apply(broken)
	assert.ErrorAs(t, err, &transformErr)

	misshapen := trainingTable(t)
	misshapen.Categorical[FieldMerchant] = misshapen.Categorical[FieldMerchant][:1]
	_, err = tf.Apply(misshapen)
	assert.ErrorAs(t, err, &transformErr)
}

func TestTransformSaveLoad(t *testing.T) {
	table := trainingTable(t)

	original := NewTransform()
	require.NoError(t, original.Fit(table))
	want, err := original.Apply(table)
	require.NoError(t, err)

	data, err := original.Save()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	loaded := NewTransform()
	require.NoError(t, loaded.Load(data))
	assert.Equal(t, original.Width(), loaded.Width())

	got, err := loaded.Apply(table)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTransformConstantColumn(t *testing.T) {
	// A constant numeric column has zero variance; the guard keeps the
	// standardization from dividing by zero.
	table, err := Normalize([]Record{
		{"amount": 500_000.0, "hour": 12.0},
		{"amount": 500_000.0, "hour": 12.0},
	})
	require.NoError(t, err)

	tf := NewTransform()
	require.NoError(t, tf.Fit(table))

	vectors, err := tf.Apply(table)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vectors[0][0])
	assert.Equal(t, 0.0, vectors[0][1])
}
