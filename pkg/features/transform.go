package features

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"
)

// TransformError reports a shaped table the fitted transform cannot accept.
type TransformError struct {
	Detail string
}

func (e *TransformError) Error() string {
	return "transform: " + e.Detail
}

// Transform is the fitted preprocessing artifact: standardization parameters
// for the numeric columns and one-hot vocabularies for the categorical
// columns. It is fitted once at training time, persisted alongside the
// model, and read-only at inference.
type Transform struct {
	NumericCols     []string
	CategoricalCols []string

	Means map[string]float64
	Stds  map[string]float64

	// Vocab holds the sorted category list per categorical column.
	// Unseen categories at inference encode as an all-zero block.
	Vocab map[string][]string

	fitted bool
	width  int
	index  map[string]map[string]int
}

// NewTransform creates an unfitted transform over the canonical schema.
func NewTransform() *Transform {
	return &Transform{
		NumericCols:     append([]string(nil), NumericColumns...),
		CategoricalCols: append([]string(nil), CategoricalColumns...),
		Means:           make(map[string]float64),
		Stds:            make(map[string]float64),
		Vocab:           make(map[string][]string),
	}
}

// Fit learns standardization parameters and vocabularies from a training table.
func (t *Transform) Fit(table *Table) error {
	if table == nil || table.N == 0 {
		return errors.New("empty training table")
	}

	for _, col := range t.NumericCols {
		values, ok := table.Numeric[col]
		if !ok {
			return &TransformError{Detail: fmt.Sprintf("numeric column %q absent", col)}
		}

		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		var variance float64
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(values)))
		if std == 0 {
			std = 1
		}

		t.Means[col] = mean
		t.Stds[col] = std
	}

	for _, col := range t.CategoricalCols {
		values, ok := table.Categorical[col]
		if !ok {
			return &TransformError{Detail: fmt.Sprintf("categorical column %q absent", col)}
		}

		seen := make(map[string]struct{})
		for _, v := range values {
			seen[v] = struct{}{}
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		t.Vocab[col] = vocab
	}

	t.finish()
	return nil
}

// finish builds the derived lookup state after Fit or Load.
func (t *Transform) finish() {
	t.width = len(t.NumericCols)
	t.index = make(map[string]map[string]int, len(t.CategoricalCols))
	for _, col := range t.CategoricalCols {
		idx := make(map[string]int, len(t.Vocab[col]))
		for i, v := range t.Vocab[col] {
			idx[v] = i
		}
		t.index[col] = idx
		t.width += len(t.Vocab[col])
	}
	t.fitted = true
}

// Width returns the feature vector width the transform emits.
func (t *Transform) Width() int {
	return t.width
}

// Apply encodes a shaped table into feature vectors: standardized numeric
// columns in schema order, then one one-hot block per categorical column in
// vocabulary order. The table must carry every column the transform was
// fitted with.
func (t *Transform) Apply(table *Table) ([][]float64, error) {
	if !t.fitted {
		return nil, errors.New("transform not fitted")
	}
	if table == nil || table.N == 0 {
		return nil, &TransformError{Detail: "empty table"}
	}

	for _, col := range t.NumericCols {
		if values, ok := table.Numeric[col]; !ok || len(values) != table.N {
			return nil, &TransformError{Detail: fmt.Sprintf("numeric column %q absent or misshapen", col)}
		}
	}
	for _, col := range t.CategoricalCols {
		if values, ok := table.Categorical[col]; !ok || len(values) != table.N {
			return nil, &TransformError{Detail: fmt.Sprintf("categorical column %q absent or misshapen", col)}
		}
	}

	out := make([][]float64, table.N)
	for i := 0; i < table.N; i++ {
		vec := make([]float64, t.width)
		pos := 0

		for _, col := range t.NumericCols {
			vec[pos] = (table.Numeric[col][i] - t.Means[col]) / t.Stds[col]
			pos++
		}

		for _, col := range t.CategoricalCols {
			if j, ok := t.index[col][table.Categorical[col][i]]; ok {
				vec[pos+j] = 1
			}
			pos += len(t.Vocab[col])
		}

		out[i] = vec
	}

	return out, nil
}

// transformArtifact is the gob wire form.
type transformArtifact struct {
	NumericCols     []string
	CategoricalCols []string
	Means           map[string]float64
	Stds            map[string]float64
	Vocab           map[string][]string
}

// Save serializes the fitted transform.
func (t *Transform) Save() ([]byte, error) {
	if !t.fitted {
		return nil, errors.New("transform not fitted")
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(transformArtifact{
		NumericCols:     t.NumericCols,
		CategoricalCols: t.CategoricalCols,
		Means:           t.Means,
		Stds:            t.Stds,
		Vocab:           t.Vocab,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load deserializes a fitted transform.
func (t *Transform) Load(data []byte) error {
	var a transformArtifact
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&a); err != nil {
		return err
	}

	t.NumericCols = a.NumericCols
	t.CategoricalCols = a.CategoricalCols
	t.Means = a.Means
	t.Stds = a.Stds
	t.Vocab = a.Vocab
	t.finish()
	return nil
}
