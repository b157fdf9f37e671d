// Package iforest implements an Isolation Forest scoring backend.
package iforest

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/payguard/fraudml/pkg/detectors"
)

// Forest scores samples by how easily random axis-aligned splits isolate
// them. Scores are 2^(-E[path]/c(n)) in [0, 1]; higher means more anomalous,
// the same orientation the reconstruction backend uses.
type Forest struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	sampleSize    int
	contamination float64
	cutoff        float64
	maxDepth      int
	rng           *rand.Rand

	// Trained model
	trees   []*tree
	trained bool

	// Normalization constant c(sampleSize) from training
	avgPathLength float64
}

type tree struct {
	Root *node
}

type node struct {
	// Split parameters (internal nodes)
	SplitFeature int
	SplitValue   float64

	Left  *node
	Right *node

	// Size is the number of samples that reached this leaf.
	Size int
}

// Option configures a Forest.
type Option func(*Forest)

// WithTrees sets the number of isolation trees.
func WithTrees(n int) Option {
	return func(f *Forest) {
		f.nTrees = n
	}
}

// WithSampleSize sets the subsample size for each tree.
func WithSampleSize(n int) Option {
	return func(f *Forest) {
		f.sampleSize = n
	}
}

// WithContamination sets the expected proportion of anomalies in the
// training data; it positions the backend's own cutoff after Fit.
func WithContamination(c float64) Option {
	return func(f *Forest) {
		f.contamination = c
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(f *Forest) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Forest with the given options.
func New(opts ...Option) *Forest {
	f := &Forest{
		nTrees:        100,
		sampleSize:    256,
		contamination: 0.1,
		cutoff:        0.5,
		rng:           rand.New(rand.NewSource(42)),
	}

	for _, opt := range opts {
		opt(f)
	}

	f.maxDepth = int(math.Ceil(math.Log2(float64(f.sampleSize))))

	return f
}

// Fit trains the forest on historical data.
func (f *Forest) Fit(data [][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data) == 0 {
		return errors.New("empty training data")
	}

	nSamples := len(data)
	nFeatures := len(data[0])

	sampleSize := f.sampleSize
	if sampleSize > nSamples {
		sampleSize = nSamples
	}

	f.trees = make([]*tree, f.nTrees)
	for i := 0; i < f.nTrees; i++ {
		// Sample without replacement
		indices := f.rng.Perm(nSamples)[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = data[idx]
		}

		f.trees[i] = &tree{Root: f.buildNode(sample, nFeatures, 0)}
	}

	f.avgPathLength = averagePathLength(float64(sampleSize))
	f.trained = true

	// Position the cutoff so roughly contamination*N training samples sit above it.
	if f.contamination > 0 {
		scores, _ := f.score(data)
		f.cutoff = Percentile(scores, 100*(1-f.contamination))
	}

	return nil
}

func (f *Forest) buildNode(data [][]float64, nFeatures, depth int) *node {
	n := len(data)

	if depth >= f.maxDepth || n <= 1 {
		return &node{Size: n}
	}

	feature := f.rng.Intn(nFeatures)

	minVal, maxVal := data[0][feature], data[0][feature]
	for _, row := range data[1:] {
		if row[feature] < minVal {
			minVal = row[feature]
		}
		if row[feature] > maxVal {
			maxVal = row[feature]
		}
	}

	// Constant feature in this partition, nothing left to split on.
	if minVal == maxVal {
		return &node{Size: n}
	}

	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	var left, right [][]float64
	for _, row := range data {
		if row[feature] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &node{
		SplitFeature: feature,
		SplitValue:   splitValue,
		Left:         f.buildNode(left, nFeatures, depth+1),
		Right:        f.buildNode(right, nFeatures, depth+1),
	}
}

// Score returns anomaly scores for the given samples.
func (f *Forest) Score(data [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, errors.New("model not trained")
	}

	return f.score(data)
}

func (f *Forest) score(data [][]float64) ([]float64, error) {
	scores := make([]float64, len(data))
	for i, sample := range data {
		scores[i] = f.scoreOne(sample)
	}
	return scores, nil
}

// ScoreOne returns the anomaly score for a single sample.
func (f *Forest) ScoreOne(sample []float64) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return 0, errors.New("model not trained")
	}

	return f.scoreOne(sample), nil
}

func (f *Forest) scoreOne(sample []float64) float64 {
	var totalPath float64
	for _, t := range f.trees {
		totalPath += pathLength(sample, t.Root, 0)
	}
	avgPath := totalPath / float64(len(f.trees))

	return math.Pow(2, -avgPath/f.avgPathLength)
}

func pathLength(sample []float64, n *node, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		// Leaf: add the expected path length for the samples it absorbed.
		return float64(depth) + averagePathLength(float64(n.Size))
	}

	if sample[n.SplitFeature] < n.SplitValue {
		return pathLength(sample, n.Left, depth+1)
	}
	return pathLength(sample, n.Right, depth+1)
}

// averagePathLength returns c(n), the average path length of an unsuccessful
// BST search: 2*H(n-1) - 2*(n-1)/n with H(n) ~ ln(n) + Euler-Mascheroni.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

// ScoreStream processes feature vectors from a channel.
func (f *Forest) ScoreStream(ctx context.Context, input <-chan []float64, output chan<- detectors.Verdict) error {
	f.mu.RLock()
	if !f.trained {
		f.mu.RUnlock()
		return errors.New("model not trained")
	}
	f.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-input:
			if !ok {
				return nil
			}

			score, err := f.ScoreOne(sample)
			if err != nil {
				continue
			}

			select {
			case output <- detectors.Verdict{
				Score:     score,
				IsAnomaly: score > f.Cutoff(),
				Features:  sample,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Save serializes the trained forest.
func (f *Forest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, errors.New("model not trained")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.nTrees); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.sampleSize); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.contamination); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.cutoff); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.avgPathLength); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.trees); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a trained forest.
func (f *Forest) Load(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))

	if err := dec.Decode(&f.nTrees); err != nil {
		return err
	}
	if err := dec.Decode(&f.sampleSize); err != nil {
		return err
	}
	if err := dec.Decode(&f.contamination); err != nil {
		return err
	}
	if err := dec.Decode(&f.cutoff); err != nil {
		return err
	}
	if err := dec.Decode(&f.avgPathLength); err != nil {
		return err
	}
	if err := dec.Decode(&f.trees); err != nil {
		return err
	}

	f.maxDepth = int(math.Ceil(math.Log2(float64(f.sampleSize))))
	f.trained = true

	return nil
}

// Cutoff returns the backend's own anomaly cutoff (used by streaming; batch
// callers apply their threshold policy instead).
func (f *Forest) Cutoff() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cutoff
}

// SetCutoff overrides the anomaly cutoff.
func (f *Forest) SetCutoff(c float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = c
}

// Percentile returns the p-th percentile of data using the nearest-rank
// convention on the sorted values.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)-1) * p / 100)
	return sorted[idx]
}
