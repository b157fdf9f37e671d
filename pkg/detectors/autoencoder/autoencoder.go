// Package autoencoder implements a reconstruction-error scoring backend.
//
// The network itself is trained offline; this package loads the exported
// weights and runs the forward pass. The anomaly score for a sample is the
// mean squared difference between the input vector and its reconstruction,
// so scores are non-negative and higher means more anomalous.
package autoencoder

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
)

// Activation names supported by Layer.
const (
	ActReLU   = "relu"
	ActLinear = "linear"
)

// Layer is one dense layer of the network.
// Weights[i][j] connects input unit i to output unit j.
type Layer struct {
	Weights    [][]float64
	Biases     []float64
	Activation string
}

// Model holds a loaded autoencoder.
type Model struct {
	layers []Layer
	// inputDim is the expected feature vector width, fixed by the first layer.
	inputDim int
	loaded   bool
}

// New creates a Model from an explicit layer stack. The decoder must bring
// the signal back to the input width or scoring fails.
func New(layers []Layer) (*Model, error) {
	m := &Model{layers: layers}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.inputDim = len(layers[0].Weights)
	m.loaded = true
	return m, nil
}

func (m *Model) validate() error {
	if len(m.layers) == 0 {
		return errors.New("autoencoder has no layers")
	}
	prev := len(m.layers[0].Weights)
	for i, l := range m.layers {
		if len(l.Weights) == 0 {
			return fmt.Errorf("layer %d has no weights", i)
		}
		if len(l.Weights) != prev {
			return fmt.Errorf("layer %d expects %d inputs, previous layer emits %d", i, len(l.Weights), prev)
		}
		out := len(l.Weights[0])
		for j, row := range l.Weights {
			if len(row) != out {
				return fmt.Errorf("layer %d weight row %d has width %d, want %d", i, j, len(row), out)
			}
		}
		if len(l.Biases) != out {
			return fmt.Errorf("layer %d has %d biases, want %d", i, len(l.Biases), out)
		}
		switch l.Activation {
		case ActReLU, ActLinear:
		default:
			return fmt.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}
		prev = out
	}
	if prev != len(m.layers[0].Weights) {
		return fmt.Errorf("network maps %d inputs to %d outputs, reconstruction requires equal widths",
			len(m.layers[0].Weights), prev)
	}
	return nil
}

// InputDim returns the feature vector width the model expects.
func (m *Model) InputDim() int {
	return m.inputDim
}

// Reconstruct runs the forward pass for a single sample.
func (m *Model) Reconstruct(sample []float64) ([]float64, error) {
	if !m.loaded {
		return nil, errors.New("model not loaded")
	}
	if len(sample) != m.inputDim {
		return nil, fmt.Errorf("sample has %d features, model expects %d", len(sample), m.inputDim)
	}

	x := sample
	for _, l := range m.layers {
		out := make([]float64, len(l.Biases))
		for j := range out {
			sum := l.Biases[j]
			for i, v := range x {
				sum += v * l.Weights[i][j]
			}
			if l.Activation == ActReLU && sum < 0 {
				sum = 0
			}
			out[j] = sum
		}
		x = out
	}
	return x, nil
}

// Score returns the reconstruction error for each sample.
func (m *Model) Score(data [][]float64) ([]float64, error) {
	if !m.loaded {
		return nil, errors.New("model not loaded")
	}

	scores := make([]float64, len(data))
	for i, sample := range data {
		score, err := m.ScoreOne(sample)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}

// ScoreOne returns the mean squared reconstruction error for one sample.
func (m *Model) ScoreOne(sample []float64) (float64, error) {
	recon, err := m.Reconstruct(sample)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i, v := range sample {
		d := v - recon[i]
		sum += d * d
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, errors.New("reconstruction produced non-finite error")
	}
	return sum / float64(len(sample)), nil
}

// Save serializes the model.
func (m *Model) Save() ([]byte, error) {
	if !m.loaded {
		return nil, errors.New("model not loaded")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.layers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load deserializes an exported model.
func (m *Model) Load(data []byte) error {
	var layers []Layer
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&layers); err != nil {
		return err
	}

	m.layers = layers
	if err := m.validate(); err != nil {
		return err
	}
	m.inputDim = len(layers[0].Weights)
	m.loaded = true
	return nil
}
