package scoring

import (
	"fmt"
	"os"

	"github.com/payguard/fraudml/pkg/detectors"
	"github.com/payguard/fraudml/pkg/detectors/autoencoder"
	"github.com/payguard/fraudml/pkg/detectors/iforest"
	"github.com/payguard/fraudml/pkg/features"
)

// Backend kinds selectable at configuration time.
const (
	BackendIForest     = "iforest"
	BackendAutoencoder = "autoencoder"
)

// OpenBackend loads a persisted scoring backend of the given kind.
func OpenBackend(kind, path string) (detectors.Scorer, error) {
	switch kind {
	case BackendIForest, BackendAutoencoder:
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	switch kind {
	case BackendIForest:
		f := iforest.New()
		if err := f.Load(data); err != nil {
			return nil, fmt.Errorf("load isolation forest: %w", err)
		}
		return f, nil
	default:
		m := &autoencoder.Model{}
		if err := m.Load(data); err != nil {
			return nil, fmt.Errorf("load autoencoder: %w", err)
		}
		return m, nil
	}
}

// OpenTransform loads a persisted feature transform.
func OpenTransform(path string) (*features.Transform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transform artifact: %w", err)
	}

	t := features.NewTransform()
	if err := t.Load(data); err != nil {
		return nil, fmt.Errorf("load transform: %w", err)
	}
	return t, nil
}
