package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/payguard/fraudml/pkg/detectors/iforest"
	"github.com/payguard/fraudml/pkg/features"
	fraudio "github.com/payguard/fraudml/pkg/io"
	csvio "github.com/payguard/fraudml/pkg/io/csv"
	"github.com/payguard/fraudml/pkg/threshold"
)

var trainFlags struct {
	data          string
	out           string
	trees         int
	sampleSize    int
	contamination float64
	seed          int64
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the feature transform and an isolation forest on historical data",
	Long: `Reads historical transactions from a CSV file (header row names the
fields), fits the feature transform and an isolation forest on them, and
writes three artifacts to the output directory:

  transform.gob   fitted feature transform
  model.gob       trained isolation forest
  threshold.json  static threshold calibrated on the training scores

Train on normal transactions only; the model learns what normal looks like.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainFlags.data, "data", "", "CSV file of historical transactions (required)")
	trainCmd.Flags().StringVar(&trainFlags.out, "out", ".", "output directory for artifacts")
	trainCmd.Flags().IntVar(&trainFlags.trees, "trees", 100, "number of isolation trees")
	trainCmd.Flags().IntVar(&trainFlags.sampleSize, "sample-size", 256, "subsample size per tree")
	trainCmd.Flags().Float64Var(&trainFlags.contamination, "contamination", 0.05, "expected anomaly proportion, calibrates the threshold")
	trainCmd.Flags().Int64Var(&trainFlags.seed, "seed", 42, "random seed")
	trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	var reader fraudio.RecordReader
	reader, err := csvio.NewReader(trainFlags.data)
	if err != nil {
		return fmt.Errorf("open training data: %w", err)
	}
	defer reader.Close()

	records, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read training data: %w", err)
	}
	log.Info().Int("records", len(records)).Str("file", trainFlags.data).Msg("training data loaded")

	table, err := features.Normalize(records)
	if err != nil {
		return fmt.Errorf("normalize training data: %w", err)
	}

	transform := features.NewTransform()
	if err := transform.Fit(table); err != nil {
		return fmt.Errorf("fit transform: %w", err)
	}
	vectors, err := transform.Apply(table)
	if err != nil {
		return fmt.Errorf("apply transform: %w", err)
	}
	log.Info().Int("width", transform.Width()).Msg("feature transform fitted")

	forest := iforest.New(
		iforest.WithTrees(trainFlags.trees),
		iforest.WithSampleSize(trainFlags.sampleSize),
		iforest.WithContamination(trainFlags.contamination),
		iforest.WithSeed(trainFlags.seed),
	)
	if err := forest.Fit(vectors); err != nil {
		return fmt.Errorf("fit isolation forest: %w", err)
	}

	scores, err := forest.Score(vectors)
	if err != nil {
		return fmt.Errorf("score training data: %w", err)
	}
	static := iforest.Percentile(scores, 100*(1-trainFlags.contamination))

	if err := os.MkdirAll(trainFlags.out, 0o755); err != nil {
		return err
	}
	if err := saveArtifact(filepath.Join(trainFlags.out, "transform.gob"), transform.Save); err != nil {
		return err
	}
	if err := saveArtifact(filepath.Join(trainFlags.out, "model.gob"), forest.Save); err != nil {
		return err
	}
	thresholdPath := filepath.Join(trainFlags.out, "threshold.json")
	if err := threshold.WriteConfig(thresholdPath, static); err != nil {
		return fmt.Errorf("write threshold config: %w", err)
	}

	log.Info().
		Str("dir", trainFlags.out).
		Float64("threshold", static).
		Msg("artifacts written")
	return nil
}

func saveArtifact(path string, save func() ([]byte, error)) error {
	data, err := save()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
