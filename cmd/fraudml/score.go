package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	fraudio "github.com/payguard/fraudml/pkg/io"
	"github.com/payguard/fraudml/pkg/io/jsonl"
	"github.com/payguard/fraudml/pkg/scoring"
)

var scoreFlags struct {
	modelDir string
	backend  string
	input    string
	output   string
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a batch of transactions against trained artifacts",
	Long: `Loads the transform and model artifacts from the model directory,
reads a {"transactions": [...]} JSON payload, and emits one scored result
per transaction as JSON lines (stdout by default).`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFlags.modelDir, "model", ".", "directory holding transform.gob, model.gob and threshold.json")
	scoreCmd.Flags().StringVar(&scoreFlags.backend, "backend", scoring.BackendIForest, "scoring backend: iforest or autoencoder")
	scoreCmd.Flags().StringVar(&scoreFlags.input, "input", "", "JSON payload file (required)")
	scoreCmd.Flags().StringVar(&scoreFlags.output, "output", "", "JSON-lines output file (default stdout)")
	scoreCmd.MarkFlagRequired("input")
}

func runScore(cmd *cobra.Command, args []string) error {
	transform, err := scoring.OpenTransform(filepath.Join(scoreFlags.modelDir, "transform.gob"))
	if err != nil {
		return err
	}
	backend, err := scoring.OpenBackend(scoreFlags.backend, filepath.Join(scoreFlags.modelDir, "model.gob"))
	if err != nil {
		return err
	}

	engine := scoring.NewEngine(transform, backend,
		scoring.WithLogger(log.Logger),
		scoring.WithThresholdConfig(filepath.Join(scoreFlags.modelDir, "threshold.json")),
	)

	payload, err := os.ReadFile(scoreFlags.input)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	records, err := scoring.ParsePayload(payload)
	if err != nil {
		return err
	}

	results, err := engine.ScoreBatch(records)
	if err != nil {
		return fmt.Errorf("score batch (status %d): %w", scoring.StatusCode(err), err)
	}

	var writer fraudio.ResultWriter = jsonl.NewWriter(os.Stdout)
	if scoreFlags.output != "" {
		fw, err := jsonl.NewFileWriter(scoreFlags.output)
		if err != nil {
			return err
		}
		defer fw.Close()
		writer = fw
	}

	return writer.WriteAll(results)
}
