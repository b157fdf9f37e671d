package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "fraudml",
	Short: "Transaction anomaly scoring",
	Long: `fraudml scores financial transactions against a model of normal
behavior learned from historical data.

Train a model on a CSV of historical transactions, then score incoming
batches delivered as {"transactions": [...]} JSON payloads.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(scoreCmd)
}
