package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modeladvisor",
		Short: "Classify ML tasks and recommend models by deployment tier",
		Long: `Modeladvisor classifies a free-text task description into a task taxonomy
and recommends suitable models from a curated catalog, grouped by
deployment tier (lightweight, standard, advanced, xlarge).

Classification starts with a fast keyword pass and escalates to embedding
similarity and a generative voting ensemble only when confidence is low.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newRecommendCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newCalibrateCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
