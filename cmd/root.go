package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizsynth",
	Short: "Quiz question and study feedback synthesis",
	Long: "quizsynth generates quiz questions from study material and personalised feedback\n" +
		"from performance history. An AI provider is used when configured; otherwise a\n" +
		"deterministic knowledge bank and templates fill in.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (QUIZSYNTH_* env vars override it)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
