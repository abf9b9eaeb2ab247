package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adaptilearn/quizsynth/internal/feedback"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Produce a feedback report from performance history",
	Long: "Read a JSON document with performance_data, test_results, learning_goals\n" +
		"and weak_areas from --file (default stdin) and print the report as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var r io.Reader = cmd.InOrStdin()
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			r = f
		}

		var in feedback.Input
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.feedbackService().Generate(cmd.Context(), in)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	feedbackCmd.Flags().StringP("file", "f", "-", "Input JSON file (\"-\" for stdin)")
}
