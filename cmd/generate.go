package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adaptilearn/quizsynth/internal/questiongen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate quiz questions from study material",
	Long: "Generate quiz questions. Content comes from --content, or from --file\n" +
		"(\"-\" reads stdin). Without content, questions are drawn from the\n" +
		"knowledge bank and subject vocabulary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		count, _ := flags.GetInt("count")
		difficulty, _ := flags.GetString("difficulty")
		qtype, _ := flags.GetString("type")
		subject, _ := flags.GetString("subject")
		branch, _ := flags.GetString("branch")
		semester, _ := flags.GetInt("semester")
		format, _ := flags.GetString("format")

		var extra []questiongen.Option
		if flags.Changed("seed") {
			seed, _ := flags.GetUint64("seed")
			extra = append(extra, questiongen.WithRand(rand.New(rand.NewPCG(seed, seed))))
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p := questiongen.Params{
			Content:    content,
			Count:      count,
			Difficulty: questiongen.Difficulty(difficulty),
			Type:       questiongen.QuestionType(qtype),
			Subject:    subject,
			Branch:     branch,
			Semester:   semester,
		}
		questions := a.orchestrator(extra...).Generate(cmd.Context(), p)

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(questions)
		case "table":
			printQuestions(out, questions)
			return nil
		default:
			return fmt.Errorf("unknown format %q (want json or table)", format)
		}
	},
}

func readContent(cmd *cobra.Command) (string, error) {
	content, _ := cmd.Flags().GetString("content")
	file, _ := cmd.Flags().GetString("file")
	if content != "" && file != "" {
		return "", fmt.Errorf("--content and --file are mutually exclusive")
	}
	if file == "" {
		return content, nil
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func printQuestions(w io.Writer, questions []questiongen.Question) {
	letters := "ABCD"
	for i, q := range questions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		fmt.Fprintf(w, "   [%s · %s · %s · %d min]\n", q.Type, q.Difficulty, q.BloomLevel, q.EstimatedTime)
		fmt.Fprintln(w, "   "+strings.Repeat("─", 40))

		correct, isIndex := q.CorrectAnswer.Index()
		for j, opt := range q.Options {
			mark := " "
			if isIndex && j == correct {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s%c) %s\n", mark, letters[j%len(letters)], opt)
		}
		if !isIndex && !q.CorrectAnswer.IsZero() {
			fmt.Fprintf(w, "   Answer: %s\n", q.CorrectAnswer)
		}
		if q.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", q.Explanation)
		}
		if len(q.GradingRubric) > 0 {
			fmt.Fprintln(w, "   Rubric:")
			for _, r := range q.GradingRubric {
				fmt.Fprintf(w, "   - %s\n", r)
			}
		}
	}
}

func init() {
	f := generateCmd.Flags()
	f.IntP("count", "n", questiongen.DefaultCount, "Number of questions (1-50)")
	f.StringP("difficulty", "d", string(questiongen.DifficultyMedium), "easy, medium or hard")
	f.StringP("type", "t", string(questiongen.TypeMCQ), "mcq, short_answer or essay")
	f.StringP("subject", "s", questiongen.DefaultSubject, "Subject, e.g. \"Data Structures\"")
	f.StringP("branch", "b", "", "Engineering branch, e.g. CSE")
	f.Int("semester", 1, "Semester (1-8)")
	f.StringP("content", "c", "", "Study material inline")
	f.StringP("file", "f", "", "Read study material from a file (\"-\" for stdin)")
	f.String("format", "json", "Output format: json or table")
	f.Uint64("seed", 0, "Seed the fallback synthesizer for reproducible output")
}
