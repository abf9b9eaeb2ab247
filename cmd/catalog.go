package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adaptilearn/quizsynth/internal/catalog"
	"github.com/adaptilearn/quizsynth/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List knowledge-bank subjects per branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			path = cfg.Catalog.Path
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		out := cmd.OutOrStdout()
		entries := cat.BankSummary()
		if len(entries) == 0 {
			fmt.Fprintln(out, "Knowledge bank is empty.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-32s  %5s\n", "Branch", "Subject", "Items")
		fmt.Fprintln(out, strings.Repeat("─", 49))
		total := 0
		for _, e := range entries {
			fmt.Fprintf(out, "%-8s  %-32s  %5d\n", e.Branch, truncate(e.Subject, 32), e.Items)
			total += e.Items
		}
		fmt.Fprintln(out, strings.Repeat("─", 49))
		fmt.Fprintf(out, "%-8s  %-32s  %5d\n", "TOTAL", "", total)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringP("file", "f", "", "Catalog override file merged over the built-in data (default catalog.path)")
}
