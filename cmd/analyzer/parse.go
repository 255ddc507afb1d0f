package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/formatter"
)

func newParseCmd() *cobra.Command {
	var (
		outputFormat string
		maxBytes     int
	)
	cmd := &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Parse saved model output into a structured analysis",
		Long: `Read free-form model output from FILE (or stdin) and print the score,
recommendations and section notes recovered from it.

Examples:
  analyzer parse review.txt
  curl -s ... | analyzer parse -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			limit := maxBytes
			if limit <= 0 {
				limit = ai.DefaultMaxInputBytes
			}
			// read one byte past the limit so the parser sees oversize input
			raw, err := io.ReadAll(io.LimitReader(in, int64(limit)+1))
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			parsed := ai.Parser{MaxInputBytes: limit}.Parse(string(raw))
			return formatter.DisplayParsed(cmd.OutOrStdout(), parsed, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatJSON, "Output format (human, json, yaml)")
	cmd.Flags().IntVar(&maxBytes, "max-bytes", ai.DefaultMaxInputBytes, "Reject input larger than this")
	return cmd
}
