// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/i18n"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and export the scan history",
	}

	var cardID, output string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := normalizeOutput(output)
			if err != nil {
				return err
			}
			st, err := requireStore()
			if err != nil {
				return err
			}
			recs, err := st.ListScans(cmd.Context(), cardID, limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, recs)
		},
	}
	list.Flags().StringVar(&cardID, "card", "", "Only list scans of this card")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of scans (0 lists all)")
	list.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")

	var exportCard string
	export := &cobra.Command{
		Use:   "export [output-file]",
		Short: "Export the history as zstd-compressed JSON lines",
		Long: `Writes one JSON document per scan into a Zstandard-compressed file.
If no output file is specified, 'tapscan-history-YYYY-MM-DD.jsonl.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			outputFile := fmt.Sprintf("tapscan-history-%s.jsonl.zst", time.Now().Format("2006-01-02"))
			if len(args) == 1 {
				outputFile = args[0]
				if !strings.HasSuffix(outputFile, ".zst") {
					outputFile += ".zst"
				}
			}
			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			n, err := st.ExportHistory(cmd.Context(), f, exportCard)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.history.exported", n, outputFile))
			return nil
		},
	}
	export.Flags().StringVar(&exportCard, "card", "", "Only export scans of this card")

	cmd.AddCommand(list, export)
	return cmd
}
