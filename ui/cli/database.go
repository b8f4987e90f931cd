// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/db"
	"github.com/toeirei/tapscan/internal/i18n"
)

// runDBMaintenance is replaced in tests.
var runDBMaintenance = db.RunDBMaintenance

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance, backup and restore",
	}

	var timeout time.Duration
	maintain := &cobra.Command{
		Use:         "maintain",
		Short:       "Run database maintenance (VACUUM/OPTIMIZE) for the configured DB",
		Long:        `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			done := make(chan error, 1)
			go func() {
				done <- runDBMaintenance(appConfig.Database.Type, appConfig.Database.Dsn)
			}()
			var expired <-chan time.Time
			if timeout > 0 {
				expired = time.After(timeout)
			}
			select {
			case err := <-done:
				if err != nil {
					return fmt.Errorf("maintenance failed: %w", err)
				}
			case <-expired:
				return fmt.Errorf("maintenance timed out after %s", timeout)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.db.maintained"))
			return nil
		},
	}
	maintain.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this duration (0 means no timeout)")

	backup := &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Create a compressed (zstd) JSON backup of the database",
		Long: `Dumps token lists, activations and scan history into a single
Zstandard-compressed JSON file. If no output file is specified, a default
filename 'tapscan-backup-YYYY-MM-DD.json.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			outputFile := fmt.Sprintf("tapscan-backup-%s.json.zst", time.Now().Format("2006-01-02"))
			if len(args) == 1 {
				outputFile = args[0]
				if !strings.HasSuffix(outputFile, ".zst") {
					outputFile += ".zst"
				}
			}
			data, err := st.ExportData(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			err = db.WriteBackup(data, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.db.backup_written", outputFile))
			return nil
		},
	}

	var full bool
	restore := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore a backup created by 'tapscan db backup'",
		Long: `Imports a backup. By default rows already present are kept and only
missing ones are added; --full wipes the database first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			data, err := db.ReadBackup(f)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := st.ImportData(ctx, data, full); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.db.restored", args[0]))
			return nil
		},
	}
	restore.Flags().BoolVar(&full, "full", false, "Perform a full, destructive restore (wipes all existing data first)")

	cmd.AddCommand(maintain, backup, restore)
	return cmd
}
