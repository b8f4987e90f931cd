// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/config"
	"github.com/toeirei/tapscan/internal/db"
	"github.com/toeirei/tapscan/internal/emulator"
	"github.com/toeirei/tapscan/internal/i18n"
	"github.com/toeirei/tapscan/internal/logging"
	"github.com/toeirei/tapscan/internal/prompt"
	"github.com/toeirei/tapscan/internal/scan"
	"github.com/toeirei/tapscan/internal/session"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// newConfirmer builds the operator prompt; tests swap it for a fixed answer.
var newConfirmer = func(c config.Config) (scan.Confirmer, error) {
	return prompt.FromConfig(c.Prompt, os.Stdin, os.Stderr)
}

// scannerConfig translates the loaded configuration into scanner settings.
func scannerConfig(c config.Config, st db.Store, confirmer scan.Confirmer) (scan.Config, error) {
	mode, err := c.AttestationMode()
	if err != nil {
		return scan.Config{}, err
	}
	curves, err := c.Curves()
	if err != nil {
		return scan.Config{}, err
	}
	sc := scan.Config{
		ExpectedBatch:       c.Scan.ExpectedBatch,
		Mode:                mode,
		AllowUntrustedCards: c.Attestation.AllowUntrustedCards,
		MandatoryCurves:     curves,
		MaxOnlineRetries:    c.Attestation.MaxOnlineRetries,
		Confirmer:           confirmer,
	}
	if st != nil {
		sc.Tokens = st
		sc.Activations = st
	}
	return sc, nil
}

func newScanCmd() *cobra.Command {
	var (
		profilePath string
		output      string
		copyID      bool
		save        bool
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "scan --card <profile.yaml>",
		Short: "Scan a card and print the outcome",
		Long: `Runs the scan procedure against the card described by the profile and
prints the outcome. Every scan, successful or not, is recorded in the history.

Examples:
  tapscan scan --card card.yaml
  tapscan scan --card card.yaml --scan.expected_batch CB61 --output json
  tapscan scan --card card.yaml --attestation.mode offline --prompt accept`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := normalizeOutput(output)
			if err != nil {
				return err
			}
			st, err := requireStore()
			if err != nil {
				return err
			}
			profile, err := emulator.LoadProfile(profilePath)
			if err != nil {
				return err
			}
			emu, err := emulator.New(profile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			snapshot, err := emu.Preflight(ctx)
			if err != nil {
				return err
			}
			confirmer, err := newConfirmer(appConfig)
			if err != nil {
				return err
			}
			sc, err := scannerConfig(appConfig, st, confirmer)
			if err != nil {
				return err
			}

			out, scanErr := scan.New(sc).Run(ctx, session.WithLogging(emu))

			rec := db.NewScanRecord(snapshot, out, scanErr)
			if _, err := st.RecordScan(context.WithoutCancel(ctx), rec); err != nil {
				logging.Errorf("could not record scan of %s: %v", rec.CardID, err)
			}

			if scanErr != nil {
				if msg := scan.OperatorMessage(scanErr); msg != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				if scan.IsUserCancelled(scanErr) {
					return nil
				}
				return scanErr
			}

			if save {
				profile.Wallets = emu.WalletProfiles()
				if err := profile.WriteFile(profilePath); err != nil {
					return fmt.Errorf("save card profile: %w", err)
				}
			}
			if err := render(cmd.OutOrStdout(), format, newOutcomeView(out)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.scan.done", out.Card.ID, out.Attestation.Status))
			if copyID {
				if err := writeClipboard(out.Card.ID); err != nil {
					return errors.Join(errors.New("could not copy card id"), err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.scan.copied"))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "card", "c", "", "Card profile (YAML) of the emulated card")
	_ = cmd.MarkFlagRequired("card")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	cmd.Flags().BoolVar(&copyID, "copy-card-id", false, "Copy the scanned card id to the clipboard")
	cmd.Flags().BoolVar(&save, "save", false, "Write wallets created during the scan back into the profile")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the scan after this duration (0 means no limit)")
	cmd.Flags().String("scan.expected_batch", "", "Reject cards of any other batch")
	cmd.Flags().StringSlice("scan.mandatory_curves", nil, "Curves every multi-wallet card must carry")
	cmd.Flags().String("attestation.mode", "normal", "Attestation mode: offline, normal or full")
	cmd.Flags().Bool("attestation.allow_untrusted_cards", false, "Let the operator accept cards that failed attestation")
	cmd.Flags().Int("attestation.max_online_retries", 0, "Online retries offered after an offline verification (0 means unbounded)")
	return cmd
}
