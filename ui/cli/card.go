// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/emulator"
	"github.com/toeirei/tapscan/internal/i18n"
)

func newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage emulated card profiles",
	}
	cmd.AddCommand(newCardNewCmd(), newCardShowCmd())
	return cmd
}

func newCardNewCmd() *cobra.Command {
	var (
		opts        emulator.GenerateOptions
		curves      []string
		attest      []string
		blockchain  string
		token       tokenView
		force       bool
		backupState string
	)
	cmd := &cobra.Command{
		Use:   "new <profile.yaml>",
		Short: "Generate a card profile with fresh keys",
		Long: `Generates a consistent card profile: issuer key, card key and one wallet per
--curve. With --note-blockchain an issuer signed note file is stored on the card;
with --twin the card receives twin pairing data signed by its first wallet.

Examples:
  tapscan card new note.yaml --curve secp256k1 --note-blockchain ETH --note-symbol USDC
  tapscan card new multi.yaml --firmware 4.52r --max-wallets 3 --curve secp256k1
  tapscan card new twin.yaml --twin --curve secp256k1`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range curves {
				c, err := card.ParseCurve(s)
				if err != nil {
					return err
				}
				opts.Curves = append(opts.Curves, c)
			}
			if blockchain != "" {
				wd := card.WalletData{Blockchain: blockchain}
				if token.Symbol != "" {
					wd.Token = &card.Token{Name: token.Name, Symbol: token.Symbol, ContractAddress: token.Contract, Decimals: token.Decimals}
				}
				opts.Note = &wd
			}
			for _, s := range attest {
				if _, err := attestation.ParseStatus(s); err != nil {
					return err
				}
			}
			if _, err := card.ParseBackupStatus(backupState); err != nil {
				return err
			}

			p, err := emulator.Generate(opts)
			if err != nil {
				return err
			}
			p.Attestation = attest
			if backupState != "" {
				p.BackupStatus = backupState
			}
			if !force {
				if _, err := emulator.LoadProfile(args[0]); err == nil {
					return fmt.Errorf("%s exists, use --force to overwrite", args[0])
				}
			}
			if err := p.WriteFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.card.generated", args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), p.CardID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.BatchID, "batch", "", "Batch id (4 hex digits)")
	cmd.Flags().StringVar(&opts.Firmware, "firmware", "", "Firmware version, e.g. 4.52r or 4.39d")
	cmd.Flags().IntVar(&opts.MaxWallets, "max-wallets", 0, "Wallet capacity of the card")
	cmd.Flags().StringSliceVar(&curves, "curve", nil, "Curve of a wallet to create (repeatable)")
	cmd.Flags().BoolVar(&opts.Twin, "twin", false, "Generate a twin card")
	cmd.Flags().StringVar(&opts.IssuerName, "issuer", "", "Issuer name")
	cmd.Flags().StringVar(&blockchain, "note-blockchain", "", "Store an issuer signed note for this blockchain")
	cmd.Flags().StringVar(&token.Symbol, "note-symbol", "", "Token symbol of the note")
	cmd.Flags().StringVar(&token.Name, "note-token-name", "", "Token name of the note")
	cmd.Flags().StringVar(&token.Contract, "note-contract", "", "Token contract address of the note")
	cmd.Flags().IntVar(&token.Decimals, "note-decimals", 0, "Token decimals of the note")
	cmd.Flags().StringSliceVar(&attest, "attestation", nil, "Attestation results returned in order (verified, verifiedOffline, warning, failed, skipped)")
	cmd.Flags().StringVar(&backupState, "backup-status", "", "Backup status (no_backup, card_linked, active)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing profile")
	return cmd
}

func newCardShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:         "show <profile.yaml>",
		Short:       "Print the card a profile describes, as read by the preflight",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := normalizeOutput(output)
			if err != nil {
				return err
			}
			p, err := emulator.LoadProfile(args[0])
			if err != nil {
				return err
			}
			emu, err := emulator.New(p)
			if err != nil {
				return err
			}
			c, err := emu.Preflight(cmd.Context())
			if err != nil {
				return err
			}
			v := cardView{
				CardID:      c.ID,
				BatchID:     c.BatchID,
				Firmware:    c.Firmware.String(),
				MaxWallets:  c.MaxWallets,
				Curves:      curveNames(c.Curves()),
				Backup:      string(c.BackupStatus),
				Twin:        c.IsTwin,
				MultiWallet: c.SupportsMultiWallet(),
			}
			return render(cmd.OutOrStdout(), format, v)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}

type cardView struct {
	CardID      string   `json:"card_id" yaml:"card_id"`
	BatchID     string   `json:"batch_id" yaml:"batch_id"`
	Firmware    string   `json:"firmware" yaml:"firmware"`
	MaxWallets  int      `json:"max_wallets" yaml:"max_wallets"`
	Curves      []string `json:"curves" yaml:"curves"`
	Backup      string   `json:"backup_status" yaml:"backup_status"`
	Twin        bool     `json:"twin" yaml:"twin"`
	MultiWallet bool     `json:"multi_wallet" yaml:"multi_wallet"`
}
