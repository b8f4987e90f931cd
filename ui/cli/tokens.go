// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/db"
	"github.com/toeirei/tapscan/internal/i18n"
)

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage the token list that drives key derivation",
	}
	cmd.AddCommand(newTokensAddCmd(), newTokensListCmd(), newTokensRemoveCmd())
	return cmd
}

func newTokensAddCmd() *cobra.Command {
	var item db.TokenItem
	var curve, path string
	cmd := &cobra.Command{
		Use:   "add --card <id> --blockchain <name> [--path m/44'/60'/0'/0/0]",
		Short: "Add a token to a card's list",
		Long: `Adds a token to a card's list. Tokens with a derivation path make every
later scan of the card derive that path on the wallet of the token's curve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			c, err := card.ParseCurve(curve)
			if err != nil {
				return err
			}
			item.Curve = c
			if path != "" {
				if item.Path, err = card.ParseDerivationPath(path); err != nil {
					return err
				}
			}
			added, err := st.AddTokenItem(cmd.Context(), item)
			if err != nil {
				return err
			}
			shown := added.PathText
			if shown == "" {
				shown = string(added.Curve)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.tokens.added", shown, added.CardID))
			return nil
		},
	}
	cmd.Flags().StringVar(&item.CardID, "card", "", "Card id")
	cmd.Flags().StringVar(&item.Blockchain, "blockchain", "", "Blockchain of the token, e.g. ETH")
	cmd.Flags().StringVar(&item.Symbol, "symbol", "", "Token symbol")
	cmd.Flags().StringVar(&curve, "curve", string(card.Secp256k1), "Curve of the wallet holding the token")
	cmd.Flags().StringVar(&path, "path", "", "Derivation path, empty for the wallet key itself")
	_ = cmd.MarkFlagRequired("card")
	_ = cmd.MarkFlagRequired("blockchain")
	return cmd
}

func newTokensListCmd() *cobra.Command {
	var cardID, output string
	cmd := &cobra.Command{
		Use:   "list [--card <id>]",
		Short: "List stored tokens",
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
			items, err := st.ListTokenItems(cmd.Context(), cardID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, items)
		},
	}
	cmd.Flags().StringVar(&cardID, "card", "", "Only list tokens of this card")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}

func newTokensRemoveCmd() *cobra.Command {
	var cardID, blockchain string
	cmd := &cobra.Command{
		Use:   "remove --card <id> [--blockchain <name>]",
		Short: "Remove a card's tokens, optionally only those of one blockchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			n, err := st.RemoveTokenItems(cmd.Context(), cardID, blockchain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.tokens.removed", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&cardID, "card", "", "Card id")
	cmd.Flags().StringVar(&blockchain, "blockchain", "", "Only remove tokens of this blockchain")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}
