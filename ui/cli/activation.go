// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/tapscan/internal/i18n"
)

func newActivationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activation",
		Short: "Track cards going through backup activation",
		Long: `Cards with an activation in progress are offered primary card linking
during a scan instead of wallet creation.`,
	}

	start := &cobra.Command{
		Use:   "start <card-id>",
		Short: "Mark a card's activation as started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			a, err := st.StartActivation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.activation.started", a.CardID))
			return nil
		},
	}

	finish := &cobra.Command{
		Use:   "finish <card-id>",
		Short: "Mark a card's activation as finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			a, err := st.FinishActivation(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("finish activation of %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.activation.finished", a.CardID))
			return nil
		},
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List activations",
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
			list, err := st.ListActivations(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, list)
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")

	cmd.AddCommand(start, finish, list)
	return cmd
}
