// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toeirei/tapscan/internal/config"
	"github.com/toeirei/tapscan/internal/i18n"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or persist the effective configuration",
	}

	var system bool
	write := &cobra.Command{
		Use:         "write",
		Short:       "Write the effective configuration to the config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(&appConfig, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config.written"), path)
			return nil
		},
	}
	write.Flags().BoolVar(&system, "system", false, "Write the system-wide file instead of the user file")

	var output string
	show := &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := normalizeOutput(output)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, appConfig)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")

	debugCmd := &cobra.Command{
		Use:         "debug",
		Short:       "Dump debug information about config, env and flags",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- TAPSCAN DEBUG ---")
			if path, err := config.GetConfigPath(false); err == nil {
				fmt.Fprintf(out, "User config path: %s\n", path)
			}

			b, err := json.MarshalIndent(appConfig, "", "  ")
			if err != nil {
				fmt.Fprintf(out, "could not marshal config: %v\n", err)
			} else {
				fmt.Fprintln(out, "-- effective config --")
				fmt.Fprintln(out, string(b))
			}

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				fmt.Fprintf(out, "%s = %s\n", f.Name, f.Value.String())
			})

			fmt.Fprintln(out, "-- environment (TAPSCAN_*) --")
			for _, e := range os.Environ() {
				if strings.HasPrefix(e, "TAPSCAN_") {
					fmt.Fprintln(out, e)
				}
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
		},
	}

	cmd.AddCommand(write, show, debugCmd)
	return cmd
}
