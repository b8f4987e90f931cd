// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	cfg "github.com/toeirei/tapscan/internal/config"
)

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	var nf viper.ConfigFileNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ConfigFileNotFoundError, got: %T %v", err, err)
	}
	if got.Database.Type != "sqlite" || got.Language != "en" || got.Prompt != "auto" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if !reflect.DeepEqual(got.Scan.MandatoryCurves, []string{"secp256k1", "ed25519"}) {
		t.Fatalf("mandatory curves = %v", got.Scan.MandatoryCurves)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := cfg.Config{}
	c.Database.Type = "sqlite"
	c.Database.Dsn = "./tapscan.db"
	c.Language = "en"
	c.Attestation.Mode = "full"

	path, err := cfg.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}
	want, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if path != want {
		t.Fatalf("wrote %s, expected %s", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}

	// The written file is found on the next load.
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Attestation.Mode != "full" {
		t.Fatalf("expected full, got %q", got.Attestation.Mode)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmp := t.TempDir()
	yaml := "database:\n  type: postgres\n  dsn: postgresql://user@/db\nlanguage: de\nattestation:\n  allow_untrusted_cards: true\n  max_online_retries: 2\nscan:\n  expected_batch: CB61\n"
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Database.Type != "postgres" || got.Language != "de" {
		t.Fatalf("file values not applied: %+v", got)
	}
	if !got.Attestation.AllowUntrustedCards || got.Attestation.MaxOnlineRetries != 2 || got.Scan.ExpectedBatch != "CB61" {
		t.Fatalf("nested values not applied: %+v", got)
	}
}

func TestLoadConfig_EnvAndFlagsOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TAPSCAN_DATABASE_DSN", "file:env.db")
	t.Setenv("TAPSCAN_ATTESTATION_MODE", "offline")

	cmd := &cobra.Command{}
	cmd.Flags().String("attestation.mode", "normal", "")
	cmd.Flags().String("language", "en", "")
	if err := cmd.Flags().Set("attestation.mode", "full"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	got, _ := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	if got.Database.Dsn != "file:env.db" {
		t.Fatalf("env override missing: %q", got.Database.Dsn)
	}
	if got.Attestation.Mode != "full" {
		t.Fatalf("changed flag must win over env, got %q", got.Attestation.Mode)
	}
	if got.Language != "en" {
		t.Fatalf("unchanged flag default changed language: %q", got.Language)
	}
}

func TestLoadConfig_IgnoresFlagsThatAreNoConfigKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := &cobra.Command{}
	cmd.Flags().StringSlice("attestation", nil, "")
	cmd.Flags().Bool("force", false, "")
	if err := cmd.Flags().Set("attestation", "verified,failed"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	var nf viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &nf) {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Attestation.Mode != "normal" {
		t.Fatalf("attestation section replaced by a local flag: %+v", got.Attestation)
	}
}

func TestConfig_Accessors(t *testing.T) {
	var c cfg.Config
	mode, err := c.AttestationMode()
	if err != nil || mode != attestation.Normal {
		t.Fatalf("empty mode = %v, %v", mode, err)
	}
	curves, err := c.Curves()
	if err != nil || !reflect.DeepEqual(curves, card.MandatoryCurves) {
		t.Fatalf("empty curves = %v, %v", curves, err)
	}

	c.Scan.MandatoryCurves = []string{"secp256r1"}
	if curves, _ := c.Curves(); !reflect.DeepEqual(curves, []card.Curve{card.Secp256r1}) {
		t.Fatalf("curves = %v", curves)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() cfg.Config {
		var c cfg.Config
		c.Database.Type = "sqlite"
		return c
	}
	cases := []struct {
		name   string
		mutate func(*cfg.Config)
		ok     bool
	}{
		{"valid", func(*cfg.Config) {}, true},
		{"bad db", func(c *cfg.Config) { c.Database.Type = "oracle" }, false},
		{"bad mode", func(c *cfg.Config) { c.Attestation.Mode = "paranoid" }, false},
		{"bad curve", func(c *cfg.Config) { c.Scan.MandatoryCurves = []string{"bls12"} }, false},
		{"negative retries", func(c *cfg.Config) { c.Attestation.MaxOnlineRetries = -1 }, false},
		{"bad prompt", func(c *cfg.Config) { c.Prompt = "gui" }, false},
		{"static prompt", func(c *cfg.Config) { c.Prompt = "accept" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			if err := c.Validate(); (err == nil) != tc.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}
