// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
)

// Config is the complete tapscan configuration.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Language    string            `mapstructure:"language" yaml:"language"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Attestation AttestationConfig `mapstructure:"attestation" yaml:"attestation"`
	Scan        ScanConfig        `mapstructure:"scan" yaml:"scan"`
	// Prompt selects how operator confirmations are asked: auto, tui, line,
	// accept or cancel.
	Prompt string `mapstructure:"prompt" yaml:"prompt"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type AttestationConfig struct {
	Mode                string `mapstructure:"mode" yaml:"mode"`
	AllowUntrustedCards bool   `mapstructure:"allow_untrusted_cards" yaml:"allow_untrusted_cards"`
	// MaxOnlineRetries bounds the online-only retries offered after an
	// offline verification. Zero means unbounded.
	MaxOnlineRetries int `mapstructure:"max_online_retries" yaml:"max_online_retries"`
}

type ScanConfig struct {
	ExpectedBatch   string   `mapstructure:"expected_batch" yaml:"expected_batch"`
	MandatoryCurves []string `mapstructure:"mandatory_curves" yaml:"mandatory_curves"`
}

// Defaults returns the default value of every key, in the dotted form
// viper and the command-line flags use.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":                     "sqlite",
		"database.dsn":                      "./tapscan.db",
		"language":                          "en",
		"log.level":                         "info",
		"attestation.mode":                  attestation.Normal.String(),
		"attestation.allow_untrusted_cards": false,
		"attestation.max_online_retries":    0,
		"scan.expected_batch":               "",
		"scan.mandatory_curves":             []string{string(card.Secp256k1), string(card.Ed25519)},
		"prompt":                            "auto",
	}
}

// AttestationMode parses the configured attestation mode.
func (c Config) AttestationMode() (attestation.Mode, error) {
	if strings.TrimSpace(c.Attestation.Mode) == "" {
		return attestation.Normal, nil
	}
	return attestation.ParseMode(c.Attestation.Mode)
}

// Curves parses the configured mandatory curves. An empty list falls back to
// card.MandatoryCurves.
func (c Config) Curves() ([]card.Curve, error) {
	if len(c.Scan.MandatoryCurves) == 0 {
		return append([]card.Curve(nil), card.MandatoryCurves...), nil
	}
	out := make([]card.Curve, 0, len(c.Scan.MandatoryCurves))
	for _, s := range c.Scan.MandatoryCurves {
		curve, err := card.ParseCurve(s)
		if err != nil {
			return nil, fmt.Errorf("scan.mandatory_curves: %w", err)
		}
		out = append(out, curve)
	}
	return out, nil
}

// Validate checks the values that have a closed set of spellings.
func (c Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("database.type %q is not one of sqlite, postgres, mysql", c.Database.Type)
	}
	if _, err := c.AttestationMode(); err != nil {
		return err
	}
	if _, err := c.Curves(); err != nil {
		return err
	}
	if c.Attestation.MaxOnlineRetries < 0 {
		return fmt.Errorf("attestation.max_online_retries must not be negative")
	}
	switch c.Prompt {
	case "", "auto", "tui", "line", "accept", "cancel":
	default:
		return fmt.Errorf("prompt %q is not one of auto, tui, line, accept, cancel", c.Prompt)
	}
	return nil
}
