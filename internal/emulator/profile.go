// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package emulator implements an in-memory secure element driven by a YAML
// card profile. It stands in for the contactless transport in the CLI and in
// tests.
package emulator

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes an emulated card.
type Profile struct {
	CardID        string             `yaml:"card_id"`
	BatchID       string             `yaml:"batch_id"`
	Firmware      string             `yaml:"firmware"`
	MaxWallets    int                `yaml:"max_wallets"`
	BackupStatus  string             `yaml:"backup_status,omitempty"`
	Twin          bool               `yaml:"twin,omitempty"`
	Issuer        IssuerProfile      `yaml:"issuer"`
	CardPublicKey string             `yaml:"card_public_key,omitempty"`
	Wallets       []WalletProfile    `yaml:"wallets,omitempty"`
	WalletData    *WalletDataProfile `yaml:"wallet_data,omitempty"`
	// Files maps file names to their hex encoded TLV content.
	Files      map[string]string `yaml:"files,omitempty"`
	IssuerData string            `yaml:"issuer_data,omitempty"`
	// Attestation lists the statuses returned by successive attestations;
	// the last one repeats. Empty means verified.
	Attestation []string `yaml:"attestation,omitempty"`
	// Failures scripts command failures keyed by command name.
	Failures map[string]Failure `yaml:"failures,omitempty"`
}

type IssuerProfile struct {
	Name      string `yaml:"name"`
	Curve     string `yaml:"curve,omitempty"`
	PublicKey string `yaml:"public_key"`
}

// WalletProfile holds the private seed of a wallet. secp256k1 seeds are BIP32
// master seeds, ed25519 and secp256r1 seeds are 32 byte private keys.
type WalletProfile struct {
	Curve string `yaml:"curve"`
	Seed  string `yaml:"seed"`
}

type WalletDataProfile struct {
	Blockchain string        `yaml:"blockchain"`
	Token      *TokenProfile `yaml:"token,omitempty"`
}

type TokenProfile struct {
	Name     string `yaml:"name,omitempty"`
	Symbol   string `yaml:"symbol"`
	Contract string `yaml:"contract,omitempty"`
	Decimals int    `yaml:"decimals,omitempty"`
}

// Failure makes a command fail. SW, a hex status word, takes precedence over
// Message. Times limits how often it fires; zero means always.
type Failure struct {
	SW      string `yaml:"sw,omitempty"`
	Message string `yaml:"message,omitempty"`
	Times   int    `yaml:"times,omitempty"`
}

func (f Failure) statusWord() (uint16, bool, error) {
	if f.SW == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f.SW), "0x"), 16, 16)
	if err != nil {
		return 0, false, fmt.Errorf("invalid status word %q: %w", f.SW, err)
	}
	return uint16(v), true, nil
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read card profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse card profile: %w", err)
	}
	if p.CardID == "" {
		return Profile{}, fmt.Errorf("card profile has no card_id")
	}
	if _, err := hex.DecodeString(p.CardID); err != nil {
		return Profile{}, fmt.Errorf("card_id %q is not hex", p.CardID)
	}
	return p, nil
}

// Marshal encodes the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// WriteFile stores the profile at path.
func (p Profile) WriteFile(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func decodeHex(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s is not hex: %w", field, err)
	}
	return b, nil
}
