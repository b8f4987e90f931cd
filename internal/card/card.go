// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package card holds the data model of a scanned secure element: the card
// snapshot, its wallets, firmware version, issuer data and the artifacts
// produced while scanning it.
package card

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BackupStatus reports whether the card already belongs to a backup set.
type BackupStatus string

const (
	NoBackup   BackupStatus = "no_backup"
	CardLinked BackupStatus = "card_linked"
	Active     BackupStatus = "active"
)

// ParseBackupStatus converts a stored or configured value into a BackupStatus.
// An empty value is treated as NoBackup.
func ParseBackupStatus(s string) (BackupStatus, error) {
	switch BackupStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", NoBackup:
		return NoBackup, nil
	case CardLinked:
		return CardLinked, nil
	case Active:
		return Active, nil
	}
	return "", fmt.Errorf("unknown backup status %q", s)
}

// Wallet is a key pair held by the secure element.
type Wallet struct {
	Curve     Curve
	PublicKey []byte
	// ChainCode is present only when the wallet can derive child keys.
	ChainCode []byte
}

// CanDerive reports whether the wallet exposes a chain code.
func (w Wallet) CanDerive() bool {
	return len(w.ChainCode) > 0
}

// PublicKeyHex returns the lowercase hex form of the wallet public key.
func (w Wallet) PublicKeyHex() string {
	return hex.EncodeToString(w.PublicKey)
}

func (w Wallet) clone() Wallet {
	return Wallet{
		Curve:     w.Curve,
		PublicKey: cloneBytes(w.PublicKey),
		ChainCode: cloneBytes(w.ChainCode),
	}
}

// Issuer identifies the party that personalized the card.
type Issuer struct {
	Name      string
	PublicKey []byte
	// Curve is the curve the issuer key is bound to. Empty means secp256k1.
	Curve Curve
}

// KeyCurve returns the issuer key curve, defaulting to secp256k1.
func (i Issuer) KeyCurve() Curve {
	if i.Curve == "" {
		return Secp256k1
	}
	return i.Curve
}

// Card is the snapshot of a card's state at one point of a session.
// Values are treated as immutable; use Clone before changing a copy.
type Card struct {
	ID           string
	BatchID      string
	Firmware     FirmwareVersion
	Issuer       Issuer
	Wallets      []Wallet
	BackupStatus BackupStatus
	MaxWallets   int
	IsTwin       bool

	// WalletData is the wallet description found during the preflight read
	// on cards that store it outside of a named file.
	WalletData *WalletData
}

// Clone returns a deep copy of the snapshot.
func (c Card) Clone() Card {
	out := c
	out.Issuer.PublicKey = cloneBytes(c.Issuer.PublicKey)
	if c.Wallets != nil {
		out.Wallets = make([]Wallet, len(c.Wallets))
		for i, w := range c.Wallets {
			out.Wallets[i] = w.clone()
		}
	}
	if c.WalletData != nil {
		wd := c.WalletData.Clone()
		out.WalletData = &wd
	}
	return out
}

// Curves returns the curves of the wallets currently on the card, in wallet order.
func (c Card) Curves() []Curve {
	curves := make([]Curve, 0, len(c.Wallets))
	for _, w := range c.Wallets {
		curves = append(curves, w.Curve)
	}
	return curves
}

// Wallet returns the wallet bound to curve, if any.
func (c Card) Wallet(curve Curve) (Wallet, bool) {
	for _, w := range c.Wallets {
		if w.Curve == curve {
			return w, true
		}
	}
	return Wallet{}, false
}

// IsEmpty reports whether no wallet has been created on the card yet.
func (c Card) IsEmpty() bool {
	return len(c.Wallets) == 0
}

// HasBackup reports whether the card is linked into a backup set. An unset
// status counts as no backup.
func (c Card) HasBackup() bool {
	return c.BackupStatus != "" && c.BackupStatus != NoBackup
}

// SupportsMultiWallet reports whether the firmware is new enough for named
// files, multiple wallets and key derivation.
func (c Card) SupportsMultiWallet() bool {
	return c.Firmware.AtLeast(MultiWalletFirmware)
}

// IDBytes decodes the hex card identifier.
func (c Card) IDBytes() ([]byte, error) {
	b, err := hex.DecodeString(c.ID)
	if err != nil {
		return nil, fmt.Errorf("card id %q is not hex: %w", c.ID, err)
	}
	return b, nil
}

// Validate checks the invariants a snapshot must hold.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("card id is empty")
	}
	seen := make(map[Curve]bool, len(c.Wallets))
	for _, w := range c.Wallets {
		if seen[w.Curve] {
			return fmt.Errorf("card %s holds more than one %s wallet", c.ID, w.Curve)
		}
		seen[w.Curve] = true
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
