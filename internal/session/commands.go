// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
)

// Command is one unit of work understood by a secure element.
type Command interface {
	Name() string
}

// ReadFile reads a named file. Responds with FileResponse.
type ReadFile struct {
	FileName string
}

func (ReadFile) Name() string { return "read_file" }

// FileResponse carries the raw TLV encoding of a named file.
type FileResponse struct {
	Data []byte
}

// ReadIssuerData reads the issuer data slot. Responds with IssuerDataResponse.
type ReadIssuerData struct{}

func (ReadIssuerData) Name() string { return "read_issuer_data" }

type IssuerDataResponse struct {
	Data []byte
}

// CreateWallets creates one wallet per curve. Responds with
// CreateWalletsResponse; the session snapshot reflects the new wallets
// afterwards.
type CreateWallets struct {
	Curves []card.Curve
}

func (CreateWallets) Name() string { return "create_wallets" }

type CreateWalletsResponse struct {
	Created []card.Wallet
}

// DeriveKeys derives extended public keys below a wallet's seed key.
// Responds with DeriveKeysResponse.
type DeriveKeys struct {
	PublicKey []byte
	Paths     []card.DerivationPath
}

func (DeriveKeys) Name() string { return "derive_keys" }

type DeriveKeysResponse struct {
	Keys []card.DerivedKey
}

// StartPrimaryCardLinking asks the card for its primary card linkage
// artifact. Responds with card.PrimaryCard.
type StartPrimaryCardLinking struct{}

func (StartPrimaryCardLinking) Name() string { return "start_primary_card_linking" }

// Attest runs card attestation. With OnlineOnly set only the online portion
// is repeated. Responds with attestation.Report.
type Attest struct {
	Mode       attestation.Mode
	OnlineOnly bool
}

func (Attest) Name() string { return "attest" }
