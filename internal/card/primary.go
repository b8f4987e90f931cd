// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

// PrimaryCard is the linkage artifact a card hands out when it starts
// linking as the primary card of a future backup set. Scanning treats it as
// opaque and only carries it to the caller.
type PrimaryCard struct {
	CardID            string
	CardPublicKey     []byte
	LinkingKey        []byte
	ExistingWallets   int
	IsHDWalletAllowed bool
	Issuer            Issuer
	WalletCurves      []Curve
	BatchID           string
	Firmware          FirmwareVersion
}
