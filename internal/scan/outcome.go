// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/cardcrypto"
)

// Outcome is the result of a successful scan. It shares no memory with the
// scan that produced it and is not modified afterwards.
type Outcome struct {
	Card card.Card
	// WalletData is the verified note file, or for cards without one the
	// wallet data found during the preflight read.
	WalletData     *card.WalletData
	TwinIssuerData []byte
	IsNote         bool
	IsMultiWallet  bool
	DerivedKeys    card.DerivedKeys
	PrimaryCard    *card.PrimaryCard

	Attestation   attestation.Report
	OnlineRetries int
}

// Assemble builds an Outcome from the state a scan accumulated. It performs
// no I/O, cannot fail and returns equal values for equal inputs.
func Assemble(c card.Card, note *card.WalletData, twin []byte, derived card.DerivedKeys, primary *card.PrimaryCard) Outcome {
	out := Outcome{
		Card:        c.Clone(),
		IsNote:      note != nil,
		DerivedKeys: card.DerivedKeys{},
	}
	out.IsMultiWallet = c.SupportsMultiWallet() && !out.IsNote

	switch {
	case note != nil:
		wd := note.Clone()
		out.WalletData = &wd
	case c.WalletData != nil:
		wd := c.WalletData.Clone()
		out.WalletData = &wd
	}
	if len(twin) > 0 {
		out.TwinIssuerData = append([]byte(nil), twin...)
	}
	for seed, keys := range derived {
		cp := make([]card.DerivedKey, len(keys))
		for i, k := range keys {
			cp[i] = card.DerivedKey{
				Path: append(card.DerivationPath(nil), k.Path...),
				Key: card.ExtendedPublicKey{
					PublicKey: append([]byte(nil), k.Key.PublicKey...),
					ChainCode: append([]byte(nil), k.Key.ChainCode...),
				},
			}
		}
		out.DerivedKeys[seed] = cp
	}
	if primary != nil {
		pc := *primary
		pc.CardPublicKey = append([]byte(nil), primary.CardPublicKey...)
		pc.LinkingKey = append([]byte(nil), primary.LinkingKey...)
		pc.Issuer.PublicKey = append([]byte(nil), primary.Issuer.PublicKey...)
		pc.WalletCurves = append([]card.Curve(nil), primary.WalletCurves...)
		out.PrimaryCard = &pc
	}
	return out
}

// TwinInfo decodes the twin data of the outcome. The pair public key is
// only filled in when the issuer data verifies against the card's first
// wallet key; a bad or missing signature never makes the outcome unusable.
func (o Outcome) TwinInfo() (card.TwinInfo, bool) {
	series, known := card.TwinSeriesFor(o.Card.ID)
	if !known || !o.Card.IsTwin {
		return card.TwinInfo{}, false
	}
	info := card.TwinInfo{CardID: o.Card.ID, Series: series}

	pairKey, sig, ok := card.SplitTwinIssuerData(o.TwinIssuerData)
	if !ok || len(o.Card.Wallets) == 0 {
		return info, true
	}
	w := o.Card.Wallets[0]
	if valid, err := cardcrypto.Verify(w.Curve, w.PublicKey, pairKey, sig); err == nil && valid {
		info.PairPublicKey = append([]byte(nil), pairKey...)
	}
	return info, true
}
