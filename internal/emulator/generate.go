// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package emulator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/cardcrypto"
)

// GenerateOptions shape a generated profile.
type GenerateOptions struct {
	BatchID    string
	Firmware   string
	MaxWallets int
	Curves     []card.Curve
	// Note, when set, is stored as an issuer signed wallet data file.
	Note *card.WalletData
	// Twin generates twin issuer data signed by the first wallet, which
	// must be secp256k1.
	Twin       bool
	IssuerName string
}

// Generate creates a consistent profile with fresh keys.
func Generate(opts GenerateOptions) (Profile, error) {
	if opts.Firmware == "" {
		opts.Firmware = "4.52r"
	}
	if opts.MaxWallets == 0 {
		opts.MaxWallets = 1
		if len(opts.Curves) > 1 {
			opts.MaxWallets = len(opts.Curves) + 1
		}
	}
	if opts.IssuerName == "" {
		opts.IssuerName = "TAPSCAN EMULATOR"
	}
	batch := strings.ToUpper(opts.BatchID)
	if opts.Twin {
		if _, ok := card.TwinSeriesFor(batch); !ok {
			batch = "CB61"
		}
	}
	if batch == "" {
		batch = "AB01"
	}
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return Profile{}, err
	}
	id := batch + strings.ToUpper(hex.EncodeToString(suffix))
	if _, err := hex.DecodeString(id); err != nil {
		return Profile{}, fmt.Errorf("batch %q must be hex", batch)
	}

	issuer, err := btcec.NewPrivateKey()
	if err != nil {
		return Profile{}, err
	}
	cardKey, err := btcec.NewPrivateKey()
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		CardID:        id,
		BatchID:       batch,
		Firmware:      opts.Firmware,
		MaxWallets:    opts.MaxWallets,
		BackupStatus:  string(card.NoBackup),
		Twin:          opts.Twin,
		Issuer:        IssuerProfile{Name: opts.IssuerName, Curve: string(card.Secp256k1), PublicKey: hex.EncodeToString(issuer.PubKey().SerializeCompressed())},
		CardPublicKey: hex.EncodeToString(cardKey.PubKey().SerializeCompressed()),
	}

	var first *wallet
	for _, curve := range opts.Curves {
		seed, err := newSeed(curve)
		if err != nil {
			return Profile{}, err
		}
		w, err := newWallet(curve, seed)
		if err != nil {
			return Profile{}, err
		}
		if first == nil {
			first = w
		}
		p.Wallets = append(p.Wallets, WalletProfile{Curve: string(curve), Seed: hex.EncodeToString(seed)})
	}

	if opts.Note != nil {
		raw, err := signNote(issuer, id, *opts.Note)
		if err != nil {
			return Profile{}, err
		}
		p.Files = map[string]string{card.NoteFileName: hex.EncodeToString(raw)}
	}

	if opts.Twin {
		if first == nil || first.hd == nil {
			return Profile{}, fmt.Errorf("twin cards need a secp256k1 first wallet")
		}
		data, err := twinIssuerData(first)
		if err != nil {
			return Profile{}, err
		}
		p.IssuerData = hex.EncodeToString(data)
	}
	return p, nil
}

func signNote(issuer *btcec.PrivateKey, cardID string, wd card.WalletData) ([]byte, error) {
	payload, err := wd.Encode()
	if err != nil {
		return nil, err
	}
	id, err := hex.DecodeString(cardID)
	if err != nil {
		return nil, err
	}
	counter := uint32(1)
	sig, err := cardcrypto.SignSecp256k1(issuer, card.NoteSignedData(id, payload, counter))
	if err != nil {
		return nil, err
	}
	return card.NamedFile{Name: card.NoteFileName, Payload: payload, Signature: sig, Counter: &counter}.Encode()
}

// twinIssuerData returns a sibling public key followed by the wallet's
// signature over it.
func twinIssuerData(w *wallet) ([]byte, error) {
	sibling, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	priv, err := w.hd.ECPrivKey()
	if err != nil {
		return nil, err
	}
	pairKey := sibling.PubKey().SerializeUncompressed()
	sig, err := cardcrypto.SignSecp256k1(priv, pairKey)
	if err != nil {
		return nil, err
	}
	return append(pairKey, sig...), nil
}
