// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package emulator

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/scan"
	"github.com/toeirei/tapscan/internal/session"
)

func open(t *testing.T, p Profile) *Emulator {
	t.Helper()
	e, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Preflight(context.Background()); err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	return e
}

func generate(t *testing.T, opts GenerateOptions) Profile {
	t.Helper()
	p, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return p
}

type staticTokens []scan.DerivationRequirement

func (s staticTokens) DerivationRequirements(context.Context, string) ([]scan.DerivationRequirement, error) {
	return s, nil
}

func TestScan_GeneratedNoteCard(t *testing.T) {
	wd := card.WalletData{Blockchain: "ETH", Token: &card.Token{Symbol: "USDC", ContractAddress: "0xa0b8", Decimals: 6}}
	e := open(t, generate(t, GenerateOptions{Firmware: "4.39r", Curves: []card.Curve{card.Secp256k1}, Note: &wd}))

	out, err := scan.New(scan.Config{}).Run(context.Background(), e)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.IsNote || !reflect.DeepEqual(*out.WalletData, wd) {
		t.Fatalf("outcome note=%v data=%+v", out.IsNote, out.WalletData)
	}
	if got := e.Sent(); !reflect.DeepEqual(got, []string{"preflight", "read_file", "attest"}) {
		t.Fatalf("commands = %v", got)
	}
}

func TestScan_SingleSlotCardWithoutNoteFile(t *testing.T) {
	e := open(t, generate(t, GenerateOptions{Firmware: "4.39r", Curves: []card.Curve{card.Secp256k1}}))

	out, err := scan.New(scan.Config{}).Run(context.Background(), e)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.IsNote || out.WalletData != nil || len(out.Card.Wallets) != 1 {
		t.Fatalf("outcome note=%v data=%+v wallets=%d", out.IsNote, out.WalletData, len(out.Card.Wallets))
	}
	if got := e.Sent(); !reflect.DeepEqual(got, []string{"preflight", "read_file", "attest"}) {
		t.Fatalf("commands = %v", got)
	}
}

func TestScan_GeneratedTwinCard(t *testing.T) {
	e := open(t, generate(t, GenerateOptions{Twin: true, Curves: []card.Curve{card.Secp256k1}}))
	out, err := scan.New(scan.Config{}).Run(context.Background(), e)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, ok := out.TwinInfo()
	if !ok || len(info.PairPublicKey) != card.TwinPairKeyLength || info.Series.Prefix != "CB61" {
		t.Fatalf("twin info = %+v, %v", info, ok)
	}
}

func TestScan_CreatesAndDerivesWithRealKeys(t *testing.T) {
	p := generate(t, GenerateOptions{Firmware: "4.60r", MaxWallets: 3, Curves: []card.Curve{card.Secp256k1}})
	e := open(t, p)
	path := card.MustParseDerivationPath("m/0/5")
	tokens := staticTokens{{Curve: card.Secp256k1, Path: path}}

	out, err := scan.New(scan.Config{Tokens: tokens}).Run(context.Background(), e)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Card.Wallets) != 2 || out.Card.Wallets[1].Curve != card.Ed25519 {
		t.Fatalf("ed25519 wallet not created: %+v", out.Card.Wallets)
	}
	if wp := e.WalletProfiles(); len(wp) != 2 || wp[0] != p.Wallets[0] || wp[1].Curve != string(card.Ed25519) {
		t.Fatalf("wallet profiles = %+v", wp)
	}

	seed, _ := hex.DecodeString(p.Wallets[0].Seed)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}
	pub, err := master.Neuter()
	if err != nil {
		t.Fatalf("Neuter: %v", err)
	}
	for _, idx := range path {
		if pub, err = pub.Derive(idx); err != nil {
			t.Fatalf("Derive: %v", err)
		}
	}
	want, _ := pub.ECPubKey()

	keys := out.DerivedKeys.For(out.Card.Wallets[0].PublicKey)
	if len(keys) != 1 || !bytes.Equal(keys[0].Key.PublicKey, want.SerializeCompressed()) || !bytes.Equal(keys[0].Key.ChainCode, pub.ChainCode()) {
		t.Fatalf("derived keys do not match public derivation: %+v", keys)
	}
}

func TestScan_WithoutPreflight(t *testing.T) {
	e, err := New(generate(t, GenerateOptions{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := scan.New(scan.Config{}).Run(context.Background(), e); !errors.Is(err, scan.ErrMissingPreflightRead) {
		t.Fatalf("expected ErrMissingPreflightRead, got %v", err)
	}
}

func TestProfile_YAMLRoundTripAndScriptedFailures(t *testing.T) {
	p := generate(t, GenerateOptions{Firmware: "4.52r", Curves: []card.Curve{card.Secp256k1, card.Ed25519}})
	p.Attestation = []string{"verifiedOffline", "verified"}
	p.Failures = map[string]Failure{"read_file": {SW: "6A82", Times: 1}}

	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := ParseProfile(data)
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	if !reflect.DeepEqual(back, p) {
		t.Fatalf("profile changed in YAML round trip")
	}

	e := open(t, back)
	ctx := context.Background()
	if _, err := e.Send(ctx, session.ReadFile{FileName: "x"}); !errors.Is(err, session.ErrFileNotFound) {
		t.Fatalf("expected scripted 6A82, got %v", err)
	}
	if _, err := e.Send(ctx, session.ReadFile{FileName: "x"}); !errors.Is(err, session.ErrFileNotFound) {
		t.Fatalf("missing file must report not found, got %v", err)
	}

	for _, want := range []attestation.Status{attestation.VerifiedOffline, attestation.Verified, attestation.Verified} {
		r, err := session.Send[attestation.Report](ctx, e, session.Attest{Mode: attestation.Normal})
		if err != nil || r.Status != want {
			t.Fatalf("attest = %v, %v; want %v", r.Status, err, want)
		}
	}
}

func TestEmulator_CommandRules(t *testing.T) {
	ctx := context.Background()

	t.Run("busy", func(t *testing.T) {
		e := open(t, generate(t, GenerateOptions{}))
		e.inflight.Lock()
		defer e.inflight.Unlock()
		if _, err := e.Send(ctx, session.ReadIssuerData{}); !errors.Is(err, session.ErrBusy) {
			t.Fatalf("expected ErrBusy, got %v", err)
		}
	})

	t.Run("legacy firmware lacks files", func(t *testing.T) {
		e := open(t, generate(t, GenerateOptions{Firmware: "3.05r"}))
		if _, err := e.Send(ctx, session.ReadFile{FileName: card.NoteFileName}); !errors.Is(err, session.ErrInsNotSupported) {
			t.Fatalf("expected ErrInsNotSupported, got %v", err)
		}
	})

	t.Run("wallet limit", func(t *testing.T) {
		e := open(t, generate(t, GenerateOptions{MaxWallets: 1, Curves: []card.Curve{card.Secp256k1}}))
		_, err := e.Send(ctx, session.CreateWallets{Curves: []card.Curve{card.Ed25519}})
		var se *session.StatusError
		if !errors.As(err, &se) || se.SW != swNotEnoughMemory {
			t.Fatalf("expected not enough memory, got %v", err)
		}
	})

	t.Run("linking refused with backup", func(t *testing.T) {
		p := generate(t, GenerateOptions{Curves: []card.Curve{card.Secp256k1, card.Ed25519}})
		p.BackupStatus = string(card.Active)
		e := open(t, p)
		if _, err := e.Send(ctx, session.StartPrimaryCardLinking{}); err == nil {
			t.Fatalf("expected linking to be refused")
		}
	})

	t.Run("unknown wallet cannot derive", func(t *testing.T) {
		e := open(t, generate(t, GenerateOptions{Curves: []card.Curve{card.Secp256k1}}))
		if _, err := e.Send(ctx, session.DeriveKeys{PublicKey: []byte{1}}); err == nil {
			t.Fatalf("expected derive error")
		}
	})
}
