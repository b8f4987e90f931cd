// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package emulator

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/session"
)

// Status words the emulator answers with besides the session sentinels.
const (
	swConditionsNotSatisfied uint16 = 0x6985
	swNotEnoughMemory        uint16 = 0x6A84
	swWrongData              uint16 = 0x6A80
)

type wallet struct {
	curve card.Curve
	seed  []byte
	hd    *hdkeychain.ExtendedKey
	pub   []byte
	chain []byte
}

func newWallet(curve card.Curve, seed []byte) (*wallet, error) {
	w := &wallet{curve: curve, seed: append([]byte(nil), seed...)}
	switch curve {
	case card.Secp256k1:
		master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("secp256k1 master key: %w", err)
		}
		pub, err := master.ECPubKey()
		if err != nil {
			return nil, err
		}
		w.hd = master
		w.pub = pub.SerializeCompressed()
		w.chain = master.ChainCode()
	case card.Ed25519:
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("ed25519 seed must be %d bytes", ed25519.SeedSize)
		}
		w.pub = ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	case card.Secp256r1:
		priv, err := ecdh.P256().NewPrivateKey(seed)
		if err != nil {
			return nil, fmt.Errorf("secp256r1 key: %w", err)
		}
		w.pub = priv.PublicKey().Bytes()
	default:
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
	return w, nil
}

func (w *wallet) snapshot() card.Wallet {
	return card.Wallet{
		Curve:     w.curve,
		PublicKey: append([]byte(nil), w.pub...),
		ChainCode: append([]byte(nil), w.chain...),
	}
}

// Emulator is an in-memory card implementing session.Session. A single
// command may be in flight; concurrent Sends fail with session.ErrBusy.
type Emulator struct {
	inflight sync.Mutex

	mu         sync.Mutex
	state      card.Card
	read       bool
	wallets    []*wallet
	files      map[string][]byte
	issuerData []byte
	attest     []attestation.Status
	attestIdx  int
	failures   map[string]*Failure
	sent       []string
	now        func() time.Time
	linkingKey []byte
	cardPubKey []byte
}

var _ session.Session = (*Emulator)(nil)

// New builds an emulator from p. The card is not read until Preflight runs.
func New(p Profile) (*Emulator, error) {
	fw, err := card.ParseFirmwareVersion(p.Firmware)
	if err != nil {
		return nil, err
	}
	backup, err := card.ParseBackupStatus(p.BackupStatus)
	if err != nil {
		return nil, err
	}
	issuerKey, err := decodeHex("issuer.public_key", p.Issuer.PublicKey)
	if err != nil {
		return nil, err
	}
	issuer := card.Issuer{Name: p.Issuer.Name, PublicKey: issuerKey}
	if p.Issuer.Curve != "" {
		if issuer.Curve, err = card.ParseCurve(p.Issuer.Curve); err != nil {
			return nil, err
		}
	}

	e := &Emulator{
		state: card.Card{
			ID:           p.CardID,
			BatchID:      p.BatchID,
			Firmware:     fw,
			Issuer:       issuer,
			BackupStatus: backup,
			MaxWallets:   p.MaxWallets,
			IsTwin:       p.Twin,
		},
		files:    make(map[string][]byte, len(p.Files)),
		failures: make(map[string]*Failure, len(p.Failures)),
		now:      time.Now,
	}
	if e.state.MaxWallets == 0 {
		e.state.MaxWallets = 1
	}
	if e.cardPubKey, err = decodeHex("card_public_key", p.CardPublicKey); err != nil {
		return nil, err
	}

	for i, wp := range p.Wallets {
		curve, err := card.ParseCurve(wp.Curve)
		if err != nil {
			return nil, fmt.Errorf("wallet %d: %w", i, err)
		}
		seed, err := decodeHex(fmt.Sprintf("wallets[%d].seed", i), wp.Seed)
		if err != nil {
			return nil, err
		}
		w, err := newWallet(curve, seed)
		if err != nil {
			return nil, fmt.Errorf("wallet %d: %w", i, err)
		}
		e.wallets = append(e.wallets, w)
		e.state.Wallets = append(e.state.Wallets, w.snapshot())
	}
	if err := e.state.Validate(); err != nil {
		return nil, err
	}
	if p.WalletData != nil {
		wd := p.WalletData.toCard()
		e.state.WalletData = &wd
	}
	for name, content := range p.Files {
		if e.files[name], err = decodeHex("files."+name, content); err != nil {
			return nil, err
		}
	}
	if e.issuerData, err = decodeHex("issuer_data", p.IssuerData); err != nil {
		return nil, err
	}
	for _, s := range p.Attestation {
		st, err := attestation.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		e.attest = append(e.attest, st)
	}
	for name, f := range p.Failures {
		if _, _, err := f.statusWord(); err != nil {
			return nil, fmt.Errorf("failures.%s: %w", name, err)
		}
		e.failures[name] = &f
	}
	return e, nil
}

func (wd WalletDataProfile) toCard() card.WalletData {
	out := card.WalletData{Blockchain: wd.Blockchain}
	if wd.Token != nil {
		out.Token = &card.Token{
			Name:            wd.Token.Name,
			Symbol:          wd.Token.Symbol,
			ContractAddress: wd.Token.Contract,
			Decimals:        wd.Token.Decimals,
		}
	}
	return out
}

// WalletProfiles returns the wallets currently on the card, including those
// created by CreateWallets, in profile form.
func (e *Emulator) WalletProfiles() []WalletProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]WalletProfile, 0, len(e.wallets))
	for _, w := range e.wallets {
		out = append(out, WalletProfile{Curve: string(w.curve), Seed: hex.EncodeToString(w.seed)})
	}
	return out
}

// Preflight performs the initial read that makes the snapshot available.
func (e *Emulator) Preflight(ctx context.Context) (card.Card, error) {
	if err := ctx.Err(); err != nil {
		return card.Card{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.read = true
	e.sent = append(e.sent, "preflight")
	return e.state.Clone(), nil
}

// Card returns the current snapshot once Preflight has run.
func (e *Emulator) Card() (card.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.read {
		return card.Card{}, false
	}
	return e.state.Clone(), true
}

// Sent lists the names of the commands received so far.
func (e *Emulator) Sent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sent...)
}

// Send executes cmd against the emulated card.
func (e *Emulator) Send(ctx context.Context, cmd session.Command) (any, error) {
	if !e.inflight.TryLock() {
		return nil, session.ErrBusy
	}
	defer e.inflight.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, cmd.Name())
	if err := e.scriptedFailure(cmd.Name()); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case session.ReadFile:
		return e.readFile(c)
	case session.ReadIssuerData:
		return session.IssuerDataResponse{Data: append([]byte(nil), e.issuerData...)}, nil
	case session.CreateWallets:
		return e.createWallets(c)
	case session.DeriveKeys:
		return e.deriveKeys(c)
	case session.StartPrimaryCardLinking:
		return e.startLinking()
	case session.Attest:
		return e.attestation(c), nil
	}
	return nil, &session.StatusError{SW: session.SWInsNotSupported}
}

func (e *Emulator) scriptedFailure(name string) error {
	f, ok := e.failures[name]
	if !ok {
		return nil
	}
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(e.failures, name)
		}
	}
	if sw, ok, _ := f.statusWord(); ok {
		return &session.StatusError{SW: sw}
	}
	msg := f.Message
	if msg == "" {
		msg = "scripted failure"
	}
	return fmt.Errorf("%s: %s", name, msg)
}

func (e *Emulator) readFile(c session.ReadFile) (any, error) {
	if !e.state.SupportsMultiWallet() {
		return nil, &session.StatusError{SW: session.SWInsNotSupported}
	}
	data, ok := e.files[c.FileName]
	if !ok {
		return nil, &session.StatusError{SW: session.SWFileNotFound}
	}
	return session.FileResponse{Data: append([]byte(nil), data...)}, nil
}

func (e *Emulator) createWallets(c session.CreateWallets) (any, error) {
	if len(e.state.Wallets)+len(c.Curves) > e.state.MaxWallets {
		return nil, &session.StatusError{SW: swNotEnoughMemory}
	}
	var created []*wallet
	for _, curve := range c.Curves {
		if _, exists := e.state.Wallet(curve); exists {
			return nil, &session.StatusError{SW: swConditionsNotSatisfied}
		}
		seed, err := newSeed(curve)
		if err != nil {
			return nil, err
		}
		w, err := newWallet(curve, seed)
		if err != nil {
			return nil, err
		}
		created = append(created, w)
	}

	resp := session.CreateWalletsResponse{}
	for _, w := range created {
		e.wallets = append(e.wallets, w)
		e.state.Wallets = append(e.state.Wallets, w.snapshot())
		resp.Created = append(resp.Created, w.snapshot())
	}
	return resp, nil
}

func (e *Emulator) deriveKeys(c session.DeriveKeys) (any, error) {
	var w *wallet
	for _, cand := range e.wallets {
		if bytes.Equal(cand.pub, c.PublicKey) {
			w = cand
		}
	}
	if w == nil || w.hd == nil {
		return nil, &session.StatusError{SW: swWrongData}
	}

	resp := session.DeriveKeysResponse{}
	for _, path := range c.Paths {
		k := w.hd
		for _, idx := range path {
			var err error
			if k, err = k.Derive(idx); err != nil {
				return nil, fmt.Errorf("derive %s: %w", path, err)
			}
		}
		pub, err := k.ECPubKey()
		if err != nil {
			return nil, err
		}
		resp.Keys = append(resp.Keys, card.DerivedKey{
			Path: append(card.DerivationPath(nil), path...),
			Key:  card.ExtendedPublicKey{PublicKey: pub.SerializeCompressed(), ChainCode: k.ChainCode()},
		})
	}
	return resp, nil
}

func (e *Emulator) startLinking() (any, error) {
	if !e.state.SupportsMultiWallet() {
		return nil, &session.StatusError{SW: session.SWInsNotSupported}
	}
	if e.state.HasBackup() {
		return nil, &session.StatusError{SW: swConditionsNotSatisfied}
	}
	if e.linkingKey == nil {
		k, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, err
		}
		e.linkingKey = k.PubKey().SerializeCompressed()
	}
	return card.PrimaryCard{
		CardID:            e.state.ID,
		CardPublicKey:     append([]byte(nil), e.cardPubKey...),
		LinkingKey:        append([]byte(nil), e.linkingKey...),
		ExistingWallets:   len(e.state.Wallets),
		IsHDWalletAllowed: true,
		Issuer:            e.state.Clone().Issuer,
		WalletCurves:      e.state.Curves(),
		BatchID:           e.state.BatchID,
		Firmware:          e.state.Firmware,
	}, nil
}

func (e *Emulator) attestation(c session.Attest) attestation.Report {
	st := attestation.Verified
	if n := len(e.attest); n > 0 {
		i := e.attestIdx
		if i >= n {
			i = n - 1
		}
		st = e.attest[i]
		e.attestIdx++
	}
	r := attestation.Report{Status: st, Mode: c.Mode, At: e.now()}
	switch st {
	case attestation.Warning:
		r.Reason = "issuer signature uses a deprecated key"
	case attestation.Failed:
		r.Reason = "card signature does not match the issuer certificate"
	}
	return r
}

var errSeed = errors.New("emulator: cannot generate seed")

func newSeed(curve card.Curve) ([]byte, error) {
	switch curve {
	case card.Secp256k1:
		seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errSeed, err)
		}
		return seed, nil
	case card.Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errSeed, err)
		}
		return priv.Seed(), nil
	case card.Secp256r1:
		priv, err := ecdh.P256().GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errSeed, err)
		}
		return priv.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: unsupported curve %q", errSeed, curve)
}
