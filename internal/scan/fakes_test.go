// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/cardcrypto"
	"github.com/toeirei/tapscan/internal/session"
)

const testCardID = "AB01000000012345"

// swNotEnoughMemory is what a card answers when it has no free wallet slot.
const swNotEnoughMemory = 0x6A84

type reply struct {
	resp any
	err  error
}

// fakeSession answers commands from per-command reply queues. The last reply
// of a queue repeats. CreateWallets adds wallets to the live snapshot.
type fakeSession struct {
	mu      sync.Mutex
	card    *card.Card
	replies map[string][]reply
	sent    []session.Command
}

func newFakeSession(c card.Card) *fakeSession {
	return &fakeSession{
		card: &c,
		replies: map[string][]reply{
			session.Attest{}.Name():        {{resp: attestation.Report{Status: attestation.Verified}}},
			session.CreateWallets{}.Name(): {{resp: session.CreateWalletsResponse{}}},
		},
	}
}

func (f *fakeSession) script(cmd session.Command, replies ...reply) *fakeSession {
	f.replies[cmd.Name()] = replies
	return f
}

func (f *fakeSession) Card() (card.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.card == nil {
		return card.Card{}, false
	}
	return f.card.Clone(), true
}

func (f *fakeSession) Send(ctx context.Context, cmd session.Command) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := f.replies[cmd.Name()]
	if len(q) == 0 {
		return nil, fmt.Errorf("fake: no reply scripted for %s", cmd.Name())
	}
	r := q[0]
	if len(q) > 1 {
		f.replies[cmd.Name()] = q[1:]
	}
	if cw, ok := cmd.(session.CreateWallets); ok && r.err == nil {
		if f.card.MaxWallets > 0 && len(f.card.Wallets)+len(cw.Curves) > f.card.MaxWallets {
			return nil, &session.StatusError{SW: swNotEnoughMemory}
		}
		for _, cv := range cw.Curves {
			f.card.Wallets = append(f.card.Wallets, card.Wallet{Curve: cv, PublicKey: []byte{byte(len(f.card.Wallets) + 1)}})
		}
	}
	return r.resp, r.err
}

func (f *fakeSession) names() []string {
	out := make([]string, len(f.sent))
	for i, c := range f.sent {
		out[i] = c.Name()
	}
	return out
}

func (f *fakeSession) count(name string) int {
	n := 0
	for _, c := range f.sent {
		if c.Name() == name {
			n++
		}
	}
	return n
}

// recordingConfirmer answers prompts from a queue and records them.
type recordingConfirmer struct {
	decisions []Decision
	err       error
	prompts   []Prompt
}

func (r *recordingConfirmer) Confirm(_ context.Context, p Prompt) (Decision, error) {
	r.prompts = append(r.prompts, p)
	if r.err != nil {
		return Cancel, r.err
	}
	if len(r.decisions) == 0 {
		return Cancel, nil
	}
	d := r.decisions[0]
	r.decisions = r.decisions[1:]
	return d, nil
}

type memTokens []DerivationRequirement

func (m memTokens) DerivationRequirements(context.Context, string) ([]DerivationRequirement, error) {
	return m, nil
}

type memActivations map[string]bool

func (m memActivations) ActivationStarted(_ context.Context, id string) (bool, error) {
	return m[id], nil
}

func newKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	k, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return k
}

func multiWalletCard(fw string, curves ...card.Curve) card.Card {
	c := card.Card{
		ID:           testCardID,
		BatchID:      "AB01",
		Firmware:     card.MustParseFirmwareVersion(fw),
		MaxWallets:   3,
		BackupStatus: card.NoBackup,
	}
	for i, cv := range curves {
		w := card.Wallet{Curve: cv, PublicKey: []byte{0x02, byte(i + 10)}}
		if cv == card.Secp256k1 {
			w.ChainCode = make([]byte, 32)
		}
		c.Wallets = append(c.Wallets, w)
	}
	return c
}

// signedNote returns a note card issued by issuer and the encoded note file.
func signedNote(t *testing.T, issuer *btcec.PrivateKey, wd card.WalletData) (card.Card, []byte) {
	t.Helper()
	c := card.Card{
		ID:         testCardID,
		BatchID:    "AB01",
		Firmware:   card.MustParseFirmwareVersion("4.39r"),
		MaxWallets: 1,
		Issuer:     card.Issuer{Name: "TEST ISSUER", PublicKey: issuer.PubKey().SerializeCompressed()},
		Wallets:    []card.Wallet{{Curve: card.Secp256k1, PublicKey: []byte{0x02, 0x01}}},
	}
	payload, err := wd.Encode()
	if err != nil {
		t.Fatalf("Encode wallet data: %v", err)
	}
	id, _ := c.IDBytes()
	counter := uint32(7)
	sig, err := cardcrypto.SignSecp256k1(issuer, card.NoteSignedData(id, payload, counter))
	if err != nil {
		t.Fatalf("SignSecp256k1: %v", err)
	}
	raw, err := card.NamedFile{Name: card.NoteFileName, Payload: payload, Signature: sig, Counter: &counter}.Encode()
	if err != nil {
		t.Fatalf("Encode file: %v", err)
	}
	return c, raw
}
