// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scan runs one pass of reads, wallet creation, key derivation and
// attestation against a tapped card and folds the results into an Outcome.
//
// Control flow per Run:
//
//	preflight snapshot -> batch filter -> branch (twin | note | primary link |
//	multi wallet | legacy) -> attestation -> interpretation -> Assemble
//
// A Scanner is reusable for sequential scans. Each Run keeps its transient
// state in a fresh value, but a single Scanner must not run two scans at once.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/cardcrypto"
	"github.com/toeirei/tapscan/internal/logging"
	"github.com/toeirei/tapscan/internal/session"
)

// Config controls a Scanner. The zero value scans without a batch filter in
// normal attestation mode, with no stored tokens or activations, and cancels
// every operator prompt.
type Config struct {
	// ExpectedBatch rejects cards of any other batch when set. Compared
	// case-insensitively.
	ExpectedBatch string
	// Mode is used for the first attestation. Offline also accepts an
	// offline verification without asking.
	Mode attestation.Mode
	// AllowUntrustedCards lets the operator accept cards that failed
	// attestation.
	AllowUntrustedCards bool
	// MandatoryCurves overrides card.MandatoryCurves.
	MandatoryCurves []card.Curve
	// MaxOnlineRetries bounds how often the operator may retry an offline
	// verification online. Zero means unbounded.
	MaxOnlineRetries int

	Tokens      TokenRepository
	Activations ActivationRepository
	Confirmer   Confirmer
}

// Scanner orchestrates a scan over a session.
type Scanner struct {
	cfg Config
}

// New returns a Scanner using cfg.
func New(cfg Config) *Scanner {
	if len(cfg.MandatoryCurves) == 0 {
		cfg.MandatoryCurves = card.MandatoryCurves
	}
	return &Scanner{cfg: cfg}
}

// run is the transient state of a single scan.
type run struct {
	s    *Scanner
	sess session.Session
	// snapshot is the card as seen before any command of this run. Wallet
	// creation does not refresh it, so derivation works on the pre-creation
	// wallet set.
	snapshot card.Card

	note    *card.WalletData
	twin    []byte
	derived card.DerivedKeys
	primary *card.PrimaryCard
	retries int
}

// Run scans the card in sess. On success the returned Outcome is complete
// and owned by the caller; on failure no partial outcome is returned.
func (s *Scanner) Run(ctx context.Context, sess session.Session) (*Outcome, error) {
	snap, ok := sess.Card()
	if !ok {
		return nil, ErrMissingPreflightRead
	}
	if err := s.checkBatch(snap); err != nil {
		return nil, err
	}

	r := &run{s: s, sess: sess, snapshot: snap.Clone(), derived: card.DerivedKeys{}}
	b, err := s.selectBranch(ctx, r.snapshot)
	if err != nil {
		return nil, err
	}
	logging.Debugf("scan %s: %s path, firmware %s", snap.ID, b, snap.Firmware)

	switch b {
	case branchTwin:
		err = r.twinPath(ctx)
	case branchNote:
		err = r.notePath(ctx)
	case branchPrimaryLink:
		err = r.primaryLinkPath(ctx)
	case branchMultiWallet:
		err = r.multiWalletPath(ctx)
	case branchLegacy:
	default:
		err = fmt.Errorf("scan: unhandled path %s", b)
	}
	if err != nil {
		return nil, err
	}

	report, err := r.attest(ctx)
	if err != nil {
		return nil, err
	}

	final, ok := sess.Card()
	if !ok {
		final = r.snapshot
	}
	out := Assemble(final, r.note, r.twin, r.derived, r.primary)
	out.Attestation = report
	out.OnlineRetries = r.retries
	return &out, nil
}

func (s *Scanner) checkBatch(c card.Card) error {
	if s.cfg.ExpectedBatch == "" {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(s.cfg.ExpectedBatch), strings.TrimSpace(c.BatchID)) {
		return nil
	}
	return &WrongCardError{Expected: s.cfg.ExpectedBatch, Actual: c.BatchID}
}

func (r *run) twinPath(ctx context.Context) error {
	resp, err := session.Send[session.IssuerDataResponse](ctx, r.sess, session.ReadIssuerData{})
	if errors.Is(err, session.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(resp.Data) > 0 {
		r.twin = append([]byte(nil), resp.Data...)
	}
	return nil
}

func (r *run) notePath(ctx context.Context) error {
	verified, err := r.readNote(ctx)
	if err != nil {
		return err
	}
	if verified {
		return nil
	}
	// Without note data the card is treated as a multi-wallet card, but a
	// single-slot card has no room for the missing curves.
	if r.hasRoomForMissingCurves() {
		if err := r.ensureCurves(ctx); err != nil {
			return err
		}
	}
	return r.deriveKeys(ctx)
}

func (r *run) hasRoomForMissingCurves() bool {
	missing := card.MissingCurves(r.s.cfg.MandatoryCurves, r.snapshot.Curves())
	if len(r.snapshot.Wallets)+len(missing) <= r.snapshot.MaxWallets {
		return true
	}
	logging.Debugf("scan %s: no room for %v on a %d wallet card", r.snapshot.ID, missing, r.snapshot.MaxWallets)
	return false
}

// readNote reads and verifies the wallet data file. Absent, unparseable and
// badly signed files all yield false with a nil error.
func (r *run) readNote(ctx context.Context) (bool, error) {
	resp, err := session.Send[session.FileResponse](ctx, r.sess, session.ReadFile{FileName: card.NoteFileName})
	switch {
	case errors.Is(err, session.ErrFileNotFound), errors.Is(err, session.ErrInsNotSupported):
		logging.Debugf("scan %s: no %s file: %v", r.snapshot.ID, card.NoteFileName, err)
		return false, nil
	case err != nil:
		return false, err
	case len(resp.Data) == 0:
		return false, nil
	}

	wd, err := r.verifyNote(resp.Data)
	if err != nil {
		logging.Debugf("scan %s: discarding %s: %v", r.snapshot.ID, card.NoteFileName, err)
		return false, nil
	}
	r.note = &wd
	return true, nil
}

func (r *run) verifyNote(raw []byte) (card.WalletData, error) {
	f, err := card.ParseNamedFile(raw)
	if err != nil {
		return card.WalletData{}, err
	}
	id, err := r.snapshot.IDBytes()
	if err != nil {
		return card.WalletData{}, err
	}
	signed, err := f.SignedData(id)
	if err != nil {
		return card.WalletData{}, err
	}
	issuer := r.snapshot.Issuer
	ok, err := cardcrypto.Verify(issuer.KeyCurve(), issuer.PublicKey, signed, f.Signature)
	if err != nil {
		return card.WalletData{}, err
	}
	if !ok {
		return card.WalletData{}, errors.New("issuer signature does not verify")
	}
	return card.ParseWalletData(f.Payload)
}

func (r *run) primaryLinkPath(ctx context.Context) error {
	pc, err := session.Send[card.PrimaryCard](ctx, r.sess, session.StartPrimaryCardLinking{})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warnf("scan %s: primary card linking failed, continuing: %v", r.snapshot.ID, err)
	} else {
		r.primary = &pc
	}
	return r.deriveKeys(ctx)
}

func (r *run) multiWalletPath(ctx context.Context) error {
	if err := r.ensureCurves(ctx); err != nil {
		return err
	}
	return r.deriveKeys(ctx)
}

// ensureCurves creates the mandatory curves missing from a non-empty card in
// a single command.
func (r *run) ensureCurves(ctx context.Context) error {
	if r.snapshot.IsEmpty() {
		return nil
	}
	missing := card.MissingCurves(r.s.cfg.MandatoryCurves, r.snapshot.Curves())
	if len(missing) == 0 {
		return nil
	}
	logging.Infof("scan %s: creating wallets for %v", r.snapshot.ID, missing)
	_, err := session.Send[session.CreateWalletsResponse](ctx, r.sess, session.CreateWallets{Curves: missing})
	return err
}

func (r *run) deriveKeys(ctx context.Context) error {
	w, ok := r.snapshot.Wallet(card.Secp256k1)
	if !ok || !w.CanDerive() {
		return nil
	}
	paths, err := r.derivationPaths(ctx, w.Curve)
	if err != nil || len(paths) == 0 {
		return err
	}
	resp, err := session.Send[session.DeriveKeysResponse](ctx, r.sess, session.DeriveKeys{PublicKey: w.PublicKey, Paths: paths})
	if err != nil {
		return err
	}
	r.derived = card.DerivedKeys{}
	r.derived.Add(w.PublicKey, resp.Keys)
	return nil
}

// derivationPaths returns the de-duplicated paths stored tokens need on
// curve, in first-seen order.
func (r *run) derivationPaths(ctx context.Context, curve card.Curve) ([]card.DerivationPath, error) {
	if r.s.cfg.Tokens == nil || !curve.SupportsDerivation() {
		return nil, nil
	}
	reqs, err := r.s.cfg.Tokens.DerivationRequirements(ctx, r.snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("scan: load derivation paths of %s: %w", r.snapshot.ID, err)
	}
	seen := make(map[string]bool, len(reqs))
	var paths []card.DerivationPath
	for _, req := range reqs {
		if req.Curve != curve {
			continue
		}
		key := req.Path.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		paths = append(paths, req.Path)
	}
	return paths, nil
}
