// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"fmt"

	"github.com/toeirei/tapscan/internal/attestation"
	"github.com/toeirei/tapscan/internal/i18n"
	"github.com/toeirei/tapscan/internal/session"
)

// attest runs the terminal attestation command and interprets its report.
func (r *run) attest(ctx context.Context) (attestation.Report, error) {
	report, err := session.Send[attestation.Report](ctx, r.sess, session.Attest{Mode: r.s.cfg.Mode})
	if err != nil {
		return attestation.Report{}, err
	}
	return r.interpret(ctx, report)
}

// interpret resolves a report into success or a terminal error. Online
// retries loop here instead of recursing; r.retries counts them.
func (r *run) interpret(ctx context.Context, report attestation.Report) (attestation.Report, error) {
	for {
		switch report.Status {
		case attestation.Verified:
			return report, nil

		case attestation.Warning:
			if _, err := r.confirm(ctx, r.warningPrompt(report)); err != nil {
				return attestation.Report{}, err
			}
			return report, nil

		case attestation.VerifiedOffline:
			if r.s.cfg.Mode == attestation.Offline {
				return report, nil
			}
			p := r.offlinePrompt(report)
			d, err := r.confirm(ctx, p)
			if err != nil {
				return attestation.Report{}, err
			}
			if d == Accept {
				return report, nil
			}
			if d != Retry || !p.Allows(Retry) {
				return attestation.Report{}, ErrUserCancelled
			}
			r.retries++
			report, err = session.Send[attestation.Report](ctx, r.sess, session.Attest{Mode: r.s.cfg.Mode, OnlineOnly: true})
			if err != nil {
				return attestation.Report{}, err
			}

		case attestation.Failed, attestation.Skipped:
			dev := r.snapshot.Firmware.IsDevelopment()
			if !dev && !r.s.cfg.AllowUntrustedCards {
				return attestation.Report{}, fmt.Errorf("%w: attestation %s", ErrCardVerificationFailed, report.Status)
			}
			d, err := r.confirm(ctx, r.untrustedPrompt(report, dev))
			if err != nil {
				return attestation.Report{}, err
			}
			if d != Accept {
				return attestation.Report{}, ErrUserCancelled
			}
			return report, nil

		default:
			return attestation.Report{}, fmt.Errorf("%w: attestation %s", ErrCardVerificationFailed, report.Status)
		}
	}
}

// confirm asks the configured Confirmer. Without one every prompt cancels.
func (r *run) confirm(ctx context.Context, p Prompt) (Decision, error) {
	if r.s.cfg.Confirmer == nil {
		return Cancel, nil
	}
	return r.s.cfg.Confirmer.Confirm(ctx, p)
}

func (r *run) warningPrompt(report attestation.Report) Prompt {
	return Prompt{
		Kind:    PromptAttestationWarning,
		CardID:  r.snapshot.ID,
		Report:  report,
		Title:   i18n.T("scan.prompt.warning.title"),
		Message: i18n.T("scan.prompt.warning.message", report.Reason),
		Choices: []Decision{Accept},
	}
}

func (r *run) offlinePrompt(report attestation.Report) Prompt {
	choices := []Decision{Accept, Retry, Cancel}
	if limit := r.s.cfg.MaxOnlineRetries; limit > 0 && r.retries >= limit {
		choices = []Decision{Accept, Cancel}
	}
	return Prompt{
		Kind:    PromptOfflineVerification,
		CardID:  r.snapshot.ID,
		Report:  report,
		Title:   i18n.T("scan.prompt.offline.title"),
		Message: i18n.T("scan.prompt.offline.message", r.snapshot.ID),
		Choices: choices,
	}
}

func (r *run) untrustedPrompt(report attestation.Report, dev bool) Prompt {
	msg := i18n.T("scan.prompt.untrusted.message", r.snapshot.ID, report.Status)
	if dev {
		msg = i18n.T("scan.prompt.untrusted.development", r.snapshot.ID, r.snapshot.Firmware)
	}
	return Prompt{
		Kind:        PromptUntrustedCard,
		CardID:      r.snapshot.ID,
		Report:      report,
		Title:       i18n.T("scan.prompt.untrusted.title"),
		Message:     msg,
		Choices:     []Decision{Cancel, Accept},
		Development: dev,
	}
}
