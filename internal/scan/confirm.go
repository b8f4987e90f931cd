// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"fmt"

	"github.com/toeirei/tapscan/internal/attestation"
)

// Decision is the operator's answer to a Prompt.
type Decision int

const (
	Accept Decision = iota
	Cancel
	Retry
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Cancel:
		return "cancel"
	case Retry:
		return "retry"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// PromptKind identifies why the operator is asked.
type PromptKind int

const (
	// PromptAttestationWarning is informational; every answer acknowledges it.
	PromptAttestationWarning PromptKind = iota
	// PromptOfflineVerification offers accept, cancel and, while retries
	// remain, retry online.
	PromptOfflineVerification
	// PromptUntrustedCard offers accept or cancel for a card that failed
	// attestation.
	PromptUntrustedCard
)

func (k PromptKind) String() string {
	switch k {
	case PromptAttestationWarning:
		return "attestation_warning"
	case PromptOfflineVerification:
		return "offline_verification"
	case PromptUntrustedCard:
		return "untrusted_card"
	}
	return fmt.Sprintf("prompt(%d)", int(k))
}

// Prompt is a blocking question for the operator.
type Prompt struct {
	Kind    PromptKind
	CardID  string
	Report  attestation.Report
	Title   string
	Message string
	// Choices lists the decisions the operator may pick, default first.
	Choices []Decision
	// Development is set when the card runs development firmware.
	Development bool
}

// Allows reports whether d is one of the prompt's choices.
func (p Prompt) Allows(d Decision) bool {
	for _, c := range p.Choices {
		if c == d {
			return true
		}
	}
	return false
}

// Confirmer presents a Prompt and blocks until the operator decides or ctx
// ends.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (Decision, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, p Prompt) (Decision, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) (Decision, error) {
	return f(ctx, p)
}
