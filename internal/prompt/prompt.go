// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package prompt implements scan.Confirmer for operators: a bubbletea dialog
// for interactive terminals, a numbered line prompt for plain streams and a
// fixed answer for unattended runs.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/toeirei/tapscan/internal/i18n"
	"github.com/toeirei/tapscan/internal/scan"
	"golang.org/x/term"
)

// Label returns the localized button text of d within p.
func Label(p scan.Prompt, d scan.Decision) string {
	switch d {
	case scan.Accept:
		if p.Kind == scan.PromptAttestationWarning {
			return i18n.T("prompt.choice.ok")
		}
		return i18n.T("prompt.choice.accept")
	case scan.Retry:
		return i18n.T("prompt.choice.retry")
	}
	return i18n.T("prompt.choice.cancel")
}

// choices returns the prompt's decisions, or a single acknowledgement when
// the prompt lists none.
func choices(p scan.Prompt) []scan.Decision {
	if len(p.Choices) == 0 {
		return []scan.Decision{scan.Accept}
	}
	return p.Choices
}

// FromConfig returns the confirmer named by mode. "auto" uses the dialog
// when both in and out are terminals and the line prompt otherwise.
func FromConfig(mode string, in, out *os.File) (scan.Confirmer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		if term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
			return NewTUI(in, out), nil
		}
		return NewLine(in, out), nil
	case "tui":
		return NewTUI(in, out), nil
	case "line":
		return NewLine(in, out), nil
	case "accept":
		return Static{Decision: scan.Accept}, nil
	case "cancel":
		return Static{Decision: scan.Cancel}, nil
	}
	return nil, fmt.Errorf("unknown prompt mode %q", mode)
}
