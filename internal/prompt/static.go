// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"context"

	"github.com/toeirei/tapscan/internal/logging"
	"github.com/toeirei/tapscan/internal/scan"
)

// Static answers every prompt with Decision, or cancels when the prompt does
// not offer it. Warnings are always acknowledged.
type Static struct {
	Decision scan.Decision
}

func (s Static) Confirm(ctx context.Context, p scan.Prompt) (scan.Decision, error) {
	if err := ctx.Err(); err != nil {
		return scan.Cancel, err
	}
	d := s.Decision
	switch {
	case p.Kind == scan.PromptAttestationWarning:
		d = scan.Accept
	case !p.Allows(d):
		d = scan.Cancel
	}
	logging.Infof("%s for card %s answered %s", p.Kind, p.CardID, d)
	return d, nil
}
