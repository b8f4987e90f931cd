// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"fmt"

	"github.com/toeirei/tapscan/internal/card"
)

// branch is the read path chosen for a card. Exactly one runs per scan.
type branch int

const (
	branchTwin branch = iota
	branchNote
	branchPrimaryLink
	branchMultiWallet
	branchLegacy
)

func (b branch) String() string {
	switch b {
	case branchTwin:
		return "twin"
	case branchNote:
		return "note"
	case branchPrimaryLink:
		return "primary_link"
	case branchMultiWallet:
		return "multi_wallet"
	case branchLegacy:
		return "legacy"
	}
	return fmt.Sprintf("branch(%d)", int(b))
}

// selectBranch classifies c. The activation repository is consulted only for
// cards that could take the primary link path.
func (s *Scanner) selectBranch(ctx context.Context, c card.Card) (branch, error) {
	switch {
	case c.IsTwin:
		return branchTwin, nil
	case !c.SupportsMultiWallet():
		return branchLegacy, nil
	case c.MaxWallets == 1:
		return branchNote, nil
	}
	if c.HasBackup() || s.cfg.Activations == nil {
		return branchMultiWallet, nil
	}
	started, err := s.cfg.Activations.ActivationStarted(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("scan: lookup activation of %s: %w", c.ID, err)
	}
	if started {
		return branchPrimaryLink, nil
	}
	return branchMultiWallet, nil
}
