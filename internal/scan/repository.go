// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"

	"github.com/toeirei/tapscan/internal/card"
)

// DerivationRequirement is a derivation path some stored token needs on a
// wallet of Curve.
type DerivationRequirement struct {
	Curve card.Curve
	Path  card.DerivationPath
}

// TokenRepository supplies the derivation paths the stored token list
// demands for a card.
type TokenRepository interface {
	DerivationRequirements(ctx context.Context, cardID string) ([]DerivationRequirement, error)
}

// ActivationRepository records which cards began the backup linking flow.
type ActivationRepository interface {
	ActivationStarted(ctx context.Context, cardID string) (bool, error)
}
