// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import (
	"fmt"
	"sort"
	"strings"
)

// Curve identifies the elliptic curve a wallet is bound to.
type Curve string

const (
	Secp256k1 Curve = "secp256k1"
	Ed25519   Curve = "ed25519"
	Secp256r1 Curve = "secp256r1"
)

// MandatoryCurves are the curves every multi-wallet card is expected to carry.
var MandatoryCurves = []Curve{Secp256k1, Ed25519}

// ParseCurve converts a curve name into a Curve.
func ParseCurve(s string) (Curve, error) {
	switch c := Curve(strings.ToLower(strings.TrimSpace(s))); c {
	case Secp256k1, Ed25519, Secp256r1:
		return c, nil
	}
	return "", fmt.Errorf("unknown curve %q", s)
}

// SupportsDerivation reports whether keys on this curve can be derived by path.
func (c Curve) SupportsDerivation() bool {
	return c == Secp256k1
}

// MissingCurves returns the curves of want that are absent from have, sorted
// by name so that the result is stable.
func MissingCurves(want, have []Curve) []Curve {
	present := make(map[Curve]bool, len(have))
	for _, c := range have {
		present[c] = true
	}
	var missing []Curve
	for _, c := range want {
		if !present[c] {
			missing = append(missing, c)
			present[c] = true
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
