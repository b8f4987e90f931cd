// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to an index to mark it as hardened.
const HardenedOffset uint32 = 0x80000000

// DerivationPath is a BIP32 path such as m/44'/0'/0'/0/0.
type DerivationPath []uint32

// ParseDerivationPath parses a path in "m/44'/0'/0'/0/0" notation.
// Hardened components may use either ' or h.
func ParseDerivationPath(path string) (DerivationPath, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" || path == "/" {
		return DerivationPath{}, nil
	}

	parts := strings.Split(path, "/")
	if parts[0] == "m" {
		parts = parts[1:]
	}

	indices := make(DerivationPath, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		hardened := false
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") {
			hardened = true
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path component %q: %w", part, err)
		}
		index := uint32(n)
		if index >= HardenedOffset {
			return nil, fmt.Errorf("path component %q out of range", part)
		}
		if hardened {
			index += HardenedOffset
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// MustParseDerivationPath is like ParseDerivationPath but panics on error.
func MustParseDerivationPath(path string) DerivationPath {
	p, err := ParseDerivationPath(path)
	if err != nil {
		panic(err)
	}
	return p
}

func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range p {
		b.WriteString("/")
		if index >= HardenedOffset {
			b.WriteString(strconv.FormatUint(uint64(index-HardenedOffset), 10))
			b.WriteString("'")
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

// ExtendedPublicKey is a public key together with the chain code needed to
// derive its non-hardened children.
type ExtendedPublicKey struct {
	PublicKey []byte
	ChainCode []byte
}

// DerivedKey is an extended public key derived on the card for Path.
type DerivedKey struct {
	Path DerivationPath
	Key  ExtendedPublicKey
}

// DerivedKeys maps the hex-encoded seed public key of a wallet to the keys
// derived from it.
type DerivedKeys map[string][]DerivedKey

// Add records keys under the given seed public key.
func (d DerivedKeys) Add(seedPublicKey []byte, keys []DerivedKey) {
	d[hex.EncodeToString(seedPublicKey)] = keys
}

// For returns the keys derived from seedPublicKey.
func (d DerivedKeys) For(seedPublicKey []byte) []DerivedKey {
	return d[hex.EncodeToString(seedPublicKey)]
}
