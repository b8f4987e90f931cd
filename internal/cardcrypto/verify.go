// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cardcrypto verifies the signatures a card and its issuer produce
// and computes key identifiers.
package cardcrypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/toeirei/tapscan/internal/card"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 key identifiers
)

var (
	// ErrUnsupportedCurve is returned for curves without a verifier.
	ErrUnsupportedCurve = errors.New("unsupported curve")
	// ErrMalformedSignature is returned when a signature cannot be decoded.
	ErrMalformedSignature = errors.New("malformed signature")
)

// Verify checks signature over message with publicKey on curve.
// secp256k1 signatures cover the SHA-256 digest of message and may be given
// as 64 byte R||S or DER. A false result with a nil error means the
// signature is well formed but does not match.
func Verify(curve card.Curve, publicKey, message, signature []byte) (bool, error) {
	switch curve {
	case card.Secp256k1:
		return verifySecp256k1(publicKey, message, signature)
	case card.Ed25519:
		if len(publicKey) != ed25519.PublicKeySize {
			return false, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
		}
		if len(signature) != ed25519.SignatureSize {
			return false, fmt.Errorf("%w: ed25519 signature is %d bytes", ErrMalformedSignature, len(signature))
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature), nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
}

func verifySecp256k1(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) == 0 {
		return false, fmt.Errorf("public key cannot be empty")
	}
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}
	sig, err := parseSignature(signature)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(message)
	return sig.Verify(digest[:], pub), nil
}

func parseSignature(sigBytes []byte) (*ecdsa.Signature, error) {
	if len(sigBytes) != 64 {
		sig, err := ecdsa.ParseDERSignature(sigBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
		}
		return sig, nil
	}

	r := new(btcec.ModNScalar)
	s := new(btcec.ModNScalar)
	if overflow := r.SetByteSlice(sigBytes[:32]); overflow {
		return nil, fmt.Errorf("%w: r value overflows", ErrMalformedSignature)
	}
	if overflow := s.SetByteSlice(sigBytes[32:]); overflow {
		return nil, fmt.Errorf("%w: s value overflows", ErrMalformedSignature)
	}
	if r.IsZero() || s.IsZero() {
		return nil, fmt.Errorf("%w: R or S is zero", ErrMalformedSignature)
	}
	return ecdsa.NewSignature(r, s), nil
}

// KeyID returns RIPEMD160(SHA256(publicKey)), the identifier BIP32 uses for
// fingerprints.
func KeyID(publicKey []byte) []byte {
	sha := sha256.Sum256(publicKey)
	rip := ripemd160.New()
	rip.Write(sha[:])
	return rip.Sum(nil)
}
