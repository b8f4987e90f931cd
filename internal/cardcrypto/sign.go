// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cardcrypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SignSecp256k1 signs the SHA-256 digest of message and returns a low-S
// 64 byte R||S signature, the format cards emit.
func SignSecp256k1(priv *btcec.PrivateKey, message []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	digest := sha256.Sum256(message)
	sig := ecdsa.Sign(priv, digest[:])
	r, s := extractRSFromDER(sig.Serialize())
	if s.IsOverHalfOrder() {
		s.Negate()
	}
	out := make([]byte, 64)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out, nil
}

// extractRSFromDER reads R and S from 0x30 len 0x02 rlen R 0x02 slen S.
func extractRSFromDER(der []byte) (*btcec.ModNScalar, *btcec.ModNScalar) {
	offset := 3
	rLen := int(der[offset])
	offset++
	rBytes := der[offset : offset+rLen]
	offset += rLen

	offset++
	sLen := int(der[offset])
	offset++
	sBytes := der[offset : offset+sLen]

	r := new(btcec.ModNScalar)
	s := new(btcec.ModNScalar)
	r.SetByteSlice(trimLeadingZero(rBytes))
	s.SetByteSlice(trimLeadingZero(sBytes))
	return r, s
}

func trimLeadingZero(b []byte) []byte {
	if len(b) == 33 && b[0] == 0 {
		return b[1:]
	}
	return b
}
