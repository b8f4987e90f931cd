// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import "strings"

// Twin issuer data layout: the sibling card's uncompressed public key
// followed by a 64 byte signature over it.
const (
	TwinPairKeyLength  = 65
	TwinSignatureSize  = 64
	TwinIssuerDataSize = TwinPairKeyLength + TwinSignatureSize
)

// TwinSeries describes a pair of twin card series.
type TwinSeries struct {
	Prefix string
	// Number is 1 or 2, the position of the card within its pair.
	Number int
	// Pair is the prefix of the sibling series.
	Pair string
}

var twinSeries = []TwinSeries{
	{Prefix: "CB61", Number: 1, Pair: "CB62"},
	{Prefix: "CB62", Number: 2, Pair: "CB61"},
	{Prefix: "CB64", Number: 1, Pair: "CB65"},
	{Prefix: "CB65", Number: 2, Pair: "CB64"},
}

// TwinSeriesFor returns the twin series a card id belongs to.
func TwinSeriesFor(cardID string) (TwinSeries, bool) {
	id := strings.ToUpper(cardID)
	for _, s := range twinSeries {
		if strings.HasPrefix(id, s.Prefix) {
			return s, true
		}
	}
	return TwinSeries{}, false
}

// SplitTwinIssuerData splits a twin issuer payload into the pair key and its
// signature. Payloads that are not exactly TwinIssuerDataSize bytes are
// reported as absent.
func SplitTwinIssuerData(data []byte) (pairKey, signature []byte, ok bool) {
	if len(data) != TwinIssuerDataSize {
		return nil, nil, false
	}
	return data[:TwinPairKeyLength], data[TwinPairKeyLength:], true
}

// TwinInfo is the decoded twin card information of a scan.
type TwinInfo struct {
	CardID string
	Series TwinSeries
	// PairPublicKey is set only when the issuer data verified against the
	// card's first wallet key.
	PairPublicKey []byte
}
