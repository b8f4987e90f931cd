// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/toeirei/tapscan/internal/tlv"
)

// NoteFileName is the named file a single-wallet card keeps its wallet data in.
const NoteFileName = "blockchainInfo"

// Named file and wallet data record tags.
const (
	tagFileName      tlv.Tag = 0x01
	tagFilePayload   tlv.Tag = 0x02
	tagFileSignature tlv.Tag = 0x03
	tagFileCounter   tlv.Tag = 0x04

	tagBlockchain    tlv.Tag = 0x10
	tagTokenSymbol   tlv.Tag = 0x11
	tagTokenContract tlv.Tag = 0x12
	tagTokenDecimals tlv.Tag = 0x13
	tagTokenName     tlv.Tag = 0x14
)

// ErrIncompleteFile is returned for named files that lack a signature or counter.
var ErrIncompleteFile = errors.New("named file is missing signature or counter")

// NamedFile is a file stored on the card under a name, signed by the issuer.
type NamedFile struct {
	Name      string
	Payload   []byte
	Signature []byte
	Counter   *uint32
}

// ParseNamedFile decodes the TLV content of a named file.
func ParseNamedFile(data []byte) (NamedFile, error) {
	rs, err := tlv.Decode(data)
	if err != nil {
		return NamedFile{}, err
	}
	payload, ok := rs.Lookup(tagFilePayload)
	if !ok {
		return NamedFile{}, fmt.Errorf("named file has no payload")
	}
	f := NamedFile{Name: rs.String(tagFileName), Payload: payload}
	if sig, ok := rs.Lookup(tagFileSignature); ok {
		f.Signature = sig
	}
	counter, ok, err := rs.Uint32(tagFileCounter)
	if err != nil {
		return NamedFile{}, err
	}
	if ok {
		f.Counter = &counter
	}
	return f, nil
}

// Encode serializes the file to TLV.
func (f NamedFile) Encode() ([]byte, error) {
	rs := tlv.Records{
		{Tag: tagFileName, Value: []byte(f.Name)},
		{Tag: tagFilePayload, Value: f.Payload},
	}
	if f.Signature != nil {
		rs = append(rs, tlv.Record{Tag: tagFileSignature, Value: f.Signature})
	}
	if f.Counter != nil {
		rs = append(rs, tlv.Record{Tag: tagFileCounter, Value: tlv.Uint32Bytes(*f.Counter)})
	}
	return tlv.Encode(rs)
}

// SignedData returns the bytes the issuer signs for this file on the card
// with the given id: cardID || payload || counter.
func (f NamedFile) SignedData(cardID []byte) ([]byte, error) {
	if f.Signature == nil || f.Counter == nil {
		return nil, ErrIncompleteFile
	}
	return NoteSignedData(cardID, f.Payload, *f.Counter), nil
}

// NoteSignedData builds cardID || payload || counter (four bytes, big endian).
func NoteSignedData(cardID, payload []byte, counter uint32) []byte {
	out := make([]byte, 0, len(cardID)+len(payload)+4)
	out = append(out, cardID...)
	out = append(out, payload...)
	return append(out, tlv.Uint32Bytes(counter)...)
}

// Token describes a token a note card is dedicated to.
type Token struct {
	Name            string
	Symbol          string
	ContractAddress string
	Decimals        int
}

// WalletData tells which blockchain (and optionally token) a card serves.
type WalletData struct {
	Blockchain string
	Token      *Token
}

// Clone returns a deep copy.
func (w WalletData) Clone() WalletData {
	out := w
	if w.Token != nil {
		t := *w.Token
		out.Token = &t
	}
	return out
}

// ParseWalletData decodes a wallet data TLV payload.
func ParseWalletData(payload []byte) (WalletData, error) {
	rs, err := tlv.Decode(payload)
	if err != nil {
		return WalletData{}, err
	}
	wd := WalletData{Blockchain: rs.String(tagBlockchain)}
	if wd.Blockchain == "" {
		return WalletData{}, fmt.Errorf("wallet data has no blockchain")
	}
	if symbol := rs.String(tagTokenSymbol); symbol != "" {
		tok := &Token{
			Name:            rs.String(tagTokenName),
			Symbol:          symbol,
			ContractAddress: rs.String(tagTokenContract),
		}
		if d := rs.String(tagTokenDecimals); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil {
				return WalletData{}, fmt.Errorf("token decimals %q: %w", d, err)
			}
			tok.Decimals = n
		}
		wd.Token = tok
	}
	return wd, nil
}

// Encode serializes the wallet data to TLV.
func (w WalletData) Encode() ([]byte, error) {
	rs := tlv.Records{{Tag: tagBlockchain, Value: []byte(w.Blockchain)}}
	if w.Token != nil {
		rs = append(rs,
			tlv.Record{Tag: tagTokenSymbol, Value: []byte(w.Token.Symbol)},
			tlv.Record{Tag: tagTokenContract, Value: []byte(w.Token.ContractAddress)},
			tlv.Record{Tag: tagTokenDecimals, Value: []byte(strconv.Itoa(w.Token.Decimals))},
		)
		if w.Token.Name != "" {
			rs = append(rs, tlv.Record{Tag: tagTokenName, Value: []byte(w.Token.Name)})
		}
	}
	return tlv.Encode(rs)
}
