// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import (
	"bytes"
	"reflect"
	"testing"
)

func TestParseFirmwareVersion_Types(t *testing.T) {
	cases := []struct {
		in    string
		major uint64
		minor uint64
		typ   FirmwareType
	}{
		{"4.52r", 4, 52, Release},
		{"4.39d SDK", 4, 39, Development},
		{"4.39 SDK", 4, 39, Development},
		{"2.42", 2, 42, Release},
		{"4.41s", 4, 41, Special},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			v, err := ParseFirmwareVersion(c.in)
			if err != nil {
				t.Fatalf("ParseFirmwareVersion(%q): %v", c.in, err)
			}
			if v.Major() != c.major || v.Minor() != c.minor || v.Type != c.typ {
				t.Fatalf("got %d.%d %s, want %d.%d %s", v.Major(), v.Minor(), v.Type, c.major, c.minor, c.typ)
			}
			if v.String() != c.in {
				t.Fatalf("String() = %q, want %q", v.String(), c.in)
			}
		})
	}

	if _, err := ParseFirmwareVersion("latest"); err == nil {
		t.Fatalf("expected error for non-numeric firmware")
	}
}

func TestFirmwareVersion_Ordering(t *testing.T) {
	if !MustParseFirmwareVersion("4.39d SDK").AtLeast(MultiWalletFirmware) {
		t.Fatalf("4.39 must reach the multi-wallet threshold")
	}
	if MustParseFirmwareVersion("4.12r").AtLeast(MultiWalletFirmware) {
		t.Fatalf("4.12 must be below the threshold")
	}
	if !MustParseFirmwareVersion("6.33r").AtLeast(MultiWalletFirmware) {
		t.Fatalf("6.33 must be above the threshold")
	}
	var zero FirmwareVersion
	if zero.AtLeast(MultiWalletFirmware) || !zero.IsZero() {
		t.Fatalf("zero version must sort first")
	}
}

func TestDerivationPath_ParseAndString(t *testing.T) {
	p, err := ParseDerivationPath("m/44'/0'/0'/0/7")
	if err != nil {
		t.Fatalf("ParseDerivationPath: %v", err)
	}
	want := DerivationPath{44 + HardenedOffset, HardenedOffset, HardenedOffset, 0, 7}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("got %v, want %v", p, want)
	}
	if p.String() != "m/44'/0'/0'/0/7" {
		t.Fatalf("String() = %q", p.String())
	}

	h, err := ParseDerivationPath("m/84h/0h")
	if err != nil || h.String() != "m/84'/0'" {
		t.Fatalf("h notation: %v %v", h, err)
	}
	if _, err := ParseDerivationPath("m/x/1"); err == nil {
		t.Fatalf("expected error for non-numeric component")
	}
	if _, err := ParseDerivationPath("m/2147483648"); err == nil {
		t.Fatalf("expected error for out of range component")
	}
	if root, err := ParseDerivationPath("m"); err != nil || len(root) != 0 {
		t.Fatalf("root path: %v %v", root, err)
	}
}

func TestMissingCurves(t *testing.T) {
	got := MissingCurves(MandatoryCurves, []Curve{Secp256k1})
	if !reflect.DeepEqual(got, []Curve{Ed25519}) {
		t.Fatalf("got %v", got)
	}
	if got := MissingCurves(MandatoryCurves, []Curve{Ed25519, Secp256k1, Secp256r1}); len(got) != 0 {
		t.Fatalf("expected no missing curves, got %v", got)
	}
	got = MissingCurves(MandatoryCurves, []Curve{Secp256r1})
	if !reflect.DeepEqual(got, []Curve{Ed25519, Secp256k1}) {
		t.Fatalf("expected sorted missing curves, got %v", got)
	}
}

func TestCard_ValidateRejectsDuplicateCurves(t *testing.T) {
	c := Card{ID: "AB01", Wallets: []Wallet{{Curve: Secp256k1}, {Curve: Secp256k1}}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected duplicate curve error")
	}
	c.Wallets = c.Wallets[:1]
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCard_CloneIsDeep(t *testing.T) {
	c := Card{
		ID:         "AB01",
		Wallets:    []Wallet{{Curve: Secp256k1, PublicKey: []byte{1, 2}, ChainCode: []byte{3}}},
		WalletData: &WalletData{Blockchain: "BTC", Token: &Token{Symbol: "X"}},
	}
	cp := c.Clone()
	cp.Wallets[0].PublicKey[0] = 9
	cp.WalletData.Token.Symbol = "Y"
	if c.Wallets[0].PublicKey[0] != 1 || c.WalletData.Token.Symbol != "X" {
		t.Fatalf("clone shares memory with the original")
	}
}

func TestNamedFile_WalletDataSignedData(t *testing.T) {
	wd := WalletData{Blockchain: "ETH", Token: &Token{Name: "Tether", Symbol: "USDT", ContractAddress: "0xdac1", Decimals: 6}}
	payload, err := wd.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	counter := uint32(3)
	f := NamedFile{Name: NoteFileName, Payload: payload, Signature: []byte{0xAA}, Counter: &counter}
	raw, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode file: %v", err)
	}

	parsed, err := ParseNamedFile(raw)
	if err != nil {
		t.Fatalf("ParseNamedFile: %v", err)
	}
	got, err := ParseWalletData(parsed.Payload)
	if err != nil {
		t.Fatalf("ParseWalletData: %v", err)
	}
	if !reflect.DeepEqual(got, wd) {
		t.Fatalf("wallet data = %+v, want %+v", got, wd)
	}

	signed, err := parsed.SignedData([]byte{0xCB, 0x01})
	if err != nil {
		t.Fatalf("SignedData: %v", err)
	}
	want := append(append([]byte{0xCB, 0x01}, payload...), 0, 0, 0, 3)
	if !bytes.Equal(signed, want) {
		t.Fatalf("signed data = %x, want %x", signed, want)
	}

	unsigned := NamedFile{Name: NoteFileName, Payload: payload}
	if _, err := unsigned.SignedData([]byte{1}); err != ErrIncompleteFile {
		t.Fatalf("expected ErrIncompleteFile, got %v", err)
	}
}

func TestTwinSeriesAndSplit(t *testing.T) {
	s, ok := TwinSeriesFor("cb62000000012345")
	if !ok || s.Number != 2 || s.Pair != "CB61" {
		t.Fatalf("series = %+v, %v", s, ok)
	}
	if _, ok := TwinSeriesFor("AC01000000012345"); ok {
		t.Fatalf("non twin card matched a series")
	}

	if _, _, ok := SplitTwinIssuerData(make([]byte, 128)); ok {
		t.Fatalf("128 byte payload must be treated as absent")
	}
	data := make([]byte, TwinIssuerDataSize)
	data[0] = 0x04
	data[TwinPairKeyLength] = 0x55
	key, sig, ok := SplitTwinIssuerData(data)
	if !ok || len(key) != 65 || len(sig) != 64 || key[0] != 0x04 || sig[0] != 0x55 {
		t.Fatalf("unexpected split: %d %d %v", len(key), len(sig), ok)
	}
}
