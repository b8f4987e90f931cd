// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package card

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// FirmwareType classifies a firmware build.
type FirmwareType int

const (
	Release FirmwareType = iota
	Development
	Special
)

func (t FirmwareType) String() string {
	switch t {
	case Release:
		return "release"
	case Development:
		return "development"
	case Special:
		return "special"
	}
	return fmt.Sprintf("FirmwareType(%d)", int(t))
}

// MultiWalletFirmware is the first firmware with named files, several wallets
// per card and on-card key derivation.
var MultiWalletFirmware = MustParseFirmwareVersion("4.39")

// firmwarePattern matches strings such as "4.52r", "4.39d SDK" or "2.42".
var firmwarePattern = regexp.MustCompile(`^(\d+)\.(\d+)\s*([a-zA-Z]?)`)

// FirmwareVersion is an ordered firmware version plus its build type.
type FirmwareVersion struct {
	version *semver.Version
	Type    FirmwareType
	raw     string
}

// ParseFirmwareVersion parses the version string reported by the card.
// A "d" type letter or an "SDK" suffix marks a development build.
func ParseFirmwareVersion(s string) (FirmwareVersion, error) {
	raw := strings.TrimSpace(s)
	m := firmwarePattern.FindStringSubmatch(raw)
	if m == nil {
		return FirmwareVersion{}, fmt.Errorf("invalid firmware version %q", s)
	}
	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return FirmwareVersion{}, fmt.Errorf("invalid firmware version %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return FirmwareVersion{}, fmt.Errorf("invalid firmware version %q: %w", s, err)
	}
	v := semver.New(major, minor, 0, "", "")

	typ := Release
	switch strings.ToLower(m[3]) {
	case "", "r":
	case "d":
		typ = Development
	default:
		typ = Special
	}
	if strings.HasSuffix(strings.ToUpper(raw), "SDK") {
		typ = Development
	}
	return FirmwareVersion{version: v, Type: typ, raw: raw}, nil
}

// MustParseFirmwareVersion is like ParseFirmwareVersion but panics on error.
func MustParseFirmwareVersion(s string) FirmwareVersion {
	v, err := ParseFirmwareVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major version number.
func (f FirmwareVersion) Major() uint64 {
	if f.version == nil {
		return 0
	}
	return f.version.Major()
}

// Minor returns the minor version number.
func (f FirmwareVersion) Minor() uint64 {
	if f.version == nil {
		return 0
	}
	return f.version.Minor()
}

// Compare orders versions by major and minor number, ignoring the build type.
func (f FirmwareVersion) Compare(o FirmwareVersion) int {
	switch {
	case f.version == nil && o.version == nil:
		return 0
	case f.version == nil:
		return -1
	case o.version == nil:
		return 1
	}
	return f.version.Compare(o.version)
}

// AtLeast reports whether f is the same as or newer than o.
func (f FirmwareVersion) AtLeast(o FirmwareVersion) bool {
	return f.Compare(o) >= 0
}

// IsDevelopment reports whether the firmware is a development (SDK) build.
func (f FirmwareVersion) IsDevelopment() bool {
	return f.Type == Development
}

// IsZero reports whether the version was never parsed.
func (f FirmwareVersion) IsZero() bool {
	return f.version == nil
}

func (f FirmwareVersion) String() string {
	if f.raw != "" {
		return f.raw
	}
	if f.version == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d", f.Major(), f.Minor())
}
