// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package attestation holds the vocabulary of card authenticity checks:
// how thoroughly to attest and what the attestation concluded.
package attestation

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how much of the attestation runs against the issuer backend.
type Mode int

// The zero value is Normal, so an unset mode never accepts an offline
// verification without asking.
const (
	// Normal performs the online card check and falls back to offline.
	Normal Mode = iota
	// Offline checks only the card and issuer signatures present on the card.
	Offline
	// Full additionally attests every wallet key.
	Full
)

var modeNames = map[Mode]string{
	Offline: "offline",
	Normal:  "normal",
	Full:    "full",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses the configuration spelling of a mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return m, nil
		}
	}
	return Normal, fmt.Errorf("unknown attestation mode %q", s)
}

// Status is the verdict of one attestation run.
type Status int

const (
	Skipped Status = iota
	Verified
	VerifiedOffline
	Warning
	Failed
)

var statusNames = map[Status]string{
	Skipped:         "skipped",
	Verified:        "verified",
	VerifiedOffline: "verifiedOffline",
	Warning:         "warning",
	Failed:          "failed",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus accepts the names produced by Status.String, case-insensitively.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return st, nil
		}
	}
	return Skipped, fmt.Errorf("unknown attestation status %q", s)
}

// MarshalText lets Status appear by name in YAML and JSON documents.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Report is the result of attesting a card.
type Report struct {
	Status Status
	Mode   Mode
	// Reason is a human readable explanation, set for warnings and failures.
	Reason string
	At     time.Time
}

// IsTrusted reports whether the status needs no operator involvement at all.
func (r Report) IsTrusted() bool {
	return r.Status == Verified
}
