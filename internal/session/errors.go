// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is reported when a requested file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInsNotSupported is reported by firmware that lacks an instruction.
	ErrInsNotSupported = errors.New("instruction not supported")
	// ErrBusy is returned when a command is sent while another is in flight.
	ErrBusy = errors.New("session busy")
)

// Status words with a dedicated meaning.
const (
	SWFileNotFound    uint16 = 0x6A82
	SWInsNotSupported uint16 = 0x6D00
)

// StatusError is a non-success status word returned by the card.
type StatusError struct {
	SW uint16
}

func (e *StatusError) Error() string {
	switch e.SW {
	case SWFileNotFound:
		return fmt.Sprintf("card status %04X: %v", e.SW, ErrFileNotFound)
	case SWInsNotSupported:
		return fmt.Sprintf("card status %04X: %v", e.SW, ErrInsNotSupported)
	}
	return fmt.Sprintf("card status %04X", e.SW)
}

// Is maps status words onto the package sentinels so callers can use
// errors.Is(err, ErrFileNotFound).
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrFileNotFound:
		return e.SW == SWFileNotFound
	case ErrInsNotSupported:
		return e.SW == SWInsNotSupported
	}
	return false
}
