// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"errors"

	"github.com/toeirei/tapscan/internal/i18n"
)

var (
	// ErrMissingPreflightRead is returned when the session has no card
	// snapshot yet.
	ErrMissingPreflightRead = errors.New("scan: card snapshot missing, preflight read has not completed")
	// ErrWrongCard matches every *WrongCardError.
	ErrWrongCard = errors.New("scan: wrong card")
	// ErrUserCancelled is returned when the operator cancels a confirmation.
	// Callers should not present it as an error.
	ErrUserCancelled = errors.New("scan: cancelled by user")
	// ErrCardVerificationFailed is returned when attestation failed and no
	// operator override is permitted.
	ErrCardVerificationFailed = errors.New("scan: card verification failed")
)

// WrongCardError reports a batch mismatch. Its message is localized.
type WrongCardError struct {
	Expected string
	Actual   string
}

func (e *WrongCardError) Error() string {
	return i18n.T("scan.error.wrong_card", map[string]any{"Expected": e.Expected, "Actual": e.Actual})
}

func (e *WrongCardError) Is(target error) bool {
	return target == ErrWrongCard
}

// IsUserCancelled reports whether err stems from an operator cancelling.
func IsUserCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}

// OperatorMessage returns the localized text shown to the operator for err,
// or "" when err has no dedicated message.
func OperatorMessage(err error) string {
	var wrong *WrongCardError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &wrong):
		return wrong.Error()
	case IsUserCancelled(err):
		return i18n.T("scan.error.cancelled")
	case errors.Is(err, ErrMissingPreflightRead):
		return i18n.T("scan.error.missing_preflight")
	case errors.Is(err, ErrCardVerificationFailed):
		return i18n.T("scan.error.verification_failed")
	}
	return ""
}
