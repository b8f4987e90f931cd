// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session defines the half-duplex exchange with a secure element and
// the commands that can be sent over it.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/tapscan/internal/card"
)

// Session executes commands against one tapped card. Implementations allow a
// single command in flight and keep the card snapshot current as commands
// complete.
type Session interface {
	// Card returns the snapshot recorded by the last exchange. The boolean is
	// false until a preflight read has completed.
	Card() (card.Card, bool)
	// Send runs exactly one request/response exchange.
	Send(ctx context.Context, cmd Command) (any, error)
}

// ErrUnexpectedResponse is returned by Send when a session answers a command
// with a response of the wrong type.
var ErrUnexpectedResponse = errors.New("unexpected response type")

// Send dispatches cmd and asserts the response type.
func Send[R any](ctx context.Context, s Session, cmd Command) (R, error) {
	var zero R
	resp, err := s.Send(ctx, cmd)
	if err != nil {
		return zero, err
	}
	r, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("%s: %w: %T", cmd.Name(), ErrUnexpectedResponse, resp)
	}
	return r, nil
}
