// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"context"
	"errors"
	"time"

	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/logging"
)

type loggingSession struct {
	next Session
}

// WithLogging wraps s so that every exchange is logged at debug level and
// failures at warn level. Missing files and unsupported instructions are
// expected answers and stay at debug.
func WithLogging(s Session) Session {
	return &loggingSession{next: s}
}

func (l *loggingSession) Card() (card.Card, bool) {
	return l.next.Card()
}

func (l *loggingSession) Send(ctx context.Context, cmd Command) (any, error) {
	start := time.Now()
	logging.Debugf("-> %s", cmd.Name())
	resp, err := l.next.Send(ctx, cmd)
	elapsed := time.Since(start).Round(time.Millisecond)
	switch {
	case errors.Is(err, ErrFileNotFound), errors.Is(err, ErrInsNotSupported):
		logging.Debugf("<- %s answered after %s: %v", cmd.Name(), elapsed, err)
		return nil, err
	case err != nil:
		logging.Warnf("<- %s failed after %s: %v", cmd.Name(), elapsed, err)
		return nil, err
	}
	logging.Debugf("<- %s ok (%s)", cmd.Name(), elapsed)
	return resp, nil
}
