// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Activation is the journal entry of a card's backup linking flow.
type Activation struct {
	CardID     string     `json:"card_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// InProgress reports whether the activation was started and not finished.
func (a Activation) InProgress() bool { return a.FinishedAt == nil }

func (m activationModel) toActivation() Activation {
	a := Activation{CardID: m.CardID, StartedAt: m.StartedAt}
	if !m.FinishedAt.IsZero() {
		t := m.FinishedAt.Time
		a.FinishedAt = &t
	}
	return a
}

// StartActivation marks a card's activation as started. Starting an
// activation that is already in progress is a no-op; starting a finished one
// begins it afresh.
func (s *BunStore) StartActivation(ctx context.Context, cardID string) (Activation, error) {
	id := NormalizeCardID(cardID)
	var out activationModel
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&out).Where("card_id = ?", id).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out = activationModel{CardID: id, StartedAt: s.timestamp()}
			_, err = tx.NewInsert().Model(&out).Exec(ctx)
			return err
		case err != nil:
			return err
		case out.FinishedAt.IsZero():
			return nil
		}
		out.StartedAt = s.timestamp()
		out.FinishedAt = bun.NullTime{}
		_, err = tx.NewUpdate().Model(&out).Column("started_at", "finished_at").WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return Activation{}, MapDBError(err)
	}
	dbLogf("db: activation started for %s", id)
	return out.toActivation(), nil
}

// FinishActivation closes an in-progress activation. It returns ErrNotFound
// when the card has none.
func (s *BunStore) FinishActivation(ctx context.Context, cardID string) (Activation, error) {
	id := NormalizeCardID(cardID)
	now := s.timestamp()
	res, err := s.bun.NewUpdate().Model((*activationModel)(nil)).
		Set("finished_at = ?", now).
		Where("card_id = ?", id).
		Where("finished_at IS NULL").
		Exec(ctx)
	if err != nil {
		return Activation{}, MapDBError(err)
	}
	if affected(res) == 0 {
		return Activation{}, ErrNotFound
	}
	var m activationModel
	if err := s.bun.NewSelect().Model(&m).Where("card_id = ?", id).Scan(ctx); err != nil {
		return Activation{}, MapDBError(err)
	}
	return m.toActivation(), nil
}

// ListActivations returns every journal entry, most recently started first.
func (s *BunStore) ListActivations(ctx context.Context) ([]Activation, error) {
	var rows []activationModel
	if err := s.bun.NewSelect().Model(&rows).OrderExpr("started_at DESC, card_id").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]Activation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toActivation())
	}
	return out, nil
}

// ActivationStarted reports whether the card has an activation in progress.
func (s *BunStore) ActivationStarted(ctx context.Context, cardID string) (bool, error) {
	n, err := s.bun.NewSelect().Model((*activationModel)(nil)).
		Where("card_id = ?", NormalizeCardID(cardID)).
		Where("finished_at IS NULL").
		Count(ctx)
	if err != nil {
		return false, MapDBError(err)
	}
	return n > 0, nil
}
