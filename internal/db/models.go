// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/uptrace/bun"
)

// tokenItemModel maps the token_items table.
type tokenItemModel struct {
	bun.BaseModel `bun:"table:token_items,alias:ti"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CardID         string    `bun:"card_id,notnull"`
	Blockchain     string    `bun:"blockchain,notnull"`
	Symbol         string    `bun:"symbol,notnull"`
	Curve          string    `bun:"curve,notnull"`
	DerivationPath string    `bun:"derivation_path,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// activationModel maps the activations table. A NULL finished_at marks an
// activation still in progress.
type activationModel struct {
	bun.BaseModel `bun:"table:activations,alias:a"`

	CardID     string       `bun:"card_id,pk"`
	StartedAt  time.Time    `bun:"started_at,notnull"`
	FinishedAt bun.NullTime `bun:"finished_at,nullzero"`
}

// scanRecordModel maps the scan_history table.
type scanRecordModel struct {
	bun.BaseModel `bun:"table:scan_history,alias:sh"`

	ID            string    `bun:"id,pk"`
	CardID        string    `bun:"card_id,notnull"`
	BatchID       string    `bun:"batch_id,notnull"`
	Firmware      string    `bun:"firmware,notnull"`
	CardClass     string    `bun:"card_class,notnull"`
	Attestation   string    `bun:"attestation,notnull"`
	OnlineRetries int       `bun:"online_retries,notnull"`
	Result        string    `bun:"result,notnull"`
	Error         string    `bun:"error,notnull"`
	ScannedAt     time.Time `bun:"scanned_at,notnull"`
}
