// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"io"
	"time"

	"github.com/toeirei/tapscan/internal/scan"
	"github.com/uptrace/bun"
)

// Store defines every bookkeeping operation tapscan performs. BunStore is
// the only production implementation; the scanner itself depends on the
// narrower scan.TokenRepository and scan.ActivationRepository.
type Store interface {
	scan.TokenRepository
	scan.ActivationRepository

	// Token list methods
	AddTokenItem(ctx context.Context, item TokenItem) (TokenItem, error)
	ListTokenItems(ctx context.Context, cardID string) ([]TokenItem, error)
	RemoveTokenItems(ctx context.Context, cardID, blockchain string) (int64, error)

	// Activation journal methods
	StartActivation(ctx context.Context, cardID string) (Activation, error)
	FinishActivation(ctx context.Context, cardID string) (Activation, error)
	ListActivations(ctx context.Context) ([]Activation, error)

	// Scan history methods
	RecordScan(ctx context.Context, rec ScanRecord) (ScanRecord, error)
	ListScans(ctx context.Context, cardID string, limit int) ([]ScanRecord, error)
	ExportHistory(ctx context.Context, w io.Writer, cardID string) (int, error)

	// Backup methods
	ExportData(ctx context.Context) (*BackupData, error)
	ImportData(ctx context.Context, data *BackupData, full bool) error

	Close() error
}

// BunStore implements Store for every supported engine.
type BunStore struct {
	bun    *bun.DB
	dbType string
	now    func() time.Time
}

var _ Store = (*BunStore)(nil)

// DB exposes the underlying Bun handle for maintenance and tests.
func (s *BunStore) DB() *bun.DB { return s.bun }

// Type returns the configured engine name.
func (s *BunStore) Type() string { return s.dbType }

func (s *BunStore) Close() error { return s.bun.Close() }

func (s *BunStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
