// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/uptrace/bun"
)

// BackupSchemaVersion is written into every backup.
const BackupSchemaVersion = 2

// BackupData is the full content of a store.
type BackupData struct {
	SchemaVersion int          `json:"schema_version"`
	TokenItems    []TokenItem  `json:"token_items"`
	Activations   []Activation `json:"activations"`
	Scans         []ScanRecord `json:"scans"`
}

// ExportData reads every table into a BackupData.
func (s *BunStore) ExportData(ctx context.Context) (*BackupData, error) {
	data := &BackupData{SchemaVersion: BackupSchemaVersion}
	var err error
	if data.TokenItems, err = s.ListTokenItems(ctx, ""); err != nil {
		return nil, fmt.Errorf("export token items: %w", err)
	}
	if data.Activations, err = s.ListActivations(ctx); err != nil {
		return nil, fmt.Errorf("export activations: %w", err)
	}
	if data.Scans, err = s.ListScans(ctx, "", 0); err != nil {
		return nil, fmt.Errorf("export scans: %w", err)
	}
	return data, nil
}

// ImportData loads a backup. A full import replaces the store's content;
// otherwise rows already present are kept and only missing ones are added.
func (s *BunStore) ImportData(ctx context.Context, data *BackupData, full bool) error {
	if data == nil {
		return fmt.Errorf("no backup data")
	}
	if data.SchemaVersion > BackupSchemaVersion {
		return fmt.Errorf("backup schema version %d is newer than supported %d", data.SchemaVersion, BackupSchemaVersion)
	}
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if full {
			for _, m := range []any{(*tokenItemModel)(nil), (*activationModel)(nil), (*scanRecordModel)(nil)} {
				if _, err := tx.NewDelete().Model(m).Where("1 = 1").Exec(ctx); err != nil {
					return fmt.Errorf("clear table: %w", err)
				}
			}
		}

		for _, item := range data.TokenItems {
			path, err := card.ParseDerivationPath(item.PathText)
			if err != nil {
				return fmt.Errorf("token item %d: %w", item.ID, err)
			}
			m := tokenItemModel{
				CardID:         NormalizeCardID(item.CardID),
				Blockchain:     item.Blockchain,
				Symbol:         item.Symbol,
				Curve:          string(item.Curve),
				DerivationPath: pathText(path),
				CreatedAt:      item.CreatedAt,
			}
			if err := insertIgnoringDuplicates(ctx, tx, &m); err != nil {
				return fmt.Errorf("import token item: %w", err)
			}
		}
		for _, a := range data.Activations {
			m := activationModel{CardID: NormalizeCardID(a.CardID), StartedAt: a.StartedAt}
			if a.FinishedAt != nil {
				m.FinishedAt = bun.NullTime{Time: *a.FinishedAt}
			}
			if err := insertIgnoringDuplicates(ctx, tx, &m); err != nil {
				return fmt.Errorf("import activation: %w", err)
			}
		}
		for _, r := range data.Scans {
			m := r.model()
			if err := insertIgnoringDuplicates(ctx, tx, &m); err != nil {
				return fmt.Errorf("import scan: %w", err)
			}
		}
		return nil
	})
}

// insertIgnoringDuplicates inserts model unless an equal key exists. The
// check runs as a select first because a failed insert aborts the whole
// transaction on PostgreSQL.
func insertIgnoringDuplicates(ctx context.Context, tx bun.Tx, model any) error {
	var exists bool
	var err error
	switch m := model.(type) {
	case *tokenItemModel:
		exists, err = tx.NewSelect().Model((*tokenItemModel)(nil)).
			Where("card_id = ?", m.CardID).
			Where("blockchain = ?", m.Blockchain).
			Where("curve = ?", m.Curve).
			Where("derivation_path = ?", m.DerivationPath).
			Exists(ctx)
	case *activationModel:
		exists, err = tx.NewSelect().Model((*activationModel)(nil)).Where("card_id = ?", m.CardID).Exists(ctx)
	case *scanRecordModel:
		exists, err = tx.NewSelect().Model((*scanRecordModel)(nil)).Where("id = ?", m.ID).Exists(ctx)
	default:
		return fmt.Errorf("unsupported model %T", model)
	}
	if err != nil || exists {
		return err
	}
	_, err = tx.NewInsert().Model(model).Exec(ctx)
	return MapDBError(err)
}

// WriteBackup writes compressed JSON backup data to w.
func WriteBackup(data *BackupData, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// ReadBackup decodes a backup written by WriteBackup.
func ReadBackup(r io.Reader) (*BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &data, nil
}
