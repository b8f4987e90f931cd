// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/scan"
)

// Scan results stored in the history.
const (
	ResultSuccess   = "success"
	ResultCancelled = "cancelled"
	ResultWrongCard = "wrong_card"
	ResultFailed    = "failed"
)

// Card classes stored in the history.
const (
	ClassTwin        = "twin"
	ClassNote        = "note"
	ClassMultiWallet = "multi_wallet"
	ClassSingle      = "single"
)

// ScanRecord is one row of the scan history.
type ScanRecord struct {
	ID            string    `json:"id"`
	CardID        string    `json:"card_id"`
	BatchID       string    `json:"batch_id,omitempty"`
	Firmware      string    `json:"firmware,omitempty"`
	Class         string    `json:"card_class,omitempty"`
	Attestation   string    `json:"attestation,omitempty"`
	OnlineRetries int       `json:"online_retries,omitempty"`
	Result        string    `json:"result"`
	Error         string    `json:"error,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// ClassOf names the kind of card an outcome describes.
func ClassOf(out *scan.Outcome) string {
	switch {
	case out == nil:
		return ""
	case out.TwinIssuerData != nil || out.Card.IsTwin:
		return ClassTwin
	case out.IsNote:
		return ClassNote
	case out.IsMultiWallet:
		return ClassMultiWallet
	}
	return ClassSingle
}

// NewScanRecord describes a finished scan of c. out is nil when the scan
// failed with scanErr.
func NewScanRecord(c card.Card, out *scan.Outcome, scanErr error) ScanRecord {
	rec := ScanRecord{
		CardID:   NormalizeCardID(c.ID),
		BatchID:  c.BatchID,
		Firmware: c.Firmware.String(),
		Class:    ClassOf(out),
		Result:   ResultSuccess,
	}
	if out != nil {
		rec.Attestation = out.Attestation.Status.String()
		rec.OnlineRetries = out.OnlineRetries
	}
	switch {
	case scanErr == nil:
	case scan.IsUserCancelled(scanErr):
		rec.Result = ResultCancelled
	case errors.Is(scanErr, scan.ErrWrongCard):
		rec.Result = ResultWrongCard
	default:
		rec.Result = ResultFailed
	}
	if scanErr != nil {
		rec.Error = scanErr.Error()
	}
	return rec
}

func (r ScanRecord) model() scanRecordModel {
	return scanRecordModel{
		ID:            r.ID,
		CardID:        r.CardID,
		BatchID:       r.BatchID,
		Firmware:      r.Firmware,
		CardClass:     r.Class,
		Attestation:   r.Attestation,
		OnlineRetries: r.OnlineRetries,
		Result:        r.Result,
		Error:         r.Error,
		ScannedAt:     r.ScannedAt,
	}
}

func (m scanRecordModel) toRecord() ScanRecord {
	return ScanRecord{
		ID:            m.ID,
		CardID:        m.CardID,
		BatchID:       m.BatchID,
		Firmware:      m.Firmware,
		Class:         m.CardClass,
		Attestation:   m.Attestation,
		OnlineRetries: m.OnlineRetries,
		Result:        m.Result,
		Error:         m.Error,
		ScannedAt:     m.ScannedAt,
	}
}

// RecordScan appends rec to the history, assigning an id and timestamp when
// they are missing.
func (s *BunStore) RecordScan(ctx context.Context, rec ScanRecord) (ScanRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = s.timestamp()
	}
	rec.CardID = NormalizeCardID(rec.CardID)
	m := rec.model()
	if _, err := s.bun.NewInsert().Model(&m).Exec(ctx); err != nil {
		return ScanRecord{}, MapDBError(err)
	}
	dbLogf("db: recorded scan %s of %s (%s)", rec.ID, rec.CardID, rec.Result)
	return rec, nil
}

// ListScans returns the newest scans first. An empty cardID matches every
// card and a limit of zero or less returns everything.
func (s *BunStore) ListScans(ctx context.Context, cardID string, limit int) ([]ScanRecord, error) {
	var rows []scanRecordModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("scanned_at DESC, id")
	if id := NormalizeCardID(cardID); id != "" {
		q = q.Where("card_id = ?", id)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]ScanRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}

// ExportHistory writes the history of one card, or of every card when cardID
// is empty, to w as zstd-compressed JSON lines. It returns the number of
// records written.
func (s *BunStore) ExportHistory(ctx context.Context, w io.Writer, cardID string) (int, error) {
	recs, err := s.ListScans(ctx, cardID, 0)
	if err != nil {
		return 0, err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	for i, r := range recs {
		if err := enc.Encode(r); err != nil {
			_ = zw.Close()
			return i, fmt.Errorf("encode scan %s: %w", r.ID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("flush history: %w", err)
	}
	return len(recs), nil
}
