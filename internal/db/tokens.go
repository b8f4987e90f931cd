// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/scan"
)

// TokenItem is one entry of a card's token list. Path is empty for tokens
// that live on the wallet key itself.
type TokenItem struct {
	ID         int64               `json:"id"`
	CardID     string              `json:"card_id"`
	Blockchain string              `json:"blockchain"`
	Symbol     string              `json:"symbol,omitempty"`
	Curve      card.Curve          `json:"curve"`
	Path       card.DerivationPath `json:"-"`
	PathText   string              `json:"derivation_path,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NormalizeCardID upper-cases and trims a card id so lookups are stable.
func NormalizeCardID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func pathText(p card.DerivationPath) string {
	if len(p) == 0 {
		return ""
	}
	return p.String()
}

func (m tokenItemModel) toItem() (TokenItem, error) {
	item := TokenItem{
		ID:         m.ID,
		CardID:     m.CardID,
		Blockchain: m.Blockchain,
		Symbol:     m.Symbol,
		Curve:      card.Curve(m.Curve),
		PathText:   m.DerivationPath,
		CreatedAt:  m.CreatedAt,
	}
	if m.DerivationPath != "" {
		p, err := card.ParseDerivationPath(m.DerivationPath)
		if err != nil {
			return TokenItem{}, fmt.Errorf("token item %d: %w", m.ID, err)
		}
		item.Path = p
	}
	return item, nil
}

// AddTokenItem stores a token for a card. Adding the same blockchain, curve
// and path twice fails with ErrDuplicate.
func (s *BunStore) AddTokenItem(ctx context.Context, item TokenItem) (TokenItem, error) {
	item.CardID = NormalizeCardID(item.CardID)
	if item.CardID == "" {
		return TokenItem{}, fmt.Errorf("token item needs a card id")
	}
	item.Blockchain = strings.TrimSpace(item.Blockchain)
	if item.Blockchain == "" {
		return TokenItem{}, fmt.Errorf("token item needs a blockchain")
	}
	curve, err := card.ParseCurve(string(item.Curve))
	if err != nil {
		return TokenItem{}, err
	}
	if len(item.Path) > 0 && !curve.SupportsDerivation() {
		return TokenItem{}, fmt.Errorf("curve %s does not support derivation", curve)
	}

	m := tokenItemModel{
		CardID:         item.CardID,
		Blockchain:     item.Blockchain,
		Symbol:         item.Symbol,
		Curve:          string(curve),
		DerivationPath: pathText(item.Path),
		CreatedAt:      s.timestamp(),
	}
	if _, err := s.bun.NewInsert().Model(&m).Exec(ctx); err != nil {
		return TokenItem{}, MapDBError(err)
	}
	dbLogf("db: token %s/%s added for %s", m.Blockchain, m.DerivationPath, m.CardID)
	return m.toItem()
}

// ListTokenItems returns the token list of one card, or of every card when
// cardID is empty.
func (s *BunStore) ListTokenItems(ctx context.Context, cardID string) ([]TokenItem, error) {
	var rows []tokenItemModel
	q := s.bun.NewSelect().Model(&rows).Order("card_id", "id")
	if id := NormalizeCardID(cardID); id != "" {
		q = q.Where("card_id = ?", id)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	items := make([]TokenItem, 0, len(rows))
	for _, r := range rows {
		item, err := r.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// RemoveTokenItems deletes a card's tokens, limited to one blockchain when
// blockchain is not empty, and returns how many were removed.
func (s *BunStore) RemoveTokenItems(ctx context.Context, cardID, blockchain string) (int64, error) {
	q := s.bun.NewDelete().Model((*tokenItemModel)(nil)).Where("card_id = ?", NormalizeCardID(cardID))
	if b := strings.TrimSpace(blockchain); b != "" {
		q = q.Where("blockchain = ?", b)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, MapDBError(err)
	}
	return affected(res), nil
}

// DerivationRequirements lists the paths the stored tokens of a card need.
func (s *BunStore) DerivationRequirements(ctx context.Context, cardID string) ([]scan.DerivationRequirement, error) {
	var rows []tokenItemModel
	err := s.bun.NewSelect().Model(&rows).
		Where("card_id = ?", NormalizeCardID(cardID)).
		Where("derivation_path <> ''").
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	reqs := make([]scan.DerivationRequirement, 0, len(rows))
	for _, r := range rows {
		item, err := r.toItem()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, scan.DerivationRequirement{Curve: item.Curve, Path: item.Path})
	}
	return reqs, nil
}
