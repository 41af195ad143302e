package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// CardRepo resolves raw tag identifiers to accounts through the
// attendance_cards indirection: a tag maps to a card, and exactly one
// account may reference that card.
type CardRepo struct{ DB *sql.DB }

func NewCardRepo(db *sql.DB) *CardRepo { return &CardRepo{DB: db} }

// CardByTag returns the card identifier registered for a tag, or
// ErrUnknownTag when the tag has no mapping.
func (r *CardRepo) CardByTag(ctx context.Context, tagID string) (string, error) {
	tagID = strings.TrimSpace(tagID)
	var cardID string
	err := r.DB.QueryRowContext(ctx,
		"SELECT card_id FROM attendance_cards WHERE uid = ? LIMIT 1",
		tagID).Scan(&cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnknownTag
	}
	if err != nil {
		return "", err
	}
	return cardID, nil
}

// AccountByCard returns the account holding a card, or ErrUnlinkedCard
// when no account references it.
func (r *CardRepo) AccountByCard(ctx context.Context, cardID string) (uint64, error) {
	var accountID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE card_id = ? LIMIT 1",
		cardID).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnlinkedCard
	}
	if err != nil {
		return 0, err
	}
	return accountID, nil
}
