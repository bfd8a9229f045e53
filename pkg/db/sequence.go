package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// NextSequence bumps and returns the counter for the given scope. It must run
// inside the transaction that consumes the number: the UPDATE takes a row lock,
// so two concurrent transactions can never observe the same value. The first
// use of a scope inserts the row.
func NextSequence(ctx context.Context, tx *gorm.DB, scope string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required for sequence allocation")
	}
	if scope == "" {
		return 0, fmt.Errorf("sequence scope is required")
	}

	res := tx.WithContext(ctx).Exec(`UPDATE number_sequences SET next = next + 1 WHERE scope = ?`, scope)
	if res.Error != nil {
		return 0, fmt.Errorf("bump sequence %q: %w", scope, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO number_sequences (scope, next) VALUES (?, 1)`, scope,
		).Error; err != nil {
			// Lost the insert race; the row exists now, bump it.
			retry := tx.WithContext(ctx).Exec(`UPDATE number_sequences SET next = next + 1 WHERE scope = ?`, scope)
			if retry.Error != nil || retry.RowsAffected == 0 {
				return 0, fmt.Errorf("bump sequence %q after insert race: %w", scope, retry.Error)
			}
		} else {
			return 1, nil
		}
	}

	var next int64
	if err := tx.WithContext(ctx).
		Raw(`SELECT next FROM number_sequences WHERE scope = ?`, scope).
		Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("read sequence %q: %w", scope, err)
	}
	return next, nil
}
