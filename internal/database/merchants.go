package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spendbook/internal/models"
)

func (db *DB) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM merchants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query merchants: %w", err)
	}
	defer rows.Close()

	var merchants []models.Merchant
	for rows.Next() {
		var m models.Merchant
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan merchant: %w", err)
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

// FindMerchantByName looks a merchant up by exact, case-sensitive name.
func (tx *Tx) FindMerchantByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM merchants WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query merchant: %w", err)
	}
	return id, nil
}

func (tx *Tx) CreateMerchant(ctx context.Context, name string) (int64, error) {
	result, err := tx.ExecContext(ctx, `INSERT INTO merchants (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert merchant: %w", err)
	}
	return result.LastInsertId()
}
