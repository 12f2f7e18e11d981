package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spendbook/internal/models"
)

const uncategorizedName = models.UncategorizedCategory

func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, category FROM categories ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UncategorizedCategoryID returns the id of the default category
func (tx *Tx) UncategorizedCategoryID(ctx context.Context) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE category = ?`, uncategorizedName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: category %q", ErrMissingSeedData, uncategorizedName)
	}
	if err != nil {
		return 0, fmt.Errorf("query uncategorized category: %w", err)
	}
	return id, nil
}

func (db *DB) ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM payment_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query payment types: %w", err)
	}
	defer rows.Close()

	var types []models.PaymentType
	for rows.Next() {
		var p models.PaymentType
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan payment type: %w", err)
		}
		types = append(types, p)
	}
	return types, rows.Err()
}
