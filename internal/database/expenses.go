package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"spendbook/internal/models"
)

const (
	expenseColumns = 10
	// SQLite caps bound parameters per statement; stay well under the default limit.
	maxRowsPerInsert = 2500
)

// MaxSequenceNumber returns the highest sequence number stored for a transaction
// fingerprint on a date, or 0 when there is none.
func (tx *Tx) MaxSequenceNumber(ctx context.Context, userID int64, hash, date string) (int, error) {
	var maxSeq int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence_number), 0) FROM expenses
		WHERE user_id = ? AND hash = ? AND date = ?
	`, userID, hash, date).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("query max sequence number: %w", err)
	}
	return maxSeq, nil
}

// InsertExpenses writes all expenses with multi-row INSERT statements and returns the number of rows written.
func (tx *Tx) InsertExpenses(ctx context.Context, expenses []models.Expense) (int64, error) {
	var total int64
	for start := 0; start < len(expenses); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(expenses) {
			end = len(expenses)
		}
		n, err := tx.insertExpenseChunk(ctx, expenses[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (tx *Tx) insertExpenseChunk(ctx context.Context, expenses []models.Expense) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO expenses
		(user_id, amount, date, category_id, payment_type_id, merchant_id, notes, sequence_number, statement_id, hash)
		VALUES `)

	args := make([]any, 0, len(expenses)*expenseColumns)
	for i, e := range expenses {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		var merchantID any
		if e.MerchantID > 0 {
			merchantID = e.MerchantID
		}
		args = append(args,
			e.UserID, e.Amount.StringFixed(2), e.Date, e.CategoryID, e.PaymentTypeID,
			merchantID, e.Notes, e.SequenceNumber, e.StatementID, e.TransactionHash,
		)
	}

	result, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert expenses: %w", err)
	}
	return result.RowsAffected()
}

// DeleteStatementExpenses removes a user's expenses imported from one statement.
func (tx *Tx) DeleteStatementExpenses(ctx context.Context, userID int64, statementID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND statement_id = ?`, userID, statementID)
	if err != nil {
		return 0, fmt.Errorf("delete statement expenses: %w", err)
	}
	return result.RowsAffected()
}

// ListStatementExpenses returns a user's expenses for one statement, oldest first
func (db *DB) ListStatementExpenses(ctx context.Context, userID int64, statementID string) ([]models.Expense, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.amount, e.date, e.category_id, e.payment_type_id, e.merchant_id,
		       e.notes, e.sequence_number, e.statement_id, e.hash, e.created_at,
		       COALESCE(m.name, ''), c.category
		FROM expenses e
		LEFT JOIN merchants m ON m.id = e.merchant_id
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ? AND e.statement_id = ?
		ORDER BY e.date, e.id
	`, userID, statementID)
	if err != nil {
		return nil, fmt.Errorf("query statement expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var merchantID sql.NullInt64
		var stmtID sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Date, &e.CategoryID, &e.PaymentTypeID, &merchantID,
			&e.Notes, &e.SequenceNumber, &stmtID, &e.TransactionHash, &e.CreatedAt,
			&e.MerchantName, &e.CategoryName); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.MerchantID = merchantID.Int64
		if stmtID.Valid {
			e.StatementID = &stmtID.String
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CountExpenses returns how many expenses a user has in total
func (db *DB) CountExpenses(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}
