package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/models"
)

// CreateExpense persists an expense and all of its splits in one
// transaction. Appending to the room's expense set is a row insert, so two
// concurrent creations against the same room both survive; there is no
// read-array/push/write-array step to lose.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = models.ExpenseID(uuid.New().String())
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var reason interface{}
	if expense.Reason != "" {
		reason = expense.Reason
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, room_id, paid_by, amount, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.ID, expense.RoomID, expense.PaidBy, expense.Amount.String(), reason, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, position) VALUES (?, ?, ?, ?)",
			expense.ID, split.User, split.Amount.String(), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpensesByRoom retrieves a room's expenses with splits resolved,
// most recent first.
func (s *SQLiteStore) GetExpensesByRoom(ctx context.Context, roomID models.RoomID) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, paid_by, amount, reason, created_at
		 FROM expenses WHERE room_id = ?
		 ORDER BY created_at DESC, id DESC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var amount string
		var reason sql.NullString

		if err := rows.Scan(&expense.ID, &expense.RoomID, &expense.PaidBy, &amount, &reason, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if expense.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse expense amount: %w", err)
		}
		if reason.Valid {
			expense.Reason = reason.String
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if expense.Splits, err = s.getSplits(ctx, expense.ID); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// getSplits loads an expense's splits in their recorded order.
func (s *SQLiteStore) getSplits(ctx context.Context, expenseID models.ExpenseID) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		var amount string
		if err := rows.Scan(&split.User, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if split.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse split amount: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}
