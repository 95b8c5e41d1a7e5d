package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense_tracker/internal/models"
)

type ExpenseSQLite struct {
	db *sql.DB
}

func NewExpenseSQLite(db *sql.DB) *ExpenseSQLite { return &ExpenseSQLite{db: db} }

var _ ExpenseRepo = (*ExpenseSQLite)(nil)

const (
	insertExpenseSQL = `
		INSERT INTO expenses (amount_cents, category, description, date, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectExpenseSQL = `
		SELECT e.id, e.amount_cents, e.category, COALESCE(c.color, ''), e.description, e.date, e.user_id, e.created_at
		FROM expenses e
		LEFT JOIN categories c ON c.name = e.category`

	expenseOrderSQL = ` ORDER BY e.date DESC, e.created_at DESC, e.id DESC`

	selectOwnedExpenseSQL = selectExpenseSQL + ` WHERE e.id = ? AND e.user_id = ?`

	updateExpenseSQL = `
		UPDATE expenses SET amount_cents = ?, category = ?, description = ?, date = ?
		WHERE id = ? AND user_id = ?
	`

	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ? AND user_id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e     models.Expense
		cents int64
		date  string
	)
	if err := row.Scan(&e.ID, &cents, &e.Category, &e.CategoryColor, &e.Description, &date, &e.UserID, &e.CreatedAt); err != nil {
		return models.Expense{}, err
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return models.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Amount = models.MoneyFromCents(cents)
	e.Date = d
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// Create inserts the expense and returns the stored row with its category color.
func (r *ExpenseSQLite) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertExpenseSQL,
		e.Amount.Cents(),
		e.Category,
		e.Description,
		e.Date.String(),
		e.UserID,
		formatTimestamp(e.CreatedAt),
	)
	if err != nil {
		return models.Expense{}, fmt.Errorf("insert expense for user %d: %w", e.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Expense{}, fmt.Errorf("get last insert id for expense: %w", err)
	}
	return r.Get(ctx, e.UserID, id)
}

// Get returns the expense only if it belongs to userID; ErrNotFound otherwise.
func (r *ExpenseSQLite) Get(ctx context.Context, userID, id int64) (models.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectOwnedExpenseSQL, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, fmt.Errorf("expense %d: %w", id, ErrNotFound)
		}
		return models.Expense{}, fmt.Errorf("select expense %d: %w", id, err)
	}
	return e, nil
}

// List returns the owner's expenses, optionally within [from, to] (inclusive),
// newest date first and most recently created first within a day.
func (r *ExpenseSQLite) List(ctx context.Context, userID int64, from, to models.Date) ([]models.Expense, error) {
	conds := []string{"e.user_id = ?"}
	args := []any{userID}
	if !from.IsZero() {
		conds = append(conds, "e.date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		conds = append(conds, "e.date <= ?")
		args = append(args, to.String())
	}

	rows, err := r.db.QueryContext(ctx, selectExpenseSQL+whereClause(conds)+expenseOrderSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("select expenses for user %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.Expense, 0, 32)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Update replaces the mutable fields of an owned expense.
func (r *ExpenseSQLite) Update(ctx context.Context, e models.Expense) (models.Expense, error) {
	res, err := r.db.ExecContext(ctx, updateExpenseSQL,
		e.Amount.Cents(),
		e.Category,
		e.Description,
		e.Date.String(),
		e.ID,
		e.UserID,
	)
	if err != nil {
		return models.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Expense{}, fmt.Errorf("rows affected for expense %d: %w", e.ID, err)
	}
	if n == 0 {
		return models.Expense{}, fmt.Errorf("expense %d: %w", e.ID, ErrNotFound)
	}
	return r.Get(ctx, e.UserID, e.ID)
}

func (r *ExpenseSQLite) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteExpenseSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for expense %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	return nil
}
