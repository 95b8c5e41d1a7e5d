package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense_tracker/internal/models"
)

type ResetTokenSQLite struct {
	db *sql.DB
}

func NewResetTokenSQLite(db *sql.DB) *ResetTokenSQLite { return &ResetTokenSQLite{db: db} }

var (
	_ ResetTokenStore  = (*ResetTokenSQLite)(nil)
	_ PasswordRedeemer = (*ResetTokenSQLite)(nil)
)

const (
	insertResetTokenSQL = `
		INSERT INTO password_reset_tokens (user_id, token, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	selectResetTokenSQL = `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens WHERE token = ?
	`

	consumeResetTokenSQL = `UPDATE password_reset_tokens SET used = 1 WHERE token = ? AND used = 0`

	releaseResetTokenSQL = `UPDATE password_reset_tokens SET used = 0 WHERE token = ? AND used = 1`

	deleteOtherResetTokensSQL = `DELETE FROM password_reset_tokens WHERE user_id = ? AND token <> ?`

	deleteExpiredResetTokensSQL = `DELETE FROM password_reset_tokens WHERE expires_at <= ?`
)

func (r *ResetTokenSQLite) Put(ctx context.Context, t models.ResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertResetTokenSQL,
		t.UserID,
		t.TokenHash,
		formatTimestamp(t.ExpiresAt),
		t.Used,
		formatTimestamp(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert reset token for user %d: %w", t.UserID, ErrDuplicate)
		}
		return fmt.Errorf("insert reset token for user %d: %w", t.UserID, err)
	}
	return nil
}

// Get returns (nil, nil) for an unknown token.
func (r *ResetTokenSQLite) Get(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	var t models.ResetToken
	err := r.db.QueryRowContext(ctx, selectResetTokenSQL, tokenHash).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Used,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select reset token: %w", err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Consume marks the token used; a second call finds no unused row.
func (r *ResetTokenSQLite) Consume(ctx context.Context, tokenHash string) error {
	return execOne(ctx, r.db, "consume reset token", consumeResetTokenSQL, tokenHash)
}

// Release clears the used flag set by Consume.
func (r *ResetTokenSQLite) Release(ctx context.Context, tokenHash string) error {
	return execOne(ctx, r.db, "release reset token", releaseResetTokenSQL, tokenHash)
}

func (r *ResetTokenSQLite) RedeemResetToken(ctx context.Context, tokenHash string, userID int64, passwordHash string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin redeem reset token: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := execOne(ctx, tx, "consume reset token", consumeResetTokenSQL, tokenHash); err != nil {
		return 0, err
	}
	if err := execOne(ctx, tx, fmt.Sprintf("update password for user %d", userID), updateUserPasswordSQL, passwordHash, userID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, deleteOtherResetTokensSQL, userID, tokenHash)
	if err != nil {
		return 0, fmt.Errorf("delete reset tokens for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for user %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit redeem reset token: %w", err)
	}
	return int(n), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs a statement that must touch exactly one row; zero rows is ErrNotFound.
func execOne(ctx context.Context, db execer, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// InvalidateUser deletes every token of the user except keepHash.
func (r *ResetTokenSQLite) InvalidateUser(ctx context.Context, userID int64, keepHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, deleteOtherResetTokensSQL, userID, keepHash)
	if err != nil {
		return 0, fmt.Errorf("delete reset tokens for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for user %d: %w", userID, err)
	}
	return int(n), nil
}

func (r *ResetTokenSQLite) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredResetTokensSQL, formatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for expired reset tokens: %w", err)
	}
	return int(n), nil
}
