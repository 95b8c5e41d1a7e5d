package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense_tracker/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of UserRepo interface at compile time.
var _ UserRepo = (*UserRepository)(nil)

const (
	insertUserSQL         = `INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	selectUserColumns     = `SELECT id, name, email, password_hash, created_at FROM users`
	selectUserByEmailSQL  = selectUserColumns + ` WHERE email = ?`
	selectUserByIDSQL     = selectUserColumns + ` WHERE id = ?`
	updateUserPasswordSQL = `UPDATE users SET password_hash = ? WHERE id = ?`
)

// Create inserts a new user and returns its ID. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Name, u.Email, u.PasswordHash, formatTimestamp(createdAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", u.Email, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Email, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Email, err)
	}
	return lastID, nil
}

// GetByEmail fetches a user by exact email. Returns (nil, nil) if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx, selectUserByEmailSQL, email))
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", email, err)
	}
	return u, nil
}

// GetByID fetches a user by ID. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

// UpdatePassword replaces the stored hash; ErrNotFound if the user is gone.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, updateUserPasswordSQL, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update password for user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
