package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"expense_tracker/internal/models"
)

// Storage errors shared by all backends.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepo interface {
	Create(ctx context.Context, u models.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type CategoryRepo interface {
	List(ctx context.Context) ([]models.Category, error)
}

// ExpenseRepo scopes every read and write by owner at the query level.
type ExpenseRepo interface {
	Create(ctx context.Context, e models.Expense) (models.Expense, error)
	Get(ctx context.Context, userID, id int64) (models.Expense, error)
	List(ctx context.Context, userID int64, from, to models.Date) ([]models.Expense, error)
	Update(ctx context.Context, e models.Expense) (models.Expense, error)
	Delete(ctx context.Context, userID, id int64) error
}

// StatsRepo runs aggregate queries. userID 0 means all users.
// Series results are sparse: days or months without rows are omitted.
type StatsRepo interface {
	CategoryTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.CategoryTotal, error)
	DailyTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.DailyTotal, error)
	MonthlyTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.MonthlyTotal, error)

	CountUsers(ctx context.Context, since time.Time) (int64, error)
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
	DailySignups(ctx context.Context, since time.Time) ([]models.DailyCount, error)

	ExpenseTotals(ctx context.Context, since time.Time) (int64, models.Money, error)
	PopularCategories(ctx context.Context, limit int) ([]models.CategoryUsage, error)
	TopUsers(ctx context.Context, limit int) ([]models.UserActivity, error)
}

// ResetTokenStore persists password reset tokens keyed by token hash.
// Get returns (nil, nil) when the token is unknown. Consume flips the used
// flag only if it is still unset and returns ErrNotFound otherwise; Release
// is its inverse and undoes a Consume whose password write failed.
type ResetTokenStore interface {
	Put(ctx context.Context, t models.ResetToken) error
	Get(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	Consume(ctx context.Context, tokenHash string) error
	Release(ctx context.Context, tokenHash string) error
	InvalidateUser(ctx context.Context, userID int64, keepHash string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// PasswordRedeemer is implemented by stores that share a database with the
// users table. RedeemResetToken consumes the token, writes the new password
// hash and deletes the user's other tokens in one transaction, returning how
// many were deleted. A used or unknown token yields ErrNotFound and changes
// nothing.
type PasswordRedeemer interface {
	RedeemResetToken(ctx context.Context, tokenHash string, userID int64, passwordHash string) (int, error)
}

type HealthRepo interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	Users       UserRepo
	Categories  CategoryRepo
	Expenses    ExpenseRepo
	Stats       StatsRepo
	ResetTokens ResetTokenStore
	Health      HealthRepo
}

// NewRepository wires the SQLite repositories. A nil resetTokens keeps reset
// tokens in the same database.
func NewRepository(db *sql.DB, resetTokens ResetTokenStore) *Repository {
	if resetTokens == nil {
		resetTokens = NewResetTokenSQLite(db)
	}
	return &Repository{
		Users:       NewUserRepository(db),
		Categories:  NewCategorySQLite(db),
		Expenses:    NewExpenseSQLite(db),
		Stats:       NewStatsSQLite(db),
		ResetTokens: resetTokens,
		Health:      NewHealthSQLite(db),
	}
}
