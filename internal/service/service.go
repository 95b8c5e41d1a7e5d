package service

import (
	"context"
	"time"

	"expense_tracker/internal/logger"
	"expense_tracker/internal/models"
	"expense_tracker/internal/notification"
	"expense_tracker/internal/repository"
)

// Authorization covers signup, login and bearer token checks.
type Authorization interface {
	SignUp(ctx context.Context, name, email, password string) (models.User, error)
	GenerateToken(ctx context.Context, email, password string) (string, models.User, error)
	ParseToken(accessToken string) (Claims, error)
}

// PasswordReset issues single-use reset tokens and redeems them.
type PasswordReset interface {
	RequestReset(ctx context.Context, email, linkBase string) error
	ConfirmReset(ctx context.Context, token, newPassword string) error
}

// Expenses is the owner-scoped ledger.
type Expenses interface {
	AddExpense(ctx context.Context, userID int64, in ExpenseInput) (models.Expense, error)
	ListExpenses(ctx context.Context, userID int64, r DateRange) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, userID, id int64, in ExpenseInput) (models.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
}

type Categories interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Analytics derives read-only views over the ledger. userID 0 is global scope.
type Analytics interface {
	CategoryTotals(ctx context.Context, userID int64, r DateRange) ([]models.CategoryTotal, error)
	DailySeries(ctx context.Context, userID int64, days int) ([]models.DailyTotal, error)
	MonthlyTotals(ctx context.Context, userID int64, months int) ([]models.MonthlyTotal, error)
	UserStats(ctx context.Context) (models.UserStats, error)
	ExpenseStats(ctx context.Context) (models.ExpenseStats, error)
	TopUsers(ctx context.Context, limit int) ([]models.UserActivity, error)
}

type Health interface {
	CheckDatabase(ctx context.Context) error
}

// Sweeper removes expired reset tokens in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, interval time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	PasswordReset
	Expenses
	Categories
	Analytics
	Health
	Sweeper
}

// Deps carries what NewService needs beyond the repositories.
type Deps struct {
	SigningKey string
	Mailer     notification.Sender
	Log        *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Service{
		Authorization: NewAuthService(repos.Users, deps.SigningKey),
		PasswordReset: NewPasswordResetService(repos.Users, repos.ResetTokens, deps.Mailer, deps.Log.Component("password_reset")),
		Expenses:      NewExpenseService(repos.Expenses),
		Categories:    NewCategoryService(repos.Categories),
		Analytics:     NewAnalyticsService(repos.Stats),
		Health:        NewHealthService(repos.Health),
		Sweeper:       NewTokenSweeper(repos.ResetTokens, deps.Log.Component("token_sweeper")),
	}
}
