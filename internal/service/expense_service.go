package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

const maxDescriptionLength = 255

// ExpenseInput is the client-supplied part of an expense.
type ExpenseInput struct {
	Amount      models.Money
	Category    string
	Description string
	Date        models.Date
}

// DateRange is an optional inclusive [Start, End] window; zero bounds are open.
type DateRange struct {
	Start models.Date
	End   models.Date
}

func (r DateRange) validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End.Time) {
		return validationError("startDate must not be after endDate")
	}
	return nil
}

type ExpenseService struct {
	expenses repository.ExpenseRepo
	now      func() time.Time
}

func NewExpenseService(expenses repository.ExpenseRepo) *ExpenseService {
	return &ExpenseService{expenses: expenses, now: time.Now}
}

func (in *ExpenseInput) normalize() error {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case !in.Amount.IsPositive():
		return validationError("amount must be a positive number")
	case in.Amount.GreaterThan(models.MaxAmount):
		return validationError("amount must not exceed %s", models.MaxAmount)
	case in.Category == "":
		return validationError("category is required")
	case in.Date.IsZero():
		return validationError("date is required")
	case utf8.RuneCountInString(in.Description) > maxDescriptionLength:
		return validationError("description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

func (s *ExpenseService) AddExpense(ctx context.Context, userID int64, in ExpenseInput) (models.Expense, error) {
	if err := in.normalize(); err != nil {
		return models.Expense{}, err
	}
	e, err := s.expenses.Create(ctx, models.Expense{
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		UserID:      userID,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return models.Expense{}, dependencyError("create expense", err)
	}
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, userID int64, r DateRange) ([]models.Expense, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	out, err := s.expenses.List(ctx, userID, r.Start, r.End)
	if err != nil {
		return nil, dependencyError("list expenses", err)
	}
	return out, nil
}

// UpdateExpense replaces every mutable field. Expenses of other users are
// reported as ErrNotFound.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id int64, in ExpenseInput) (models.Expense, error) {
	if err := in.normalize(); err != nil {
		return models.Expense{}, err
	}
	e, err := s.expenses.Update(ctx, models.Expense{
		ID:          id,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		UserID:      userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, dependencyError("update expense", err)
	}
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.expenses.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return dependencyError("delete expense", err)
	}
	return nil
}
