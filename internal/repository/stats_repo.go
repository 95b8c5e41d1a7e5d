package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"expense_tracker/internal/models"
)

type StatsSQLite struct {
	db *sql.DB
}

func NewStatsSQLite(db *sql.DB) *StatsSQLite { return &StatsSQLite{db: db} }

var _ StatsRepo = (*StatsSQLite)(nil)

const (
	categoryTotalsSQL = `
		SELECT e.category, COALESCE(c.color, ''), SUM(e.amount_cents), COUNT(*)
		FROM expenses e
		LEFT JOIN categories c ON c.name = e.category`

	categoryTotalsGroupSQL = ` GROUP BY e.category, c.color ORDER BY SUM(e.amount_cents) DESC, e.category ASC`

	dailyTotalsSQL      = `SELECT e.date, SUM(e.amount_cents) FROM expenses e`
	dailyTotalsGroupSQL = ` GROUP BY e.date ORDER BY e.date ASC`

	monthlyTotalsSQL      = `SELECT substr(e.date, 1, 7) AS month, SUM(e.amount_cents), COUNT(*) FROM expenses e`
	monthlyTotalsGroupSQL = ` GROUP BY month ORDER BY month DESC`

	countUsersSQL       = `SELECT COUNT(*) FROM users WHERE created_at >= ?`
	countActiveUsersSQL = `SELECT COUNT(DISTINCT user_id) FROM expenses WHERE created_at >= ?`

	dailySignupsSQL = `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM users WHERE created_at >= ?
		GROUP BY day ORDER BY day ASC
	`

	expenseTotalsSQL = `SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE created_at >= ?`

	popularCategoriesSQL = `
		SELECT category, COUNT(*) AS usage_count, SUM(amount_cents)
		FROM expenses
		GROUP BY category
		ORDER BY usage_count DESC, category ASC
		LIMIT ?
	`

	topUsersSQL = `
		SELECT u.id, u.name, u.email, u.created_at,
		       COUNT(e.id) AS expense_count,
		       COALESCE(SUM(e.amount_cents), 0),
		       MAX(e.created_at)
		FROM users u
		LEFT JOIN expenses e ON e.user_id = u.id
		GROUP BY u.id, u.name, u.email, u.created_at
		ORDER BY expense_count DESC, u.id ASC
		LIMIT ?
	`
)

// scope builds the owner and date-range conditions shared by the ledger
// aggregates. userID 0 leaves the owner unrestricted.
func scope(userID int64, from, to models.Date) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if userID > 0 {
		conds = append(conds, "e.user_id = ?")
		args = append(args, userID)
	}
	if !from.IsZero() {
		conds = append(conds, "e.date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		conds = append(conds, "e.date <= ?")
		args = append(args, to.String())
	}
	return conds, args
}

func (r *StatsSQLite) CategoryTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.CategoryTotal, error) {
	conds, args := scope(userID, from, to)
	rows, err := r.db.QueryContext(ctx, categoryTotalsSQL+whereClause(conds)+categoryTotalsGroupSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("select category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.CategoryTotal, 0, 8)
	for rows.Next() {
		var (
			t     models.CategoryTotal
			cents int64
		)
		if err := rows.Scan(&t.Category, &t.Color, &cents, &t.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		t.Total = models.MoneyFromCents(cents)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}

func (r *StatsSQLite) DailyTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.DailyTotal, error) {
	conds, args := scope(userID, from, to)
	rows, err := r.db.QueryContext(ctx, dailyTotalsSQL+whereClause(conds)+dailyTotalsGroupSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("select daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.DailyTotal, 0, 32)
	for rows.Next() {
		var (
			day   string
			cents int64
		)
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		d, err := models.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("daily total: %w", err)
		}
		out = append(out, models.DailyTotal{Date: d, Total: models.MoneyFromCents(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

func (r *StatsSQLite) MonthlyTotals(ctx context.Context, userID int64, from, to models.Date) ([]models.MonthlyTotal, error) {
	conds, args := scope(userID, from, to)
	rows, err := r.db.QueryContext(ctx, monthlyTotalsSQL+whereClause(conds)+monthlyTotalsGroupSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("select monthly totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.MonthlyTotal, 0, 12)
	for rows.Next() {
		var (
			month string
			cents int64
			t     models.MonthlyTotal
		)
		if err := rows.Scan(&month, &cents, &t.Count); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		year, m, err := parseMonth(month)
		if err != nil {
			return nil, err
		}
		t.Year = year
		t.Month = int(m)
		t.MonthName = m.String()
		t.Total = models.MoneyFromCents(cents)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly totals: %w", err)
	}
	return out, nil
}

// parseMonth reads a "YYYY-MM" bucket key.
func parseMonth(s string) (int, time.Month, error) {
	if len(s) != 7 || s[4] != '-' {
		return 0, 0, fmt.Errorf("parse month %q", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("parse month %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("parse month %q", s)
	}
	return year, time.Month(m), nil
}

// CountUsers counts users created at or after since; a zero since counts all.
func (r *StatsSQLite) CountUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countUsersSQL, formatTimestamp(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountActiveUsers counts distinct users with an expense created at or after since.
func (r *StatsSQLite) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countActiveUsersSQL, formatTimestamp(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func (r *StatsSQLite) DailySignups(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, dailySignupsSQL, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("select daily signups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.DailyCount, 0, 30)
	for rows.Next() {
		var (
			day string
			c   models.DailyCount
		)
		if err := rows.Scan(&day, &c.Count); err != nil {
			return nil, fmt.Errorf("scan daily signups: %w", err)
		}
		if c.Date, err = models.ParseDate(day); err != nil {
			return nil, fmt.Errorf("daily signups: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily signups: %w", err)
	}
	return out, nil
}

// ExpenseTotals returns the count and sum of expenses created at or after since.
func (r *StatsSQLite) ExpenseTotals(ctx context.Context, since time.Time) (int64, models.Money, error) {
	var n, cents int64
	if err := r.db.QueryRowContext(ctx, expenseTotalsSQL, formatTimestamp(since)).Scan(&n, &cents); err != nil {
		return 0, models.Money{}, fmt.Errorf("select expense totals: %w", err)
	}
	return n, models.MoneyFromCents(cents), nil
}

func (r *StatsSQLite) PopularCategories(ctx context.Context, limit int) ([]models.CategoryUsage, error) {
	rows, err := r.db.QueryContext(ctx, popularCategoriesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select popular categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.CategoryUsage, 0, limit)
	for rows.Next() {
		var (
			u     models.CategoryUsage
			cents int64
		)
		if err := rows.Scan(&u.Category, &u.UsageCount, &cents); err != nil {
			return nil, fmt.Errorf("scan popular category: %w", err)
		}
		u.TotalAmount = models.MoneyFromCents(cents)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular categories: %w", err)
	}
	return out, nil
}

// TopUsers lists users by number of recorded expenses, most active first.
func (r *StatsSQLite) TopUsers(ctx context.Context, limit int) ([]models.UserActivity, error) {
	rows, err := r.db.QueryContext(ctx, topUsersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select top users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.UserActivity, 0, limit)
	for rows.Next() {
		var (
			a         models.UserActivity
			createdAt string
			cents     int64
			last      sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &createdAt, &a.ExpenseCount, &cents, &last); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("user %d created_at: %w", a.ID, err)
		}
		if last.Valid {
			t, err := parseTimestamp(last.String)
			if err != nil {
				return nil, fmt.Errorf("user %d last expense: %w", a.ID, err)
			}
			a.LastExpenseAt = &t
		}
		a.TotalSpent = models.MoneyFromCents(cents)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top users: %w", err)
	}
	return out, nil
}
