package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

const (
	DefaultSeriesDays   = 7
	MaxSeriesDays       = 366
	DefaultSeriesMonths = 12
	MaxSeriesMonths     = 120
	DefaultTopUsers     = 10
	MaxTopUsers         = 100

	statsWindowDays        = 30
	popularCategoriesLimit = 5
)

// AnalyticsService builds summaries over the ledger. Sums come from the
// store as integer cents; series are gap-filled here.
type AnalyticsService struct {
	stats repository.StatsRepo
	now   func() time.Time
}

func NewAnalyticsService(stats repository.StatsRepo) *AnalyticsService {
	return &AnalyticsService{stats: stats, now: time.Now}
}

func (s *AnalyticsService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

func (s *AnalyticsService) CategoryTotals(ctx context.Context, userID int64, r DateRange) ([]models.CategoryTotal, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	out, err := s.stats.CategoryTotals(ctx, userID, r.Start, r.End)
	if err != nil {
		return nil, dependencyError("category totals", err)
	}
	if out == nil {
		out = []models.CategoryTotal{}
	}
	return out, nil
}

// DailySeries returns exactly days entries ending today, oldest first.
// days == 0 selects DefaultSeriesDays.
func (s *AnalyticsService) DailySeries(ctx context.Context, userID int64, days int) ([]models.DailyTotal, error) {
	if days == 0 {
		days = DefaultSeriesDays
	}
	if days < 1 || days > MaxSeriesDays {
		return nil, validationError("days must be between 1 and %d", MaxSeriesDays)
	}
	to := s.today()
	from := to.AddDays(-(days - 1))

	rows, err := s.stats.DailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, dependencyError("daily totals", err)
	}
	return denseDaily(rows, from, days), nil
}

// MonthlyTotals returns exactly months entries ending with the current
// month, newest first. months == 0 selects DefaultSeriesMonths.
func (s *AnalyticsService) MonthlyTotals(ctx context.Context, userID int64, months int) ([]models.MonthlyTotal, error) {
	if months == 0 {
		months = DefaultSeriesMonths
	}
	if months < 1 || months > MaxSeriesMonths {
		return nil, validationError("months must be between 1 and %d", MaxSeriesMonths)
	}
	today := s.today()
	current := models.NewDate(today.Year(), today.Month(), 1)
	from := models.Date{Time: current.AddDate(0, -(months - 1), 0)}

	rows, err := s.stats.MonthlyTotals(ctx, userID, from, today)
	if err != nil {
		return nil, dependencyError("monthly totals", err)
	}
	return denseMonthly(rows, current, months), nil
}

func (s *AnalyticsService) UserStats(ctx context.Context) (models.UserStats, error) {
	now := s.now().UTC()
	today := models.DateOf(now)
	week := now.Add(-7 * 24 * time.Hour)
	month := now.Add(-statsWindowDays * 24 * time.Hour)
	signupsFrom := today.AddDays(-(statsWindowDays - 1))

	var (
		out     models.UserStats
		signups []models.DailyCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = s.stats.CountUsers(gctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.NewToday, err = s.stats.CountUsers(gctx, today.Time)
		return err
	})
	g.Go(func() (err error) {
		out.NewThisWeek, err = s.stats.CountUsers(gctx, week)
		return err
	})
	g.Go(func() (err error) {
		out.NewThisMonth, err = s.stats.CountUsers(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveUsers, err = s.stats.CountActiveUsers(gctx, week)
		return err
	})
	g.Go(func() (err error) {
		signups, err = s.stats.DailySignups(gctx, signupsFrom.Time)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.UserStats{}, dependencyError("user stats", err)
	}
	out.DailySignups = denseCounts(signups, signupsFrom, statsWindowDays)
	return out, nil
}

func (s *AnalyticsService) ExpenseStats(ctx context.Context) (models.ExpenseStats, error) {
	today := s.today()
	from := today.AddDays(-(statsWindowDays - 1))

	var (
		out   models.ExpenseStats
		daily []models.DailyTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalExpenses, out.TotalAmount, err = s.stats.ExpenseTotals(gctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.TodayExpenses, _, err = s.stats.ExpenseTotals(gctx, today.Time)
		return err
	})
	g.Go(func() (err error) {
		out.PopularCategories, err = s.stats.PopularCategories(gctx, popularCategoriesLimit)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.stats.DailyTotals(gctx, 0, from, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ExpenseStats{}, dependencyError("expense stats", err)
	}
	if out.PopularCategories == nil {
		out.PopularCategories = []models.CategoryUsage{}
	}
	out.DailyTotals = denseDaily(daily, from, statsWindowDays)
	return out, nil
}

// TopUsers lists the most active users. limit == 0 selects DefaultTopUsers.
func (s *AnalyticsService) TopUsers(ctx context.Context, limit int) ([]models.UserActivity, error) {
	if limit == 0 {
		limit = DefaultTopUsers
	}
	if limit < 1 || limit > MaxTopUsers {
		return nil, validationError("limit must be between 1 and %d", MaxTopUsers)
	}
	out, err := s.stats.TopUsers(ctx, limit)
	if err != nil {
		return nil, dependencyError("top users", err)
	}
	if out == nil {
		out = []models.UserActivity{}
	}
	return out, nil
}

func denseDaily(rows []models.DailyTotal, from models.Date, days int) []models.DailyTotal {
	byDay := make(map[string]models.Money, len(rows))
	for _, r := range rows {
		byDay[r.Date.String()] = r.Total
	}
	out := make([]models.DailyTotal, days)
	for i := range out {
		d := from.AddDays(i)
		out[i] = models.DailyTotal{Date: d, Total: byDay[d.String()]}
	}
	return out
}

func denseCounts(rows []models.DailyCount, from models.Date, days int) []models.DailyCount {
	byDay := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDay[r.Date.String()] = r.Count
	}
	out := make([]models.DailyCount, days)
	for i := range out {
		d := from.AddDays(i)
		out[i] = models.DailyCount{Date: d, Count: byDay[d.String()]}
	}
	return out
}

// denseMonthly walks back from current, one calendar month per entry.
func denseMonthly(rows []models.MonthlyTotal, current models.Date, months int) []models.MonthlyTotal {
	type key struct{ year, month int }
	byMonth := make(map[key]models.MonthlyTotal, len(rows))
	for _, r := range rows {
		byMonth[key{r.Year, r.Month}] = r
	}
	out := make([]models.MonthlyTotal, months)
	for i := range out {
		m := current.AddDate(0, -i, 0)
		k := key{m.Year(), int(m.Month())}
		row, ok := byMonth[k]
		if !ok {
			row = models.MonthlyTotal{Year: k.year, Month: k.month}
		}
		row.MonthName = m.Month().String()
		out[i] = row
	}
	return out
}
