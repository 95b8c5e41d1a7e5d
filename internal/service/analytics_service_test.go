package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense_tracker/internal/models"
)

var analyticsNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestAnalytics(repo *stubStatsRepo) *AnalyticsService {
	svc := NewAnalyticsService(repo)
	svc.now = func() time.Time { return analyticsNow }
	return svc
}

func TestAnalytics_DailySeries_DenseAndOrdered(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		wantLen  int
		wantFrom string
	}{
		{name: "default", days: 0, wantLen: 7, wantFrom: "2024-03-04"},
		{name: "one day", days: 1, wantLen: 1, wantFrom: "2024-03-10"},
		{name: "thirty", days: 30, wantLen: 30, wantFrom: "2024-02-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubStatsRepo{dailyTotals: []models.DailyTotal{
				{Date: models.NewDate(2024, time.March, 9), Total: models.MoneyFromCents(1250)},
			}}
			out, err := newTestAnalytics(repo).DailySeries(context.Background(), 5, tt.days)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != tt.wantLen {
				t.Fatalf("want %d entries, got %d", tt.wantLen, len(out))
			}
			if out[0].Date.String() != tt.wantFrom || out[len(out)-1].Date.String() != "2024-03-10" {
				t.Fatalf("unexpected window %s..%s", out[0].Date, out[len(out)-1].Date)
			}
			if repo.dailyFrom.String() != tt.wantFrom || repo.dailyTo.String() != "2024-03-10" {
				t.Fatalf("repo asked for %s..%s", repo.dailyFrom, repo.dailyTo)
			}
			for i := 1; i < len(out); i++ {
				if out[i].Date.Sub(out[i-1].Date.Time) != 24*time.Hour {
					t.Fatalf("gap between %s and %s", out[i-1].Date, out[i].Date)
				}
			}
			for _, d := range out {
				want := "0.00"
				if d.Date.String() == "2024-03-09" {
					want = "12.50"
				}
				if d.Total.String() != want {
					t.Fatalf("%s: want %s, got %s", d.Date, want, d.Total)
				}
			}
		})
	}
}

func TestAnalytics_DailySeries_EmptyStoreStillDense(t *testing.T) {
	out, err := newTestAnalytics(&stubStatsRepo{}).DailySeries(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 7 {
		t.Fatalf("want 7 entries, got %d", len(out))
	}
	for _, d := range out {
		if !d.Total.IsZero() {
			t.Fatalf("expected zero totals, got %s", d.Total)
		}
	}
}

func TestAnalytics_RangeValidation(t *testing.T) {
	svc := newTestAnalytics(&stubStatsRepo{})
	ctx := context.Background()

	for _, days := range []int{-1, 367} {
		if _, err := svc.DailySeries(ctx, 1, days); !errors.Is(err, ErrValidation) {
			t.Fatalf("days=%d: want ErrValidation, got %v", days, err)
		}
	}
	for _, months := range []int{-3, 121} {
		if _, err := svc.MonthlyTotals(ctx, 1, months); !errors.Is(err, ErrValidation) {
			t.Fatalf("months=%d: want ErrValidation, got %v", months, err)
		}
	}
	if _, err := svc.TopUsers(ctx, 1000); !errors.Is(err, ErrValidation) {
		t.Fatalf("top users: want ErrValidation, got %v", err)
	}
	r := DateRange{Start: models.NewDate(2024, time.March, 2), End: models.NewDate(2024, time.March, 1)}
	if _, err := svc.CategoryTotals(ctx, 1, r); !errors.Is(err, ErrValidation) {
		t.Fatalf("category totals: want ErrValidation, got %v", err)
	}
}

func TestAnalytics_MonthlyTotals(t *testing.T) {
	repo := &stubStatsRepo{monthlyTotals: []models.MonthlyTotal{
		{Year: 2024, Month: 3, MonthName: "March", Total: models.MoneyFromCents(500), Count: 1},
		{Year: 2023, Month: 12, MonthName: "December", Total: models.MoneyFromCents(900), Count: 2},
	}}
	out, err := newTestAnalytics(repo).MonthlyTotals(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 12 {
		t.Fatalf("want 12 months, got %d", len(out))
	}
	if repo.monthlyFrom.String() != "2023-04-01" || repo.monthlyTo.String() != "2024-03-10" {
		t.Fatalf("repo asked for %s..%s", repo.monthlyFrom, repo.monthlyTo)
	}
	if out[0].Year != 2024 || out[0].Month != 3 || out[0].Total.String() != "5.00" {
		t.Fatalf("newest month first: %+v", out[0])
	}
	if out[1].MonthName != "February" || !out[1].Total.IsZero() {
		t.Fatalf("gap month should be zero-filled: %+v", out[1])
	}
	if out[3].Year != 2023 || out[3].Month != 12 || out[3].Count != 2 {
		t.Fatalf("december: %+v", out[3])
	}
	if out[11].Year != 2023 || out[11].Month != 4 {
		t.Fatalf("oldest month: %+v", out[11])
	}
}

func TestAnalytics_CategoryTotals_Scope(t *testing.T) {
	repo := &stubStatsRepo{categoryTotals: []models.CategoryTotal{
		{Category: "Food", Total: models.MoneyFromCents(15000), Count: 2},
		{Category: "Transport", Total: models.MoneyFromCents(3000), Count: 1},
	}}
	svc := newTestAnalytics(repo)

	out, err := svc.CategoryTotals(context.Background(), 4, DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Category != "Food" || out[0].Total.String() != "150.00" {
		t.Fatalf("unexpected totals %+v", out)
	}
	if _, err := svc.CategoryTotals(context.Background(), 0, DateRange{}); err != nil {
		t.Fatalf("global: %v", err)
	}
	if len(repo.scopes) != 2 || repo.scopes[0] != 4 || repo.scopes[1] != 0 {
		t.Fatalf("unexpected scopes %v", repo.scopes)
	}
}

func TestAnalytics_UserStats(t *testing.T) {
	today := models.DateOf(analyticsNow)
	repo := &stubStatsRepo{
		usersSince: map[time.Time]int64{
			{}:                                     40,
			today.Time:                             2,
			analyticsNow.Add(-7 * 24 * time.Hour):  5,
			analyticsNow.Add(-30 * 24 * time.Hour): 12,
		},
		activeUsers: 9,
		signups: []models.DailyCount{
			{Date: models.NewDate(2024, time.March, 10), Count: 2},
		},
	}
	stats, err := newTestAnalytics(repo).UserStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalUsers != 40 || stats.NewToday != 2 || stats.NewThisWeek != 5 || stats.NewThisMonth != 12 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.ActiveUsers != 9 {
		t.Fatalf("active users: %d", stats.ActiveUsers)
	}
	if len(stats.DailySignups) != 30 {
		t.Fatalf("want 30 signup days, got %d", len(stats.DailySignups))
	}
	last := stats.DailySignups[29]
	if last.Date.String() != "2024-03-10" || last.Count != 2 {
		t.Fatalf("last signup day %+v", last)
	}
}

func TestAnalytics_ExpenseStats(t *testing.T) {
	repo := &stubStatsRepo{
		expenseCount: 3,
		expenseSum:   models.MoneyFromCents(18000),
		popular:      []models.CategoryUsage{{Category: "Food", UsageCount: 2}},
	}
	stats, err := newTestAnalytics(repo).ExpenseStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalExpenses != 3 || stats.TotalAmount.String() != "180.00" || stats.TodayExpenses != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.DailyTotals) != 30 || len(stats.PopularCategories) != 1 {
		t.Fatalf("unexpected series sizes %d/%d", len(stats.DailyTotals), len(stats.PopularCategories))
	}
}

func TestAnalytics_StoreFailure(t *testing.T) {
	svc := newTestAnalytics(&stubStatsRepo{err: errors.New("no such table")})
	if _, err := svc.UserStats(context.Background()); !errors.Is(err, ErrDependency) {
		t.Fatalf("want ErrDependency, got %v", err)
	}
	if _, err := svc.ExpenseStats(context.Background()); !errors.Is(err, ErrDependency) {
		t.Fatalf("want ErrDependency, got %v", err)
	}
}
