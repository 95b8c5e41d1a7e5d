package models

import "time"

type CategoryTotal struct {
	Category string `json:"category"`
	Color    string `json:"category_color,omitempty"`
	Total    Money  `json:"total_amount"`
	Count    int64  `json:"transaction_count"`
}

type DailyTotal struct {
	Date  Date  `json:"date"`
	Total Money `json:"total"`
}

type MonthlyTotal struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Total     Money  `json:"total_amount"`
	Count     int64  `json:"transaction_count"`
}

type DailyCount struct {
	Date  Date  `json:"date"`
	Count int64 `json:"count"`
}

type UserStats struct {
	TotalUsers   int64        `json:"total_users"`
	NewToday     int64        `json:"new_today"`
	NewThisWeek  int64        `json:"new_this_week"`
	NewThisMonth int64        `json:"new_this_month"`
	ActiveUsers  int64        `json:"active_users"`
	DailySignups []DailyCount `json:"daily_signups"`
}

type CategoryUsage struct {
	Category    string `json:"category"`
	UsageCount  int64  `json:"usage_count"`
	TotalAmount Money  `json:"total_amount"`
}

type ExpenseStats struct {
	TotalExpenses     int64           `json:"total_expenses"`
	TotalAmount       Money           `json:"total_amount"`
	TodayExpenses     int64           `json:"today_expenses"`
	PopularCategories []CategoryUsage `json:"popular_categories"`
	DailyTotals       []DailyTotal    `json:"daily_totals"`
}

// UserActivity summarizes one user's recorded spending for admin views.
type UserActivity struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpenseCount  int64      `json:"expense_count"`
	TotalSpent    Money      `json:"total_spent"`
	LastExpenseAt *time.Time `json:"last_expense_at,omitempty"`
}
