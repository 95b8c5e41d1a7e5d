package service

import (
	"context"
	"sync"
	"time"

	"expense_tracker/internal/models"
	"expense_tracker/internal/notification"
	"expense_tracker/internal/repository"
)

// fixedClock returns a settable clock for services that take now().
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memUserRepo is an in-test repository.UserRepo keyed by email.
type memUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]models.User

	getErr    error
	createErr error
	// updateErrOnce fails the next UpdatePassword and is then cleared.
	updateErrOnce error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]models.User)}
}

func (r *memUserRepo) Create(_ context.Context, u models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return 0, repository.ErrDuplicate
	}
	r.nextID++
	u.ID = r.nextID
	r.byEmail[u.Email] = u
	return u.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErrOnce; err != nil {
		r.updateErrOnce = nil
		return err
	}
	for email, u := range r.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			r.byEmail[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

// recordingSender captures outbound messages and can fail on demand.
type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []notification.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Message(nil), s.sent...)
}

// mockExpenseRepo is a lightweight in-test mock for repository.ExpenseRepo.
type mockExpenseRepo struct {
	CreateFn func(e models.Expense) (models.Expense, error)
	GetFn    func(userID, id int64) (models.Expense, error)
	ListFn   func(userID int64, from, to models.Date) ([]models.Expense, error)
	UpdateFn func(e models.Expense) (models.Expense, error)
	DeleteFn func(userID, id int64) error
}

func (m *mockExpenseRepo) Create(_ context.Context, e models.Expense) (models.Expense, error) {
	return m.CreateFn(e)
}

func (m *mockExpenseRepo) Get(_ context.Context, userID, id int64) (models.Expense, error) {
	return m.GetFn(userID, id)
}

func (m *mockExpenseRepo) List(_ context.Context, userID int64, from, to models.Date) ([]models.Expense, error) {
	return m.ListFn(userID, from, to)
}

func (m *mockExpenseRepo) Update(_ context.Context, e models.Expense) (models.Expense, error) {
	return m.UpdateFn(e)
}

func (m *mockExpenseRepo) Delete(_ context.Context, userID, id int64) error {
	return m.DeleteFn(userID, id)
}

// stubStatsRepo returns canned aggregates and records the windows it was asked for.
type stubStatsRepo struct {
	mu sync.Mutex

	categoryTotals []models.CategoryTotal
	dailyTotals    []models.DailyTotal
	monthlyTotals  []models.MonthlyTotal
	usersSince     map[time.Time]int64
	activeUsers    int64
	signups        []models.DailyCount
	expenseCount   int64
	expenseSum     models.Money
	popular        []models.CategoryUsage
	topUsers       []models.UserActivity
	err            error

	dailyFrom, dailyTo     models.Date
	monthlyFrom, monthlyTo models.Date
	scopes                 []int64
}

func (s *stubStatsRepo) CategoryTotals(_ context.Context, userID int64, _, _ models.Date) ([]models.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, userID)
	return s.categoryTotals, s.err
}

func (s *stubStatsRepo) DailyTotals(_ context.Context, userID int64, from, to models.Date) ([]models.DailyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, userID)
	s.dailyFrom, s.dailyTo = from, to
	return s.dailyTotals, s.err
}

func (s *stubStatsRepo) MonthlyTotals(_ context.Context, userID int64, from, to models.Date) ([]models.MonthlyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, userID)
	s.monthlyFrom, s.monthlyTo = from, to
	return s.monthlyTotals, s.err
}

func (s *stubStatsRepo) CountUsers(_ context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersSince[since], s.err
}

func (s *stubStatsRepo) CountActiveUsers(context.Context, time.Time) (int64, error) {
	return s.activeUsers, s.err
}

func (s *stubStatsRepo) DailySignups(context.Context, time.Time) ([]models.DailyCount, error) {
	return s.signups, s.err
}

func (s *stubStatsRepo) ExpenseTotals(_ context.Context, since time.Time) (int64, models.Money, error) {
	if since.IsZero() {
		return s.expenseCount, s.expenseSum, s.err
	}
	return 1, models.Money{}, s.err
}

func (s *stubStatsRepo) PopularCategories(context.Context, int) ([]models.CategoryUsage, error) {
	return s.popular, s.err
}

func (s *stubStatsRepo) TopUsers(context.Context, int) ([]models.UserActivity, error) {
	return s.topUsers, s.err
}
