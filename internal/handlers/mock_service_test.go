package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/models"
	"expense_tracker/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpUser  models.User
	signUpErr   error
	genToken    string
	genUser     models.User
	genTokenErr error
	parseClaims service.Claims
	parseErr    error

	lastSignUpName  string
	lastSignUpEmail string
	lastGenEmail    string
	lastParseToken  string
}

func (m *mockAuth) SignUp(_ context.Context, name, email, password string) (models.User, error) {
	m.lastSignUpName = name
	m.lastSignUpEmail = email
	return m.signUpUser, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, email, password string) (string, models.User, error) {
	m.lastGenEmail = email
	return m.genToken, m.genUser, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (service.Claims, error) {
	m.lastParseToken = token
	return m.parseClaims, m.parseErr
}

// tokenAuth accepts exactly one token and maps it to userID.
type tokenAuth struct {
	mockAuth
	token  string
	userID int64
}

func (m *tokenAuth) ParseToken(token string) (service.Claims, error) {
	if token != m.token {
		return service.Claims{}, service.ErrInvalidToken
	}
	return service.Claims{UserID: m.userID, Email: "alice@x.com"}, nil
}

type mockReset struct {
	requestErr error
	confirmErr error

	lastEmail    string
	lastLinkBase string
	lastToken    string
	lastPassword string
}

func (m *mockReset) RequestReset(_ context.Context, email, linkBase string) error {
	m.lastEmail = email
	m.lastLinkBase = linkBase
	return m.requestErr
}

func (m *mockReset) ConfirmReset(_ context.Context, token, newPassword string) error {
	m.lastToken = token
	m.lastPassword = newPassword
	return m.confirmErr
}

type mockExpenses struct {
	addResp  models.Expense
	addErr   error
	listResp []models.Expense
	listErr  error
	updResp  models.Expense
	updErr   error
	delErr   error

	lastUserID int64
	lastID     int64
	lastInput  service.ExpenseInput
	lastRange  service.DateRange
}

func (m *mockExpenses) AddExpense(_ context.Context, userID int64, in service.ExpenseInput) (models.Expense, error) {
	m.lastUserID, m.lastInput = userID, in
	return m.addResp, m.addErr
}

func (m *mockExpenses) ListExpenses(_ context.Context, userID int64, r service.DateRange) ([]models.Expense, error) {
	m.lastUserID, m.lastRange = userID, r
	return m.listResp, m.listErr
}

func (m *mockExpenses) UpdateExpense(_ context.Context, userID, id int64, in service.ExpenseInput) (models.Expense, error) {
	m.lastUserID, m.lastID, m.lastInput = userID, id, in
	return m.updResp, m.updErr
}

func (m *mockExpenses) DeleteExpense(_ context.Context, userID, id int64) error {
	m.lastUserID, m.lastID = userID, id
	return m.delErr
}

type mockCategories struct {
	resp []models.Category
	err  error
}

func (m *mockCategories) ListCategories(context.Context) ([]models.Category, error) {
	return m.resp, m.err
}

type mockAnalytics struct {
	mu sync.Mutex

	categories []models.CategoryTotal
	daily      []models.DailyTotal
	monthly    []models.MonthlyTotal
	userStats  models.UserStats
	expStats   models.ExpenseStats
	topUsers   []models.UserActivity
	err        error

	lastUserID int64
	lastDays   int
	lastMonths int
	lastLimit  int
	lastRange  service.DateRange
}

func (m *mockAnalytics) CategoryTotals(_ context.Context, userID int64, r service.DateRange) ([]models.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID, m.lastRange = userID, r
	return m.categories, m.err
}

func (m *mockAnalytics) DailySeries(_ context.Context, userID int64, days int) ([]models.DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID, m.lastDays = userID, days
	return m.daily, m.err
}

func (m *mockAnalytics) MonthlyTotals(_ context.Context, userID int64, months int) ([]models.MonthlyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID, m.lastMonths = userID, months
	return m.monthly, m.err
}

func (m *mockAnalytics) UserStats(context.Context) (models.UserStats, error) {
	return m.userStats, m.err
}

func (m *mockAnalytics) ExpenseStats(context.Context) (models.ExpenseStats, error) {
	return m.expStats, m.err
}

func (m *mockAnalytics) TopUsers(_ context.Context, limit int) ([]models.UserActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return m.topUsers, m.err
}

type mockHealth struct{ err error }

func (m *mockHealth) CheckDatabase(context.Context) error { return m.err }

// ---- Shared Test Helpers ----

const testToken = "tok123"

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, Options{})
}

func newTestRouterWith(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

// withAuth returns a service whose Authorization accepts testToken as user 7.
func withAuth(s *service.Service) *service.Service {
	s.Authorization = &tokenAuth{token: testToken, userID: 7}
	return s
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
