package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"expense_tracker/internal/logger"
	"expense_tracker/internal/service"
)

// Options tunes the HTTP surface.
type Options struct {
	// AdminToken gates /analytics when set.
	AdminToken string
	// ResetLinkBase is the page the reset email links to. When empty it is
	// derived from the request host.
	ResetLinkBase string
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestID, h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerExpenseRoutes(router)
	h.registerAnalyticsRoutes(router)

	// Live spending summary over WebSocket; authenticates before upgrading.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.signUp)
		auth.POST("/login", h.login)
		auth.POST("/forgot-password", h.forgotPassword)
		auth.POST("/reset-password", h.resetPassword)
	}
}

func (h *Handler) registerExpenseRoutes(r *gin.Engine) {
	r.GET("/expenses/categories", h.listCategories)

	expenses := r.Group("/expenses", h.userIdMiddleware)
	{
		expenses.GET("", h.listExpenses)
		expenses.POST("", h.createExpense)
		expenses.PUT("/:id", h.updateExpense)
		expenses.DELETE("/:id", h.deleteExpense)

		summary := expenses.Group("/summary")
		summary.GET("/category", h.categorySummary)
		summary.GET("/daily", h.dailySummary)
		summary.GET("/monthly", h.monthlySummary)
	}
}

func (h *Handler) registerAnalyticsRoutes(r *gin.Engine) {
	analytics := r.Group("/analytics", h.adminMiddleware)
	{
		analytics.GET("/users/stats", h.userStats)
		analytics.GET("/users/details", h.userDetails)
		analytics.GET("/expenses/stats", h.expenseStats)
	}
}
