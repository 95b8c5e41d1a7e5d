package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      User statistics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  models.UserStats
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /analytics/users/stats [get]
// @Security     AdminToken
func (h *Handler) userStats(c *gin.Context) {
	st, err := h.services.UserStats(c.Request.Context())
	if err != nil {
		h.respondError(c, "analytics_user_stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Most active users
// @Tags         analytics
// @Produce      json
// @Param        limit  query     int  false  "1-100, default 10"
// @Success      200    {array}   models.UserActivity
// @Failure      400    {object}  errorResponse
// @Router       /analytics/users/details [get]
// @Security     AdminToken
func (h *Handler) userDetails(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "limit must be an integer", "analytics_bad_query", err)
		return
	}

	out, err := h.services.TopUsers(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "analytics_user_details_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Expense statistics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  models.ExpenseStats
// @Failure      500  {object}  errorResponse
// @Router       /analytics/expenses/stats [get]
// @Security     AdminToken
func (h *Handler) expenseStats(c *gin.Context) {
	st, err := h.services.ExpenseStats(c.Request.Context())
	if err != nil {
		h.respondError(c, "analytics_expense_stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
