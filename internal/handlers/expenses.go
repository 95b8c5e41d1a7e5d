package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/models"
	"expense_tracker/internal/service"
)

// ExpenseRequest is the create/update payload. Amount accepts a number or a
// numeric string.
type ExpenseRequest struct {
	Amount      models.Money `json:"amount" swaggertype:"number" example:"42.50"`
	Category    string       `json:"category" binding:"required" example:"Food"`
	Description string       `json:"description" example:"Lunch"`
	Date        models.Date  `json:"date" swaggertype:"string" example:"2024-01-05"`
}

func (r ExpenseRequest) input() service.ExpenseInput {
	return service.ExpenseInput{
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
	}
}

// dateRangeQuery reads optional startDate/endDate query parameters.
func dateRangeQuery(c *gin.Context) (service.DateRange, error) {
	var (
		r   service.DateRange
		err error
	)
	if s := c.Query("startDate"); s != "" {
		if r.Start, err = models.ParseDate(s); err != nil {
			return service.DateRange{}, err
		}
	}
	if s := c.Query("endDate"); s != "" {
		if r.End, err = models.ParseDate(s); err != nil {
			return service.DateRange{}, err
		}
	}
	return r, nil
}

// intQuery reads an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func expenseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return 0, false
	}
	return id, true
}

// mustUserID returns the authenticated user or aborts with 401.
func mustUserID(c *gin.Context) (int64, bool) {
	id, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Access token required"})
	}
	return id, ok
}

// @Summary      List expenses
// @Description  Newest date first; optional inclusive date window.
// @Tags         expenses
// @Produce      json
// @Param        startDate  query     string  false  "YYYY-MM-DD"
// @Param        endDate    query     string  false  "YYYY-MM-DD"
// @Success      200        {array}   models.Expense
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /expenses [get]
// @Security     BearerAuth
func (h *Handler) listExpenses(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	r, err := dateRangeQuery(c)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "expenses_bad_query", err)
		return
	}

	out, err := h.services.ListExpenses(c.Request.Context(), userID, r)
	if err != nil {
		h.respondError(c, "expenses_list_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Add expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        body  body      ExpenseRequest  true  "Expense"
// @Success      201   {object}  models.Expense
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /expenses [post]
// @Security     BearerAuth
func (h *Handler) createExpense(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ExpenseRequest
	if ok := h.bindJSONOrBadRequest(c, &req, "expenses_bad_request_body"); !ok {
		return
	}

	e, err := h.services.AddExpense(c.Request.Context(), userID, req.input())
	if err != nil {
		h.respondError(c, "expenses_create_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// @Summary      Update expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id    path      int             true  "Expense ID"
// @Param        body  body      ExpenseRequest  true  "Expense"
// @Success      200   {object}  models.Expense
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /expenses/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateExpense(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := expenseID(c)
	if !ok {
		return
	}
	var req ExpenseRequest
	if ok := h.bindJSONOrBadRequest(c, &req, "expenses_bad_request_body"); !ok {
		return
	}

	e, err := h.services.UpdateExpense(c.Request.Context(), userID, id, req.input())
	if err != nil {
		h.respondError(c, "expenses_update_failed", err, "user_id", userID, "expense_id", id)
		return
	}
	c.JSON(http.StatusOK, e)
}

// @Summary      Delete expense
// @Tags         expenses
// @Produce      json
// @Param        id   path      int  true  "Expense ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /expenses/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteExpense(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := expenseID(c)
	if !ok {
		return
	}

	if err := h.services.DeleteExpense(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, "expenses_delete_failed", err, "user_id", userID, "expense_id", id)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}

// @Summary      List categories
// @Tags         expenses
// @Produce      json
// @Success      200  {array}   models.Category
// @Failure      500  {object}  errorResponse
// @Router       /expenses/categories [get]
func (h *Handler) listCategories(c *gin.Context) {
	out, err := h.services.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, "categories_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Spending by category
// @Tags         summary
// @Produce      json
// @Param        startDate  query     string  false  "YYYY-MM-DD"
// @Param        endDate    query     string  false  "YYYY-MM-DD"
// @Success      200        {array}   models.CategoryTotal
// @Failure      400        {object}  errorResponse
// @Router       /expenses/summary/category [get]
// @Security     BearerAuth
func (h *Handler) categorySummary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	r, err := dateRangeQuery(c)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "summary_bad_query", err)
		return
	}

	out, err := h.services.CategoryTotals(c.Request.Context(), userID, r)
	if err != nil {
		h.respondError(c, "summary_category_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Daily spending series
// @Description  Exactly `days` entries ending today, oldest first, zero-filled.
// @Tags         summary
// @Produce      json
// @Param        days  query     int  false  "1-366, default 7"
// @Success      200   {array}   models.DailyTotal
// @Failure      400   {object}  errorResponse
// @Router       /expenses/summary/daily [get]
// @Security     BearerAuth
func (h *Handler) dailySummary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	days, err := intQuery(c, "days")
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "days must be an integer", "summary_bad_query", err)
		return
	}

	out, err := h.services.DailySeries(c.Request.Context(), userID, days)
	if err != nil {
		h.respondError(c, "summary_daily_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Monthly spending
// @Description  Trailing months, newest first, zero-filled.
// @Tags         summary
// @Produce      json
// @Param        months  query     int  false  "1-120, default 12"
// @Success      200     {array}   models.MonthlyTotal
// @Failure      400     {object}  errorResponse
// @Router       /expenses/summary/monthly [get]
// @Security     BearerAuth
func (h *Handler) monthlySummary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	months, err := intQuery(c, "months")
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "months must be an integer", "summary_bad_query", err)
		return
	}

	out, err := h.services.MonthlyTotals(c.Request.Context(), userID, months)
	if err != nil {
		h.respondError(c, "summary_monthly_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, out)
}
