package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meloch/internal/services"
)

// DashboardHandler serves the read-only views of a user's ledger.
type DashboardHandler struct {
	ledgerService services.LedgerServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(ledgerService services.LedgerServicer) *DashboardHandler {
	return &DashboardHandler{ledgerService: ledgerService}
}

// GetDashboard returns the summary and the notification to show
// @Summary     Dashboard
// @Description Balance, budget, monthly income and expenses, category breakdown and the budget notification
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.ledgerService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetExpensesSinceReset returns per-category spending of the current period
// @Summary     Expenses since reset
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Category to amount"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard/expenses-since-reset [get]
func (h *DashboardHandler) GetExpensesSinceReset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.ledgerService.ExpensesSinceReset(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// GetProgress reports budget consumption
// @Summary     Budget progress
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Progress "Progress"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard/progress [get]
func (h *DashboardHandler) GetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.ledgerService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
