package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/services"
)

// BudgetHandler handles budget period and envelope requests.
type BudgetHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{ledgerService: ledgerService, auditService: auditService}
}

// SetCategoryBudgetRequest represents the request payload for setting an envelope
type SetCategoryBudgetRequest struct {
	Amount ledger.Money `json:"amount" swaggertype:"string" binding:"nonnegative_decimal"`
}

// ResetBudget starts a new budget period
// @Summary     Reset budget period
// @Description Deduct the monthly budget from the balance and start counting expenses from now
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ledger.Summary "Summary after the reset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /budget/reset [post]
func (h *BudgetHandler) ResetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.ledgerService.ResetBudgetPeriod(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RESET_BUDGET", "ledger", "", c.ClientIP(),
		map[string]any{"monthly_budget": summary.MonthlyBudget.String()})

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetCategoryBudgets returns every envelope with its spend
// @Summary     List budget envelopes
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} ledger.EnvelopeProgress "Envelopes in display order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/categories [get]
func (h *BudgetHandler) GetCategoryBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopes, err := h.ledgerService.GetCategoryBudgets(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": envelopes})
}

// SetCategoryBudget sets the amount of one envelope
// @Summary     Set budget envelope
// @Description Set one envelope. The monthly budget becomes the sum of all envelopes.
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category path string                   true "ENTERTAINMENT, FOOD, TRANSPORT or LIFESTYLE"
// @Param       request  body SetCategoryBudgetRequest true "Envelope amount"
// @Success     200 {array} ledger.EnvelopeProgress "Envelopes after the change"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/categories/{category} [put]
func (h *BudgetHandler) SetCategoryBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := ledger.ParseBudgetCategory(c.Param("category"))
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidCategory)
		return
	}

	var req SetCategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	envelopes, err := h.ledgerService.SetCategoryBudget(c.Request.Context(), userID, category, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_CATEGORY_BUDGET", "budget_category", string(category), c.ClientIP(),
		map[string]any{"amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"categories": envelopes})
}
