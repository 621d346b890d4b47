package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/pagination"
	"meloch/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for recording a transaction
type CreateTransactionRequest struct {
	Title         string       `json:"title" binding:"max=200"`
	Amount        ledger.Money `json:"amount" swaggertype:"string" binding:"positive_decimal"`
	Type          string       `json:"type" binding:"required,tx_kind"`
	Category      string       `json:"category" binding:"required,tx_category"`
	PaymentMethod string       `json:"payment_method" binding:"omitempty,payment_method"`
	Date          *string      `json:"date"`
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Amount        ledger.Money         `json:"amount" swaggertype:"string"`
	Type          ledger.Kind          `json:"type"`
	Category      ledger.Category      `json:"category"`
	CategoryName  string               `json:"category_name"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	Date          time.Time            `json:"date"`
}

func toTransactionResponse(t ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Title:         t.Title,
		Amount:        t.Amount,
		Type:          t.Kind,
		Category:      t.Category,
		CategoryName:  t.Category.DisplayName(),
		PaymentMethod: t.PaymentMethod,
		Date:          t.Timestamp,
	}
}

// DeleteTransactionResponse reports whether anything was removed.
type DeleteTransactionResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// CreateTransaction records a new income or expense
// @Summary     Record a transaction
// @Description Record an income or expense. Expenses reduce the remaining budget.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate transaction id"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	// Validators above guarantee these parse.
	kind, _ := ledger.ParseKind(req.Type)
	category, _ := ledger.ParseCategory(req.Category)
	method := ledger.PaymentCash
	if req.PaymentMethod != "" {
		method, _ = ledger.ParsePaymentMethod(req.PaymentMethod)
	}

	tx := ledger.Transaction{
		Title:         req.Title,
		Amount:        req.Amount,
		Kind:          kind,
		Category:      category,
		PaymentMethod: method,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		tx.Timestamp = parsed
	}

	recorded, err := h.ledgerService.RecordTransaction(c.Request.Context(), userID, tx)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_TRANSACTION", "transaction", recorded.ID, c.ClientIP(),
		map[string]any{"type": recorded.Kind, "category": recorded.Category, "amount": recorded.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": toTransactionResponse(*recorded)})
}

// GetUserTransactions lists the user's transactions, newest first
// @Summary     List transactions
// @Description Get a paginated list of transactions with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       type      query string false "INCOME or EXPENSE"
// @Param       category  query string false "Category code or display name"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledgerService.ListTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data := make([]TransactionResponse, 0, len(result.Data))
	for _, t := range result.Data {
		data = append(data, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(data, result.Page, result.PageSize, result.TotalItems))
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		// A plain date covers the whole day.
		if len(v) == len(dateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		kind, err := ledger.ParseKind(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be INCOME or EXPENSE")
		}
		filter.Kind = &kind
	}

	if v := c.Query("category"); v != "" {
		category, err := ledger.ParseCategory(v)
		if err != nil {
			return filter, apperrors.ErrInvalidCategory
		}
		filter.Category = &category
	}

	return filter, nil
}

// GetTransactionByID returns a single transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledgerService.GetTransaction(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": toTransactionResponse(*tx)})
}

// DeleteTransaction removes a transaction and reverses its effect
// @Summary     Delete transaction
// @Description Delete a transaction by ID. Deleting an unknown ID is not an error and reports deleted=false.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} DeleteTransactionResponse "Deletion result"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	deleted, err := h.ledgerService.DeleteTransaction(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !deleted {
		c.JSON(http.StatusOK, DeleteTransactionResponse{Deleted: false, Message: "Transaction not found"})
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, DeleteTransactionResponse{Deleted: true})
}
