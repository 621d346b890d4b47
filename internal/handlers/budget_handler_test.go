package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/budget/reset", handler.ResetBudget)
	auth.GET("/budget/categories", handler.GetCategoryBudgets)
	auth.PUT("/budget/categories/:category", handler.SetCategoryBudget)
	return r
}

func TestBudgetHandler_ResetBudget(t *testing.T) {
	t.Run("returns summary after reset", func(t *testing.T) {
		ledgerSvc := &mockLedgerService{
			resetBudgetPeriodFn: func(_ uint) (*ledger.Summary, error) {
				return &ledger.Summary{
					TotalBalance:      decimal.NewFromInt(-21000),
					MonthlyBudget:     decimal.NewFromInt(21000),
					BudgetLeft:        decimal.NewFromInt(21000),
					BudgetResetActive: true,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(ledgerSvc, audit))

		rec := doRequest(r, "POST", "/budget/reset", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		summary := parseJSON(t, rec)["summary"].(map[string]interface{})
		if summary["budget_reset_active"] != true {
			t.Error("expected budget_reset_active=true")
		}
		if summary["total_balance"] != "-21000" {
			t.Errorf("expected total_balance -21000, got %v", summary["total_balance"])
		}
		if len(audit.actions) != 1 || audit.actions[0] != "RESET_BUDGET" {
			t.Errorf("expected RESET_BUDGET audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns 503 when store fails", func(t *testing.T) {
		ledgerSvc := &mockLedgerService{
			resetBudgetPeriodFn: func(_ uint) (*ledger.Summary, error) { return nil, apperrors.ErrLedgerStore },
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(ledgerSvc, audit))

		rec := doRequest(r, "POST", "/budget/reset", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if len(audit.actions) != 0 {
			t.Error("failed reset must not be audited")
		}
	})
}

func TestBudgetHandler_GetCategoryBudgets(t *testing.T) {
	r := setupBudgetRouter(NewBudgetHandler(&mockLedgerService{}, &mockAuditService{}))

	rec := doRequest(r, "GET", "/budget/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	categories := parseJSON(t, rec)["categories"].([]interface{})
	if len(categories) != 4 {
		t.Fatalf("expected 4 envelopes, got %d", len(categories))
	}
	first := categories[0].(map[string]interface{})
	if first["category"] != "ENTERTAINMENT" {
		t.Errorf("expected ENTERTAINMENT first, got %v", first["category"])
	}
}

func TestBudgetHandler_SetCategoryBudget(t *testing.T) {
	t.Run("parses category and amount", func(t *testing.T) {
		var gotCategory ledger.BudgetCategory
		var gotAmount ledger.Money
		ledgerSvc := &mockLedgerService{
			setCategoryBudgetFn: func(_ uint, category ledger.BudgetCategory, amount ledger.Money) ([]ledger.EnvelopeProgress, error) {
				gotCategory, gotAmount = category, amount
				return ledger.BudgetCategoryProgress(ledger.NewState()), nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(ledgerSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget/categories/lifestyle", `{"amount":"7500"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCategory != ledger.BudgetLifestyle || !gotAmount.Equal(decimal.NewFromInt(7500)) {
			t.Errorf("unexpected call: %s %s", gotCategory, gotAmount)
		}
	})

	t.Run("zero is allowed", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget/categories/FOOD", `{"amount":0}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on unknown envelope", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget/categories/health", `{"amount":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CATEGORY")
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget/categories/food", `{"amount":-1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
