package router_test

import (
	"net/http"
	"slices"
	"testing"
	"time"

	"meloch/internal/events"
)

func notificationKind(d map[string]interface{}) string {
	return d["notification"].(map[string]interface{})["kind"].(string)
}

func TestLedgerFlow_NotificationsFollowRemainingBudget(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "ledger@test.com", "password123")

	d := app.dashboard(t, token)
	if notificationKind(d) != "NONE" || d["effective_remaining"] != "21000" {
		t.Fatalf("unexpected fresh dashboard %v", d)
	}

	app.record(t, token, "EXPENSE", "ENTERTAINMENT", "17000")
	d = app.dashboard(t, token)
	if notificationKind(d) != "LOW_BUDGET" || d["effective_remaining"] != "4000" {
		t.Errorf("expected LOW_BUDGET at 4000, got %v", d)
	}

	foodID := app.record(t, token, "EXPENSE", "FOOD", "5000")
	d = app.dashboard(t, token)
	if notificationKind(d) != "ZERO_OR_NEGATIVE_BUDGET" {
		t.Errorf("expected ZERO_OR_NEGATIVE_BUDGET, got %v", notificationKind(d))
	}

	rec := app.request("DELETE", "/api/v1/transactions/"+foodID, "", token)
	mustStatus(t, rec, http.StatusOK)
	d = app.dashboard(t, token)
	if d["total_balance"] != "-17000" || notificationKind(d) != "LOW_BUDGET" {
		t.Errorf("delete should restore the previous figures, got %v", d)
	}

	want := []string{events.TypeBudgetLow, events.TypeBudgetExhausted, events.TypeBudgetLow}
	if got := app.eventTypes(); !slices.Equal(got, want) {
		t.Errorf("expected events %v, got %v", want, got)
	}

	// Reading the dashboard again never publishes.
	app.dashboard(t, token)
	if len(app.eventTypes()) != len(want) {
		t.Error("dashboard reads must not publish events")
	}
}

func TestLedgerFlow_ResetPeriod(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reset@test.com", "password123")

	app.record(t, token, "INCOME", "SALARY", "90000")
	app.record(t, token, "EXPENSE", "FOOD", "640")

	rec := app.request("POST", "/api/v1/budget/reset", "", token)
	mustStatus(t, rec, http.StatusOK)
	summary := parseJSON(t, rec)["summary"].(map[string]interface{})
	// 90000 - 640 - (21000 + 90000)
	if summary["total_balance"] != "-21640" {
		t.Errorf("expected balance -21640 after reset, got %v", summary["total_balance"])
	}
	if summary["budget_left"] != "111000" || summary["budget_reset_active"] != true {
		t.Errorf("unexpected summary after reset %v", summary)
	}

	app.record(t, token, "EXPENSE", "FOOD", "200")
	app.record(t, token, "INCOME", "SIDE_BUSINESS", "1000")

	rec = app.request("GET", "/api/v1/dashboard/expenses-since-reset", "", token)
	mustStatus(t, rec, http.StatusOK)
	expenses := parseJSON(t, rec)["expenses"].(map[string]interface{})
	if len(expenses) != 1 || expenses["FOOD"] != "200" {
		t.Errorf("only the post-reset expense should count, got %v", expenses)
	}

	d := app.dashboard(t, token)
	if d["budget_left"] != "111800" {
		t.Errorf("expected budget_left 111800, got %v", d["budget_left"])
	}

	if !slices.Contains(app.eventTypes(), events.TypeBudgetReset) {
		t.Errorf("expected a budget.reset event, got %v", app.eventTypes())
	}
}

func TestLedgerFlow_RejectsTransactionDatedBeforeReset(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "backdate@test.com", "password123")

	rec := app.request("POST", "/api/v1/budget/reset", "", token)
	mustStatus(t, rec, http.StatusOK)
	before := app.dashboard(t, token)

	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	body := `{"amount":"5000","type":"EXPENSE","category":"FOOD","date":"` + yesterday + `"}`
	rec = app.request("POST", "/api/v1/transactions", body, token)
	mustStatus(t, rec, http.StatusBadRequest)
	if code := errorCode(t, rec); code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %s", code)
	}

	after := app.dashboard(t, token)
	if after["budget_left"] != before["budget_left"] || after["total_balance"] != before["total_balance"] {
		t.Errorf("rejected transaction changed the ledger: before %v, after %v", before, after)
	}

	// Without a date the transaction is stamped now and counts everywhere.
	app.record(t, token, "EXPENSE", "FOOD", "5000")
	rec = app.request("GET", "/api/v1/dashboard/expenses-since-reset", "", token)
	mustStatus(t, rec, http.StatusOK)
	expenses := parseJSON(t, rec)["expenses"].(map[string]interface{})
	if expenses["FOOD"] != "5000" {
		t.Errorf("expected FOOD 5000 since reset, got %v", expenses)
	}
}

func TestLedgerFlow_CategoryBudgets(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "envelopes@test.com", "password123")

	rec := app.request("PUT", "/api/v1/budget/categories/transport", `{"amount":"3000"}`, token)
	mustStatus(t, rec, http.StatusOK)

	app.record(t, token, "EXPENSE", "TRANSPORT", "3500")

	rec = app.request("GET", "/api/v1/budget/categories", "", token)
	mustStatus(t, rec, http.StatusOK)
	var transport map[string]interface{}
	for _, c := range parseJSON(t, rec)["categories"].([]interface{}) {
		if m := c.(map[string]interface{}); m["category"] == "TRANSPORT" {
			transport = m
		}
	}
	if transport == nil || transport["overspent"] != true || transport["remaining"] != "-500" {
		t.Errorf("expected overspent transport envelope, got %v", transport)
	}

	d := app.dashboard(t, token)
	// 10000 + 5000 + 3000 + 5000
	if d["monthly_budget"] != "23000" {
		t.Errorf("monthly budget should be the sum of envelopes, got %v", d["monthly_budget"])
	}
}

func TestLedgerFlow_ListAndFilter(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "list@test.com", "password123")

	app.record(t, token, "EXPENSE", "FOOD", "10")
	app.record(t, token, "EXPENSE", "HEALTH", "20")
	app.record(t, token, "INCOME", "SALARY", "30")

	rec := app.request("GET", "/api/v1/transactions?type=expense", "", token)
	mustStatus(t, rec, http.StatusOK)
	if got := parseJSON(t, rec)["total_items"]; got != float64(2) {
		t.Errorf("expected 2 expenses, got %v", got)
	}

	rec = app.request("GET", "/api/v1/transactions?category=Health", "", token)
	mustStatus(t, rec, http.StatusOK)
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 || data[0].(map[string]interface{})["category_name"] != "Health" {
		t.Errorf("expected one health transaction, got %v", data)
	}

	rec = app.request("GET", "/api/v1/transactions?page_size=2&page=2", "", token)
	mustStatus(t, rec, http.StatusOK)
	result := parseJSON(t, rec)
	if len(result["data"].([]interface{})) != 1 || result["total_pages"] != float64(2) {
		t.Errorf("unexpected second page %v", result)
	}
}

func TestLedgerFlow_UsersAreIsolated(t *testing.T) {
	app := setupApp(t)
	alice, _, _ := app.registerUser(t, "alice@test.com", "password123")
	bob, _, _ := app.registerUser(t, "bob@test.com", "password123")

	id := app.record(t, alice, "EXPENSE", "FOOD", "100")

	rec := app.request("GET", "/api/v1/transactions/"+id, "", bob)
	mustStatus(t, rec, http.StatusNotFound)

	rec = app.request("DELETE", "/api/v1/transactions/"+id, "", bob)
	mustStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["deleted"] != false {
		t.Error("bob must not delete alice's transaction")
	}

	if app.dashboard(t, alice)["transaction_count"] != float64(1) {
		t.Error("alice's ledger should be untouched")
	}
}
