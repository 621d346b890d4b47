package router_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"meloch/internal/app"
	"meloch/internal/config"
	"meloch/internal/events"
	"meloch/internal/logger"
	"meloch/internal/router"
	"meloch/internal/testutil"
	"meloch/internal/validator"
)

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Publisher *events.MemoryPublisher
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:             config.DriverSQLite,
		JWTSecret:            "flow-test-secret",
		DefaultMonthlyBudget: decimal.NewFromInt(21000),
		LowBudgetThreshold:   decimal.NewFromInt(5000),
		Currency:             "LKR",
	}
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := testConfig()
	config.Set(cfg)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	pub := events.NewMemoryPublisher(100)
	a := app.Wire(cfg, db, pub)

	r := router.New(router.Services{
		Users:   a.Users,
		Ledgers: a.Ledgers,
		Cards:   a.Cards,
		Backups: a.Backups,
		Audit:   a.Audit,
	})
	return &testApp{DB: db, Router: r, Publisher: pub}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless rec has the wanted status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	return errObj["code"].(string)
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"username":"tester","first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	mustStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	mustStatus(t, rec, http.StatusOK)
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// record posts a transaction and returns its id.
func (app *testApp) record(t *testing.T, token, kind, category, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"title":"t","amount":%q,"type":%q,"category":%q}`, amount, kind, category)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	mustStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)
}

func (app *testApp) dashboard(t *testing.T, token string) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/dashboard", "", token)
	mustStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)
}

func (app *testApp) eventTypes() []string {
	var out []string
	for _, e := range app.Publisher.Events() {
		out = append(out, e.Type)
	}
	return out
}
