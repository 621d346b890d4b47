package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meloch/internal/config"
	apperrors "meloch/internal/errors"
	"meloch/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{JWTSecret: "test-secret"})
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("userID")})
	})
	return r
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{Base: models.Base{ID: 7}, Email: "a@example.com"}

	t.Run("accepts access token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		rec := get(protectedRouter(), "/me", "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects refresh token", func(t *testing.T) {
		token, _ := GenerateRefreshToken(user)
		rec := get(protectedRouter(), "/me", "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		rec := get(protectedRouter(), "/me", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		rec := get(protectedRouter(), "/me", "Token abc")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		token, _ := GenerateAccessToken(user)
		config.Set(&config.Config{JWTSecret: "rotated"})
		defer config.Set(&config.Config{JWTSecret: "test-secret"})

		rec := get(protectedRouter(), "/me", "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestValidateRefreshToken(t *testing.T) {
	user := &models.User{Base: models.Base{ID: 3}, Email: "b@example.com"}

	refresh, _ := GenerateRefreshToken(user)
	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("expected valid refresh token: %v", err)
	}
	if claims.UserID != 3 || claims.Issuer != "meloch-api" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	access, _ := GenerateAccessToken(user)
	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("access token must not validate as refresh token")
	}
}

func TestHashToken(t *testing.T) {
	if len(HashToken("abc")) != 64 {
		t.Error("expected SHA-256 hex digest")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different tokens must hash differently")
	}
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates id", func(t *testing.T) {
		rec := get(r, "/ping", "")
		id := rec.Header().Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected uuid request id, got %q", id)
		}
		if rec.Body.String() != id {
			t.Errorf("context id %q differs from header %q", rec.Body.String(), id)
		}
	})

	t.Run("reuses valid incoming id", func(t *testing.T) {
		incoming := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", incoming)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Header().Get("X-Request-ID") != incoming {
			t.Errorf("expected %s, got %s", incoming, rec.Header().Get("X-Request-ID"))
		}
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperrors.ErrCardNotFound) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("secret detail")) })

	rec := get(r, "/app", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = get(r, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); strings.Contains(got, "secret detail") {
		t.Errorf("internal error leaked: %s", got)
	}
}
