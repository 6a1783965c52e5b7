package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/blogauth/domain"
	"github.com/you/blogauth/internal/mocks"
)

func setupAuthHandlers(t *testing.T, svc *mocks.MockAuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandlers(svc, logger)
	ph := NewPasswordHandlers(svc, logger)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/verify-signup", h.VerifySignup)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/password/forgot", ph.Forgot)
	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name         string
		payload      map[string]any
		serviceErr   error
		expectedCode int
	}{
		{
			name: "successful registration",
			payload: map[string]any{
				"firstName": "Alice", "lastName": "Tester",
				"email": "alice@example.com", "password": "secret-password", "age": 30,
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "existing email conflicts",
			payload: map[string]any{
				"firstName": "Alice", "lastName": "Tester",
				"email": "alice@example.com", "password": "secret-password", "age": 30,
			},
			serviceErr:   domain.ErrUserAlreadyExists,
			expectedCode: http.StatusConflict,
		},
		{
			name: "rate limited",
			payload: map[string]any{
				"firstName": "Alice", "lastName": "Tester",
				"email": "alice@example.com", "password": "secret-password", "age": 30,
			},
			serviceErr:   &domain.RateLimitedError{RetryAfter: time.Hour},
			expectedCode: http.StatusTooManyRequests,
		},
		{
			name: "delivery failure",
			payload: map[string]any{
				"firstName": "Alice", "lastName": "Tester",
				"email": "alice@example.com", "password": "secret-password", "age": 30,
			},
			serviceErr:   domain.ErrMailConnection,
			expectedCode: http.StatusServiceUnavailable,
		},
		{
			name:         "malformed email rejected by binding",
			payload:      map[string]any{"firstName": "A", "lastName": "B", "email": "nope", "password": "secret-password", "age": 30},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing fields rejected by binding",
			payload:      map[string]any{"email": "alice@example.com"},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.RegisterFunc = func(ctx context.Context, firstName, lastName, email, password string, age int, originIP string) error {
				return tt.serviceErr
			}
			r := setupAuthHandlers(t, svc)

			w := postJSON(r, "/api/auth/register", tt.payload)
			if w.Code != tt.expectedCode {
				t.Errorf("expected %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestVerifySignupHandler(t *testing.T) {
	svc := mocks.NewMockAuthService()
	svc.VerifySignupFunc = func(ctx context.Context, email, code string) (*domain.AuthResult, error) {
		return &domain.AuthResult{
			User:  &domain.User{ID: 7, Email: email, Name: "Alice"},
			Token: "issued-token",
		}, nil
	}
	r := setupAuthHandlers(t, svc)

	w := postJSON(r, "/api/auth/verify-signup", map[string]any{
		"email": "alice@example.com", "otp": "123456",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Token string         `json:"token"`
			User  map[string]any `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body.Data.Token != "issued-token" {
		t.Errorf("expected token in response, got %+v", body.Data)
	}
	if _, leaked := body.Data.User["password"]; leaked {
		t.Error("credentials must never appear in responses")
	}
}

func TestVerifySignupHandler_NonNumericOTPRejected(t *testing.T) {
	svc := mocks.NewMockAuthService()
	svc.VerifySignupFunc = func(ctx context.Context, email, code string) (*domain.AuthResult, error) {
		t.Error("service must not be called for malformed otp")
		return nil, nil
	}
	r := setupAuthHandlers(t, svc)

	w := postJSON(r, "/api/auth/verify-signup", map[string]any{
		"email": "alice@example.com", "otp": "12ab56",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLoginHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		serviceErr   error
		expectedCode int
	}{
		{"unknown account", domain.ErrUserNotFound, http.StatusNotFound},
		{"wrong password", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unverified email", domain.ErrEmailNotVerified, http.StatusForbidden},
		{"locked account", &domain.LockedError{RetryAfter: 30 * time.Minute}, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.LoginFunc = func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
				return nil, tt.serviceErr
			}
			r := setupAuthHandlers(t, svc)

			w := postJSON(r, "/api/auth/login", map[string]any{
				"email": "alice@example.com", "password": "secret-password",
			})
			if w.Code != tt.expectedCode {
				t.Errorf("expected %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginHandler_LockedSetsRetryAfter(t *testing.T) {
	svc := mocks.NewMockAuthService()
	svc.LoginFunc = func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
		return nil, &domain.LockedError{RetryAfter: 30 * time.Minute}
	}
	r := setupAuthHandlers(t, svc)

	w := postJSON(r, "/api/auth/login", map[string]any{
		"email": "alice@example.com", "password": "secret-password",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1800" {
		t.Errorf("expected Retry-After 1800, got %q", got)
	}
}

func TestForgotHandler_InternalErrorsStayGeneric(t *testing.T) {
	svc := mocks.NewMockAuthService()
	svc.ForgotPasswordFunc = func(ctx context.Context, email, originIP string) error {
		return context.DeadlineExceeded
	}
	r := setupAuthHandlers(t, svc)

	w := postJSON(r, "/api/password/forgot", map[string]any{"email": "alice@example.com"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("deadline")) {
		t.Error("internal error details must not leak to clients")
	}
}
