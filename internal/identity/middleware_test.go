// ABOUTME: Tests for the bearer-token HTTP middleware
// ABOUTME: Verifies token extraction, rejection paths, and context plumbing

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_ValidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret"))
	token, err := verifier.Generate("user-42", time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var gotUserID string
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotUserID != "user-42" {
		t.Errorf("expected user-42 in context, got %q", gotUserID)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret"))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/chats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if called {
				t.Error("handler should not run for rejected request")
			}
		})
	}
}
