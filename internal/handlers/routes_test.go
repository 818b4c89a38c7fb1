package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/middleware"
)

func TestRoutesRequireAuthentication(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "alice", "password123")

	issuer, err := auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Verifier: issuer,
		Users:    users,
		Sessions: auth.NewManager(issuer, users),
		Videos:   newFakeVideoStore(),
		Likes:    newFakeLikeStore(),
		Files:    &fakeFileStore{},
		Cleanup:  &fakeCleanupQueue{},
	})

	// No token: rejected before the handler runs.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Valid access token cookie: request reaches the handler.
	tokens, err := auth.NewManager(issuer, users).Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: tokens.AccessToken})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}

	// Health stays public.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health endpoint, got %d", rec.Code)
	}
}
