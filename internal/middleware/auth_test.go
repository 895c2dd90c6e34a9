package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/handlers"
	"github.com/whatsup-app/whatsup/internal/models"
)

type fakeSessionValidator struct {
	user *models.User
	err  error
}

func (f *fakeSessionValidator) HashPassword(password string) (string, error) { return "", nil }
func (f *fakeSessionValidator) VerifyPassword(hash, password string) bool    { return false }
func (f *fakeSessionValidator) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeSessionValidator) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeSessionValidator) DeleteSession(ctx context.Context, token string) error { return nil }
func (f *fakeSessionValidator) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeSessionValidator) CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeSessionValidator) ConsumePasswordResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func contextUserCapture(captured **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = handlers.GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Authenticate_ValidSession(t *testing.T) {
	user := &models.User{ID: uuid.New(), IsOnboarded: true}
	m := NewAuthMiddleware(&fakeSessionValidator{user: user})

	var captured *models.User
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "token123"})

	rr := httptest.NewRecorder()
	m.Authenticate(contextUserCapture(&captured)).ServeHTTP(rr, req)

	if captured == nil || captured.ID != user.ID {
		t.Errorf("expected user in context, got %v", captured)
	}
}

func TestAuthMiddleware_Authenticate_NoCookie(t *testing.T) {
	m := NewAuthMiddleware(&fakeSessionValidator{})

	var captured *models.User
	req := httptest.NewRequest("GET", "/api/auth/me", nil)

	rr := httptest.NewRecorder()
	m.Authenticate(contextUserCapture(&captured)).ServeHTTP(rr, req)

	// Continues anonymously, never rejects.
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if captured != nil {
		t.Errorf("expected no user in context, got %v", captured)
	}
}

func TestAuthMiddleware_Authenticate_InvalidSession(t *testing.T) {
	m := NewAuthMiddleware(&fakeSessionValidator{err: errors.New("session not found")})

	var captured *models.User
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})

	rr := httptest.NewRecorder()
	m.Authenticate(contextUserCapture(&captured)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if captured != nil {
		t.Errorf("expected no user in context, got %v", captured)
	}
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	m := NewAuthMiddleware(&fakeSessionValidator{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Without a user.
	rr := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rr, httptest.NewRequest("GET", "/api/users", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}

	// With a user.
	user := &models.User{ID: uuid.New()}
	req := httptest.NewRequest("GET", "/api/users", nil)
	req = req.WithContext(handlers.SetUserInContext(req.Context(), user))

	rr = httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestAuthMiddleware_RequireOnboarded(t *testing.T) {
	m := NewAuthMiddleware(&fakeSessionValidator{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		user     *models.User
		wantCode int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"not onboarded", &models.User{ID: uuid.New()}, http.StatusForbidden},
		{"onboarded", &models.User{ID: uuid.New(), IsOnboarded: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/users/x/friend-request", nil)
			if tt.user != nil {
				req = req.WithContext(handlers.SetUserInContext(req.Context(), tt.user))
			}

			rr := httptest.NewRecorder()
			m.RequireOnboarded(next).ServeHTTP(rr, req)
			if rr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}
