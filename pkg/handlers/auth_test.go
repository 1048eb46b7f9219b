package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"fabula/pkg/middleware"
	"fabula/pkg/models"
	"fabula/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type stubAuthService struct {
	loginErr   error
	refreshErr error
	pair       models.TokenPair

	sessionsUserID    int
	sessionsCurrentID int
}

func (s *stubAuthService) Login(req models.LoginRequest, ua, ip string) (models.TokenPair, error) {
	if s.loginErr != nil {
		return models.TokenPair{}, s.loginErr
	}
	return s.pair, nil
}

func (s *stubAuthService) Refresh(req models.RefreshRequest, ua, ip string) (models.TokenPair, error) {
	if s.refreshErr != nil {
		return models.TokenPair{}, s.refreshErr
	}
	return s.pair, nil
}

func (s *stubAuthService) Logout(refreshToken string) error { return nil }

func (s *stubAuthService) LogoutAll(userID int) error { return nil }

func (s *stubAuthService) Sessions(userID, currentSessionID int) ([]models.SessionView, error) {
	s.sessionsUserID = userID
	s.sessionsCurrentID = currentSessionID
	return []models.SessionView{{IP: "203.0.113.7", UserAgent: "test-agent", IsCurrent: true}}, nil
}

func newTestApp(svc services.AuthService) *fiber.App {
	app := fiber.New()
	h := NewAuth(svc)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", h.Login)
	authGroup.Post("/refresh-tokens", h.Refresh)
	authGroup.Post("/logout", h.Logout)

	protected := authGroup.Group("", middleware.AuthMiddleware)
	protected.Post("/logout-all-sessions", h.LogoutAll)
	protected.Get("/sessions", h.Sessions)

	return app
}

func TestLoginEndpoint(t *testing.T) {
	stub := &stubAuthService{pair: models.TokenPair{AccessToken: "at", RefreshToken: "rt"}}
	app := newTestApp(stub)

	req := httptest.NewRequest("POST", "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"pw","fingerprint":"F1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccessToken != "at" || body.RefreshToken != "rt" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLoginDeniedIsUniform(t *testing.T) {
	for _, svcErr := range []error{services.ErrInvalidCredentials, services.ErrAccessDenied} {
		stub := &stubAuthService{loginErr: svcErr}
		app := newTestApp(stub)

		req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":"x","password":"y"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("status for %v = %d, want 401", svcErr, resp.StatusCode)
		}

		data, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(data), "access denied") {
			t.Fatalf("denial body must be generic, got %s", data)
		}
	}
}

func TestRefreshDenied(t *testing.T) {
	stub := &stubAuthService{refreshErr: services.ErrAccessDenied}
	app := newTestApp(stub)

	req := httptest.NewRequest("POST", "/auth/refresh-tokens",
		strings.NewReader(`{"refreshToken":"stolen","fingerprint":"F9"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSessionsRequiresAuthAndPassesClaims(t *testing.T) {
	stub := &stubAuthService{}
	app := newTestApp(stub)

	// No token.
	req := httptest.NewRequest("GET", "/auth/sessions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// A real access token from the issuer flows through the middleware.
	token := services.NewTokenIssuer().MintAccessToken(models.User{ID: 9, Role: "writer"}, 3)
	req = httptest.NewRequest("GET", "/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("authenticated status = %d, want 200", resp.StatusCode)
	}
	if stub.sessionsUserID != 9 || stub.sessionsCurrentID != 3 {
		t.Fatalf("claims not passed through: user=%d session=%d", stub.sessionsUserID, stub.sessionsCurrentID)
	}

	var views []models.SessionView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || !views[0].IsCurrent {
		t.Fatalf("unexpected views: %+v", views)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	app := newTestApp(&stubAuthService{})

	req := httptest.NewRequest("POST", "/auth/logout", strings.NewReader(`{"refreshToken":"gone"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
