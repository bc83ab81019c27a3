package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("alice@example.com")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("session id is empty")
	}

	got := sm.GetSession(session.ID)
	if got == nil || got.Email != "alice@example.com" {
		t.Fatalf("GetSession() = %+v, want alice's session", got)
	}

	sm.DeleteSession(session.ID)
	if sm.GetSession(session.ID) != nil {
		t.Error("GetSession() after delete != nil")
	}
}

func TestSessionCookieRoundtrip(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("alice@example.com")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	rec := httptest.NewRecorder()
	sm.SetSessionCookie(rec, session)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("set %d cookies, want 1", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got := sm.GetSessionFromRequest(req)
	if got == nil || got.ID != session.ID {
		t.Fatalf("GetSessionFromRequest() = %+v, want the issued session", got)
	}
}

func TestSessionCookieForgedSignature(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("alice@example.com")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// Valid id, signature from a different secret.
	other := NewSessionManager("other-secret", nil)
	defer other.Stop()
	forged := session.ID + "." + other.signData(session.ID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: forged})
	if sm.GetSessionFromRequest(req) != nil {
		t.Fatal("a forged cookie signature was accepted")
	}
}

func TestSessionBearerFallback(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("alice@example.com")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	got := sm.GetSessionFromRequest(req)
	if got == nil || got.Email != "alice@example.com" {
		t.Fatalf("GetSessionFromRequest() = %+v, want bearer session", got)
	}
}

func TestRequireAuthStoresSessionInContext(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("alice@example.com")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	var fromCtx *Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = SessionFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	rec := httptest.NewRecorder()
	RequireAuth(sm)(next).ServeHTTP(rec, req)

	if fromCtx == nil || fromCtx.Email != "alice@example.com" {
		t.Fatalf("SessionFromContext() = %+v, want alice's session", fromCtx)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequireAuth(sm)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("handler ran without a session")
	}
}
