package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	sessionauth "dialogue/internal/auth"
	"dialogue/internal/directory"
	"dialogue/internal/domain/identity"
)

type fakeSessionStore struct {
	sessions map[string]identity.Snapshot
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]identity.Snapshot)}
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, id string, snapshot identity.Snapshot, expiresAt time.Time) error {
	f.sessions[id] = snapshot
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, id string) (identity.Snapshot, error) {
	snapshot, ok := f.sessions[id]
	if !ok {
		return identity.Snapshot{}, identity.ErrSessionNotFound
	}
	return snapshot, nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func mintIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider-secret"))
	if err != nil {
		t.Fatalf("mint id token: %v", err)
	}
	return token
}

// newProvider fakes the token endpoint and the directory in one server.
func newProvider(t *testing.T, idToken string, withManager bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "graph-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})
	mux.HandleFunc("/me/manager", func(w http.ResponseWriter, r *http.Request) {
		if !withManager {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bob","displayName":"Bob Boss","mail":"bob@example.com"}`))
	})
	mux.HandleFunc("/users/bob/manager", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/me/directReports", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	})
	return httptest.NewServer(mux)
}

func newTestHandlers(provider *httptest.Server, store *fakeSessionStore) *Handlers {
	oauthCfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/api/v1/auth/redirect",
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.URL + "/authorize",
			TokenURL: provider.URL + "/token",
		},
		Scopes: []string{"openid", "profile", "email"},
	}
	dir := directory.New(provider.URL, time.Second)
	return New(oauthCfg, store, dir, nil, "test-secret", time.Hour, false)
}

func TestHandleLoginRedirectsWithState(t *testing.T) {
	provider := newProvider(t, "", true)
	defer provider.Close()
	handlers := newTestHandlers(provider, newFakeSessionStore())

	rec := httptest.NewRecorder()
	handlers.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status: %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "state=") {
		t.Fatalf("redirect without state: %q", location)
	}

	var state string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == stateCookie {
			state = cookie.Value
		}
	}
	if state == "" || !strings.Contains(location, "state="+state) {
		t.Fatalf("state cookie %q not reflected in %q", state, location)
	}
}

func TestHandleRedirectCreatesSession(t *testing.T) {
	idToken := mintIDToken(t, jwt.MapClaims{
		"name":               "Alice Example",
		"preferred_username": "alice@example.com",
		"oid":                "oid-alice",
	})
	provider := newProvider(t, idToken, true)
	defer provider.Close()

	store := newFakeSessionStore()
	handlers := newTestHandlers(provider, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/redirect?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	handlers.HandleRedirect(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionauth.CookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("session cookie not set")
	}

	sessionID, err := sessionauth.ParseSessionToken("test-secret", sessionCookie.Value)
	if err != nil {
		t.Fatalf("parse session cookie: %v", err)
	}
	snapshot, ok := store.sessions[sessionID]
	if !ok {
		t.Fatal("session row not created")
	}
	if snapshot.Name != "Alice Example" || snapshot.Email != "alice@example.com" {
		t.Fatalf("snapshot identity: %+v", snapshot)
	}
	if snapshot.ManagerName != "Bob Boss" || snapshot.ProgramManagerName != "Bob Boss" {
		t.Fatalf("snapshot chain: %+v", snapshot)
	}
}

func TestHandleRedirectRejectsStateMismatch(t *testing.T) {
	provider := newProvider(t, "", true)
	defer provider.Close()
	handlers := newTestHandlers(provider, newFakeSessionStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/redirect?code=auth-code&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	handlers.HandleRedirect(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestHandleRedirectRejectsUserWithoutManager(t *testing.T) {
	idToken := mintIDToken(t, jwt.MapClaims{
		"name":               "Solo Contractor",
		"preferred_username": "solo@example.com",
		"oid":                "oid-solo",
	})
	provider := newProvider(t, idToken, false)
	defer provider.Close()

	store := newFakeSessionStore()
	handlers := newTestHandlers(provider, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/redirect?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	handlers.HandleRedirect(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "signin_incomplete") {
		t.Fatalf("body: %s", rec.Body.String())
	}
	if len(store.sessions) != 0 {
		t.Fatal("no session must be created for an incomplete profile")
	}
}

func TestHandleLogoutDeletesSession(t *testing.T) {
	provider := newProvider(t, "", true)
	defer provider.Close()

	store := newFakeSessionStore()
	store.sessions["sess-1"] = identity.Snapshot{Name: "Alice Example"}
	handlers := newTestHandlers(provider, store)

	token, err := sessionauth.NewSessionToken("test-secret", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionauth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handlers.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if _, ok := store.sessions["sess-1"]; ok {
		t.Fatal("session row must be deleted")
	}
}
