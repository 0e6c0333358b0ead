package api_test

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

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/api"
	"github.com/fluxdesk/fluxdesk/engine"
	"github.com/fluxdesk/fluxdesk/mailer"
	"github.com/fluxdesk/fluxdesk/store/memory"
	"github.com/fluxdesk/fluxdesk/triage"
	"github.com/fluxdesk/fluxdesk/user"
)

type testServer struct {
	store  *memory.Store
	engine *engine.Engine
	server *api.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := fluxdesk.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.JanitorInterval = 0

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(cfg, store, triage.Disabled{}, mailer.NewLogMailer(logger), logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Stop(ctx)
	})

	return &testServer{
		store:  store,
		engine: eng,
		server: api.NewServer(cfg, eng, logger),
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) signup(t *testing.T, email string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.Token
}

func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.engine.Bus().Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestSignupLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "alice@example.com")
	ts.drain(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", rec.Code, rec.Body)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}
}

func TestCreateTicketRespondsBeforeTriage(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "bob@example.com")

	rec := ts.do(t, http.MethodPost, "/api/tickets", token, map[string]any{
		"title":       "vpn down",
		"description": "cannot reach the office network",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticket status = %d, body %s", rec.Code, rec.Body)
	}

	// Triage runs in the background; the 201 carries the pre-triage state.
	var created struct {
		ID       string `json:"id"`
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if created.Priority != "" {
		t.Errorf("priority in create response = %q, want empty before triage", created.Priority)
	}

	ts.drain(t)

	rec = ts.do(t, http.MethodGet, "/api/tickets/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get ticket status = %d", rec.Code)
	}
	var fetched struct {
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if fetched.Priority != "MEDIUM" {
		t.Errorf("priority after triage = %q, want MEDIUM default", fetched.Priority)
	}
}

func TestTicketVisibilityByRole(t *testing.T) {
	ts := newTestServer(t)
	creatorToken := ts.signup(t, "creator@example.com")
	otherToken := ts.signup(t, "other@example.com")
	ts.drain(t)

	rec := ts.do(t, http.MethodPost, "/api/tickets", creatorToken, map[string]any{
		"title":       "private issue",
		"description": "only mine",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticket status = %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	ts.drain(t)

	// Another plain user cannot see it, by list or by id.
	rec = ts.do(t, http.MethodGet, "/api/tickets", otherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listing struct {
		Tickets []json.RawMessage `json:"tickets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Tickets) != 0 {
		t.Errorf("other user sees %d tickets, want 0", len(listing.Tickets))
	}

	rec = ts.do(t, http.MethodGet, "/api/tickets/"+created.ID, otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user get status = %d, want 404", rec.Code)
	}

	// A plain user cannot patch tickets at all.
	rec = ts.do(t, http.MethodPatch, "/api/tickets/"+created.ID, creatorToken, map[string]any{
		"status": "DONE",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("user patch status = %d, want 403", rec.Code)
	}
}

func TestAdminEndpointsRequireRole(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "pleb@example.com")
	ts.drain(t)

	rec := ts.do(t, http.MethodGet, "/api/admin/runs", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("admin runs as user status = %d, want 403", rec.Code)
	}

	// Promote to admin and retry.
	u, err := ts.store.GetUserByEmail(context.Background(), "pleb@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	admin := user.RoleAdmin
	if _, err := ts.store.UpdateUser(context.Background(), u.ID, user.Patch{Role: &admin}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	rec = ts.do(t, http.MethodGet, "/api/admin/runs", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin runs as admin status = %d, body %s", rec.Code, rec.Body)
	}
}
