package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finview/internal/app"
	"finview/internal/format"
	"finview/internal/memory"
	"finview/internal/middleware/ratelimit"
	"finview/internal/notify"
	"finview/internal/session"
)

var fixedNow = time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	sess := session.New(nil, "")
	store := memory.New(memory.WithSession(sess), memory.WithNow(func() time.Time { return fixedNow }))
	store.Load(memory.DemoSeed(fixedNow))
	ctrl := app.New(store, sess, notify.NewSlot(0), app.WithClock(format.FixedClock(fixedNow)))
	srv := NewServer(":0", ctrl, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func notification(t *testing.T, rr *httptest.ResponseRecorder) (level, text string, ok bool) {
	t.Helper()
	raw := rr.Header().Get("HX-Trigger")
	if raw == "" {
		return "", "", false
	}
	var triggers map[string]struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &triggers); err != nil {
		t.Fatalf("HX-Trigger %q: %v", raw, err)
	}
	n, ok := triggers["show-notification"]
	return n.Type, n.Message, ok
}

// enter logs in as the demo user and opens its only environment.
func enter(t *testing.T, srv *Server) {
	t.Helper()
	if rr := do(t, srv, http.MethodPost, "/login", "email=demo%40finview.local&password=demo"); rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := do(t, srv, http.MethodGet, "/environments", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("environments status=%d", rr.Code)
	}
	envs := decode[app.EnvironmentsView](t, rr)
	if len(envs.Environments) != 1 {
		t.Fatalf("environments = %+v", envs)
	}
	id := envs.Environments[0].ID.String()
	if rr := do(t, srv, http.MethodPost, "/environments/"+id+"/access", ""); rr.Code != http.StatusOK {
		t.Fatalf("access status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, WithReadiness(func(context.Context) error { return errors.New("api down") }))
	if rr := do(t, down, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/login", `{"email":"demo@finview.local","password":""}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty password status=%d", rr.Code)
	}
	if level, _, ok := notification(t, rr); !ok || level != "error" {
		t.Errorf("expected error notification, got %q %v", level, ok)
	}

	rr = do(t, srv, http.MethodPost, "/login", `{"email":"demo@finview.local","password":"wrong"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("wrong password status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/login", `{"email":"demo@finview.local","password":"demo"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	if view := decode[SessionView](t, rr); !view.Authenticated || view.EnvironmentID != "" {
		t.Errorf("session = %+v", view)
	}
	if _, text, ok := notification(t, rr); !ok || text != "Logged in successfully!" {
		t.Errorf("notification = %q %v", text, ok)
	}

	rr = do(t, srv, http.MethodPost, "/logout", "")
	if view := decode[SessionView](t, rr); view.Authenticated {
		t.Errorf("still authenticated after logout")
	}
}

func TestGoalRoutes(t *testing.T) {
	srv := newTestServer(t)
	enter(t, srv)

	rr := do(t, srv, http.MethodGet, "/goals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("goals status=%d", rr.Code)
	}
	if _, _, ok := notification(t, rr); ok {
		t.Errorf("a load without new message must not notify")
	}
	goals := decode[app.GoalsView](t, rr)
	if len(goals.OneTime) != 2 || len(goals.Recurring) != 3 {
		t.Fatalf("goals = %d one-time, %d recurring", len(goals.OneTime), len(goals.Recurring))
	}

	rr = do(t, srv, http.MethodPost, "/goals", `{"description":"","value":"10","periodType":3}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid goal status=%d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Error != "description is required" || body.Kind != "validationError" {
		t.Errorf("body = %+v", body)
	}

	rr = do(t, srv, http.MethodPost, "/goals", `{"description":"Bike","value":"1.500,00","periodType":0,"singleDate":"2025-12-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	if level, text, ok := notification(t, rr); !ok || level != "success" || text != "Goal created successfully!" {
		t.Errorf("notification = %q %q %v", level, text, ok)
	}
	if goals := decode[app.GoalsView](t, rr); len(goals.OneTime) != 3 {
		t.Errorf("one-time goals = %d, want 3", len(goals.OneTime))
	}

	if rr := do(t, srv, http.MethodDelete, "/goals/%20", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad id status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/goals/99999", ""); rr.Code != http.StatusBadGateway {
		t.Errorf("unknown goal status=%d", rr.Code)
	}
}

func TestTransactionRoutes(t *testing.T) {
	srv := newTestServer(t)
	enter(t, srv)

	rr := do(t, srv, http.MethodGet, "/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("transactions status=%d", rr.Code)
	}
	view := decode[app.TransactionsView](t, rr)
	if len(view.Planned) != 3 || len(view.Unplanned) != 2 {
		t.Fatalf("transactions = %d planned, %d unplanned", len(view.Planned), len(view.Unplanned))
	}

	rr = do(t, srv, http.MethodPost, "/transactions/other", "type=1&amount=10")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind status=%d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); !body.Fields["kind"] {
		t.Errorf("fields = %v", body.Fields)
	}

	rr = do(t, srv, http.MethodPost, "/transactions/unplanned",
		"type=2&recurrenceType=3&description=Dinner&amount=80&transactionDate=2025-10-10")
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	view = decode[app.TransactionsView](t, rr)
	if len(view.Unplanned) != 3 || len(view.Planned) != 3 {
		t.Errorf("unplanned create landed in the wrong partition: %d planned, %d unplanned", len(view.Planned), len(view.Unplanned))
	}
}

func TestEnvironmentValidationFields(t *testing.T) {
	srv := newTestServer(t)
	enter(t, srv)

	rr := do(t, srv, http.MethodPost, "/environments", `{"name":" ","description":"","type":1}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
	body := decode[ErrorBody](t, rr)
	if !body.Fields["name"] || !body.Fields["description"] {
		t.Errorf("fields = %v", body.Fields)
	}
	if body.Error != "environment name is required" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestDashboardRoutes(t *testing.T) {
	srv := newTestServer(t)
	enter(t, srv)

	rr := do(t, srv, http.MethodGet, "/dashboard?periodValue=2&isYear=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	view := decode[app.DashboardView](t, rr)
	if view.Summary == nil {
		t.Fatal("summary missing")
	}
	if view.ProjectionFilter.PeriodValue != 2 || !view.ProjectionFilter.IsYear {
		t.Errorf("projection filter = %+v", view.ProjectionFilter)
	}

	if rr := do(t, srv, http.MethodGet, "/dashboard?periodValue=x", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad filter status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/dashboard/balance", `{"value":"4321.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("balance status=%d", rr.Code)
	}
	if view := decode[app.DashboardView](t, rr); view.Summary == nil || !strings.Contains(view.Summary.CurrentBalanceText, "4.321,00") {
		t.Errorf("summary = %+v", view.Summary)
	}

	if rr := do(t, srv, http.MethodPost, "/dashboard/top-goals/next", ""); rr.Code != http.StatusOK {
		t.Errorf("next status=%d", rr.Code)
	}
}

func TestMessageRoutes(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/login", `{"email":"demo@finview.local","password":"demo"}`)

	view := decode[MessageView](t, do(t, srv, http.MethodGet, "/message", ""))
	if view.Message == nil || view.Message.Text != "Logged in successfully!" {
		t.Fatalf("message = %+v", view.Message)
	}

	if rr := do(t, srv, http.MethodDelete, "/message", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("dismiss status=%d", rr.Code)
	}
	if view := decode[MessageView](t, do(t, srv, http.MethodGet, "/message", "")); view.Message != nil {
		t.Errorf("message after dismiss = %+v", view.Message)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	if rr := do(t, srv, http.MethodPost, "/login", `{"email":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRateLimitAndHeaders(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(ratelimit.Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}}))

	first := do(t, srv, http.MethodPost, "/logout", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first status=%d", first.Code)
	}
	if first.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}
	if first.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id missing")
	}

	if rr := do(t, srv, http.MethodPost, "/logout", ""); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", rr.Code)
	}
}
