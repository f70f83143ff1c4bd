package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/providers/paystack"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	app      *App
	router   chi.Router
	users    *repo.MemoryUsers
	sessions *repo.MemorySessions
	payments *repo.MemoryPayments
	clock    *fakeClock
}

func newFixture(t *testing.T, paystackClient *paystack.Client) *fixture {
	t.Helper()
	users := repo.NewMemoryUsers()
	sessions := repo.NewMemorySessions()
	repo.BindMemory(users, sessions)
	payments := repo.NewMemoryPayments()
	clock := newFakeClock()

	l, err := ledger.New(ledger.Options{
		Users:    users,
		Sessions: sessions,
		Clock:    clock.Now,
	})
	if err != nil {
		t.Fatalf("ledger.New() error: %v", err)
	}
	if paystackClient == nil {
		paystackClient = paystack.NewClient(paystack.Options{})
	}

	app := &App{
		Ledger:          l,
		Users:           users,
		Payments:        payments,
		Paystack:        paystackClient,
		Logger:          zerolog.New(io.Discard),
		LeaderboardSize: 10,
		Clock:           clock.Now,
	}

	r := chi.NewRouter()
	r.Get("/v1/me", app.Me)
	r.Get("/v1/leaderboard", app.Leaderboard)
	r.Post("/v1/sessions", app.SessionStart)
	r.Post("/v1/sessions/{id}/pause", app.SessionPause)
	r.Post("/v1/sessions/{id}/resume", app.SessionResume)
	r.Post("/v1/sessions/{id}/end", app.SessionEnd)
	r.Post("/v1/payments", app.PaymentsCreate)
	r.Post("/v1/payments/verify", app.PaymentsVerify)

	return &fixture{app: app, router: r, users: users, sessions: sessions, payments: payments, clock: clock}
}

func (f *fixture) do(t *testing.T, id middleware.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), id))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, want, rr.Body.String())
	}
}

func wantErrorCode(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["error"] != want {
		t.Fatalf("error code = %q, want %q", body["error"], want)
	}
}

var readerIdentity = middleware.Identity{
	UserID:        "reader-1",
	Email:         "jane.doe@example.com",
	DisplayName:   "Jane",
	EmailVerified: true,
}
