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

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T, opts ...Option) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	expenses := services.NewExpenseService(store)
	srv := NewServer(":0", Services{
		Installments: services.NewInstallmentService(store,
			services.WithTotalsCache(cache.NewLRUCache[decimal.Decimal](16, time.Minute))),
		Expenses:  expenses,
		Recurring: services.NewRecurringService(store),
		Overview:  services.NewOverviewService(store),
		Health:    store,
	}, append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}

	failing := NewServer(":0", Services{Health: failingPinger{}})
	t.Cleanup(func() { _ = failing.Shutdown(context.Background()) })
	rec := do(t, failing, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInstallmentLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/installments",
		`{"id":"phone","description":"Phone","total_amount":"1200","installment_count":12,"start_month":"2024-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/installments/phone", rec.Header().Get("Location"))

	created := decode[installmentResponse](t, rec)
	assert.Equal(t, "2024-06", created.Month)
	assert.Equal(t, 6, created.MonthsElapsed)
	assert.Equal(t, "100.00", created.MonthlyInstallment)
	assert.Equal(t, "600.00", created.RemainingAmount)
	assert.Equal(t, "2024-12", created.EndMonth)
	require.NotNil(t, created.TotalAmount)
	assert.Equal(t, "1200.00", *created.TotalAmount)

	tests := []struct {
		target    string
		elapsed   int
		remaining string
		percent   float64
	}{
		{"/api/installments/phone?at=2024-01", 1, "1100.00", 100.0 / 12},
		{"/api/installments/phone?at=2024-12", 12, "0.00", 100},
		{"/api/installments/phone?at=2025-06", 12, "0.00", 100},
		{"/api/installments/phone?at=2023-11", 0, "1200.00", 0},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodGet, tt.target, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.target)
		got := decode[installmentResponse](t, rec)
		assert.Equal(t, tt.elapsed, got.MonthsElapsed, tt.target)
		assert.Equal(t, tt.remaining, got.RemainingAmount, tt.target)
		assert.InDelta(t, tt.percent, got.PercentComplete, 1e-9, tt.target)
	}

	rec = do(t, srv, http.MethodGet, "/api/installments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]installmentResponse](t, rec), 1)

	rec = do(t, srv, http.MethodDelete, "/api/installments/phone", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/installments/phone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorResponse](t, rec).Error)
}

func TestInstallmentTotal(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{
		`{"description":"A","total_amount":1200,"installment_count":12,"start_month":"2024-01"}`,
		`{"description":"B","total_amount":"300,00","installment_count":6,"start_month":"2024-04"}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/installments", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodGet, "/api/installments/total?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"month": "2024-06", "total": "150.00"}, decode[map[string]string](t, rec))

	rec = do(t, srv, http.MethodGet, "/api/installments/total", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-06", decode[map[string]string](t, rec)["month"])

	rec = do(t, srv, http.MethodGet, "/api/installments/total?month=2024-13", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateInstallmentErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"malformed", `{"description":`, http.StatusBadRequest},
		{"unknown field", `{"description":"x","colour":"red"}`, http.StatusBadRequest},
		{"missing total", `{"description":"x","installment_count":3,"start_month":"2024-01"}`, http.StatusUnprocessableEntity},
		{"negative total", `{"description":"x","total_amount":"-5","installment_count":3,"start_month":"2024-01"}`, http.StatusUnprocessableEntity},
		{"zero count", `{"description":"x","total_amount":"5","installment_count":0,"start_month":"2024-01"}`, http.StatusUnprocessableEntity},
		{"bad start", `{"description":"x","total_amount":"5","installment_count":1,"start_month":"jan"}`, http.StatusUnprocessableEntity},
		{"no description", `{"total_amount":"5","installment_count":1,"start_month":"2024-01"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/installments", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestCreateInstallmentHonoursAt(t *testing.T) {
	srv, store := newTestServer(t)
	body := `{"id":"tv","description":"TV","total_amount":"300","installment_count":3,"start_month":"2024-01"}`

	rec := do(t, srv, http.MethodPost, "/api/installments?at=2024-13", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	list, err := store.ListInstallments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	rec = do(t, srv, http.MethodPost, "/api/installments?at=2024-02", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[installmentResponse](t, rec)
	assert.Equal(t, "2024-02", got.Month)
	assert.Equal(t, 2, got.MonthsElapsed)
	assert.Equal(t, "100.00", got.RemainingAmount)
}

func TestCreateInstallmentIDs(t *testing.T) {
	srv, store := newTestServer(t)
	body := func(id string) string {
		return `{"id":"` + id + `","description":"TV","total_amount":"300","installment_count":3,"start_month":"2024-05"}`
	}

	rec := do(t, srv, http.MethodPost, "/api/installments", body("a/b"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, decode[errorResponse](t, rec).Error, "id must be")

	list, err := store.ListInstallments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	rec = do(t, srv, http.MethodPost, "/api/installments", body("tv-2024"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, srv, http.MethodGet, rec.Header().Get("Location"), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/installments", body("tv-2024"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "already exists")
}

func TestPartialRecordUsesSafeDefault(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.CreateInstallment(context.Background(), core.InstallmentPayment{
		ID:          "draft",
		Description: "Draft",
		TotalAmount: decimal.NewNullDecimal(decimal.RequireFromString("450")),
	}))

	rec := do(t, srv, http.MethodGet, "/api/installments/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[installmentResponse](t, rec)
	assert.Equal(t, 0, got.MonthsElapsed)
	assert.Equal(t, "0.00", got.MonthlyInstallment)
	assert.Equal(t, "450.00", got.RemainingAmount)
	assert.False(t, got.Active)
	assert.Empty(t, got.EndMonth)
}

func TestRecurringEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/recurring",
		`{"start_date":"2024-01-10","every":"Monthly","description":"Gym","amount":"30","category":"Sport"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[recurringResponse](t, rec)
	assert.Equal(t, "monthly", created.Every)
	assert.Equal(t, "30.00", created.Amount)

	rec = do(t, srv, http.MethodPost, "/api/recurring",
		`{"start_date":"2024-01-10","every":"fortnightly","description":"x","amount":"1","category":"c"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/recurring", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]recurringResponse](t, rec), 1)

	rec = do(t, srv, http.MethodDelete, "/api/recurring/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/recurring/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/recurring/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverviewMatchesInstallmentTotal(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, name := range []string{"A", "B", "C"} {
		rec := do(t, srv, http.MethodPost, "/api/installments",
			`{"description":"`+name+`","total_amount":"100","installment_count":3,"start_month":"2024-06"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodGet, "/api/installments/total?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	total := decode[map[string]string](t, rec)["total"]

	rec = do(t, srv, http.MethodGet, "/api/overview?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[overviewResponse](t, rec)

	assert.Equal(t, "100.00", total)
	assert.Equal(t, total, ov.Installments)
	assert.Equal(t, total, ov.Total)
}

func TestExpensesAndOverview(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"description":"Groceries","amount":45.5,"category":"Food"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "2024-06-15", decode[expenseResponse](t, rec).Date)

	rec = do(t, srv, http.MethodPost, "/api/expenses", `{"date":"2024-05-02","description":"Old","amount":"10","category":"Food"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/expenses", `{"description":"Bad","amount":"abc","category":"Food"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/expenses?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]expenseResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "45.50", list[0].Amount)

	rec = do(t, srv, http.MethodPost, "/api/installments",
		`{"description":"Phone","total_amount":"1200","installment_count":12,"start_month":"2024-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/overview?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[overviewResponse](t, rec)
	assert.Equal(t, "45.50", ov.Expenses)
	assert.Equal(t, "100.00", ov.Installments)
	assert.Equal(t, "145.50", ov.Total)
	require.Len(t, ov.ByCategory, 2)
}

func TestMethodNotAllowedAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		target string
		want   int
		msg    string
	}{
		{http.MethodPut, "/api/installments", http.StatusMethodNotAllowed, "method not allowed"},
		{http.MethodPut, "/api/expenses", http.StatusMethodNotAllowed, "method not allowed"},
		{http.MethodPost, "/api/installments/total", http.StatusMethodNotAllowed, "method not allowed"},
		{http.MethodPut, "/healthz", http.StatusMethodNotAllowed, "method not allowed"},
		{http.MethodGet, "/nope", http.StatusNotFound, "not found"},
		{http.MethodGet, "/api/nope", http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.msg, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2))

	body := `{"description":"x","amount":"1","category":"c"}`
	for i := 0; i < 2; i++ {
		rec := do(t, srv, http.MethodPost, "/api/expenses", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := do(t, srv, http.MethodPost, "/api/expenses", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	rec = do(t, srv, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
