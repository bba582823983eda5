package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the API exposes.
type Services struct {
	Installments *services.InstallmentService
	Expenses     *services.ExpenseService
	Recurring    *services.RecurringService
	Overview     *services.OverviewService
	// Health is checked by /readyz. Optional.
	Health Pinger
}

type Server struct {
	http.Server
	svc      Services
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	logger   *applog.Logger

	now     func() time.Time
	started time.Time

	rateLimitPerMinute int
	shutdownOnce       sync.Once
}

type Option func(*Server)

// WithClock sets the clock used for default reference months and dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the logger attached to every request context.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit sets the per-client budget for state-changing requests.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimitPerMinute = perMinute }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		detector: security.NewDetector(),
		now:      time.Now,
		logger:   applog.FromContext(context.Background()).WithComponent(applog.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimitPerMinute})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed

	r.Use(
		s.tracer.Middleware,
		applog.Middleware(s.logger),
		applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }),
		s.detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// Subrouters do not inherit the fallback handlers.
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed

	// "total" must be registered before the {id} route.
	api.HandleFunc("/installments/total", s.handleInstallmentTotal).Methods(http.MethodGet)
	api.HandleFunc("/installments", s.handleListInstallments).Methods(http.MethodGet)
	api.HandleFunc("/installments", s.handleCreateInstallment).Methods(http.MethodPost)
	api.HandleFunc("/installments/{id}", s.handleGetInstallment).Methods(http.MethodGet)
	api.HandleFunc("/installments/{id}", s.handleDeleteInstallment).Methods(http.MethodDelete)

	api.HandleFunc("/recurring", s.handleListRecurring).Methods(http.MethodGet)
	api.HandleFunc("/recurring", s.handleCreateRecurring).Methods(http.MethodPost)
	api.HandleFunc("/recurring/{id:[0-9]+}", s.handleDeleteRecurring).Methods(http.MethodDelete)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)

	api.HandleFunc("/overview", s.handleOverview).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
