package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finview/internal/app"
	"finview/internal/cache"
	"finview/internal/log"
	"finview/internal/middleware/ratelimit"
	"finview/internal/middleware/security"
	"finview/internal/middleware/trace"
	"finview/internal/notify"
)

// Server serves the controller's views. It wraps http.Server so callers can
// ListenAndServe it directly.
type Server struct {
	http.Server
	ctrl     *app.Controller
	logger   *log.Logger
	failures *log.StructuredLogger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	notificationMs int
	ready          func(context.Context) error

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit replaces the default limiter configuration.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limiter = ratelimit.NewLimiter(cfg) }
}

// WithNotificationDuration sets how long the page shows a notification.
func WithNotificationDuration(d time.Duration) Option {
	return func(s *Server) { s.notificationMs = int(d.Milliseconds()) }
}

// WithCacheManager stops the cache cleanup loop on shutdown.
func WithCacheManager(m *cache.Manager) Option {
	return func(s *Server) { s.caches = m }
}

// WithReadiness sets the check behind /readyz.
func WithReadiness(f func(context.Context) error) Option {
	return func(s *Server) { s.ready = f }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ctrl *app.Controller, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ctrl:           ctrl,
		logger:         log.Discard(),
		notificationMs: 5000,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.failures = log.NewStructuredLogger(s.logger)
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(s.logger, trace.RequestID)(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /environments", s.handleListEnvironments)
	mux.HandleFunc("POST /environments", s.handleCreateEnvironment)
	mux.HandleFunc("POST /environments/leave", s.handleLeaveEnvironment)
	mux.HandleFunc("PUT /environments/{id}", s.handleUpdateEnvironment)
	mux.HandleFunc("DELETE /environments/{id}", s.handleDeleteEnvironment)
	mux.HandleFunc("POST /environments/{id}/access", s.handleAccessEnvironment)

	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions/{kind}", s.handleCreateTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("PUT /dashboard/balance", s.handleEditBalance)
	mux.HandleFunc("POST /dashboard/top-goals/next", s.handleNextTopGoals)
	mux.HandleFunc("POST /dashboard/top-goals/previous", s.handlePreviousTopGoals)

	mux.HandleFunc("GET /ranking", s.handleRanking)
	mux.HandleFunc("GET /user", s.handleGetUser)
	mux.HandleFunc("PUT /user", s.handleUpdateUser)

	mux.HandleFunc("GET /message", s.handleGetMessage)
	mux.HandleFunc("DELETE /message", s.handleDismissMessage)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// run executes op and writes its view. Any message the operation posted to the
// slot rides along in the HX-Trigger header; failures map to 422 for
// validation, 502 for the backend and 400 for unparsable input.
func (s *Server) run(w http.ResponseWriter, r *http.Request, op func(ctx context.Context) (any, error)) {
	before, hadBefore := s.ctrl.Message()

	view, err := op(r.Context())

	b := NewHTMXResponse()
	if msg, ok := s.ctrl.Message(); ok && (!hadBefore || msg != before) {
		b.TriggerNotification(msg, s.notificationMs)
	}

	if err == nil {
		b.JSON(view).Write(w)
		return
	}

	var (
		fieldErr *FieldError
		envErr   *app.EnvironmentError
		failure  *app.Failure
	)
	switch {
	case errors.As(err, &fieldErr):
		msg := fieldErr.Error()
		b.Status(http.StatusUnprocessableEntity).
			TriggerNotification(notify.Message{Level: notify.LevelError, Text: msg}, s.notificationMs).
			JSON(ErrorBody{Error: msg, Kind: string(app.KindValidation), Fields: map[string]bool{fieldErr.Field: true}})
	case errors.As(err, &envErr):
		b.Status(http.StatusUnprocessableEntity).JSON(ErrorBody{
			Error: envErr.Message,
			Kind:  string(app.KindValidation),
			Fields: map[string]bool{
				"name":        envErr.Check.NameMissing,
				"description": envErr.Check.DescriptionMissing,
			},
		})
	case errors.As(err, &failure) && failure.Kind == app.KindValidation:
		b.Status(http.StatusUnprocessableEntity).JSON(ErrorBody{Error: failure.Message, Kind: string(failure.Kind)})
	case errors.As(err, &failure):
		b.Status(http.StatusBadGateway).JSON(ErrorBody{Error: failure.Message, Kind: string(failure.Kind)})
	default:
		s.failures.LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
		b.Status(http.StatusInternalServerError).JSON(ErrorBody{Error: "Internal server error"})
	}
	b.Write(w)
}

// parse reads the request body, writing 400 when it is malformed.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Malformed request body", log.FieldError, err, log.FieldPath, r.URL.Path)
		BadRequestError("Malformed request body").Write(w)
		return nil, false
	}
	return p, true
}
