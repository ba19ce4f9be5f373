package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	applog "finviz/internal/log"
	"finviz/internal/middleware/ratelimit"
	"finviz/internal/middleware/security"
)

// Options configures NewServer.
type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	// TrustProxy makes client addresses come from X-Forwarded-For and
	// X-Real-IP. Without it a client could rotate the header to dodge the
	// write limit, so enable it only behind a proxy that sets the header.
	TrustProxy bool
	// Ready backs /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	ledger  Ledger
	ready   func(ctx context.Context) error
	limiter *ratelimit.Limiter
	logger  *applog.Logger

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		ledger: ledger,
		ready:  opts.Ready,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Logger:            logger,
		}),
		logger: logger,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts.AllowedOrigins, opts.TrustProxy),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigins []string, trustProxy bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(allowedOrigins).Handler)
	r.Use(security.Headers(security.APIHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	limitWrites := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.With(limitWrites).Post("/", s.handleCreateTransaction)
			r.With(limitWrites).Delete("/", s.handleDeleteTransactions)
		})
		r.Route("/summary", func(r chi.Router) {
			r.Get("/", s.handleSummary)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/categories", s.handleCategories)
		})
	})

	return r
}

func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Type", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// requestLogger records every request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		applog.LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds(), clientIP(r))
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
