package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pricelist/internal/auth"
	"pricelist/internal/catalog"
)

type Options struct {
	AllowedOrigins []string
	// GlobalRPS caps requests per second across all clients. Zero disables it.
	GlobalRPS   float64
	GlobalBurst int
}

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	catalogHandler *catalog.Handler,
	opts Options,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withCORS(opts.AllowedOrigins))
	r.Use(requestLogger(logger))
	if opts.GlobalRPS > 0 {
		r.Use(throttle(opts.GlobalRPS, opts.GlobalBurst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "pricelist API"})
	})

	ah := &authHandler{Service: authSvc, Logger: logger}
	r.Post("/login", ah.login)
	r.Post("/register", ah.register)

	secured := auth.JWTMiddleware(authSvc, logger)
	r.With(secured).Get("/me", ah.me)

	catalogHandler.Routes(r, secured)

	return r
}
