package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/middleware"
)

func setupRouter(
	handler api.ServerInterface,
	authenticator auth.Authenticator,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Serve OpenAPI spec
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "api/openapi.yaml")
	})

	// The last middleware wraps the others, so authentication runs before
	// the per-actor rate limiter.
	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter: r,
		Middlewares: []api.MiddlewareFunc{
			rateLimiter.Middleware(),
			middleware.BasicAuth(authenticator, logger),
		},
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		},
	})

	return r
}
