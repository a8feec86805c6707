package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds middleware configuration.
type Config struct {
	Logger *zap.Logger

	CORS *CORSConfig

	RequestTimeout time.Duration
}

// Chain creates the router-wide middleware chain. Authentication and rate
// limiting are per operation and wired through the generated API wrapper.
func Chain(config *Config) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		// Apply middleware in order (inner to outer)
		h := handler

		h = Timeout(config.RequestTimeout)(h)

		if config.CORS != nil {
			h = CORS(config.CORS)(h)
		}

		h = Recovery(config.Logger)(h)

		h = Logger(config.Logger)(h)

		h = RequestID(h)

		return h
	}
}
