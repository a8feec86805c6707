package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/auth"
)

const authRealm = `Basic realm="insdr-dispatch", charset="UTF-8"`

// BasicAuth authenticates operations that declare the basicAuth security
// scheme and stores the actor in the request context. Operations without a
// security requirement pass through untouched.
func BasicAuth(authenticator auth.Authenticator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, secured := r.Context().Value(api.BasicAuthScopes).([]string); !secured {
				next.ServeHTTP(w, r)
				return
			}

			user, password, ok := r.BasicAuth()
			if !ok || !authenticator.Verify(r.Context(), user, password) {
				logger.Warn("Authentication failed",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("user", user),
					zap.String("remote_addr", r.RemoteAddr))

				w.Header().Set("WWW-Authenticate", authRealm)
				WriteError(w, r, http.StatusUnauthorized, ErrorCodeUnauthorized, ErrorMessageUnauthorized)
				return
			}

			recordActor(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), user)))
		})
	}
}
