package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ymori/itemshelf/internal/auth"
)

// openPaths never require authentication. Probes and the metrics scrape
// must stay reachable without credentials.
var openPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Auth returns a middleware that authenticates every request except open
// paths, CORS preflights, and WebSocket upgrades. On success the
// resulting auth.AuthInfo is placed on the request context for handlers
// to read.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptFromAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			info, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeAuthError(w, err)
				return
			}

			logger.Debug("authentication successful",
				zap.String("subject", info.Subject),
				zap.String("method", string(info.Method)),
				zap.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithAuthInfo(r.Context(), info)))
		})
	}
}

// exemptFromAuth reports whether the request may bypass authentication.
func exemptFromAuth(r *http.Request) bool {
	if isOpenPath(r.URL.Path) {
		return true
	}
	// Preflight requests carry no credentials by definition.
	if r.Method == http.MethodOptions {
		return true
	}
	// WebSocket clients authenticate at the application level after the
	// upgrade; the handshake itself passes through.
	return isWebSocketUpgrade(r)
}

// isOpenPath matches open paths and their sub-paths (/health/live is
// open) but not mere prefix collisions (/healthz is not).
func isOpenPath(path string) bool {
	if openPaths[path] {
		return true
	}
	for p := range openPaths {
		if strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

type authErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeAuthError sends a 401 with a JSON body and a WWW-Authenticate
// challenge matched to the failure kind.
func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Basic, API-Key")
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="itemshelf"`)
	case errors.Is(err, auth.ErrInvalidAPIKey):
		w.Header().Set("WWW-Authenticate", "API-Key")
	case errors.Is(err, auth.ErrInvalidCert):
		w.Header().Set("WWW-Authenticate", "mTLS")
	}

	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: err.Error(),
	})
}
