package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS lets the widget call the API from the client's website.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}

// OriginAllowed applies the CORS allow-list to origins that never pass through
// the CORS handler, such as WebSocket upgrades. Entries may hold one "*" wildcard.
// Requests without an Origin header come from non-browser clients and are allowed.
func OriginAllowed(allowedOrigins []string, origin string) bool {
	if origin == "" || len(allowedOrigins) == 0 {
		return true
	}
	origin = strings.ToLower(origin)
	for _, allowed := range allowedOrigins {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "*" || allowed == origin {
			return true
		}
		if prefix, suffix, ok := strings.Cut(allowed, "*"); ok &&
			len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}
