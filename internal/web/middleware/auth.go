package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/JonMunkholm/signup/internal/config"
)

// API key failures. Both map to AUTH002 via core.MapError.
var (
	ErrMissingAPIKey = errors.New("invalid session: missing API key")
	ErrInvalidAPIKey = errors.New("invalid session: unknown API key")
)

// APIKeyAuth returns middleware that checks the X-API-Key header against
// cfg.APIKeys. With RequireAPIKey off every request passes through.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				writeError(w, r, http.StatusUnauthorized, ErrMissingAPIKey)
				return
			}

			if !isValidAPIKey(apiKey, cfg.APIKeys) {
				writeError(w, r, http.StatusForbidden, ErrInvalidAPIKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isValidAPIKey compares key against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
