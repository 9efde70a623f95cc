package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/logging"
)

// APIKeyAuth guards the ingestion API. The key is read from X-API-Key, or
// from an "Authorization: Bearer" header. With RequireAPIKey unset every
// request passes; with it set and no keys configured every request fails.
//
// Rejections use the service's {"detail": "..."} error shape.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.RequireAPIKey {
		return func(next http.Handler) http.Handler { return next }
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			switch {
			case key == "":
				deny(w, r, http.StatusUnauthorized, "missing API key")
			case !matchesAny([]byte(key), keys):
				deny(w, r, http.StatusForbidden, "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchesAny compares against every key in constant time, so timing does not
// reveal which key matched.
func matchesAny(key []byte, keys [][]byte) bool {
	valid := 0
	for _, k := range keys {
		valid |= subtle.ConstantTimeCompare(key, k)
	}
	return valid == 1
}

func deny(w http.ResponseWriter, r *http.Request, status int, detail string) {
	logging.FromContext(r.Context()).Warn("auth: request rejected",
		"reason", detail,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", clientIP(r),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
