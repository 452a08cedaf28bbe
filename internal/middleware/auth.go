package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// PasswordHeader carries the control password on protected requests.
const PasswordHeader = "X-Password"

// AuthMiddleware guards the control endpoints with a shared password.
// Viewing, status, metrics and reading logs stay open. An empty password
// disables the check.
func AuthMiddleware(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" || !protected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			given := r.Header.Get(PasswordHeader)
			if subtle.ConstantTimeCompare([]byte(given), []byte(password)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func protected(path string) bool {
	return path == "/api/stop" ||
		(strings.HasPrefix(path, "/logs/") && strings.HasSuffix(path, "/clear"))
}
