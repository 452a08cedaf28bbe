package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		password string
		path     string
		header   string
		want     int
	}{
		{"open when no password", "", "/api/stop", "", http.StatusOK},
		{"stop without header", "secret", "/api/stop", "", http.StatusUnauthorized},
		{"stop with wrong header", "secret", "/api/stop", "nope", http.StatusUnauthorized},
		{"stop with header", "secret", "/api/stop", "secret", http.StatusOK},
		{"clear without header", "secret", "/logs/info/clear", "", http.StatusUnauthorized},
		{"clear with header", "secret", "/logs/error/clear", "secret", http.StatusOK},
		{"read logs is open", "secret", "/logs/info", "", http.StatusOK},
		{"status is open", "secret", "/api/status", "", http.StatusOK},
		{"viewer is open", "secret", "/", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(PasswordHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.password)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
