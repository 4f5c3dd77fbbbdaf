package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/pysugar/nexus-console/internal/db"
	"gorm.io/gorm"
)

// AdminAuth validates the admin bearer token. A configured token takes
// precedence over the one stored in the database.
func AdminAuth(database *gorm.DB, configured string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := configured
			if expected == "" {
				token, err := db.EnsureAdminToken(database)
				if err != nil {
					log.Printf("[Auth] Failed to load admin token: %v", err)
					writeError(w, http.StatusInternalServerError, "admin token unavailable")
					return
				}
				expected = token
			}

			if token, ok := bearerToken(r); ok && subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="nexus-console"`)
			writeError(w, http.StatusUnauthorized, "invalid admin token")
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(auth[7:])
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"ok":false,"error":"` + msg + `"}`))
}
