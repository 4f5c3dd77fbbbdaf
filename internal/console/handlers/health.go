package handlers

import (
	"net/http"

	"github.com/pysugar/nexus-console/internal/version"
)

// HealthHandler reports liveness and the build version. It needs no auth.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{
			"status":    "ok",
			"version":   version.Version,
			"commit":    version.Commit,
			"buildTime": version.BuildTime,
		})
	}
}
