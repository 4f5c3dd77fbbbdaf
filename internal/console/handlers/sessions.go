package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/logfilter"
	"github.com/pysugar/nexus-console/internal/session"
	"gorm.io/gorm"
)

// HeaderExportFilename mirrors client.HeaderExportFilename.
const HeaderExportFilename = "X-Export-Filename"

// sessionIDParam returns the unescaped {sessionID} path segment.
func sessionIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "sessionID")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// querySequence reads ?seq=. Invalid values select the latest request.
func querySequence(r *http.Request) *int {
	if seq, ok := logfilter.ParseSequence(r.URL.Query().Get("seq")); ok {
		return &seq
	}
	return nil
}

// SessionDetailsHandler returns one request of a session with its neighbours and stats.
func SessionDetailsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := db.GetSessionDetails(database, sessionIDParam(r), querySequence(r))
		if err != nil {
			writeStoreError(w, r, "load session", err)
			return
		}
		writeOK(w, details)
	}
}

// SessionRequestsHandler lists a session's requests.
func SessionRequestsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("pageSize"))

		out, err := db.GetSessionRequests(database, sessionIDParam(r), page, pageSize, q.Get("order"))
		if err != nil {
			writeStoreError(w, r, "list session requests", err)
			return
		}
		writeOK(w, out)
	}
}

// SessionHasMessagesHandler reports whether a request captured a messages payload.
func SessionHasMessagesHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		has, err := db.HasSessionMessages(database, sessionIDParam(r), querySequence(r))
		if err != nil {
			writeStoreError(w, r, "check session messages", err)
			return
		}
		writeOK(w, map[string]bool{"hasMessages": has})
	}
}

// SessionExportHandler serves a captured payload as an indented JSON download.
func SessionExportHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := sessionIDParam(r)
		kind := session.ExportKind(r.URL.Query().Get("kind"))
		if kind != session.ExportMessages {
			kind = session.ExportRequest
		}

		details, err := db.GetSessionDetails(database, sessionID, querySequence(r))
		if err != nil {
			writeStoreError(w, r, "load session", err)
			return
		}
		payload := session.ExportPayload(details, kind)
		if payload == nil {
			writeError(w, http.StatusNotFound, "nothing captured for "+string(kind))
			return
		}
		body, err := session.MarshalExport(payload)
		if err != nil {
			writeStoreError(w, r, "encode export", err)
			return
		}

		name := session.ExportFilename(sessionID, details.CurrentSequence, kind)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set(HeaderExportFilename, name)
		w.Write(body)
	}
}

// TerminateSessionHandler releases a session's provider binding.
func TerminateSessionHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.TerminateActiveSession(database, sessionIDParam(r), time.Now()); err != nil {
			writeStoreError(w, r, "terminate session", err)
			return
		}
		writeOK(w, nil)
	}
}
