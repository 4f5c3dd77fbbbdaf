package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if !strings.HasPrefix(id, "console-") || len(id) != len("console-")+36 {
		t.Errorf("GenerateRequestID() = %q, want console-<uuid>", id)
	}

	// Verify uniqueness
	id2 := GenerateRequestID()
	if id == id2 {
		t.Errorf("GenerateRequestID() generated duplicate IDs: %s", id)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	id := "test1234"

	// Without ID
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID(empty context) = %q, want empty string", got)
	}

	// With ID
	ctx = WithRequestID(ctx, id)
	if got := GetRequestID(ctx); got != id {
		t.Errorf("GetRequestID() = %q, want %q", got, id)
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "client-42" || rec.Header().Get(HeaderRequestID) != "client-42" {
		t.Errorf("expected client id to be propagated, got ctx=%q header=%q", seen, rec.Header().Get(HeaderRequestID))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "console-") || rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("expected generated id in context and header, got ctx=%q header=%q", seen, rec.Header().Get(HeaderRequestID))
	}
}
