package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
)

func TestSessionRequests_SequenceAndNeighbours(t *testing.T) {
	db := newTestDB(t)

	bodies := []string{`{"model":"a"}`, "not json", `{"model":"c"}`}
	for i, body := range bodies {
		req := &models.SessionRequest{
			SessionID:   "sess-1",
			CreatedAt:   int64(1000 * (i + 1)),
			RequestBody: body,
			InputTokens: 10,
			CostUSD:     0.25,
		}
		if i == 1 {
			req.Messages = `[{"role":"user","content":"hi"}]`
		}
		if err := CreateSessionRequest(db, req); err != nil {
			t.Fatalf("create request %d: %v", i, err)
		}
		if req.Sequence != i+1 || req.ID == "" {
			t.Fatalf("expected sequence %d with generated id, got %d/%q", i+1, req.Sequence, req.ID)
		}
	}

	latest, err := GetSessionDetails(db, "sess-1", nil)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if latest.CurrentSequence != 3 || latest.NextSequence != nil || latest.PrevSequence == nil || *latest.PrevSequence != 2 {
		t.Fatalf("unexpected neighbours for latest: %+v", latest)
	}
	if latest.SessionStats.RequestCount != 3 || latest.SessionStats.TotalInputTokens != 30 || latest.SessionStats.LastRequestAt != 3000 {
		t.Fatalf("unexpected stats %+v", latest.SessionStats)
	}

	seq := 2
	middle, err := GetSessionDetails(db, "sess-1", &seq)
	if err != nil {
		t.Fatalf("details seq 2: %v", err)
	}
	var body string
	if err := json.Unmarshal(middle.RequestBody, &body); err != nil || body != "not json" {
		t.Fatalf("expected non-JSON body as string, got %s", middle.RequestBody)
	}
	if string(middle.Response) != "null" {
		t.Fatalf("expected null response, got %s", middle.Response)
	}
	if *middle.PrevSequence != 1 || *middle.NextSequence != 3 {
		t.Fatalf("unexpected neighbours %v/%v", *middle.PrevSequence, *middle.NextSequence)
	}

	missing := 9
	if _, err := GetSessionDetails(db, "sess-1", &missing); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	has, _ := HasSessionMessages(db, "sess-1", nil)
	if !has {
		t.Fatal("expected session to have messages")
	}
	first := 1
	if has, _ := HasSessionMessages(db, "sess-1", &first); has {
		t.Fatal("expected sequence 1 to have no messages")
	}

	page, err := GetSessionRequests(db, "sess-1", 1, 2, "desc")
	if err != nil {
		t.Fatalf("requests: %v", err)
	}
	if page.Total != 3 || !page.HasMore || len(page.Requests) != 2 || page.Requests[0].Sequence != 3 {
		t.Fatalf("unexpected first page %+v", page)
	}
	page, _ = GetSessionRequests(db, "sess-1", 2, 2, "asc")
	if page.HasMore || len(page.Requests) != 1 || page.Requests[0].Sequence != 3 {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestTerminateActiveSession(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	if err := TerminateActiveSession(db, "nope", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
	if err := TouchActiveSession(db, models.ActiveSession{SessionID: "s1", ProviderID: 3}, now); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := TerminateActiveSession(db, "s1", now); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := TerminateActiveSession(db, "s1", now); err != ErrNotFound {
		t.Fatalf("expected second terminate to report ErrNotFound, got %v", err)
	}

	if err := TouchActiveSession(db, models.ActiveSession{SessionID: "s1", ProviderID: 4}, now.Add(time.Second)); err != nil {
		t.Fatalf("touch again: %v", err)
	}
	var s models.ActiveSession
	if err := db.First(&s, "session_id = ?", "s1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.TerminatedAt != nil || s.ProviderID != 4 {
		t.Fatalf("expected reactivated session on provider 4, got %+v", s)
	}
}
