package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pysugar/nexus-console/internal/db/models"
)

type fakeSource struct {
	mu       sync.Mutex
	details  map[string]*models.SessionDetails
	gates    map[string]chan struct{}
	started  chan string
	has      bool
	err      error
	reqErr   error
	requests *models.SessionRequestPage
}

func (f *fakeSource) GetSessionDetails(ctx context.Context, sessionID string, sequence *int) (*models.SessionDetails, error) {
	f.mu.Lock()
	gate := f.gates[sessionID]
	d := f.details[sessionID]
	err := f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- sessionID
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (f *fakeSource) GetSessionRequests(ctx context.Context, sessionID string, page, pageSize int, order string) (*models.SessionRequestPage, error) {
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return f.requests, nil
}

func (f *fakeSource) HasSessionMessages(ctx context.Context, sessionID string, sequence *int) (bool, error) {
	return f.has, f.err
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("0123456789abcdef", 7, ExportRequest); got != "session-01234567-seq-7-request.json" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := ExportFilename("abc", 2, ExportMessages); got != "session-abc-seq-2-messages.json" {
		t.Fatalf("unexpected legacy filename %q", got)
	}
	if got := ExportFilename("会话会话会话会话会话", 1, ExportRequest); got != "session-会话会话会话会话-seq-1-request.json" {
		t.Fatalf("expected the prefix cut at a rune boundary, got %q", got)
	}
}

func TestMarshalExport_TwoSpaceIndent(t *testing.T) {
	body, err := MarshalExport(json.RawMessage(`{"model":"m","messages":[1]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"model\": \"m\",\n  \"messages\": [\n    1\n  ]\n}"
	if string(body) != want {
		t.Fatalf("unexpected export:\n%s", body)
	}

	body, err = MarshalExport(json.RawMessage(`{"prompt":"a < b && c > d"}`))
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"prompt\": \"a < b && c > d\"\n}"; string(body) != want {
		t.Fatalf("expected unescaped html characters, got:\n%s", body)
	}
}

func TestLatest(t *testing.T) {
	var l Latest
	ctx1, t1 := l.Begin(context.Background())
	_, t2 := l.Begin(context.Background())

	if l.Current(t1) || !l.Current(t2) {
		t.Fatal("expected only the second request to be current")
	}
	if ctx1.Err() == nil {
		t.Fatal("expected superseded context to be cancelled")
	}
	l.Cancel()
	if l.Current(t2) {
		t.Fatal("expected Cancel to invalidate the pending request")
	}
}

func TestMessagesView_DropsStaleLoad(t *testing.T) {
	src := &fakeSource{
		details: map[string]*models.SessionDetails{
			"slow": {CurrentSequence: 1},
			"fast": {CurrentSequence: 2, RequestBody: json.RawMessage(`{"a":1}`)},
		},
		gates:   map[string]chan struct{}{"slow": make(chan struct{})},
		started: make(chan string, 2),
	}
	v := NewMessagesView(src)

	slowDone := make(chan error, 1)
	go func() {
		_, err := v.Load(context.Background(), "slow", nil)
		slowDone <- err
	}()
	<-src.started

	snap, err := v.Load(context.Background(), "fast", nil)
	<-src.started
	if err != nil || snap.State != StateLoaded || snap.Details.CurrentSequence != 2 {
		t.Fatalf("expected fast load applied, got %+v err=%v", snap, err)
	}

	close(src.gates["slow"])
	if err := <-slowDone; !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale error, got %v", err)
	}
	if got := v.Snapshot(); got.SessionID != "fast" || got.Details.CurrentSequence != 2 {
		t.Fatalf("stale response overwrote the view: %+v", got)
	}

	name, body, ok := v.Export(ExportRequest)
	if !ok || name != "session-fast-seq-2-request.json" || !strings.Contains(string(body), `"a": 1`) {
		t.Fatalf("unexpected export %q %s ok=%v", name, body, ok)
	}
	if _, _, ok := v.Export(ExportMessages); ok {
		t.Fatal("expected no messages export when nothing was captured")
	}
}

func TestMessagesView_Error(t *testing.T) {
	boom := errors.New("boom")
	v := NewMessagesView(&fakeSource{err: boom})
	snap, err := v.Load(context.Background(), "s", nil)
	if !errors.Is(err, boom) || snap.State != StateError || snap.Err != boom {
		t.Fatalf("expected error state, got %+v err=%v", snap, err)
	}
	if _, err := v.CheckHasMessages(context.Background(), "s", nil); !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	if v.Snapshot().HasMessages != nil {
		t.Fatal("expected unknown message flag after a failed check")
	}
}

func TestMessagesView_HasMessages(t *testing.T) {
	v := NewMessagesView(&fakeSource{has: true})
	has, err := v.CheckHasMessages(context.Background(), "s", nil)
	if err != nil || !has {
		t.Fatalf("expected messages, got %v err=%v", has, err)
	}
	if hm := v.Snapshot().HasMessages; hm == nil || !*hm {
		t.Fatal("expected message flag recorded")
	}
}

func TestMessagesView_LoadOtherRequestDropsMessagesFlag(t *testing.T) {
	src := &fakeSource{has: true, details: map[string]*models.SessionDetails{
		"s": {CurrentSequence: 1},
		"t": {CurrentSequence: 1},
	}}
	v := NewMessagesView(src)
	ctx := context.Background()
	one, two := 1, 2

	if _, err := v.CheckHasMessages(ctx, "s", &one); err != nil {
		t.Fatal(err)
	}
	if snap, err := v.Load(ctx, "s", &one); err != nil || snap.HasMessages == nil || !*snap.HasMessages {
		t.Fatalf("expected the flag kept for the checked request, got %+v err=%v", snap, err)
	}
	if snap, err := v.Load(ctx, "s", &two); err != nil || snap.HasMessages != nil {
		t.Fatalf("expected the flag dropped for another sequence, got %+v err=%v", snap, err)
	}
	if snap, err := v.Load(ctx, "t", &one); err != nil || snap.HasMessages != nil {
		t.Fatalf("expected the flag dropped for another session, got %+v err=%v", snap, err)
	}
}

func TestLoader_Load(t *testing.T) {
	src := &fakeSource{
		details:  map[string]*models.SessionDetails{"s": {CurrentSequence: 3}},
		requests: &models.SessionRequestPage{Total: 3, Requests: []models.SessionRequestItem{{Sequence: 3}}},
	}
	page, err := Loader{Source: src, PageSize: 20, Order: "desc"}.Load(context.Background(), "s", nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if page.Details.CurrentSequence != 3 || page.Requests.Total != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	src.reqErr = errors.New("down")
	if _, err := (Loader{Source: src}).Load(context.Background(), "s", nil, 1); err == nil || !strings.Contains(err.Error(), "session requests") {
		t.Fatalf("expected wrapped request error, got %v", err)
	}
}
