package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/nexus-console/internal/chain"
	"github.com/pysugar/nexus-console/internal/client"
	"github.com/pysugar/nexus-console/internal/console"
	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"gorm.io/gorm"
)

const testToken = "cli-token"

func newTestConsole(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cli-%d?mode=memory&cache=shared", time.Now().UnixNano())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	ts := httptest.NewServer(console.NewServer(database, testToken).Router())
	t.Cleanup(ts.Close)
	return ts, database
}

func run(t *testing.T, ts *httptest.Server, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommandWithIO(&out, &errOut)
	cmd.SetArgs(append([]string{"--server", ts.URL, "--token", testToken}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func seed(t *testing.T, ts *httptest.Server) (*models.Provider, *models.UsageLog) {
	t.Helper()
	c := client.New(ts.URL, testToken, 0)
	ctx := context.Background()
	p, err := c.AddProvider(ctx, models.Provider{
		Name: "relay", URL: "https://relay.example.com", Key: "sk-relay-secret", Weight: 1, CostMultiplier: 1,
	})
	if err != nil {
		t.Fatalf("AddProvider: %v", err)
	}
	ts1, ts2 := int64(1000), int64(1300)
	dur, ttfb := int64(2000), int64(500)
	l, err := c.IngestUsageLog(ctx, models.UsageIngest{
		Log: models.UsageLog{
			ProviderID: p.ID, ProviderName: "relay", SessionID: "sess-cli-1", StatusCode: 200,
			Model:      "claude-sonnet", OriginalModel: "claude-3", OutputTokens: 1000, DurationMs: &dur, TTFBMs: &ttfb,
			ProviderChain: []chain.ProviderChainItem{
				{Name: "relay", Reason: chain.ReasonRetryFailed, StatusCode: 502, Timestamp: &ts1, AttemptNumber: 1},
				{Name: "relay", Reason: chain.ReasonRetrySuccess, StatusCode: 200, Timestamp: &ts2, AttemptNumber: 2},
			},
		},
		Request: &models.SessionRequest{RequestBody: `{"model":"claude-3"}`},
	})
	if err != nil {
		t.Fatalf("IngestUsageLog: %v", err)
	}
	return p, l
}

func TestWatch_Once(t *testing.T) {
	ts, _ := newTestConsole(t)
	_, l := seed(t, ts)

	out, _, err := run(t, ts, "watch", "--once", "--filter", "statusCode=200")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	for _, want := range []string{"MODEL", strconv.FormatInt(l.ID, 10), "claude-3 -> claude-sonnet", "666.7 tok/s", "1 logs, page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, _, err = run(t, ts, "watch", "--once", "--filter", "statusCode=!200")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "0 logs") {
		t.Fatalf("expected no logs for !200, got:\n%s", out)
	}
}

func TestWatch_PastFirstPageStops(t *testing.T) {
	ts, _ := newTestConsole(t)
	seed(t, ts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out, errOut bytes.Buffer
	cmd := NewRootCommandWithIO(&out, &errOut)
	cmd.SetArgs([]string{"--server", ts.URL, "--token", testToken, "watch", "--filter", "page=2"})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out.String(), "page 2 of 1") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "auto refresh is off") {
		t.Fatalf("expected auto refresh notice, got %q", errOut.String())
	}
}

func TestWatch_BadFilter(t *testing.T) {
	ts, _ := newTestConsole(t)
	if _, _, err := run(t, ts, "watch", "--once", "--filter", "%zz"); err == nil || !strings.Contains(err.Error(), "invalid --filter") {
		t.Fatalf("expected filter error, got %v", err)
	}
}

func TestTraceAndStats(t *testing.T) {
	ts, _ := newTestConsole(t)
	_, l := seed(t, ts)

	out, _, err := run(t, ts, "trace", strconv.FormatInt(l.ID, 10))
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	for _, want := range []string{"Output rate: 666.7 tok/s", "Retry attempt #2", "+300ms", "Total duration: 300ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in trace output:\n%s", want, out)
		}
	}

	if _, _, err := run(t, ts, "trace", "abc"); err == nil {
		t.Fatal("expected error for a non-numeric id")
	}

	out, _, err = run(t, ts, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Requests") || !strings.Contains(out, "1") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}
}

func TestSessionShowAndExport(t *testing.T) {
	ts, _ := newTestConsole(t)
	seed(t, ts)
	dir := t.TempDir()

	out, _, err := run(t, ts, "session", "show", "sess-cli-1", "--export", "request", "--out", dir)
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	if !strings.Contains(out, "Session sess-cli-1, request #1") || !strings.Contains(out, "*1") {
		t.Fatalf("unexpected session output:\n%s", out)
	}
	body, err := os.ReadFile(filepath.Join(dir, "session-sess-cli-seq-1-request.json"))
	if err != nil {
		t.Fatalf("expected export file: %v", err)
	}
	if !strings.Contains(string(body), `"model": "claude-3"`) {
		t.Fatalf("expected indented request body, got %s", body)
	}

	if _, _, err := run(t, ts, "session", "show", "sess-cli-1", "--export", "messages", "--out", dir); err == nil || !strings.Contains(err.Error(), "no messages") {
		t.Fatalf("expected missing messages error, got %v", err)
	}
	if _, _, err := run(t, ts, "session", "show", "sess-cli-1", "--seq", "0"); err == nil {
		t.Fatal("expected error for seq 0")
	}

	out, _, err = run(t, ts, "session", "terminate", "sess-cli-1")
	if err != nil || !strings.Contains(out, "Terminated") {
		t.Fatalf("terminate = %q, %v", out, err)
	}
}

func TestProviders_AddConfirmAndEdit(t *testing.T) {
	ts, database := newTestConsole(t)

	args := []string{"providers", "add", "--name", "backup", "--url", "https://backup.example.com", "--key", "sk-backup-secret", "--failure-threshold", "0"}
	if _, _, err := run(t, ts, args...); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if ps, _ := db.ListProviders(database); len(ps) != 0 {
		t.Fatalf("expected nothing saved without --yes, got %d providers", len(ps))
	}

	out, _, err := run(t, ts, append(args, "--yes")...)
	if err != nil || !strings.Contains(out, "Saved provider") {
		t.Fatalf("add --yes = %q, %v", out, err)
	}
	ps, err := db.ListProviders(database)
	if err != nil || len(ps) != 1 {
		t.Fatalf("expected one provider, got %d, %v", len(ps), err)
	}
	id := strconv.FormatInt(ps[0].ID, 10)

	out, _, err = run(t, ts, "providers", "edit", id, "--weight", "7", "--failure-threshold", "3")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, err := db.GetProvider(database, ps[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Weight != 7 || got.CircuitBreakerFailureThreshold != 3 || got.Name != "backup" {
		t.Fatalf("unexpected provider after edit: %+v", got)
	}
	if got.Key != "sk-backup-secret" {
		t.Fatalf("expected key kept on edit, got %q", got.Key)
	}

	out, _, err = run(t, ts, "providers", "list")
	if err != nil || !strings.Contains(out, "backup") || strings.Contains(out, "sk-backup-secret") {
		t.Fatalf("expected masked list, got %q, %v", out, err)
	}
	out, _, err = run(t, ts, "providers", "key", id)
	if err != nil || strings.TrimSpace(out) != "sk-backup-secret" {
		t.Fatalf("key = %q, %v", out, err)
	}
	if _, _, err := run(t, ts, "providers", "reset-circuit", id); err != nil {
		t.Fatalf("reset-circuit: %v", err)
	}
	if _, _, err := run(t, ts, "providers", "edit", "999", "--weight", "2"); err == nil {
		t.Fatal("expected error editing a missing provider")
	}
	if _, _, err := run(t, ts, "providers", "remove", id); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestFilters(t *testing.T) {
	ts, database := newTestConsole(t)
	if err := db.CreateRequestFilter(database, &models.RequestFilter{
		Name:      "strip", Scope: models.FilterScopeHeader, Action: models.FilterActionRemove, Target: "x-debug",
		IsEnabled: true, BindingType: models.FilterBindingGlobal,
	}); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, ts, "filters", "list")
	if err != nil || !strings.Contains(out, "strip") || !strings.Contains(out, "x-debug") {
		t.Fatalf("filters list = %q, %v", out, err)
	}
	out, _, err = run(t, ts, "filters", "refresh")
	if err != nil || !strings.Contains(out, "Loaded 1 enabled filters") {
		t.Fatalf("filters refresh = %q, %v", out, err)
	}
}

func TestUnauthorized(t *testing.T) {
	ts, _ := newTestConsole(t)
	var out, errOut bytes.Buffer
	cmd := NewRootCommandWithIO(&out, &errOut)
	cmd.SetArgs([]string{"--server", ts.URL, "--token", "wrong", "stats"})
	err := cmd.Execute()
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}
