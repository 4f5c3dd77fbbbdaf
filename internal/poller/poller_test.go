package poller

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
)

func rows(ids ...int64) []models.UsageLog {
	out := make([]models.UsageLog, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.UsageLog{ID: id})
	}
	return out
}

func set(ids ...int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// fakeSource answers each call with the next queued page.
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	filters []logfilter.Filters
	pages   [][]models.UsageLog
	respond func(ctx context.Context, call int) (*models.UsageLogPage, error)
}

func (s *fakeSource) GetUsageLogs(ctx context.Context, f logfilter.Filters) (*models.UsageLogPage, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.filters = append(s.filters, f)
	respond := s.respond
	var page []models.UsageLog
	if call < len(s.pages) {
		page = s.pages[call]
	} else if len(s.pages) > 0 {
		page = s.pages[len(s.pages)-1]
	}
	s.mu.Unlock()

	if respond != nil {
		return respond(ctx, call)
	}
	return &models.UsageLogPage{Logs: page, Total: int64(len(page))}, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDiffNewIDs(t *testing.T) {
	got := DiffNewIDs(set(1, 2, 3), rows(2, 3, 4, 5), MaxNewIDs)
	if !slices.Equal(got, []int64{4, 5}) {
		t.Fatalf("expected [4 5], got %v", got)
	}

	many := make([]int64, 0, 15)
	for i := int64(100); i < 115; i++ {
		many = append(many, i)
	}
	got = DiffNewIDs(set(1), rows(many...), MaxNewIDs)
	if len(got) != 10 || got[0] != 100 || got[9] != 109 {
		t.Fatalf("expected first 10 new ids, got %v", got)
	}

	if got := DiffNewIDs(set(1, 2), rows(1, 2), MaxNewIDs); got != nil {
		t.Fatalf("expected no new ids, got %v", got)
	}
}

func TestController_RefreshHighlightsNewRows(t *testing.T) {
	src := &fakeSource{pages: [][]models.UsageLog{rows(1, 2, 3), rows(2, 3, 4, 5)}}
	c := New(src, logfilter.Filters{Page: 1}, Options{HighlightDuration: 20 * time.Millisecond})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap := c.Snapshot(); len(snap.NewIDs) != 0 || len(snap.Logs) != 3 {
		t.Fatalf("expected initial load without new ids, got %+v", snap)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := c.Snapshot()
	if !slices.Equal(snap.NewIDs, []int64{4, 5}) || !slices.Equal(snap.Highlighted, []int64{4, 5}) {
		t.Fatalf("expected new ids [4 5], got new=%v highlighted=%v", snap.NewIDs, snap.Highlighted)
	}

	waitFor(t, "highlight to clear", func() bool { return c.Snapshot().Highlighted == nil })
	if got := c.Snapshot().NewIDs; !slices.Equal(got, []int64{4, 5}) {
		t.Fatalf("expected NewIDs to stay after highlight clears, got %v", got)
	}
}

func TestController_RefreshWithoutNewRowsKeepsHighlight(t *testing.T) {
	src := &fakeSource{pages: [][]models.UsageLog{rows(1), rows(1, 2), rows(1, 2)}}
	c := New(src, logfilter.Filters{Page: 1}, Options{HighlightDuration: 200 * time.Millisecond})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.NewIDs) != 0 {
		t.Fatalf("expected no new ids on the second refresh, got %v", snap.NewIDs)
	}
	if !slices.Equal(snap.Highlighted, []int64{2}) {
		t.Fatalf("expected row 2 to stay highlighted, got %v", snap.Highlighted)
	}
	waitFor(t, "highlight to clear", func() bool { return c.Snapshot().Highlighted == nil })
}

func TestController_FilterChangeSuppressesDetection(t *testing.T) {
	src := &fakeSource{pages: [][]models.UsageLog{rows(1, 2), rows(7, 8), rows(7, 8, 9)}}
	c := New(src, logfilter.Filters{}, Options{})
	ctx := context.Background()

	c.Load(ctx)
	status := 500
	if err := c.SetFilters(ctx, logfilter.Filters{StatusCode: &status}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.NewIDs) != 0 {
		t.Fatalf("expected no new-row flash after filter change, got %v", snap.NewIDs)
	}
	if snap.Filters.StatusCode == nil || *snap.Filters.StatusCode != 500 {
		t.Fatalf("expected snapshot to carry the new filters, got %+v", snap.Filters)
	}

	c.Refresh(ctx)
	if got := c.Snapshot().NewIDs; !slices.Equal(got, []int64{9}) {
		t.Fatalf("expected refresh after filter change to diff against new baseline, got %v", got)
	}
	if got := src.filters[1].StatusCode; got == nil || *got != 500 {
		t.Fatalf("expected fetch with new filters, got %+v", src.filters[1])
	}
}

func TestController_SetPageDisablesAutoRefreshOnce(t *testing.T) {
	var disabled atomic.Int32
	src := &fakeSource{pages: [][]models.UsageLog{rows(1)}}
	c := New(src, logfilter.Filters{Page: 1}, Options{
		AutoRefresh:           true,
		OnAutoRefreshDisabled: func() { disabled.Add(1) },
	})
	ctx := context.Background()

	if !c.Snapshot().AutoRefresh {
		t.Fatal("expected auto refresh on page 1")
	}
	c.SetPage(ctx, 2)
	c.SetPage(ctx, 2)
	c.SetPage(ctx, 3)
	if disabled.Load() != 1 {
		t.Fatalf("expected exactly one disable, got %d", disabled.Load())
	}
	if c.Snapshot().AutoRefresh {
		t.Fatal("expected auto refresh off past page 1")
	}
	if c.SetAutoRefresh(true) {
		t.Fatal("expected enabling on page 3 to be refused")
	}

	c.SetPage(ctx, 1)
	if !c.SetAutoRefresh(true) {
		t.Fatal("expected explicit enable on page 1 to succeed")
	}
	if disabled.Load() != 1 {
		t.Fatalf("expected no further disable callbacks, got %d", disabled.Load())
	}
}

func TestController_SkipsRefreshWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{}
	src.respond = func(ctx context.Context, call int) (*models.UsageLogPage, error) {
		if call == 0 {
			close(entered)
			<-release
		}
		return &models.UsageLogPage{Logs: rows(1)}, nil
	}
	c := New(src, logfilter.Filters{}, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Tick(ctx) }()
	<-entered

	if err := c.Tick(ctx); err != nil {
		t.Fatalf("expected skipped tick to return nil, got %v", err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("expected skipped refresh to return nil, got %v", err)
	}
	if src.callCount() != 1 {
		t.Fatalf("expected a single in-flight fetch, got %d", src.callCount())
	}
	if !c.Snapshot().Loading {
		t.Fatal("expected loading state while the fetch is pending")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("tick: %v", err)
	}
	if c.Snapshot().Loading {
		t.Fatal("expected loading to clear")
	}
}

func TestController_FilterChangeDropsStaleResult(t *testing.T) {
	entered := make(chan struct{})
	src := &fakeSource{}
	src.respond = func(ctx context.Context, call int) (*models.UsageLogPage, error) {
		if call == 0 {
			close(entered)
			<-ctx.Done()
			return &models.UsageLogPage{Logs: rows(100)}, ctx.Err()
		}
		return &models.UsageLogPage{Logs: rows(1, 2), Total: 2}, nil
	}
	c := New(src, logfilter.Filters{}, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-entered

	if err := c.SetFilters(ctx, logfilter.Filters{Model: "gpt-4o"}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected superseded fetch to be dropped silently, got %v", err)
	}

	snap := c.Snapshot()
	if snap.Err != nil || snap.Total != 2 || snap.Logs[0].ID != 1 {
		t.Fatalf("expected the newer result to win, got %+v", snap)
	}
}

func TestController_ErrorKeepsRowsAndReports(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{}
	src.respond = func(ctx context.Context, call int) (*models.UsageLogPage, error) {
		if call == 1 {
			return nil, boom
		}
		return &models.UsageLogPage{Logs: rows(1)}, nil
	}
	c := New(src, logfilter.Filters{}, Options{})
	ctx := context.Background()

	c.Load(ctx)
	if err := c.Refresh(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	snap := c.Snapshot()
	if !errors.Is(snap.Err, boom) || snap.Loading || len(snap.Logs) != 1 {
		t.Fatalf("expected error state with previous rows, got %+v", snap)
	}

	c.Refresh(ctx)
	if c.Snapshot().Err != nil {
		t.Fatal("expected error to clear after a successful fetch")
	}
}

func TestController_HiddenSuspendsPolling(t *testing.T) {
	src := &fakeSource{pages: [][]models.UsageLog{rows(1)}}
	c := New(src, logfilter.Filters{}, Options{Interval: 10 * time.Millisecond, AutoRefresh: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, "periodic ticks", func() bool { return src.callCount() >= 2 })

	c.SetVisible(ctx, false)
	// A tick already past shouldPoll may still land.
	time.Sleep(30 * time.Millisecond)
	hidden := src.callCount()
	time.Sleep(50 * time.Millisecond)
	if got := src.callCount(); got != hidden {
		t.Fatalf("expected no fetches while hidden, got %d -> %d", hidden, got)
	}

	if err := c.SetVisible(ctx, true); err != nil {
		t.Fatalf("set visible: %v", err)
	}
	// A buffered tick may race the reset and add one more fetch.
	if got := src.callCount(); got < hidden+1 {
		t.Fatalf("expected an immediate fetch on becoming visible, got %d -> %d", hidden, got)
	}
}

func TestController_SubscribeReceivesLatest(t *testing.T) {
	src := &fakeSource{pages: [][]models.UsageLog{rows(1), rows(1, 2)}}
	c := New(src, logfilter.Filters{}, Options{})
	ctx := context.Background()

	ch, stop := c.Subscribe()
	defer stop()
	<-ch // initial empty snapshot

	c.Load(ctx)
	c.Refresh(ctx)

	snap := <-ch
	if len(snap.Logs) != 2 || !slices.Equal(snap.NewIDs, []int64{2}) {
		t.Fatalf("expected latest snapshot only, got %+v", snap)
	}
}
