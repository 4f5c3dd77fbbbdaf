// Package poller keeps the usage-log list fresh without moving rows under a reader.
package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
	"github.com/pysugar/nexus-console/internal/metrics"
)

const (
	DefaultInterval          = 5 * time.Second
	DefaultHighlightDuration = 800 * time.Millisecond
	MaxNewIDs                = 10
)

// Source fetches one page of usage logs. The client package implements it.
type Source interface {
	GetUsageLogs(ctx context.Context, f logfilter.Filters) (*models.UsageLogPage, error)
}

// Trigger names what caused a fetch.
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerTick    Trigger = "tick"
	TriggerManual  Trigger = "manual"
	TriggerVisible Trigger = "visible"
	TriggerFilters Trigger = "filters"
	TriggerPage    Trigger = "page"
)

// isRefresh reports whether the trigger re-fetches the same query. Only refreshes
// diff against the previous snapshot, and only refreshes are skipped while a fetch is pending.
func (t Trigger) isRefresh() bool {
	switch t {
	case TriggerTick, TriggerManual, TriggerVisible:
		return true
	}
	return false
}

// Snapshot is the state the log table renders from.
type Snapshot struct {
	Logs        []models.UsageLog
	Total       int64
	NewIDs      []int64 // rows new since the previous refresh, at most MaxNewIDs
	Highlighted []int64 // NewIDs until the highlight expires
	Filters     logfilter.Filters
	Loading     bool
	Err         error
	AutoRefresh bool
	UpdatedAt   time.Time
}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Interval          time.Duration
	HighlightDuration time.Duration
	AutoRefresh       bool
	// OnAutoRefreshDisabled runs once each time paging past page 1 turns auto refresh off.
	OnAutoRefreshDisabled func()
}

// Controller schedules usage-log fetches and maintains the new-row baseline.
type Controller struct {
	source         Source
	interval       time.Duration
	highlightFor   time.Duration
	onAutoDisabled func()
	resetTicker    chan struct{}

	mu           sync.Mutex
	filters      logfilter.Filters
	known        map[int64]struct{} // nil until a fetch for the current query succeeds
	autoRefresh  bool
	visible      bool
	pending      bool
	generation   uint64
	cancel       context.CancelFunc
	highlightSeq uint64
	highlight    *time.Timer
	highlighting bool // a highlight is shown and its timer has not fired
	snapshot     Snapshot
	subscribers  map[chan Snapshot]struct{}
}

// New creates a controller for the given filters.
func New(source Source, filters logfilter.Filters, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.HighlightDuration <= 0 {
		opts.HighlightDuration = DefaultHighlightDuration
	}
	c := &Controller{
		source:         source,
		interval:       opts.Interval,
		highlightFor:   opts.HighlightDuration,
		onAutoDisabled: opts.OnAutoRefreshDisabled,
		resetTicker:    make(chan struct{}, 1),
		filters:        filters,
		autoRefresh:    opts.AutoRefresh && filters.CurrentPage() == 1,
		visible:        true,
		subscribers:    make(map[chan Snapshot]struct{}),
	}
	c.snapshot = Snapshot{Filters: filters, AutoRefresh: c.autoRefresh}
	return c
}

// DiffNewIDs returns the ids of rows not present in known, in row order, capped at limit.
func DiffNewIDs(known map[int64]struct{}, rows []models.UsageLog, limit int) []int64 {
	var ids []int64
	for _, row := range rows {
		if len(ids) >= limit {
			break
		}
		if _, ok := known[row.ID]; !ok {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

// Run drives the periodic refresh until ctx is done. Ticks are ignored while auto
// refresh is off or the view is hidden.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.cancelPending()
			return
		case <-c.resetTicker:
			ticker.Reset(c.interval)
		case <-ticker.C:
			if c.shouldPoll() {
				c.Tick(ctx)
			}
		}
	}
}

func (c *Controller) shouldPoll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoRefresh && c.visible
}

// Load performs the first fetch for the current filters.
func (c *Controller) Load(ctx context.Context) error {
	return c.fetch(ctx, TriggerInitial)
}

// Tick performs one scheduled refresh.
func (c *Controller) Tick(ctx context.Context) error {
	return c.fetch(ctx, TriggerTick)
}

// Refresh performs a manual refresh.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, TriggerManual)
}

// SetFilters replaces the query, keeping the page from f. The baseline is reset
// so rows of the new query are not flagged as new, and any pending fetch is superseded.
func (c *Controller) SetFilters(ctx context.Context, f logfilter.Filters) error {
	c.mu.Lock()
	c.filters = f
	c.known = nil
	disabled := c.enforcePageGuardLocked()
	c.mu.Unlock()

	c.notifyAutoDisabled(disabled)
	return c.fetch(ctx, TriggerFilters)
}

// SetPage switches to another page of the current query. Moving past page 1
// turns auto refresh off.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	c.mu.Lock()
	c.filters.Page = page
	c.known = nil
	disabled := c.enforcePageGuardLocked()
	c.mu.Unlock()

	c.notifyAutoDisabled(disabled)
	return c.fetch(ctx, TriggerPage)
}

// enforcePageGuardLocked turns auto refresh off past page 1 and reports whether it changed.
func (c *Controller) enforcePageGuardLocked() bool {
	if c.filters.CurrentPage() > 1 && c.autoRefresh {
		c.autoRefresh = false
		c.snapshot.AutoRefresh = false
		c.publishLocked()
		return true
	}
	return false
}

func (c *Controller) notifyAutoDisabled(disabled bool) {
	if disabled {
		log.Printf("[Poller] Auto refresh disabled on page %d", c.Filters().CurrentPage())
		if c.onAutoDisabled != nil {
			c.onAutoDisabled()
		}
	}
}

// SetAutoRefresh toggles periodic refresh. Enabling is refused past page 1; the
// returned value is the resulting state.
func (c *Controller) SetAutoRefresh(enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enabled && c.filters.CurrentPage() > 1 {
		enabled = false
	}
	if c.autoRefresh != enabled {
		c.autoRefresh = enabled
		c.snapshot.AutoRefresh = enabled
		c.publishLocked()
	}
	return c.autoRefresh
}

// SetVisible suspends polling while the view is hidden. Becoming visible with auto
// refresh on fetches immediately and restarts the cadence.
func (c *Controller) SetVisible(ctx context.Context, visible bool) error {
	c.mu.Lock()
	wasVisible := c.visible
	c.visible = visible
	resume := visible && !wasVisible && c.autoRefresh
	c.mu.Unlock()

	if !resume {
		return nil
	}
	select {
	case c.resetTicker <- struct{}{}:
	default:
	}
	return c.fetch(ctx, TriggerVisible)
}

// Filters returns the current query.
func (c *Controller) Filters() logfilter.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Subscribe returns a channel that always holds the most recent snapshot, and a
// function that ends the subscription.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshot
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subscribers, ch)
		c.mu.Unlock()
	}
}

func (c *Controller) publishLocked() {
	for ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- c.snapshot
	}
}

func (c *Controller) cancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pending = false
	c.generation++
}

func (c *Controller) fetch(parent context.Context, trigger Trigger) error {
	c.mu.Lock()
	if trigger.isRefresh() && c.pending {
		c.mu.Unlock()
		metrics.PollsTotal.WithLabelValues(string(trigger), "skipped").Inc()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.pending = true
	filters := c.filters
	detect := trigger.isRefresh() && c.known != nil
	c.snapshot.Loading = true
	c.publishLocked()
	c.mu.Unlock()

	start := time.Now()
	page, err := c.source.GetUsageLogs(ctx, filters)
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		metrics.PollsTotal.WithLabelValues(string(trigger), "stale").Inc()
		return nil
	}
	c.pending = false
	c.cancel = nil

	if err == nil && page == nil {
		err = errors.New("empty usage log response")
	}
	if err != nil {
		metrics.PollsTotal.WithLabelValues(string(trigger), "error").Inc()
		log.Printf("[Poller] %s fetch failed: %v", trigger, err)
		c.snapshot.Loading = false
		c.snapshot.Err = err
		c.publishLocked()
		return err
	}

	var newIDs []int64
	if detect {
		newIDs = DiffNewIDs(c.known, page.Logs, MaxNewIDs)
	}
	known := make(map[int64]struct{}, len(page.Logs))
	for _, row := range page.Logs {
		known[row.ID] = struct{}{}
	}
	c.known = known

	highlighted := newIDs
	switch {
	case len(newIDs) > 0:
	case detect && c.highlighting:
		highlighted = c.snapshot.Highlighted
	default:
		c.stopHighlightLocked()
	}

	c.snapshot = Snapshot{
		Logs:        page.Logs,
		Total:       page.Total,
		NewIDs:      newIDs,
		Highlighted: highlighted,
		Filters:     filters,
		AutoRefresh: c.autoRefresh,
		UpdatedAt:   time.Now(),
	}
	if len(newIDs) > 0 {
		metrics.NewRowsHighlighted.Add(float64(len(newIDs)))
		c.scheduleHighlightClearLocked()
	}
	metrics.PollsTotal.WithLabelValues(string(trigger), "ok").Inc()
	c.publishLocked()
	return nil
}

func (c *Controller) scheduleHighlightClearLocked() {
	if c.highlight != nil {
		c.highlight.Stop()
	}
	c.highlightSeq++
	c.highlighting = true
	seq := c.highlightSeq
	c.highlight = time.AfterFunc(c.highlightFor, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.highlightSeq {
			return
		}
		c.highlighting = false
		c.snapshot.Highlighted = nil
		c.publishLocked()
	})
}

func (c *Controller) stopHighlightLocked() {
	if c.highlight != nil {
		c.highlight.Stop()
	}
	c.highlightSeq++
	c.highlighting = false
}
