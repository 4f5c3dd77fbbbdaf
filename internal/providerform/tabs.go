package providerform

import (
	"math"
	"net/url"
	"strings"
	"time"
)

// Tab is a section of the provider editor.
type Tab string

const (
	TabBasic   Tab = "basic"
	TabRouting Tab = "routing"
	TabLimits  Tab = "limits"
	TabNetwork Tab = "network"
	TabTesting Tab = "testing"
)

// Tabs lists the editor sections in display order.
var Tabs = []Tab{TabBasic, TabRouting, TabLimits, TabNetwork, TabTesting}

// TabStatus is a hint shown next to a tab label.
type TabStatus string

const (
	TabStatusDefault    TabStatus = "default"
	TabStatusConfigured TabStatus = "configured"
	TabStatusWarning    TabStatus = "warning"
)

const (
	// ScrollSuppression is how long scroll events are ignored after a tab click.
	ScrollSuppression = 500 * time.Millisecond

	maxUnconfirmedFailureThreshold = 20
)

// NeedsConfirmation reports whether saving must be confirmed first: a failure
// threshold of 0 disables the breaker, one above 20 rarely trips.
func NeedsConfirmation(s FormState) bool {
	th := s.CircuitBreaker.FailureThreshold
	return th == 0 || th > maxUnconfirmedFailureThreshold
}

// DeriveTabStatus computes the hint for every tab from s.
func DeriveTabStatus(s FormState) map[Tab]TabStatus {
	return map[Tab]TabStatus{
		TabBasic:   basicStatus(s),
		TabRouting: routingStatus(s),
		TabLimits:  limitsStatus(s),
		TabNetwork: networkStatus(s),
		TabTesting: testingStatus(s),
	}
}

func basicStatus(s FormState) TabStatus {
	b := s.Basic
	if strings.TrimSpace(b.Name) == "" || !validHTTPURL(b.URL) {
		return TabStatusWarning
	}
	if s.Mode == ModeCreate && strings.TrimSpace(b.Key) == "" {
		return TabStatusWarning
	}
	return TabStatusConfigured
}

func routingStatus(s FormState) TabStatus {
	r := s.Routing
	if r.Weight < 1 {
		return TabStatusWarning
	}
	if r.Weight != 1 || r.Priority != 0 || r.CostMultiplier != 1 || r.GroupTag != "" ||
		len(r.ModelRedirects) > 0 || len(r.AllowedModels) > 0 || r.PreserveClientIP || r.MaxRetryAttempts != nil {
		return TabStatusConfigured
	}
	return TabStatusDefault
}

func limitsStatus(s FormState) TabStatus {
	if NeedsConfirmation(s) {
		return TabStatusWarning
	}
	l := s.RateLimit
	cb := s.CircuitBreaker
	if l.Limit5hUSD != nil || l.LimitDailyUSD != nil || l.LimitWeeklyUSD != nil || l.LimitMonthlyUSD != nil ||
		l.LimitTotalUSD != nil || l.LimitConcurrentSessions != nil || l.DailyResetTime != "" ||
		cb.FailureThreshold != DefaultFailureThreshold || cb.OpenDurationMs != DefaultOpenDurationMs ||
		cb.HalfOpenSuccessThreshold != DefaultHalfOpenSuccessThreshold {
		return TabStatusConfigured
	}
	return TabStatusDefault
}

func networkStatus(s FormState) TabStatus {
	n := s.Network
	if n.ProxyURL != "" {
		u, err := url.Parse(n.ProxyURL)
		if err != nil || u.Host == "" {
			return TabStatusWarning
		}
	}
	if s.MCP.PassthroughType == "custom" && !validHTTPURL(s.MCP.PassthroughURL) {
		return TabStatusWarning
	}
	if n.ProxyURL != "" || n.FirstByteTimeoutStreamingMs != 0 || n.StreamingIdleTimeoutMs != 0 ||
		n.RequestTimeoutNonStreamingMs != 0 || (s.MCP.PassthroughType != "" && s.MCP.PassthroughType != "none") {
		return TabStatusConfigured
	}
	return TabStatusDefault
}

func testingStatus(s FormState) TabStatus {
	if !validHTTPURL(s.Basic.URL) {
		return TabStatusWarning
	}
	return TabStatusDefault
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// Section is a tab's anchor: its offset from the top of the scrollable content.
type Section struct {
	Tab    Tab
	Offset float64
}

// TabTracker keeps the active tab in sync with clicks and scrolling.
// It is not safe for concurrent use.
type TabTracker struct {
	sections      []Section
	active        Tab
	suppressUntil time.Time
}

// NewTabTracker starts on the first tab.
func NewTabTracker() *TabTracker {
	return &TabTracker{active: TabBasic}
}

// Register records or moves a tab's anchor.
func (t *TabTracker) Register(tab Tab, offset float64) {
	for i := range t.sections {
		if t.sections[i].Tab == tab {
			t.sections[i].Offset = offset
			return
		}
	}
	t.sections = append(t.sections, Section{Tab: tab, Offset: offset})
}

// Active returns the highlighted tab.
func (t *TabTracker) Active() Tab {
	return t.active
}

// Click activates tab and returns the scroll position to jump to. Scroll events
// for the next ScrollSuppression are not used to infer the tab.
func (t *TabTracker) Click(tab Tab, now time.Time) (float64, bool) {
	t.active = tab
	t.suppressUntil = now.Add(ScrollSuppression)
	for _, s := range t.sections {
		if s.Tab == tab {
			return s.Offset, true
		}
	}
	return 0, false
}

// OnScroll infers the tab whose anchor is closest to scrollTop. It returns the
// active tab and whether it changed.
func (t *TabTracker) OnScroll(scrollTop float64, now time.Time) (Tab, bool) {
	if now.Before(t.suppressUntil) || len(t.sections) == 0 {
		return t.active, false
	}

	closest := t.sections[0]
	best := math.Abs(closest.Offset - scrollTop)
	for _, s := range t.sections[1:] {
		if d := math.Abs(s.Offset - scrollTop); d < best {
			closest, best = s, d
		}
	}
	if closest.Tab == t.active {
		return t.active, false
	}
	t.active = closest.Tab
	return t.active, true
}
