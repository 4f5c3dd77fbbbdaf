package providerform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
)

var (
	ErrSubmitPending = errors.New("providerform: submit already in progress")
	ErrIncomplete    = errors.New("providerform: name and url are required")
	ErrNotConfirming = errors.New("providerform: no submit awaiting confirmation")
)

// Saver persists providers. The admin API client implements it.
type Saver interface {
	AddProvider(ctx context.Context, p models.Provider) (*models.Provider, error)
	EditProvider(ctx context.Context, id int64, p models.Provider) (*models.Provider, error)
}

// SubmitResult tells the caller what a submit did.
type SubmitResult string

const (
	SubmitSaved             SubmitResult = "saved"
	SubmitNeedsConfirmation SubmitResult = "needs_confirmation"
)

// Form binds a FormState to its reducer, tab tracker and Saver. It is safe for
// concurrent use.
type Form struct {
	saver Saver
	now   func() time.Time

	mu    sync.Mutex
	state FormState
	tabs  *TabTracker
}

// NewForm creates an empty create form.
func NewForm(saver Saver) *Form {
	return &Form{saver: saver, now: time.Now, state: DefaultState(), tabs: NewTabTracker()}
}

// NewEditForm creates a form editing p.
func NewEditForm(saver Saver, p models.Provider) *Form {
	f := NewForm(saver)
	f.state = FromProvider(p)
	return f
}

// Dispatch applies a and returns the new state.
func (f *Form) Dispatch(a Action) FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Reduce(f.state, a)
	return f.state
}

// State returns the current state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// TabStatus derives the tab hints from the current state.
func (f *Form) TabStatus() map[Tab]TabStatus {
	return DeriveTabStatus(f.State())
}

// RegisterSection records a tab anchor for scroll inference.
func (f *Form) RegisterSection(tab Tab, offset float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs.Register(tab, offset)
}

// ClickTab activates tab and returns where the content should scroll to.
func (f *Form) ClickTab(tab Tab) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	offset, ok := f.tabs.Click(tab, f.now())
	f.state = Reduce(f.state, SetActiveTab{Value: tab})
	return offset, ok
}

// Scrolled updates the active tab from the scroll position. The state only
// changes when the inferred tab differs.
func (f *Form) Scrolled(scrollTop float64) (Tab, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab, changed := f.tabs.OnScroll(scrollTop, f.now())
	if changed {
		f.state = Reduce(f.state, SetActiveTab{Value: tab})
	}
	return tab, changed
}

// Submit saves the provider, or opens the confirmation dialog when the circuit
// breaker settings need a second look.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if f.state.UI.IsPending {
		f.mu.Unlock()
		return "", ErrSubmitPending
	}
	if f.state.Basic.Name == "" || f.state.Basic.URL == "" {
		f.mu.Unlock()
		return "", ErrIncomplete
	}
	if NeedsConfirmation(f.state) {
		f.state = Reduce(f.state, SetShowConfirmDialog{Value: true})
		f.mu.Unlock()
		return SubmitNeedsConfirmation, nil
	}
	f.mu.Unlock()
	return f.save(ctx)
}

// Confirm closes the confirmation dialog and performs the save.
func (f *Form) Confirm(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if !f.state.UI.ShowConfirmDialog {
		f.mu.Unlock()
		return "", ErrNotConfirming
	}
	f.state = Reduce(f.state, SetShowConfirmDialog{Value: false})
	f.mu.Unlock()
	return f.save(ctx)
}

// CancelConfirm closes the confirmation dialog without saving.
func (f *Form) CancelConfirm() {
	f.Dispatch(SetShowConfirmDialog{Value: false})
}

func (f *Form) save(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if f.state.UI.IsPending {
		f.mu.Unlock()
		return "", ErrSubmitPending
	}
	f.state = Reduce(f.state, SetPending{Value: true})
	snapshot := f.state
	f.mu.Unlock()

	payload := ToProvider(snapshot)
	var (
		saved *models.Provider
		err   error
	)
	if snapshot.Mode == ModeEdit {
		saved, err = f.saver.EditProvider(ctx, snapshot.ProviderID, payload)
	} else {
		saved, err = f.saver.AddProvider(ctx, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Reduce(f.state, SetPending{Value: false})
	if err != nil {
		log.Printf("[ProviderForm] Save of %q failed: %v", payload.Name, err)
		return "", fmt.Errorf("save provider: %w", err)
	}
	if saved != nil {
		tab := f.state.UI.ActiveTab
		f.state = Reduce(f.state, LoadProvider{Provider: *saved})
		f.state.UI.ActiveTab = tab
	}
	return SubmitSaved, nil
}
